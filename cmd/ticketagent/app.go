package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/schema"
	"github.com/tbxark/ticketagent/agent"
	"github.com/tbxark/ticketagent/catalog"
	"github.com/tbxark/ticketagent/coerce"
	"github.com/tbxark/ticketagent/config"
	"github.com/tbxark/ticketagent/llm"
	"github.com/tbxark/ticketagent/patch"
	"github.com/tbxark/ticketagent/planner"
	badgerstore "github.com/tbxark/ticketagent/storage/badger"
	"github.com/tbxark/ticketagent/storage/sqlite"
	"github.com/tbxark/ticketagent/summary"
	"github.com/tbxark/ticketagent/types"
)

type app struct {
	config  *config.Config
	catalog *catalog.Catalog
	engine  *agent.Engine
	closers []func() error
	// sweep drops expired sessions from the memory store; nil for the other drivers.
	sweep func() int
}

func loadCatalog(cfg *config.Config) (*catalog.Catalog, error) {
	if cfg.CatalogPath == "" {
		return catalog.Default()
	}
	return catalog.Load(cfg.CatalogPath)
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	slog.SetLogLoggerLevel(cfg.SlogLevel())
	cat, err := loadCatalog(cfg)
	if err != nil {
		return nil, err
	}
	cm, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:  cfg.LLM.APIKey,
		BaseURL: cfg.LLM.BaseURL,
		Model:   cfg.LLM.Model,
		Timeout: cfg.LLM.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("create chat model: %w", err)
	}
	completer := llm.NewChatModelCompleter(cm,
		llm.WithTimeout(cfg.LLM.Timeout),
		llm.WithRateLimit(cfg.LLM.RequestsPerSecond, cfg.LLM.Burst),
	)

	toolPlanner, err := planner.NewToolPlanner(cat, cm)
	if err != nil {
		return nil, err
	}
	textPlanner, err := planner.NewTextPlanner(cat, completer)
	if err != nil {
		return nil, err
	}

	a := &app{config: cfg, catalog: cat}
	storeOpts, err := a.openStore()
	if err != nil {
		return nil, err
	}
	engine, err := agent.NewEngine(
		cat,
		planner.NewFailbackPlanner(toolPlanner, textPlanner),
		patch.NewApplier(cat, coerce.New(coerce.WithCompleter(completer))),
		summary.NewGenerator(cat, completer, summary.WithConcurrency(cfg.LLM.Burst)),
		storeOpts...,
	)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.engine = engine
	return a, nil
}

func (a *app) openStore() ([]agent.EngineOption, error) {
	cfg := a.config.Store
	switch cfg.Driver {
	case config.StoreSQLite:
		st, err := sqlite.Open(cfg.Path)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, st.Close)
		slog.Info("Using sqlite session store", "path", cfg.Path)
		return []agent.EngineOption{agent.WithSessionStore(st), agent.WithTurnLog(st)}, nil
	case config.StoreBadger:
		db, err := badgerstore.Open(cfg.Path)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		slog.Info("Using badger session store", "path", cfg.Path, "ttl", cfg.SessionTTL)
		sessions := agent.NewCacheSessionStore(badgerstore.NewCache[*types.ConversationState](db, cfg.SessionTTL))
		turns := agent.NewHistoryStore(badgerstore.NewCache[[]*schema.Message](db, cfg.SessionTTL), nil)
		return []agent.EngineOption{agent.WithSessionStore(sessions), agent.WithTurnLog(turns)}, nil
	default:
		core := agent.NewMemoryCoreWithTTL[*types.ConversationState](cfg.SessionTTL)
		if cfg.SessionTTL > 0 {
			a.sweep = core.Sweep
		}
		return []agent.EngineOption{agent.WithSessionStore(agent.NewCacheSessionStore(core))}, nil
	}
}

func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}
