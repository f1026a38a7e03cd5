package planner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cloudwego/eino/schema"
	"github.com/tbxark/ticketagent/catalog"
	"github.com/tbxark/ticketagent/llm"
	"github.com/tbxark/ticketagent/types"
)

const (
	planTemperature = 0.2
	planMaxTokens   = 4096
)

// TextPlanner asks the model for a JSON plan in plain text and cleans the reply.
type TextPlanner struct {
	catalog   *catalog.Catalog
	completer llm.Completer
	schema    string
}

func NewTextPlanner(cat *catalog.Catalog, completer llm.Completer) (*TextPlanner, error) {
	if cat == nil || completer == nil {
		return nil, errors.New("text planner needs a catalog and a completer")
	}
	s, err := outputSchema()
	if err != nil {
		return nil, err
	}
	return &TextPlanner{catalog: cat, completer: completer, schema: s}, nil
}

func (p *TextPlanner) Plan(ctx context.Context, req *Request) (*types.TicketPlan, error) {
	slice, err := catalogContext(p.catalog.Slice(req.Text))
	if err != nil {
		return nil, err
	}
	raw, err := p.completer.Complete(ctx, &llm.Request{
		Name:         "planner",
		SystemPrompt: systemPrompt(req, p.schema),
		Context:      []*schema.Message{schema.AssistantMessage(slice, nil)},
		UserPrompt:   req.Text,
		Temperature:  planTemperature,
		MaxTokens:    planMaxTokens,
		JSON:         true,
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, &types.PlanningError{Reason: "model call failed", Err: err}
	}
	slog.Debug("Planner reply", "raw", raw)

	draft, err := decodeDraft(raw)
	if err != nil {
		return nil, err
	}
	plan, err := buildPlan(p.catalog, req, draft, raw)
	if err != nil {
		return nil, fmt.Errorf("text planner: %w", err)
	}
	return plan, nil
}
