package testcases

import (
	"context"
	"os"
	"testing"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/tbxark/ticketagent/agent"
	"github.com/tbxark/ticketagent/catalog"
	"github.com/tbxark/ticketagent/coerce"
	"github.com/tbxark/ticketagent/config"
	"github.com/tbxark/ticketagent/llm"
	"github.com/tbxark/ticketagent/patch"
	"github.com/tbxark/ticketagent/planner"
	"github.com/tbxark/ticketagent/summary"
	"github.com/tbxark/ticketagent/types"
)

const requester = "qa.requester@example.com"

func loadLiveConfig(t *testing.T) *config.Config {
	t.Helper()
	if os.Getenv("TICKETAGENT_RUN_LIVE_TESTS") != "1" {
		t.Skip("set TICKETAGENT_RUN_LIVE_TESTS=1 to run live LLM tests")
	}
	cfg, err := config.LoadFile("../config.yaml")
	if err != nil {
		t.Skipf("failed to load config: %v", err)
	}
	return cfg
}

// NewTestEngine wires the same stack as the CLI against the configured model.
func NewTestEngine(t *testing.T) *agent.Engine {
	t.Helper()
	cfg := loadLiveConfig(t)
	ctx := context.Background()
	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	cm, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:  cfg.LLM.APIKey,
		BaseURL: cfg.LLM.BaseURL,
		Model:   cfg.LLM.Model,
		Timeout: cfg.LLM.Timeout,
	})
	if err != nil {
		t.Fatalf("failed to init chat model: %v", err)
	}
	completer := llm.NewChatModelCompleter(cm, llm.WithTimeout(cfg.LLM.Timeout))
	toolPlanner, err := planner.NewToolPlanner(cat, cm)
	if err != nil {
		t.Fatalf("NewToolPlanner: %v", err)
	}
	textPlanner, err := planner.NewTextPlanner(cat, completer)
	if err != nil {
		t.Fatalf("NewTextPlanner: %v", err)
	}
	engine, err := agent.NewEngine(
		cat,
		planner.NewFailbackPlanner(toolPlanner, textPlanner),
		patch.NewApplier(cat, coerce.New(coerce.WithCompleter(completer))),
		summary.NewGenerator(cat, completer),
	)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return engine
}

// answerUntilDone answers every question from answers by field name and fails
// on a question it has no answer for.
func answerUntilDone(t *testing.T, engine *agent.Engine, sessionID string, resp *agent.Response, answers map[string]string) *agent.Response {
	t.Helper()
	for turn := 0; resp.Status == types.StatusNeedMoreInfo; turn++ {
		if turn > 30 {
			t.Fatalf("conversation did not finish: %s", resp.Message)
		}
		answer, ok := answers[resp.Question.FieldName]
		if !ok {
			t.Fatalf("no answer prepared for %q (%s)", resp.Question.FieldName, resp.Message)
		}
		next, err := engine.Invoke(context.Background(), &agent.Request{SessionID: sessionID, Text: answer, Requester: requester})
		if err != nil {
			t.Fatalf("answer %q: %v", answer, err)
		}
		t.Logf("%s -> %s", answer, next.Message)
		resp = next
	}
	return resp
}
