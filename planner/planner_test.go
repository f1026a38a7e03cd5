package planner

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/tbxark/ticketagent/catalog"
	"github.com/tbxark/ticketagent/llm"
	"github.com/tbxark/ticketagent/types"
)

func defaultCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.Default()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	return c
}

type recordingCompleter struct {
	reply string
	err   error
	req   *llm.Request
}

func (r *recordingCompleter) Complete(ctx context.Context, req *llm.Request) (string, error) {
	r.req = req
	return r.reply, r.err
}

const loanTapeReply = "```json\n" + `{
  "items": [
    {
      "service_area": "sre/production support",
      "category": "Financial Service Request",
      "ticket_type": "loan tape",
      "title": "Final loan tape for AAA",
      "description": "",
      "form": {"vendor_name": "AAA"},
      "labels": ["loan"]
    }
  ],
  "meta": {"request_text": "final loan tape for AAA"}
}` + "\n```"

func TestTextPlannerBuildsPlan(t *testing.T) {
	cat := defaultCatalog(t)
	rec := &recordingCompleter{reply: loanTapeReply}
	p, err := NewTextPlanner(cat, rec)
	if err != nil {
		t.Fatalf("NewTextPlanner: %v", err)
	}
	plan, err := p.Plan(context.Background(), &Request{Text: "final loan tape for AAA", Requester: "me@example.com"})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(plan.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(plan.Items))
	}
	item := plan.Items[0]
	if item.ServiceArea != "SRE/Production Support" || item.TicketType != "Loan Tape" {
		t.Errorf("triple not canonicalized: %+v", item)
	}
	if len(item.Form) != 0 {
		t.Errorf("form should start empty, got %v", item.Form)
	}
	if item.Description != "final loan tape for AAA" {
		t.Errorf("description should default to request text, got %q", item.Description)
	}
	if item.HasLabel(types.LabelNeedsTriage) {
		t.Errorf("catalog item must not need triage")
	}
	if plan.Meta.Requester != "me@example.com" || plan.Meta.CatalogVersion != cat.Version() {
		t.Errorf("unexpected meta: %+v", plan.Meta)
	}

	if rec.req.Name != "planner" || !rec.req.JSON {
		t.Errorf("unexpected request: name=%q json=%v", rec.req.Name, rec.req.JSON)
	}
	if rec.req.Temperature != 0.2 || rec.req.MaxTokens != 4096 {
		t.Errorf("unexpected settings: %v %d", rec.req.Temperature, rec.req.MaxTokens)
	}
	if len(rec.req.Context) != 1 || !strings.Contains(rec.req.Context[0].Content, "Loan Tape") {
		t.Errorf("catalog slice missing from context")
	}
	if !strings.Contains(rec.req.SystemPrompt, "me@example.com") {
		t.Errorf("requester missing from system prompt")
	}
}

func TestTextPlannerMarksUnknownTypes(t *testing.T) {
	rec := &recordingCompleter{reply: `Sure! {"items":[{"service_area":"Facilities","category":"Desks","ticket_type":"Standing Desk","title":""}]}`}
	p, _ := NewTextPlanner(defaultCatalog(t), rec)
	plan, err := p.Plan(context.Background(), &Request{Text: "I need a standing desk"})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	item := plan.Items[0]
	if !item.HasLabel(types.LabelNeedsTriage) {
		t.Errorf("expected needs-triage label, got %v", item.Labels)
	}
	if item.TicketType != "Standing Desk" || item.Title != "Standing Desk" {
		t.Errorf("unexpected item: %+v", item)
	}
}

func TestTextPlannerCapsItems(t *testing.T) {
	one := `{"service_area":"SRE/Production Support","category":"IT Service Requests","ticket_type":"JAMS Batch Job Request"}`
	reply := `{"items":[` + strings.Repeat(one+",", 4) + one + `]}`
	p, _ := NewTextPlanner(defaultCatalog(t), &recordingCompleter{reply: reply})
	plan, err := p.Plan(context.Background(), &Request{Text: "jams"})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(plan.Items) != MaxItems {
		t.Errorf("expected %d items, got %d", MaxItems, len(plan.Items))
	}
}

func TestTextPlannerErrors(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		err   error
	}{
		{name: "prose", reply: "I cannot help with that."},
		{name: "broken json", reply: `{"items": [`},
		{name: "no items", reply: `{"items": []}`},
		{name: "model failure", err: errors.New("upstream 500")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _ := NewTextPlanner(defaultCatalog(t), &recordingCompleter{reply: tt.reply, err: tt.err})
			_, err := p.Plan(context.Background(), &Request{Text: "help"})
			var pe *types.PlanningError
			if !errors.As(err, &pe) {
				t.Fatalf("expected PlanningError, got %v", err)
			}
			if pe.Raw != tt.reply {
				t.Errorf("raw reply not kept: %q", pe.Raw)
			}
		})
	}
}

type toolChatModel struct {
	arguments string
	options   *model.Options
}

func (m *toolChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	m.options = model.GetCommonOptions(nil, opts...)
	return &schema.Message{
		Role: schema.Assistant,
		ToolCalls: []schema.ToolCall{{
			Function: schema.FunctionCall{Name: planToolName, Arguments: m.arguments},
		}},
	}, nil
}

func (m *toolChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not implemented")
}

func (m *toolChatModel) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	return m, nil
}

func TestToolPlanner(t *testing.T) {
	cm := &toolChatModel{arguments: `{"items":[{"service_area":"SRE/Production Support","category":"it service requests","ticket_type":"xmatters consultation request","title":"xMatters group"}]}`}
	p, err := NewToolPlanner(defaultCatalog(t), cm)
	if err != nil {
		t.Fatalf("NewToolPlanner: %v", err)
	}
	plan, err := p.Plan(context.Background(), &Request{Text: "add me to xmatters"})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if plan.Items[0].TicketType != "XMatters consultation request" || plan.Items[0].Category != "IT Service Requests" {
		t.Errorf("unexpected item: %+v", plan.Items[0])
	}
	if cm.options.ToolChoice == nil || *cm.options.ToolChoice != schema.ToolChoiceForced {
		t.Errorf("tool call was not forced")
	}
	if cm.options.Temperature == nil || *cm.options.Temperature != 0.2 {
		t.Errorf("temperature not passed")
	}
}

type stubPlanner struct {
	plan  *types.TicketPlan
	err   error
	calls int
}

func (s *stubPlanner) Plan(ctx context.Context, req *Request) (*types.TicketPlan, error) {
	s.calls++
	return s.plan, s.err
}

func TestFailbackPlanner(t *testing.T) {
	first := &stubPlanner{err: &types.PlanningError{Reason: "bad"}}
	second := &stubPlanner{plan: &types.TicketPlan{Items: []types.TicketItem{{TicketType: "JAMS"}}}}
	third := &stubPlanner{}
	plan, err := NewFailbackPlanner(first, second, third).Plan(context.Background(), &Request{Text: "x"})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if plan.Items[0].TicketType != "JAMS" {
		t.Errorf("unexpected plan: %+v", plan)
	}
	if first.calls != 1 || second.calls != 1 || third.calls != 0 {
		t.Errorf("unexpected call counts: %d %d %d", first.calls, second.calls, third.calls)
	}

	_, err = NewFailbackPlanner(first).Plan(context.Background(), &Request{Text: "x"})
	var pe *types.PlanningError
	if !errors.As(err, &pe) {
		t.Errorf("expected last error to surface, got %v", err)
	}
}
