package planner

import (
	"context"
	"errors"
	"log/slog"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/tbxark/ticketagent/catalog"
	"github.com/tbxark/ticketagent/structured"
	"github.com/tbxark/ticketagent/types"
)

const (
	planToolName        = "submit_ticket_plan"
	planToolDescription = "Submit the 1-3 catalog ticket types that satisfy the user's request. Leave every form empty."
)

// ToolPlanner forces the plan through a tool call so the arguments arrive as structured JSON.
type ToolPlanner struct {
	catalog *catalog.Catalog
	chain   *structured.Chain[*Request, draftPlan]
}

func NewToolPlanner(cat *catalog.Catalog, chatModel model.ToolCallingChatModel) (*ToolPlanner, error) {
	if cat == nil || chatModel == nil {
		return nil, errors.New("tool planner needs a catalog and a chat model")
	}
	p := &ToolPlanner{catalog: cat}
	chain, err := structured.NewChain[*Request, draftPlan](
		chatModel,
		p.buildPrompt,
		planToolName,
		planToolDescription,
		model.WithTemperature(planTemperature),
		model.WithMaxTokens(planMaxTokens),
	)
	if err != nil {
		return nil, err
	}
	p.chain = chain
	return p, nil
}

func (p *ToolPlanner) Plan(ctx context.Context, req *Request) (*types.TicketPlan, error) {
	draft, raw, err := p.chain.Invoke(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, &types.PlanningError{Reason: "tool call failed", Raw: raw, Err: err}
	}
	slog.Debug("Planner tool arguments", "raw", raw)
	return buildPlan(p.catalog, req, draft, raw)
}

func (p *ToolPlanner) buildPrompt(ctx context.Context, req *Request) ([]*schema.Message, error) {
	slice, err := catalogContext(p.catalog.Slice(req.Text))
	if err != nil {
		return nil, err
	}
	system := systemPrompt(req, "") + "\n\nCall the '" + planToolName + "' tool with the result."
	return []*schema.Message{
		schema.SystemMessage(system),
		schema.AssistantMessage(slice, nil),
		schema.UserMessage(req.Text),
	}, nil
}

// FailbackPlanner tries each planner in order and returns the first plan produced.
type FailbackPlanner struct {
	planners []Planner
}

func NewFailbackPlanner(planners ...Planner) *FailbackPlanner {
	return &FailbackPlanner{planners: planners}
}

func (p *FailbackPlanner) Plan(ctx context.Context, req *Request) (*types.TicketPlan, error) {
	var lastErr error
	for _, planner := range p.planners {
		plan, err := planner.Plan(ctx, req)
		if err == nil {
			return plan, nil
		}
		if ctx.Err() != nil {
			return nil, err
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = &types.PlanningError{Reason: "no planner configured"}
	}
	return nil, lastErr
}
