package agent

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/adk"
	"github.com/cloudwego/eino/schema"
)

var _ adk.Agent = (*TicketAgent)(nil)

// TicketAgent exposes the engine as an adk agent. The session is taken from
// the context (see WithSessionID) and the last input message is the user turn.
type TicketAgent struct {
	name        string
	description string
	engine      *Engine
}

func NewTicketAgent(name, description string, engine *Engine) *TicketAgent {
	return &TicketAgent{
		name:        name,
		description: description,
		engine:      engine,
	}
}

func (a *TicketAgent) Name(ctx context.Context) string {
	return a.name
}

func (a *TicketAgent) Description(ctx context.Context) string {
	return a.description
}

func (a *TicketAgent) Run(ctx context.Context, input *adk.AgentInput, options ...adk.AgentRunOption) *adk.AsyncIterator[*adk.AgentEvent] {
	iter, gen := adk.NewAsyncIteratorPair[*adk.AgentEvent]()
	go func() {
		defer func() {
			e := recover()
			if e != nil {
				gen.Send(&adk.AgentEvent{
					Err: fmt.Errorf("recover from panic: %v", e),
				})
			}
			gen.Close()
		}()
		sessionID, ok := SessionIDFromContext(ctx)
		if !ok {
			gen.Send(&adk.AgentEvent{Err: fmt.Errorf("no session id in context")})
			return
		}
		if input == nil || len(input.Messages) == 0 {
			gen.Send(&adk.AgentEvent{Err: fmt.Errorf("no messages in input")})
			return
		}
		resp, err := a.engine.Invoke(ctx, &Request{
			SessionID: sessionID,
			Text:      input.Messages[len(input.Messages)-1].Content,
			Requester: RequesterFromContext(ctx),
		})
		if err != nil {
			gen.Send(&adk.AgentEvent{Err: fmt.Errorf("engine invoke failed: %w", err)})
			return
		}
		gen.Send(&adk.AgentEvent{
			AgentName: a.name,
			Output: &adk.AgentOutput{
				MessageOutput: &adk.MessageVariant{
					IsStreaming: false,
					Message:     schema.AssistantMessage(resp.Message, nil),
					Role:        schema.Assistant,
				},
				CustomizedOutput: resp,
			},
		})
	}()
	return iter
}
