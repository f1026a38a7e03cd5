package llm

import (
	"context"
	"strings"

	"github.com/cloudwego/eino/schema"
)

const jsonModeInstruction = "Respond with a single JSON object and nothing else. Do not wrap it in markdown."

// Request is one completion call. Name labels the call site in metrics and traces.
type Request struct {
	Name         string
	SystemPrompt string
	Context      []*schema.Message
	UserPrompt   string
	Temperature  float32
	MaxTokens    int
	// JSON asks the backend for a bare JSON object. Callers still clean the reply.
	JSON bool
}

// Completer is the language-model capability: given a prompt, return text.
type Completer interface {
	Complete(ctx context.Context, req *Request) (string, error)
}

type CompleterFunc func(ctx context.Context, req *Request) (string, error)

func (f CompleterFunc) Complete(ctx context.Context, req *Request) (string, error) {
	return f(ctx, req)
}

// Messages lays the request out as system, context turns, then the user prompt.
func (r *Request) Messages() []*schema.Message {
	system := r.SystemPrompt
	if r.JSON {
		system = strings.TrimSpace(system + "\n\n" + jsonModeInstruction)
	}
	messages := make([]*schema.Message, 0, len(r.Context)+2)
	if system != "" {
		messages = append(messages, schema.SystemMessage(system))
	}
	for _, m := range r.Context {
		if m != nil {
			messages = append(messages, m)
		}
	}
	return append(messages, schema.UserMessage(r.UserPrompt))
}
