// Package summary writes the short synopsis stored in each ticket's summary field.
package summary

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/tbxark/ticketagent/catalog"
	"github.com/tbxark/ticketagent/llm"
	"github.com/tbxark/ticketagent/types"
	"github.com/tbxark/ticketagent/validator"
	"golang.org/x/sync/errgroup"
)

const (
	MaxLength = 75
	// truncated summaries keep this many runes plus an ellipsis
	truncateAt = 72

	temperature = 0.3
	maxTokens   = 100
)

const systemPrompt = `You are a Ticket Summary Generator.
Generate a concise, descriptive summary (max 75 characters) for a support ticket based on the ticket type and filled form data.

Rules:
- Keep the summary under 75 characters.
- Be specific and actionable; focus on the main request.
- Use the ticket type and the key form fields.
- Avoid generic terms like "issue" or "problem" unless specific.

Examples:
- "Datadog log setup for payment-service"
- "SFTP connection for Pagaya investor"
- "Loan tape rerun for Q1 2024"

Return ONLY the summary text, no JSON or other formatting.`

var errEmptySummary = errors.New("model returned an empty summary")

type Generator struct {
	catalog     *catalog.Catalog
	completer   llm.Completer
	concurrency int
}

type Option func(*Generator)

// WithConcurrency bounds how many items are summarized at once.
func WithConcurrency(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.concurrency = n
		}
	}
}

// NewGenerator builds a generator. A nil completer always yields the fallback summary.
func NewGenerator(cat *catalog.Catalog, completer llm.Completer, opts ...Option) *Generator {
	g := &Generator{catalog: cat, completer: completer, concurrency: 3}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Apply returns a copy of plan where every item with a blank summary has one.
// Model failures degrade to the fallback; only cancellation is returned as an error,
// in which case plan is left as it was.
func (g *Generator) Apply(ctx context.Context, plan *types.TicketPlan) (*types.TicketPlan, error) {
	if plan == nil {
		return nil, nil
	}
	summaries := make([]string, len(plan.Items))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.concurrency)
	for i, item := range plan.Items {
		if !validator.IsBlank(item.Form[catalog.SummaryField]) {
			continue
		}
		eg.Go(func() error {
			summaries[i] = g.Generate(egCtx, item)
			return egCtx.Err()
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := plan.Clone()
	for i, s := range summaries {
		if s == "" {
			continue
		}
		if out.Items[i].Form == nil {
			out.Items[i].Form = map[string]any{}
		}
		out.Items[i].Form[catalog.SummaryField] = s
	}
	return out, nil
}

// Generate asks the model for one item's summary, falling back to "{ticket type} request".
func (g *Generator) Generate(ctx context.Context, item types.TicketItem) string {
	s, err := g.generate(ctx, item)
	if err != nil {
		failure := &types.SummaryGenerationFailure{TicketType: item.TicketType, Err: err}
		slog.Warn("Using fallback summary", "error", failure)
		return Fallback(item.TicketType)
	}
	return s
}

func (g *Generator) generate(ctx context.Context, item types.TicketItem) (string, error) {
	if g.completer == nil {
		return "", errors.New("no language model configured")
	}
	reply, err := g.completer.Complete(ctx, &llm.Request{
		Name:         "summary",
		SystemPrompt: systemPrompt,
		UserPrompt:   "Generate a summary for this ticket:\n\n" + g.context(item),
		Temperature:  temperature,
		MaxTokens:    maxTokens,
	})
	if err != nil {
		return "", err
	}
	s := llm.CleanReply(reply)
	if s == "" {
		return "", errEmptySummary
	}
	return Truncate(s), nil
}

// context lists the ticket type and the non-empty fields other than email and summary,
// in catalog order when the ticket type is known.
func (g *Generator) context(item types.TicketItem) string {
	lines := []string{"Ticket Type: " + item.TicketType}
	var names []string
	if spec, ok := g.catalog.Find(item.ServiceArea, item.Category, item.TicketType); ok {
		for _, f := range spec.Fields {
			names = append(names, f.Name)
		}
	} else {
		for name := range item.Form {
			names = append(names, name)
		}
		slices.Sort(names)
	}
	for _, name := range names {
		if name == catalog.EmailField || name == catalog.SummaryField {
			continue
		}
		v, ok := item.Form[name]
		if !ok || validator.IsBlank(v) {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: %s", name, formatValue(v)))
	}
	return strings.Join(lines, "\n")
}

func formatValue(v any) string {
	switch x := v.(type) {
	case []string:
		return strings.Join(x, ", ")
	case []any:
		parts := make([]string, len(x))
		for i, p := range x {
			parts[i] = fmt.Sprint(p)
		}
		return strings.Join(parts, ", ")
	}
	return fmt.Sprint(v)
}

// Fallback is the deterministic summary used when the model cannot provide one.
func Fallback(ticketType string) string {
	return Truncate(strings.TrimSpace(ticketType) + " request")
}

// Truncate caps s at MaxLength runes, cutting to 72 runes plus "..." when longer.
func Truncate(s string) string {
	if utf8.RuneCountInString(s) <= MaxLength {
		return s
	}
	runes := []rune(s)
	return string(runes[:truncateAt]) + "..."
}
