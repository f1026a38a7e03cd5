package coerce

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/tbxark/ticketagent/llm"
)

const noMatch = "NO_MATCH"

const choiceSystemPrompt = `You match a user's answer to one option from a fixed list.
Return ONLY the exact option text, nothing else.
If no option matches well, return NO_MATCH.`

var multiChoiceSeparator = regexp.MustCompile(`(?i)[,;|]|\band\b`)

// matchOption tries an exact case-insensitive match, then a substring match in either direction.
func matchOption(input string, options []string) (string, bool) {
	for _, opt := range options {
		if strings.EqualFold(opt, input) {
			return opt, true
		}
	}
	lower := strings.ToLower(input)
	for _, opt := range options {
		lo := strings.ToLower(strings.TrimSpace(opt))
		if lo == "" {
			continue
		}
		if strings.Contains(lower, lo) || strings.Contains(lo, lower) {
			return opt, true
		}
	}
	return "", false
}

// coerceChoice resolves input to a literal option. Fields without literal options
// accept the trimmed input as is.
func (c *Coercer) coerceChoice(ctx context.Context, input string, options []string) (string, resolution, error) {
	if len(options) == 0 {
		return input, resolvedLocally, nil
	}
	if opt, ok := matchOption(input, options); ok {
		return opt, resolvedLocally, nil
	}
	if c.completer == nil {
		return "", resolvedLocally, fmt.Errorf("%w: choose one of %s", ErrNoMatch, strings.Join(options, ", "))
	}
	opt, err := c.matchOptionWithModel(ctx, input, options)
	if err != nil {
		return "", resolvedByModel, err
	}
	return opt, resolvedByModel, nil
}

func (c *Coercer) matchOptionWithModel(ctx context.Context, input string, options []string) (string, error) {
	list, err := sonic.MarshalString(options)
	if err != nil {
		return "", fmt.Errorf("encode options: %w", err)
	}
	reply, err := c.completer.Complete(ctx, &llm.Request{
		Name:         "coerce_choice",
		SystemPrompt: choiceSystemPrompt,
		UserPrompt:   fmt.Sprintf("User input: %q\nAvailable options: %s", input, list),
		Temperature:  0.1,
		MaxTokens:    100,
	})
	if err != nil {
		return "", fmt.Errorf("option matching unavailable: %w", err)
	}
	answer := llm.CleanReply(reply)
	for _, opt := range options {
		if opt == answer {
			return opt, nil
		}
	}
	for _, opt := range options {
		if strings.EqualFold(opt, answer) {
			return opt, nil
		}
	}
	if strings.EqualFold(answer, noMatch) {
		return "", fmt.Errorf("%w: choose one of %s", ErrNoMatch, strings.Join(options, ", "))
	}
	return "", fmt.Errorf("%w: model suggested %q, choose one of %s", ErrNoMatch, answer, strings.Join(options, ", "))
}

// coerceMultiChoice resolves every token it can and fails only when none resolve.
func (c *Coercer) coerceMultiChoice(ctx context.Context, input string, options []string) ([]string, resolution, error) {
	res := resolvedLocally
	var out []string
	seen := make(map[string]struct{})
	for _, token := range multiChoiceSeparator.Split(input, -1) {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		opt, tokenRes, err := c.coerceChoice(ctx, token, options)
		if tokenRes == resolvedByModel {
			res = resolvedByModel
		}
		if err != nil {
			slog.Debug("Dropping unresolved choice", "token", token, "error", err)
			continue
		}
		if _, dup := seen[opt]; dup {
			continue
		}
		seen[opt] = struct{}{}
		out = append(out, opt)
	}
	if len(out) == 0 {
		return nil, res, fmt.Errorf("%w: choose from %s", ErrNoMatch, strings.Join(options, ", "))
	}
	return out, res, nil
}
