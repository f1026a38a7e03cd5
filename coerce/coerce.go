package coerce

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/tbxark/ticketagent/catalog"
	"github.com/tbxark/ticketagent/llm"
	"github.com/tbxark/ticketagent/types"
)

var (
	ErrEmpty       = errors.New("empty input")
	ErrUnparseable = errors.New("unrecognized value")
	ErrNoMatch     = errors.New("no matching option")
)

type resolution string

const (
	resolvedLocally resolution = "deterministic"
	resolvedByModel resolution = "llm"
)

// Coercer turns raw answers into typed field values. Deterministic parsers run first;
// the completer, when set, is only consulted for dates and choices they cannot resolve.
type Coercer struct {
	completer llm.Completer
	now       func() time.Time
}

type Option func(*Coercer)

func WithCompleter(completer llm.Completer) Option {
	return func(c *Coercer) {
		c.completer = completer
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Coercer) {
		c.now = now
	}
}

func New(opts ...Option) *Coercer {
	c := &Coercer{now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Coerce converts raw into the canonical value for field, or returns a *types.CoercionError.
// Optional fields accept empty input and yield nil.
func (c *Coercer) Coerce(ctx context.Context, raw string, field catalog.FieldSpec) (any, error) {
	input := strings.TrimSpace(raw)
	if input == "" {
		if !field.IsRequired() {
			return nil, nil
		}
		recordCoercion(field.Type, "failed")
		return nil, &types.CoercionError{Field: field.Name, RawInput: raw, Reason: ErrEmpty.Error(), Err: ErrEmpty}
	}

	var (
		value any
		res   = resolvedLocally
		err   error
	)
	switch field.Type {
	case catalog.FieldString, catalog.FieldRichText, catalog.FieldFile:
		value = input
	case catalog.FieldFileList:
		value = splitReferences(input)
	case catalog.FieldBool:
		value, err = parseBool(input)
	case catalog.FieldInt:
		value, err = parseInt(input)
	case catalog.FieldDate:
		value, res, err = c.coerceDate(ctx, input)
	case catalog.FieldTime:
		value, err = parseTime(input)
	case catalog.FieldChoice:
		value, res, err = c.coerceChoice(ctx, input, field.Options)
	case catalog.FieldMultiChoice:
		value, res, err = c.coerceMultiChoice(ctx, input, field.Options)
	default:
		err = fmt.Errorf("unsupported field type %q", field.Type)
	}
	if err != nil {
		recordCoercion(field.Type, "failed")
		slog.Debug("Coercion failed", "field", field.Name, "type", field.Type, "input", raw, "error", err)
		return nil, &types.CoercionError{Field: field.Name, RawInput: raw, Reason: err.Error(), Err: err}
	}
	recordCoercion(field.Type, string(res))
	slog.Debug("Coerced field", "field", field.Name, "type", field.Type, "resolution", res)
	return value, nil
}

var truthy = map[string]bool{
	"true": true, "yes": true, "y": true, "1": true, "on": true, "enabled": true,
	"false": false, "no": false, "n": false, "0": false, "off": false, "disabled": false,
}

func parseBool(input string) (bool, error) {
	v, ok := truthy[strings.ToLower(input)]
	if !ok {
		return false, fmt.Errorf("%w: expected yes or no", ErrUnparseable)
	}
	return v, nil
}

var (
	nonIntChars = regexp.MustCompile(`[^\d-]+`)
	intToken    = regexp.MustCompile(`-?\d+`)
)

func parseInt(input string) (int, error) {
	token := intToken.FindString(nonIntChars.ReplaceAllString(input, " "))
	if token == "" {
		return 0, fmt.Errorf("%w: no number found", ErrUnparseable)
	}
	n, err := strconv.Atoi(token)
	if err != nil {
		return 0, fmt.Errorf("%w: %s is out of range", ErrUnparseable, token)
	}
	return n, nil
}

var referenceSeparator = regexp.MustCompile(`[,\n]+`)

func splitReferences(input string) []string {
	var out []string
	for _, part := range referenceSeparator.Split(input, -1) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
