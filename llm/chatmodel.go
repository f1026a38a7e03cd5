package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cloudwego/eino/components/model"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

const tracerName = "ticketagent/llm"

var ErrEmptyResponse = errors.New("model returned no message")

// ChatModelCompleter adapts an eino chat model to Completer.
type ChatModelCompleter struct {
	chatModel model.BaseChatModel
	provider  string
	timeout   time.Duration
	limiter   *rate.Limiter
}

type CompleterOption func(*ChatModelCompleter)

func WithProvider(name string) CompleterOption {
	return func(c *ChatModelCompleter) {
		c.provider = name
	}
}

// WithTimeout bounds every call. Zero leaves the caller's deadline alone.
func WithTimeout(d time.Duration) CompleterOption {
	return func(c *ChatModelCompleter) {
		c.timeout = d
	}
}

// WithRateLimit caps outgoing calls. rps <= 0 disables limiting.
func WithRateLimit(rps float64, burst int) CompleterOption {
	return func(c *ChatModelCompleter) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

func NewChatModelCompleter(chatModel model.BaseChatModel, opts ...CompleterOption) *ChatModelCompleter {
	c := &ChatModelCompleter{
		chatModel: chatModel,
		provider:  "openai",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *ChatModelCompleter) Complete(ctx context.Context, req *Request) (string, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "llm.Complete", trace.WithAttributes(
		attribute.String("llm.provider", c.provider),
		attribute.String("llm.call", req.Name),
		attribute.Float64("llm.temperature", float64(req.Temperature)),
		attribute.Int("llm.max_tokens", req.MaxTokens),
		attribute.Bool("llm.json", req.JSON),
	))
	defer span.End()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "rate limiter")
			return "", fmt.Errorf("wait for rate limiter: %w", err)
		}
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	opts := []model.Option{model.WithTemperature(req.Temperature)}
	if req.MaxTokens > 0 {
		opts = append(opts, model.WithMaxTokens(req.MaxTokens))
	}

	start := time.Now()
	resp, err := c.chatModel.Generate(ctx, req.Messages(), opts...)
	if err == nil && resp == nil {
		err = ErrEmptyResponse
	}
	recordCallMetrics(c.provider, req.Name, time.Since(start), err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, classifyError(err))
		slog.Debug("Completion failed", "call", req.Name, "error", err)
		return "", fmt.Errorf("%s completion failed: %w", req.Name, err)
	}
	span.SetAttributes(attribute.Int("llm.response_length", len(resp.Content)))
	span.SetStatus(codes.Ok, "")
	return resp.Content, nil
}

var _ Completer = (*ChatModelCompleter)(nil)
