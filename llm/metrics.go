package llm

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	callDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ticketagent",
			Subsystem: "llm",
			Name:      "call_duration_seconds",
			Help:      "Duration of language model completions in seconds.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"provider", "call", "status"},
	)

	callsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ticketagent",
			Subsystem: "llm",
			Name:      "calls_total",
			Help:      "Total language model completions.",
		},
		[]string{"provider", "call", "status"},
	)

	errorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ticketagent",
			Subsystem: "llm",
			Name:      "errors_total",
			Help:      "Language model completion errors by type.",
		},
		[]string{"provider", "error_type"},
	)
)

// classifyError maps an error to a low-cardinality label.
func classifyError(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return "timeout"
	}
	if errors.Is(err, ErrEmptyResponse) {
		return "empty"
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout"):
		return "timeout"
	case strings.Contains(msg, "401") || strings.Contains(msg, "403") ||
		strings.Contains(msg, "unauthorized") || strings.Contains(msg, "api key"):
		return "auth"
	case strings.Contains(msg, "429") || strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "too many requests"):
		return "rate_limit"
	case strings.Contains(msg, "500") || strings.Contains(msg, "502") ||
		strings.Contains(msg, "503") || strings.Contains(msg, "server error"):
		return "server"
	default:
		return "unknown"
	}
}

func recordCallMetrics(provider, call string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
		errorsTotal.WithLabelValues(provider, classifyError(err)).Inc()
	}
	callDuration.WithLabelValues(provider, call, status).Observe(duration.Seconds())
	callsTotal.WithLabelValues(provider, call, status).Inc()
}
