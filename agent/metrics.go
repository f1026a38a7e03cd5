package agent

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	turnDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ticketagent",
			Subsystem: "agent",
			Name:      "turn_duration_seconds",
			Help:      "Duration of one conversation turn.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"phase"},
	)

	turnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ticketagent",
			Subsystem: "agent",
			Name:      "turns_total",
			Help:      "Conversation turns by starting phase and resulting status.",
		},
		[]string{"phase", "status"},
	)

	ticketsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ticketagent",
			Subsystem: "agent",
			Name:      "tickets_created_total",
			Help:      "Tickets produced by completed sessions.",
		},
		[]string{"ticket_type"},
	)
)

// recordTurn labels failures that produced no response with status "failed".
func recordTurn(phase, status string, duration time.Duration) {
	turnDuration.WithLabelValues(phase).Observe(duration.Seconds())
	turnsTotal.WithLabelValues(phase, status).Inc()
}
