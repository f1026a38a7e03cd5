package coerce

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/tbxark/ticketagent/catalog"
)

// coercionsTotal labels: type is the field type, outcome is deterministic, llm or failed.
var coercionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "ticketagent",
		Subsystem: "coerce",
		Name:      "total",
		Help:      "Field coercions by field type and outcome.",
	},
	[]string{"type", "outcome"},
)

func recordCoercion(t catalog.FieldType, outcome string) {
	coercionsTotal.WithLabelValues(string(t), outcome).Inc()
}
