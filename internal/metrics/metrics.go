package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the application's Prometheus collectors. A single instance is
// built in main and injected where outcomes are recorded.
type Metrics struct {
	PollTotal       prometheus.Counter
	PollFailures    prometheus.Counter
	CommandTotal    *prometheus.CounterVec
	CommandFailures *prometheus.CounterVec
	CommandSeconds  *prometheus.HistogramVec
}

// New registers collectors on the given registerer (usually the default one).
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		PollTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "aquadash_poll_total",
			Help: "Realtime snapshot polls attempted.",
		}),
		PollFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "aquadash_poll_failures_total",
			Help: "Realtime snapshot polls that failed.",
		}),
		CommandTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "aquadash_command_total",
			Help: "Upstream commands attempted, by kind.",
		}, []string{"kind"}),
		CommandFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "aquadash_command_failures_total",
			Help: "Upstream commands that failed, by kind.",
		}, []string{"kind"}),
		CommandSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "aquadash_command_duration_seconds",
			Help:    "Full command lifecycle duration (write, settle, confirm).",
			Buckets: prometheus.DefBuckets,
		}, []string{"kind"}),
	}
}

// Nop returns metrics bound to a throwaway registry, for tests and optional wiring.
func Nop() *Metrics {
	return New(prometheus.NewRegistry())
}
