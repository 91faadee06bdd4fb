package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/parley-sh/parley"
)

// Metrics collects command execution metrics through lifecycle hooks.
type Metrics struct {
	executions *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	logLines   prometheus.Counter
}

// NewMetrics creates and registers the collectors on the given registerer.
// Pass prometheus.DefaultRegisterer for the usual global registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		executions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "parley_command_executions_total",
				Help: "Completed command executions, by command and outcome.",
			},
			[]string{"command", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "parley_command_duration_seconds",
				Help:    "Command action duration in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"command"},
		),
		logLines: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "parley_log_lines_total",
				Help: "Lines emitted through the pipeline log.",
			},
		),
	}
	reg.MustRegister(m.executions, m.duration, m.logLines)
	return m
}

// Hooks returns lifecycle hooks feeding these collectors. Install them with
// parley.WithLifecycleHooks.
func (m *Metrics) Hooks() parley.LifecycleHooks {
	return parley.LifecycleHooks{
		OnCommandComplete: func(command string, err error, elapsed time.Duration) {
			outcome := "ok"
			if err != nil {
				outcome = "error"
			}
			m.executions.WithLabelValues(command, outcome).Inc()
			m.duration.WithLabelValues(command).Observe(elapsed.Seconds())
		},
		OnLog: func(args []any) {
			m.logLines.Inc()
		},
	}
}
