package coordinator

import "github.com/prometheus/client_golang/prometheus"

var (
	eventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "graphmark_progress_events_total",
			Help: "Total progress events processed, by kind.",
		},
		[]string{"event"},
	)

	timeoutsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "graphmark_subtask_timeouts_total",
			Help: "Total subtasks aborted by the timeout watchdog.",
		},
	)

	protocolViolationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "graphmark_protocol_violations_total",
			Help: "Total subtask_start events observed before the expected restore.",
		},
	)
)

func init() {
	prometheus.MustRegister(eventsTotal)
	prometheus.MustRegister(timeoutsTotal)
	prometheus.MustRegister(protocolViolationsTotal)
}
