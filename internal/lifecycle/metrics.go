package lifecycle

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "zapmanager"

var (
	transitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "lifecycle",
			Name:      "transitions_total",
			Help:      "Subscription status transitions applied by the sweeps",
		},
		[]string{"to"},
	)

	noticesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "lifecycle",
			Name:      "notices_total",
			Help:      "Lifecycle notices by type and outcome",
		},
		[]string{"type", "status"},
	)

	sweepDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "lifecycle",
			Name:      "sweep_duration_seconds",
			Help:      "Duration of a full lifecycle sweep",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
	)

	sweepsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "lifecycle",
			Name:      "sweeps_total",
			Help:      "Lifecycle sweeps by outcome",
		},
		[]string{"outcome"},
	)
)

// Notice outcome labels.
const (
	noticeStatusSent          = "sent"
	noticeStatusSkippedDedup  = "skipped_dedup"
	noticeStatusSkippedNoMail = "skipped_no_email"
	noticeStatusFailed        = "failed"
)

func recordTransition(to string) {
	transitionsTotal.WithLabelValues(to).Inc()
}

func recordNotice(t, status string) {
	noticesTotal.WithLabelValues(t, status).Inc()
}

func recordSweep(outcome string, duration time.Duration) {
	sweepsTotal.WithLabelValues(outcome).Inc()
	sweepDuration.Observe(duration.Seconds())
}
