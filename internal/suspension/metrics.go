package suspension

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	resourcesSuspended = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "zapmanager",
			Subsystem: "suspension",
			Name:      "resources_suspended_total",
			Help:      "Automation resources paused due to account blocking",
		},
	)

	resourcesRestored = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "zapmanager",
			Subsystem: "suspension",
			Name:      "resources_restored_total",
			Help:      "Automation resources reactivated after unblocking",
		},
	)
)

func recordSuspended(count int) {
	resourcesSuspended.Add(float64(count))
}

func recordRestored(count int) {
	resourcesRestored.Add(float64(count))
}
