package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		csrfRotationsTotal,
		csrfRejectionsTotal,
	)
}

var (
	csrfRotationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "csrf_rotations_total",
			Help: "Anti-forgery tokens issued after mutating calls.",
		},
	)

	csrfRejectionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "csrf_rejections_total",
			Help: "Requests rejected for a stale or missing anti-forgery token.",
		},
	)
)

func IncCsrfRotation() { csrfRotationsTotal.Inc() }
func IncCsrfRejection() { csrfRejectionsTotal.Inc() }
