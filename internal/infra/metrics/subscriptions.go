package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		subscriptionsActivatedTotal,
		subscriptionsExpiredTotal,
	)
}

var (
	subscriptionsActivatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "subscriptions_activated_total",
			Help: "Subscriptions activated by a completed payment.",
		},
	)

	subscriptionsExpiredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "subscriptions_expired_total",
			Help: "Active subscriptions flipped to expired by the scheduler.",
		},
	)
)

func IncSubscriptionActivated() { subscriptionsActivatedTotal.Inc() }

func IncSubscriptionsExpired(n int) { subscriptionsExpiredTotal.Add(float64(n)) }
