package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		broadcastsTotal,
		broadcastDrops,
		wsConnections,
	)
}

var (
	broadcastsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "payment_broadcasts_total",
			Help: "Terminal-transition events published on the notification bus.",
		},
	)

	broadcastDrops = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "payment_broadcast_drops_total",
			Help: "Events dropped because a subscriber channel was full.",
		},
	)

	wsConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "payment_ws_connections",
			Help: "Currently connected realtime clients.",
		},
	)
)

func IncBroadcast()     { broadcastsTotal.Inc() }
func IncBroadcastDrop() { broadcastDrops.Inc() }
func IncWsConnections() { wsConnections.Inc() }
func DecWsConnections() { wsConnections.Dec() }
