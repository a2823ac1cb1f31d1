package ws

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"subscription-payments/internal/domain/ports/adapter"
	"subscription-payments/internal/infra/metrics"
)

// Hub upgrades HTTP requests to WebSocket connections and bridges the
// notification bus into per-transaction rooms. A client joins the room
// for one transaction id and receives a single paymentStatus event when
// the transition lands.
type Hub struct {
	bus      adapter.NotificationBus
	upgrader websocket.Upgrader
	log      *zerolog.Logger
}

func NewHub(bus adapter.NotificationBus, logger *zerolog.Logger) *Hub {
	return &Hub{
		bus: bus,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		log: logger,
	}
}

type statusFrame struct {
	Event string               `json:"event"`
	Data  adapter.PaymentEvent `json:"data"`
}

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
)

// ServeTransaction handles one realtime client for one transaction room.
func (h *Hub) ServeTransaction(w http.ResponseWriter, r *http.Request, transactionID string) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	metrics.IncWsConnections()
	defer metrics.DecWsConnections()
	defer conn.Close()

	events, cancel := h.bus.Subscribe(transactionID)
	defer cancel()

	// Reader goroutine: we never expect client frames, but reading is
	// required to notice the peer going away.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case evt, ok := <-events:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(statusFrame{Event: "paymentStatus", Data: evt}); err != nil {
				h.log.Debug().Err(err).Str("txn_id", transactionID).Msg("websocket write failed")
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		case <-r.Context().Done():
			return
		}
	}
}
