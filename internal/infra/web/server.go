package web

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"subscription-payments/internal/infra/redis"
	"subscription-payments/internal/infra/ws"
	"subscription-payments/internal/usecase"
)

// Server wires the payment lifecycle routes. The callback route is
// authenticated by the gateway signature; browser-facing mutating routes
// go through the CSRF guard.
type Server struct {
	payUC       usecase.PaymentUseCase
	reconcileUC usecase.ReconcileUseCase
	sessions    *SessionManager
	guard       *CsrfGuard
	hub         *ws.Hub
	limiter     *redis.RateLimiter

	gatewaySalt      string
	gatewaySaltIndex string
	pollPerMinute    int

	log *zerolog.Logger
}

func NewServer(
	payUC usecase.PaymentUseCase,
	reconcileUC usecase.ReconcileUseCase,
	sessions *SessionManager,
	guard *CsrfGuard,
	hub *ws.Hub,
	limiter *redis.RateLimiter,
	gatewaySalt, gatewaySaltIndex string,
	pollPerMinute int,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		payUC:            payUC,
		reconcileUC:      reconcileUC,
		sessions:         sessions,
		guard:            guard,
		hub:              hub,
		limiter:          limiter,
		gatewaySalt:      gatewaySalt,
		gatewaySaltIndex: gatewaySaltIndex,
		pollPerMinute:    pollPerMinute,
		log:              logger,
	}
}

// Router builds the chi router with common middlewares applied.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(TraceID())
	r.Use(Recover(s.log))
	r.Use(RequestLog(s.log))
	r.Use(Timeout(15 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Post("/session", s.handleSession)

	r.Route("/payments", func(r chi.Router) {
		r.With(s.guard.Protect).Post("/initiate", s.handleInitiate)
		r.With(s.guard.Protect).Post("/status", s.handlePollStatus)
		// Gateway-invoked; authenticated by signature, not by session.
		r.Post("/callback/{transactionId}", s.handleCallback)
		r.Get("/{transactionId}", s.handleGetPayment)
	})

	r.Get("/ws/payments/{transactionId}", s.handleWebSocket)

	return r
}

func pollKey(sessionID string) string { return redis.PollKey(sessionID) }

// ListenAddr formats the bind address for the configured port.
func ListenAddr(port int) string { return fmt.Sprintf(":%d", port) }
