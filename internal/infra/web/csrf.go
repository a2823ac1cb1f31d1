package web

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"subscription-payments/internal/domain"
	"subscription-payments/internal/domain/ports/repository"
	"subscription-payments/internal/infra/logging"
	"subscription-payments/internal/infra/metrics"
)

const csrfHeader = "X-CSRF-Token"

type sessionCtxKey struct{}

func sessionFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(sessionCtxKey{}).(string); ok {
		return v
	}
	return ""
}

// CsrfGuard rejects mutating requests that do not present the session's
// live anti-forgery token, and rotates the token after each one that
// passes. Validation happens before the state machine is reached;
// rotation happens regardless of the handler's outcome, so a failed
// initiate still burns the token it was made with.
type CsrfGuard struct {
	sessions *SessionManager
	tokens   repository.CsrfTokenStore
	log      *zerolog.Logger
}

func NewCsrfGuard(sessions *SessionManager, tokens repository.CsrfTokenStore, logger *zerolog.Logger) *CsrfGuard {
	return &CsrfGuard{sessions: sessions, tokens: tokens, log: logger}
}

// Protect wraps a mutating handler. The verified session id is placed in
// the request context for the handler and for rotation.
func (g *CsrfGuard) Protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sid, err := g.sessions.SessionID(r)
		if err != nil {
			metrics.IncCsrfRejection()
			writeError(w, domain.ErrTokenInvalid)
			return
		}
		if err := g.tokens.Validate(r.Context(), sid, r.Header.Get(csrfHeader)); err != nil {
			if !errors.Is(err, domain.ErrTokenInvalid) {
				g.log.Error().Err(err).Msg("csrf validation failed")
			}
			metrics.IncCsrfRejection()
			writeError(w, domain.ErrTokenInvalid)
			return
		}

		ctx := context.WithValue(r.Context(), sessionCtxKey{}, sid)
		ctx = logging.WithSessID(ctx, sid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Rotate invalidates the session's current token and issues the next
// one. Handlers attach the returned pair to their response.
func (g *CsrfGuard) Rotate(ctx context.Context, sessionID string) (repository.CsrfToken, error) {
	tok, err := g.tokens.Rotate(ctx, sessionID)
	if err != nil {
		return repository.CsrfToken{}, err
	}
	metrics.IncCsrfRotation()
	return tok, nil
}
