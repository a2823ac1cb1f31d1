package repository

import (
	"context"
	"time"
)

// CsrfToken is the immutable value pair handed to clients after every
// mutating call.
type CsrfToken struct {
	Token     string
	ExpiresAt time.Time
}

// CsrfTokenStore keeps one live anti-forgery token per session. Rotate
// replaces the session's token atomically, invalidating the previous
// one; Validate reports whether the presented token is the live one.
type CsrfTokenStore interface {
	Rotate(ctx context.Context, sessionID string) (CsrfToken, error)
	Validate(ctx context.Context, sessionID, token string) error
}
