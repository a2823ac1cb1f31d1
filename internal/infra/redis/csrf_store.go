package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"subscription-payments/internal/domain"
	"subscription-payments/internal/domain/ports/repository"
)

var _ repository.CsrfTokenStore = (*CsrfStore)(nil)

// CsrfStore keeps the single live anti-forgery token per session in
// Redis. One key per session means a plain SET is an atomic rotation:
// the previous token stops validating the instant the new one lands.
type CsrfStore struct {
	client RedisClient
	ttl    time.Duration
}

func NewCsrfStore(client RedisClient, ttl time.Duration) *CsrfStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &CsrfStore{client: client, ttl: ttl}
}

func (s *CsrfStore) key(sessionID string) string {
	return fmt.Sprintf("csrf:%s", sessionID)
}

func (s *CsrfStore) Rotate(ctx context.Context, sessionID string) (repository.CsrfToken, error) {
	if sessionID == "" {
		return repository.CsrfToken{}, domain.ErrInvalidArgument
	}
	token := uuid.NewString()
	expiresAt := time.Now().Add(s.ttl)
	if err := s.client.Set(ctx, s.key(sessionID), token, s.ttl); err != nil {
		return repository.CsrfToken{}, err
	}
	return repository.CsrfToken{Token: token, ExpiresAt: expiresAt}, nil
}

func (s *CsrfStore) Validate(ctx context.Context, sessionID, token string) error {
	if sessionID == "" || token == "" {
		return domain.ErrTokenInvalid
	}
	live, err := s.client.Get(ctx, s.key(sessionID))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.ErrTokenInvalid
		}
		return err
	}
	if live != token {
		return domain.ErrTokenInvalid
	}
	return nil
}
