package repository

import (
	"context"
	"time"

	"subscription-payments/internal/domain/model"
)

type SubscriptionRepository interface {
	Save(ctx context.Context, tx Tx, s *model.Subscription) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Subscription, error)
	FindByTransactionID(ctx context.Context, tx Tx, transactionID string) (*model.Subscription, error)

	// Finalize sets the derived status and entitlement window. Reached
	// only through the reconciler's CAS-winning path.
	Finalize(ctx context.Context, tx Tx, id string, status model.SubscriptionStatus, startDate, expiryDate *time.Time) error

	UpdateStatus(ctx context.Context, tx Tx, id string, status model.SubscriptionStatus) error

	// ListActiveExpiredBefore feeds the expiry worker.
	ListActiveExpiredBefore(ctx context.Context, tx Tx, cutoff time.Time, limit int) ([]*model.Subscription, error)
}
