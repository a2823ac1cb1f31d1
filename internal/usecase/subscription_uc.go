// File: internal/usecase/subscription_uc.go
package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"subscription-payments/internal/domain/model"
	"subscription-payments/internal/domain/ports/repository"
	"subscription-payments/internal/infra/logging"
)

// Compile-time check
var _ SubscriptionUseCase = (*subscriptionUC)(nil)

// SubscriptionUseCase finalizes the entitlement bought by a payment.
// Activate is only ever reached through the reconciler's CAS-winning
// path, so it runs at most once per terminal transition.
type SubscriptionUseCase interface {
	// Activate derives the subscription status from the payment outcome
	// and persists it inside the caller's transaction. COMPLETED grants
	// the entitlement window; FAILED/CANCELLED mark the record failed.
	Activate(ctx context.Context, tx repository.Tx, subscriptionID string, outcome model.PaymentStatus) (model.SubscriptionStatus, error)

	FindByTransactionID(ctx context.Context, transactionID string) (*model.Subscription, error)

	// ExpireDue flips active subscriptions whose window has lapsed to
	// expired. Called by the scheduler, never by request handlers.
	ExpireDue(ctx context.Context, now time.Time, limit int) (int, error)
}

type subscriptionUC struct {
	subs repository.SubscriptionRepository
	log  *zerolog.Logger
}

func NewSubscriptionUseCase(subs repository.SubscriptionRepository, logger *zerolog.Logger) *subscriptionUC {
	return &subscriptionUC{subs: subs, log: logger}
}

func (u *subscriptionUC) Activate(ctx context.Context, tx repository.Tx, subscriptionID string, outcome model.PaymentStatus) (model.SubscriptionStatus, error) {
	sub, err := u.subs.FindByID(ctx, tx, subscriptionID)
	if err != nil {
		return "", err
	}

	status := model.DeriveSubscriptionStatus(outcome)
	var start, expiry *time.Time
	if status == model.SubscriptionStatusActive {
		now := time.Now()
		ex := now.Add(sub.Billing.Duration())
		start, expiry = &now, &ex
	}
	if err := u.subs.Finalize(ctx, tx, sub.ID, status, start, expiry); err != nil {
		return "", err
	}
	return status, nil
}

func (u *subscriptionUC) FindByTransactionID(ctx context.Context, transactionID string) (*model.Subscription, error) {
	return u.subs.FindByTransactionID(ctx, repository.NoTX, transactionID)
}

func (u *subscriptionUC) ExpireDue(ctx context.Context, now time.Time, limit int) (int, error) {
	defer logging.TraceDuration(u.log, "SubscriptionUC.ExpireDue")()

	due, err := u.subs.ListActiveExpiredBefore(ctx, repository.NoTX, now, limit)
	if err != nil {
		return 0, err
	}
	expired := 0
	for _, s := range due {
		if err := u.subs.UpdateStatus(ctx, repository.NoTX, s.ID, model.SubscriptionStatusExpired); err != nil {
			u.log.Warn().Err(err).Str("subscription_id", s.ID).Msg("expire subscription failed")
			continue
		}
		expired++
	}
	return expired, nil
}
