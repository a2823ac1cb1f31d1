// File: internal/usecase/reconcile_uc.go
package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"subscription-payments/internal/domain"
	"subscription-payments/internal/domain/model"
	"subscription-payments/internal/domain/ports/adapter"
	"subscription-payments/internal/domain/ports/repository"
	"subscription-payments/internal/infra/logging"
	"subscription-payments/internal/infra/metrics"
)

// Compile-time check
var _ ReconcileUseCase = (*reconcileUC)(nil)

// ReconcileResult reports the authoritative state after one observation
// was folded in. NewlyTerminal is true only for the caller whose
// observation actually moved the payment out of pending.
type ReconcileResult struct {
	Status             model.PaymentStatus
	SubscriptionStatus model.SubscriptionStatus
	NewlyTerminal      bool
}

// ReconcileUseCase is the single authority converting gateway
// observations into payment state transitions. The webhook handler, the
// poll endpoint and the background scanner all funnel through Reconcile;
// whichever observation lands first wins, the rest are no-ops.
type ReconcileUseCase interface {
	Reconcile(ctx context.Context, transactionID string, observed adapter.GatewayState) (*ReconcileResult, error)
}

type reconcileUC struct {
	payments repository.PaymentRepository
	subUC    SubscriptionUseCase
	bus      adapter.NotificationBus
	tm       repository.TransactionManager
	log      *zerolog.Logger
}

func NewReconcileUseCase(
	payments repository.PaymentRepository,
	subUC SubscriptionUseCase,
	bus adapter.NotificationBus,
	tm repository.TransactionManager,
	logger *zerolog.Logger,
) *reconcileUC {
	return &reconcileUC{payments: payments, subUC: subUC, bus: bus, tm: tm, log: logger}
}

// MapGatewayState folds the provider's vocabulary into the closed status
// enum. Anything unknown or in-flight maps to pending, which attempts no
// transition.
func MapGatewayState(state string) model.PaymentStatus {
	switch strings.ToUpper(strings.TrimSpace(state)) {
	case "SUCCESS", "COMPLETED", "PAYMENT_SUCCESS":
		return model.PaymentStatusCompleted
	case "FAILED", "FAILURE", "PAYMENT_ERROR", "PAYMENT_DECLINED":
		return model.PaymentStatusFailed
	case "CANCELLED", "USER_CANCELLED", "PAYMENT_CANCELLED":
		return model.PaymentStatusCancelled
	}
	return model.PaymentStatusPending
}

func (u *reconcileUC) Reconcile(ctx context.Context, transactionID string, observed adapter.GatewayState) (*ReconcileResult, error) {
	log := logging.With(ctx, u.log)
	defer logging.TraceDuration(log, "ReconcileUC.Reconcile")()

	p, err := u.payments.FindByTransactionID(ctx, repository.NoTX, transactionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			log.Warn().Str("txn_id", transactionID).Str("gateway_state", observed.State).Msg("observation for unknown transaction")
			return nil, domain.ErrUnknownTransaction
		}
		return nil, err
	}

	target := MapGatewayState(observed.State)
	if target == model.PaymentStatusPending {
		// Nothing to fold in; report what we already know.
		metrics.IncReconcile("noop")
		return u.resultFor(ctx, p.Status, transactionID), nil
	}

	var res *ReconcileResult
	err = u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		applied, current, err := u.payments.TryTransition(ctx, tx, transactionID, target, observed.RawDetails)
		if err != nil {
			return err
		}
		if !applied {
			// The other path settled it moments earlier. Not an error:
			// the stored terminal state is the answer.
			res = &ReconcileResult{
				Status:             current,
				SubscriptionStatus: model.DeriveSubscriptionStatus(current),
				NewlyTerminal:      false,
			}
			return nil
		}

		subStatus, err := u.subUC.Activate(ctx, tx, p.SubscriptionID, target)
		if err != nil {
			return err
		}
		res = &ReconcileResult{Status: target, SubscriptionStatus: subStatus, NewlyTerminal: true}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if res.NewlyTerminal {
		metrics.IncReconcile("applied")
		metrics.IncPayment(string(res.Status))
		if res.Status == model.PaymentStatusCompleted {
			metrics.AddPaymentRevenue(string(p.Billing), p.Amount)
		}
		u.bus.Publish(transactionID, adapter.PaymentEvent{
			TransactionID:      transactionID,
			Status:             res.Status,
			SubscriptionStatus: res.SubscriptionStatus,
		})
		log.Info().
			Str("txn_id", transactionID).
			Str("status", string(res.Status)).
			Str("subscription_status", string(res.SubscriptionStatus)).
			Msg("payment settled")
	} else {
		metrics.IncReconcile("already_terminal")
		log.Debug().
			Str("txn_id", transactionID).
			Str("status", string(res.Status)).
			Msg("observation arrived after settlement")
	}
	return res, nil
}

// resultFor builds a no-transition result, preferring the stored
// subscription status over a derivation when it is readable.
func (u *reconcileUC) resultFor(ctx context.Context, status model.PaymentStatus, transactionID string) *ReconcileResult {
	subStatus := model.DeriveSubscriptionStatus(status)
	if sub, err := u.subUC.FindByTransactionID(ctx, transactionID); err == nil {
		subStatus = sub.Status
	}
	return &ReconcileResult{Status: status, SubscriptionStatus: subStatus, NewlyTerminal: false}
}
