// File: internal/usecase/payment_uc.go
package usecase

import (
	"context"
	"crypto/rand"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"subscription-payments/internal/domain"
	"subscription-payments/internal/domain/model"
	"subscription-payments/internal/domain/ports/adapter"
	"subscription-payments/internal/domain/ports/repository"
	"subscription-payments/internal/infra/logging"
	"subscription-payments/internal/infra/metrics"
)

// Compile-time check
var _ PaymentUseCase = (*paymentUC)(nil)

type InitiateRequest struct {
	UserID        string
	Amount        int64
	PlanTitle     model.PlanTitle
	Billing       model.BillingCycle
	TransactionID string
}

type InitiateOutcome struct {
	Payment        *model.Payment
	GatewayOrderID string
	RedirectURL    string
}

// PaymentView is the read-model returned by pure lookups.
type PaymentView struct {
	TransactionID      string                   `json:"transactionId"`
	Status             model.PaymentStatus      `json:"status"`
	SubscriptionStatus model.SubscriptionStatus `json:"subscriptionStatus"`
	Amount             int64                    `json:"amount"`
	PlanTitle          model.PlanTitle          `json:"planTitle"`
	Billing            model.BillingCycle       `json:"billing"`
	CreatedAt          time.Time                `json:"createdAt"`
	UpdatedAt          time.Time                `json:"updatedAt"`
}

type PaymentUseCase interface {
	// Initiate creates the pending payment + subscription pair and asks
	// the gateway for a redirect URL. No records are written when the
	// gateway call fails.
	Initiate(ctx context.Context, req InitiateRequest) (*InitiateOutcome, error)

	// PollStatus asks the gateway for the live state of a transaction and
	// folds the answer through Reconcile. Already-settled transactions
	// are answered from the store without touching the gateway.
	PollStatus(ctx context.Context, transactionID string) (*ReconcileResult, error)

	// CurrentState is a pure read of the last applied transition.
	CurrentState(ctx context.Context, transactionID string) (*PaymentView, error)
}

type paymentUC struct {
	payments  repository.PaymentRepository
	subs      repository.SubscriptionRepository
	gateway   adapter.GatewayClient
	reconcile ReconcileUseCase
	tm        repository.TransactionManager
	log       *zerolog.Logger
}

func NewPaymentUseCase(
	payments repository.PaymentRepository,
	subs repository.SubscriptionRepository,
	gateway adapter.GatewayClient,
	reconcile ReconcileUseCase,
	tm repository.TransactionManager,
	logger *zerolog.Logger,
) *paymentUC {
	return &paymentUC{payments: payments, subs: subs, gateway: gateway, reconcile: reconcile, tm: tm, log: logger}
}

func (u *paymentUC) Initiate(ctx context.Context, req InitiateRequest) (*InitiateOutcome, error) {
	log := logging.With(ctx, u.log)
	defer logging.TraceDuration(log, "PaymentUC.Initiate")()

	if req.Amount <= 0 || !model.ValidPlanTitle(req.PlanTitle) || !model.ValidBillingCycle(req.Billing) {
		return nil, domain.ErrInvalidArgument
	}
	if req.UserID == "" || req.TransactionID == "" {
		return nil, domain.ErrInvalidArgument
	}
	if existing, err := u.payments.FindByTransactionID(ctx, repository.NoTX, req.TransactionID); err == nil && existing != nil {
		return nil, domain.ErrAlreadyExists
	}

	// Gateway first: an unavailable or rejecting gateway must leave no
	// local state behind.
	initRes, err := u.gateway.Initiate(ctx, req.UserID, req.Amount, req.PlanTitle, req.Billing, req.TransactionID)
	if err != nil {
		metrics.IncGatewayCall("initiate", "error")
		return nil, err
	}
	metrics.IncGatewayCall("initiate", "ok")

	sub, err := model.NewSubscription(uuid.NewString(), req.UserID, req.TransactionID, req.PlanTitle, req.Billing, req.Amount)
	if err != nil {
		return nil, err
	}
	merchantOrderID := ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
	p, err := model.NewPayment(uuid.NewString(), req.TransactionID, merchantOrderID, req.UserID, sub.ID, req.Amount, req.PlanTitle, req.Billing)
	if err != nil {
		return nil, err
	}

	err = u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if err := u.subs.Save(ctx, tx, sub); err != nil {
			return err
		}
		return u.payments.Save(ctx, tx, p)
	})
	if err != nil {
		return nil, err
	}

	metrics.IncPayment(string(model.PaymentStatusPending))
	log.Info().
		Str("txn_id", p.TransactionID).
		Str("merchant_order_id", merchantOrderID).
		Int64("amount", p.Amount).
		Str("plan", string(p.PlanTitle)).
		Msg("payment initiated")

	return &InitiateOutcome{
		Payment:        p,
		GatewayOrderID: initRes.GatewayOrderID,
		RedirectURL:    initRes.RedirectURL,
	}, nil
}

func (u *paymentUC) PollStatus(ctx context.Context, transactionID string) (*ReconcileResult, error) {
	log := logging.With(ctx, u.log)
	defer logging.TraceDuration(log, "PaymentUC.PollStatus")()

	p, err := u.payments.FindByTransactionID(ctx, repository.NoTX, transactionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUnknownTransaction
		}
		return nil, err
	}
	if p.Status.Terminal() {
		return u.settledResult(ctx, p), nil
	}

	state, err := u.gateway.QueryStatus(ctx, transactionID)
	if err != nil {
		metrics.IncGatewayCall("query_status", "error")
		return nil, err
	}
	metrics.IncGatewayCall("query_status", "ok")

	return u.reconcile.Reconcile(ctx, transactionID, *state)
}

func (u *paymentUC) CurrentState(ctx context.Context, transactionID string) (*PaymentView, error) {
	p, err := u.payments.FindByTransactionID(ctx, repository.NoTX, transactionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUnknownTransaction
		}
		return nil, err
	}
	subStatus := model.DeriveSubscriptionStatus(p.Status)
	if sub, err := u.subs.FindByTransactionID(ctx, repository.NoTX, transactionID); err == nil {
		subStatus = sub.Status
	}
	return &PaymentView{
		TransactionID:      p.TransactionID,
		Status:             p.Status,
		SubscriptionStatus: subStatus,
		Amount:             p.Amount,
		PlanTitle:          p.PlanTitle,
		Billing:            p.Billing,
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
	}, nil
}

// settledResult answers a poll for an already-terminal payment without a
// gateway round trip.
func (u *paymentUC) settledResult(ctx context.Context, p *model.Payment) *ReconcileResult {
	subStatus := model.DeriveSubscriptionStatus(p.Status)
	if sub, err := u.subs.FindByTransactionID(ctx, repository.NoTX, p.TransactionID); err == nil {
		subStatus = sub.Status
	}
	return &ReconcileResult{Status: p.Status, SubscriptionStatus: subStatus, NewlyTerminal: false}
}
