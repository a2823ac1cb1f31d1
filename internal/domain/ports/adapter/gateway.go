package adapter

import (
	"context"

	"subscription-payments/internal/domain/model"
)

// GatewayState is one observation of a transaction as reported by the
// provider, in the provider's own vocabulary. RawDetails is carried into
// the payment record untouched.
type GatewayState struct {
	State      string
	RawDetails map[string]interface{}
}

// InitiateResult is what the provider hands back when a payment intent is
// created: its own order id plus the URL the buyer is redirected to.
type InitiateResult struct {
	GatewayOrderID string
	RedirectURL    string
}

// GatewayClient is the hex port for the external payment provider. It has
// no side effects on local state; only the reconciler writes payments.
//
// Initiate fails with domain.ErrGatewayUnavailable (retryable) or
// domain.ErrGatewayRejected (not retryable). QueryStatus additionally
// fails with domain.ErrUnknownTransaction.
type GatewayClient interface {
	Name() string

	Initiate(ctx context.Context, userID string, amount int64, plan model.PlanTitle, billing model.BillingCycle, transactionID string) (*InitiateResult, error)
	QueryStatus(ctx context.Context, transactionID string) (*GatewayState, error)
}
