package model

import (
	"time"

	"subscription-payments/internal/domain"
)

type SubscriptionStatus string

const (
	SubscriptionStatusPending SubscriptionStatus = "pending"
	SubscriptionStatusActive  SubscriptionStatus = "active"
	SubscriptionStatusFailed  SubscriptionStatus = "failed"
	SubscriptionStatusExpired SubscriptionStatus = "expired"
)

// Subscription is the entitlement bought by a payment. Its status is
// derived from the linked payment's terminal status and is never written
// by client-facing code.
type Subscription struct {
	ID            string // UUID
	UserID        string
	TransactionID string // back-reference to the payment
	PlanTitle     PlanTitle
	Billing       BillingCycle
	Amount        int64
	Status        SubscriptionStatus
	StartDate     *time.Time // nil until activated
	ExpiryDate    *time.Time // nil until activated
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewSubscription creates the pending entitlement recorded alongside the
// purchase intent.
func NewSubscription(id, userID, transactionID string, plan PlanTitle, billing BillingCycle, amount int64) (*Subscription, error) {
	if id == "" || userID == "" || transactionID == "" {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &Subscription{
		ID:            id,
		UserID:        userID,
		TransactionID: transactionID,
		PlanTitle:     plan,
		Billing:       billing,
		Amount:        amount,
		Status:        SubscriptionStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// DeriveSubscriptionStatus maps a terminal payment status to the
// subscription status it implies. Pending payments derive pending.
func DeriveSubscriptionStatus(p PaymentStatus) SubscriptionStatus {
	switch p {
	case PaymentStatusCompleted:
		return SubscriptionStatusActive
	case PaymentStatusFailed, PaymentStatusCancelled:
		return SubscriptionStatusFailed
	}
	return SubscriptionStatusPending
}
