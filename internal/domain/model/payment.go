package model

import (
	"time"

	"subscription-payments/internal/domain"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"   // created; awaiting gateway outcome
	PaymentStatusCompleted PaymentStatus = "completed" // gateway confirmed the charge
	PaymentStatusFailed    PaymentStatus = "failed"    // gateway reported failure
	PaymentStatusCancelled PaymentStatus = "cancelled" // user/admin cancelled before settlement
)

// Terminal reports whether the status accepts no further transitions.
func (s PaymentStatus) Terminal() bool {
	return s == PaymentStatusCompleted || s == PaymentStatusFailed || s == PaymentStatusCancelled
}

type PlanTitle string

const (
	PlanStarter      PlanTitle = "Starter"
	PlanProfessional PlanTitle = "Professional"
	PlanEnterprise   PlanTitle = "Enterprise"
)

type BillingCycle string

const (
	BillingMonthly BillingCycle = "monthly"
	BillingAnnual  BillingCycle = "annual"
)

// Duration returns the entitlement window the cycle buys.
func (b BillingCycle) Duration() time.Duration {
	if b == BillingAnnual {
		return 365 * 24 * time.Hour
	}
	return 30 * 24 * time.Hour
}

// Payment records one purchase attempt against the external gateway.
// TransactionID is the externally visible correlation key; Status is the
// single authoritative field and is write-once-terminal: once it leaves
// pending it never changes again.
type Payment struct {
	ID              string // UUID
	TransactionID   string // client-supplied correlation key, unique
	MerchantOrderID string // ULID we hand to the gateway
	UserID          string
	SubscriptionID  string
	Amount          int64 // minor currency units; immutable after creation
	PlanTitle       PlanTitle
	Billing         BillingCycle
	Status          PaymentStatus
	Details         map[string]interface{} // opaque gateway blob, append-only (JSONB in DB)
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewPayment validates and builds a pending payment.
func NewPayment(id, transactionID, merchantOrderID, userID, subscriptionID string, amount int64, plan PlanTitle, billing BillingCycle) (*Payment, error) {
	if id == "" || transactionID == "" || userID == "" {
		return nil, domain.ErrInvalidArgument
	}
	if amount <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	if !ValidPlanTitle(plan) || !ValidBillingCycle(billing) {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &Payment{
		ID:              id,
		TransactionID:   transactionID,
		MerchantOrderID: merchantOrderID,
		UserID:          userID,
		SubscriptionID:  subscriptionID,
		Amount:          amount,
		PlanTitle:       plan,
		Billing:         billing,
		Status:          PaymentStatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

func ValidPlanTitle(p PlanTitle) bool {
	switch p {
	case PlanStarter, PlanProfessional, PlanEnterprise:
		return true
	}
	return false
}

func ValidBillingCycle(b BillingCycle) bool {
	return b == BillingMonthly || b == BillingAnnual
}
