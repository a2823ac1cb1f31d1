//go:build !integration

package model_test

import (
	"errors"
	"testing"

	"subscription-payments/internal/domain"
	"subscription-payments/internal/domain/model"
)

func TestPaymentStatus_Terminal(t *testing.T) {
	cases := map[model.PaymentStatus]bool{
		model.PaymentStatusPending:   false,
		model.PaymentStatusCompleted: true,
		model.PaymentStatusFailed:    true,
		model.PaymentStatusCancelled: true,
	}
	for status, want := range cases {
		if got := status.Terminal(); got != want {
			t.Errorf("%s: Terminal() = %v, want %v", status, got, want)
		}
	}
}

func TestNewPayment(t *testing.T) {
	t.Run("should build a pending payment", func(t *testing.T) {
		p, err := model.NewPayment("id-1", "txn-1", "order-1", "user-1", "sub-1", 49900, model.PlanStarter, model.BillingMonthly)
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if p.Status != model.PaymentStatusPending {
			t.Errorf("expected 'pending', got '%s'", p.Status)
		}
		if p.CreatedAt.IsZero() || p.UpdatedAt.IsZero() {
			t.Error("expected timestamps to be set")
		}
	})

	t.Run("should reject bad input", func(t *testing.T) {
		cases := []struct {
			name          string
			id, txn, user string
			amount        int64
			plan          model.PlanTitle
			billing       model.BillingCycle
		}{
			{"missing id", "", "txn", "user", 100, model.PlanStarter, model.BillingMonthly},
			{"missing transaction id", "id", "", "user", 100, model.PlanStarter, model.BillingMonthly},
			{"missing user", "id", "txn", "", 100, model.PlanStarter, model.BillingMonthly},
			{"zero amount", "id", "txn", "user", 0, model.PlanStarter, model.BillingMonthly},
			{"unknown plan", "id", "txn", "user", 100, "Gold", model.BillingMonthly},
			{"unknown billing", "id", "txn", "user", 100, model.PlanStarter, "weekly"},
		}
		for _, tc := range cases {
			_, err := model.NewPayment(tc.id, tc.txn, "order", tc.user, "sub", tc.amount, tc.plan, tc.billing)
			if !errors.Is(err, domain.ErrInvalidArgument) {
				t.Errorf("%s: expected ErrInvalidArgument, got: %v", tc.name, err)
			}
		}
	})
}

func TestBillingCycle_Duration(t *testing.T) {
	if d := model.BillingMonthly.Duration().Hours(); d != 30*24 {
		t.Errorf("monthly: expected 720h, got %vh", d)
	}
	if d := model.BillingAnnual.Duration().Hours(); d != 365*24 {
		t.Errorf("annual: expected 8760h, got %vh", d)
	}
}
