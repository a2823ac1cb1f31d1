package adapter

import "subscription-payments/internal/domain/model"

// PaymentEvent is the payload broadcast once per newly-terminal
// transition of a payment.
type PaymentEvent struct {
	TransactionID      string                   `json:"transactionId"`
	Status             model.PaymentStatus      `json:"status"`
	SubscriptionStatus model.SubscriptionStatus `json:"subscriptionStatus"`
}

// NotificationBus fans one event out to every listener currently
// subscribed to the transaction's channel. Delivery is best-effort: a
// client not subscribed at publish time gets nothing and falls back to
// polling.
type NotificationBus interface {
	Publish(transactionID string, evt PaymentEvent)
	// Subscribe returns a receive channel and a cancel func that must be
	// called when the listener goes away.
	Subscribe(transactionID string) (<-chan PaymentEvent, func())
}
