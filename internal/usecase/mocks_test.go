// File: internal/usecase/mocks_test.go
package usecase_test

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"subscription-payments/internal/domain"
	"subscription-payments/internal/domain/model"
	"subscription-payments/internal/domain/ports/adapter"
	"subscription-payments/internal/domain/ports/repository"
)

// newTestLogger creates a silent zerolog.Logger for use in tests.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

// ---- In-memory PaymentRepository ----

// MockPaymentRepo is an in-memory payment store. TryTransition holds the
// same compare-and-swap contract as the Postgres implementation, guarded
// by a mutex, so races between concurrent reconcilers behave like the
// real thing.
type MockPaymentRepo struct {
	mu    sync.Mutex
	store map[string]*model.Payment // by transaction id

	SaveFunc          func(ctx context.Context, tx repository.Tx, p *model.Payment) error
	TryTransitionFunc func(ctx context.Context, tx repository.Tx, transactionID string, to model.PaymentStatus, details map[string]interface{}) (bool, model.PaymentStatus, error)
}

func NewMockPaymentRepo() *MockPaymentRepo {
	return &MockPaymentRepo{store: make(map[string]*model.Payment)}
}

var _ repository.PaymentRepository = (*MockPaymentRepo)(nil)

func (m *MockPaymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, p)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.store[p.TransactionID] = &cp
	return nil
}

func (m *MockPaymentRepo) FindByTransactionID(ctx context.Context, tx repository.Tx, transactionID string) (*model.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[transactionID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MockPaymentRepo) TryTransition(ctx context.Context, tx repository.Tx, transactionID string, to model.PaymentStatus, details map[string]interface{}) (bool, model.PaymentStatus, error) {
	if m.TryTransitionFunc != nil {
		return m.TryTransitionFunc(ctx, tx, transactionID, to, details)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[transactionID]
	if !ok {
		return false, "", domain.ErrNotFound
	}
	if p.Status != model.PaymentStatusPending {
		return false, p.Status, nil
	}
	p.Status = to
	if details != nil {
		if p.Details == nil {
			p.Details = make(map[string]interface{})
		}
		for k, v := range details {
			p.Details[k] = v
		}
	}
	p.UpdatedAt = time.Now()
	return true, to, nil
}

func (m *MockPaymentRepo) ListPendingOlderThan(ctx context.Context, tx repository.Tx, olderThan time.Time, limit int) ([]*model.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Payment
	for _, p := range m.store {
		if p.Status == model.PaymentStatusPending && p.CreatedAt.Before(olderThan) {
			cp := *p
			out = append(out, &cp)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

// ---- In-memory SubscriptionRepository ----

type MockSubscriptionRepo struct {
	mu    sync.Mutex
	store map[string]*model.Subscription // by subscription id

	FinalizeFunc func(ctx context.Context, tx repository.Tx, id string, status model.SubscriptionStatus, startDate, expiryDate *time.Time) error
}

func NewMockSubscriptionRepo() *MockSubscriptionRepo {
	return &MockSubscriptionRepo{store: make(map[string]*model.Subscription)}
}

var _ repository.SubscriptionRepository = (*MockSubscriptionRepo)(nil)

func (m *MockSubscriptionRepo) Save(ctx context.Context, tx repository.Tx, s *model.Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.store[s.ID] = &cp
	return nil
}

func (m *MockSubscriptionRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *MockSubscriptionRepo) FindByTransactionID(ctx context.Context, tx repository.Tx, transactionID string) (*model.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.store {
		if s.TransactionID == transactionID {
			cp := *s
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockSubscriptionRepo) Finalize(ctx context.Context, tx repository.Tx, id string, status model.SubscriptionStatus, startDate, expiryDate *time.Time) error {
	if m.FinalizeFunc != nil {
		return m.FinalizeFunc(ctx, tx, id, status, startDate, expiryDate)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.store[id]
	if !ok {
		return domain.ErrNotFound
	}
	s.Status = status
	if startDate != nil {
		s.StartDate = startDate
	}
	if expiryDate != nil {
		s.ExpiryDate = expiryDate
	}
	s.UpdatedAt = time.Now()
	return nil
}

func (m *MockSubscriptionRepo) UpdateStatus(ctx context.Context, tx repository.Tx, id string, status model.SubscriptionStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.store[id]
	if !ok {
		return domain.ErrNotFound
	}
	s.Status = status
	s.UpdatedAt = time.Now()
	return nil
}

func (m *MockSubscriptionRepo) ListActiveExpiredBefore(ctx context.Context, tx repository.Tx, cutoff time.Time, limit int) ([]*model.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Subscription
	for _, s := range m.store {
		if s.Status == model.SubscriptionStatusActive && s.ExpiryDate != nil && s.ExpiryDate.Before(cutoff) {
			cp := *s
			out = append(out, &cp)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

// ---- Mock GatewayClient ----

type MockGateway struct {
	InitiateFunc    func(ctx context.Context, userID string, amount int64, plan model.PlanTitle, billing model.BillingCycle, transactionID string) (*adapter.InitiateResult, error)
	QueryStatusFunc func(ctx context.Context, transactionID string) (*adapter.GatewayState, error)

	mu              sync.Mutex
	queryStatusHits int
}

var _ adapter.GatewayClient = (*MockGateway)(nil)

func (m *MockGateway) Name() string { return "mock" }

func (m *MockGateway) Initiate(ctx context.Context, userID string, amount int64, plan model.PlanTitle, billing model.BillingCycle, transactionID string) (*adapter.InitiateResult, error) {
	if m.InitiateFunc != nil {
		return m.InitiateFunc(ctx, userID, amount, plan, billing, transactionID)
	}
	return &adapter.InitiateResult{GatewayOrderID: "gw-" + transactionID, RedirectURL: "https://pay.example/" + transactionID}, nil
}

func (m *MockGateway) QueryStatus(ctx context.Context, transactionID string) (*adapter.GatewayState, error) {
	m.mu.Lock()
	m.queryStatusHits++
	m.mu.Unlock()
	if m.QueryStatusFunc != nil {
		return m.QueryStatusFunc(ctx, transactionID)
	}
	return &adapter.GatewayState{State: "PENDING"}, nil
}

func (m *MockGateway) QueryStatusHits() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.queryStatusHits
}

// ---- Recording NotificationBus ----

type MockBus struct {
	mu     sync.Mutex
	events []adapter.PaymentEvent
}

var _ adapter.NotificationBus = (*MockBus)(nil)

func (b *MockBus) Publish(transactionID string, evt adapter.PaymentEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, evt)
}

func (b *MockBus) Subscribe(transactionID string) (<-chan adapter.PaymentEvent, func()) {
	ch := make(chan adapter.PaymentEvent)
	close(ch)
	return ch, func() {}
}

func (b *MockBus) Events() []adapter.PaymentEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]adapter.PaymentEvent, len(b.events))
	copy(out, b.events)
	return out
}

// ---- Mock TransactionManager ----

type MockTxManager struct {
	WithTxFunc func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error
}

func NewMockTxManager() *MockTxManager {
	return &MockTxManager{}
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

// WithTx runs the function immediately without a real transaction unless
// a test assigns WithTxFunc.
func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, txOpt, fn)
	}
	return fn(ctx, repository.NoTX)
}
