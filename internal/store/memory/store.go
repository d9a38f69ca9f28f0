// Package memory implements the repository contracts on in-process maps.
// It backs the package tests and local development without postgres, and it
// honors the same conditional-update guarantee the providers rely on.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"lavapay/internal/domain/payment"
	"lavapay/internal/domain/subscription"
	"lavapay/internal/store/repositories"
)

// Store holds payments and subscriptions behind one mutex
type Store struct {
	mu            sync.Mutex
	payments      map[string]*payment.Payment
	subscriptions map[string]*subscription.Subscription
}

func NewStore() *Store {
	return &Store{
		payments:      make(map[string]*payment.Payment),
		subscriptions: make(map[string]*subscription.Subscription),
	}
}

// Payments returns the payment repository view of the store
func (s *Store) Payments() repositories.PaymentRepository {
	return &paymentRepository{store: s}
}

// Subscriptions returns the subscription repository view of the store
func (s *Store) Subscriptions() repositories.SubscriptionRepository {
	return &subscriptionRepository{store: s}
}

// UnitOfWork returns a unit of work over the store. There is no rollback for
// in-memory state; operations apply immediately, which matches what the tests
// need from it.
func (s *Store) UnitOfWork() repositories.UnitOfWork {
	return &unitOfWork{store: s}
}

// SeedSubscription inserts a subscription, for tests and local fixtures
func (s *Store) SeedSubscription(sub *subscription.Subscription) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *sub
	s.subscriptions[sub.ID] = &cp
}

type paymentRepository struct {
	store *Store
}

func (r *paymentRepository) Insert(ctx context.Context, p *payment.Payment) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	cp := clonePayment(p)
	r.store.payments[p.ID] = cp
	return nil
}

func (r *paymentRepository) FindByID(ctx context.Context, id string) (*payment.Payment, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	p, ok := r.store.payments[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return clonePayment(p), nil
}

func (r *paymentRepository) FindByReference(ctx context.Context, reference string) (*payment.Payment, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, p := range r.store.payments {
		if p.Reference == reference {
			return clonePayment(p), nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *paymentRepository) List(ctx context.Context, f repositories.PaymentFilter) ([]*payment.Payment, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var out []*payment.Payment
	for _, p := range r.store.payments {
		if f.Status != "" && p.Status != f.Status {
			continue
		}
		if f.Method != "" && p.Method != f.Method {
			continue
		}
		if f.SubscriptionID != "" && p.SubscriptionID != f.SubscriptionID {
			continue
		}
		if f.BranchID != "" && p.BranchID != f.BranchID {
			continue
		}
		out = append(out, clonePayment(p))
	}

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })

	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(out) {
		return nil, nil
	}
	if offset+limit < len(out) {
		out = out[offset : offset+limit]
	} else {
		out = out[offset:]
	}
	return out, nil
}

func (r *paymentRepository) UpdateStatusIf(ctx context.Context, id string, from []payment.Status, to payment.Status) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	p, ok := r.store.payments[id]
	if !ok {
		return false, nil
	}
	for _, s := range from {
		if p.Status == s {
			p.Status = to
			p.UpdatedAt = time.Now()
			return true, nil
		}
	}
	return false, nil
}

func (r *paymentRepository) ApplyRefund(ctx context.Context, id string, refundTotal decimal.Decimal, to payment.Status) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	p, ok := r.store.payments[id]
	if !ok || p.Status != payment.StatusCompleted {
		return false, nil
	}
	p.RefundedAmount = refundTotal
	p.Status = to
	p.UpdatedAt = time.Now()
	return true, nil
}

func (r *paymentRepository) SetReceiptReference(ctx context.Context, id, receiptRef string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	p, ok := r.store.payments[id]
	if !ok {
		return repositories.ErrNotFound
	}
	if p.Metadata == nil {
		p.Metadata = make(map[string]string)
	}
	p.Metadata["receipt_reference"] = receiptRef
	p.UpdatedAt = time.Now()
	return nil
}

func (r *paymentRepository) FindPendingOlderThan(ctx context.Context, method payment.Method, cutoff time.Time, limit int) ([]*payment.Payment, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var out []*payment.Payment
	for _, p := range r.store.payments {
		if p.Method == method && p.Status == payment.StatusPending && p.CreatedAt.Before(cutoff) {
			out = append(out, clonePayment(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type subscriptionRepository struct {
	store *Store
}

func (r *subscriptionRepository) FindByID(ctx context.Context, id string) (*subscription.Subscription, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	s, ok := r.store.subscriptions[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *subscriptionRepository) Save(ctx context.Context, sub *subscription.Subscription) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	cp := *sub
	r.store.subscriptions[sub.ID] = &cp
	return nil
}

type unitOfWork struct {
	store *Store
}

func (u *unitOfWork) Begin(ctx context.Context) (repositories.Transaction, error) {
	return &transaction{store: u.store}, nil
}

type transaction struct {
	store *Store
}

func (t *transaction) Commit(ctx context.Context) error   { return nil }
func (t *transaction) Rollback(ctx context.Context) error { return nil }

func (t *transaction) Payments() repositories.PaymentRepository {
	return &paymentRepository{store: t.store}
}

func (t *transaction) Subscriptions() repositories.SubscriptionRepository {
	return &subscriptionRepository{store: t.store}
}

func clonePayment(p *payment.Payment) *payment.Payment {
	cp := *p
	if p.Metadata != nil {
		cp.Metadata = make(map[string]string, len(p.Metadata))
		for k, v := range p.Metadata {
			cp.Metadata[k] = v
		}
	}
	if p.PeriodStart != nil {
		ts := *p.PeriodStart
		cp.PeriodStart = &ts
	}
	if p.PeriodEnd != nil {
		ts := *p.PeriodEnd
		cp.PeriodEnd = &ts
	}
	return &cp
}
