package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"lavapay/internal/domain/payment"
	"lavapay/internal/domain/subscription"
)

// ErrNotFound is returned by lookups that match no record
var ErrNotFound = errors.New("record not found")

// PaymentFilter narrows List queries
type PaymentFilter struct {
	Status         payment.Status
	Method         payment.Method
	SubscriptionID string
	BranchID       string
	Limit          int
	Offset         int
}

// PaymentRepository is the persistence collaborator behind the providers.
//
// UpdateStatusIf and ApplyRefund must be atomic conditional updates ("update
// only where current status matches"): concurrent lifecycle calls on the same
// payment id are not serialized anywhere above this layer.
type PaymentRepository interface {
	Insert(ctx context.Context, p *payment.Payment) error
	FindByID(ctx context.Context, id string) (*payment.Payment, error)
	FindByReference(ctx context.Context, reference string) (*payment.Payment, error)
	List(ctx context.Context, filter PaymentFilter) ([]*payment.Payment, error)

	// UpdateStatusIf transitions id from any of `from` to `to`. Returns false
	// when the record's current status matched none of `from`.
	UpdateStatusIf(ctx context.Context, id string, from []payment.Status, to payment.Status) (bool, error)

	// ApplyRefund records the accumulated refund total and the resulting
	// status, conditional on the record still being completed.
	ApplyRefund(ctx context.Context, id string, refundTotal decimal.Decimal, to payment.Status) (bool, error)

	// SetReceiptReference stores the payer's receipt correlation token
	SetReceiptReference(ctx context.Context, id, receiptRef string) error

	// FindPendingOlderThan lists stale pending payments for the expiry worker
	FindPendingOlderThan(ctx context.Context, method payment.Method, cutoff time.Time, limit int) ([]*payment.Payment, error)
}

// SubscriptionRepository covers the subscription slice touched by approvals
type SubscriptionRepository interface {
	FindByID(ctx context.Context, id string) (*subscription.Subscription, error)
	Save(ctx context.Context, sub *subscription.Subscription) error
}

// UnitOfWork defines transactional operations
type UnitOfWork interface {
	Begin(ctx context.Context) (Transaction, error)
}

// Transaction groups repository work that must commit or roll back together
// (payment approval plus subscription activation).
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
	Payments() PaymentRepository
	Subscriptions() SubscriptionRepository
}
