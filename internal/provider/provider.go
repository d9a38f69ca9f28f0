package provider

import "context"

// Provider is the capability contract every payment method implements.
//
// Lifecycle methods report failure through the returned PaymentResult, never
// through a Go error: callers get one uniform envelope regardless of whether
// the provider is a synchronous card processor or a human-reconciled bank
// transfer flow.
type Provider interface {
	// Type returns the registry key for this provider
	Type() ProviderType

	// Name returns the human-readable provider name
	Name() string

	// Initialize performs one-time setup. Idempotent; calls after the first
	// are no-ops.
	Initialize(ctx context.Context) error

	// IsAvailable is true only when the provider is initialized and enabled
	// in configuration.
	IsAvailable() bool

	// CreatePayment validates the request against provider bounds and, on
	// success, persists a pending record. Validation failures produce a
	// failed result with no side effects.
	CreatePayment(ctx context.Context, req CreatePaymentRequest) *PaymentResult

	// ConfirmPayment advances an existing record toward processing or
	// completed, depending on provider semantics.
	ConfirmPayment(ctx context.Context, req ConfirmPaymentRequest) *PaymentResult

	// GetPaymentStatus is a pure read of the current record state
	GetPaymentStatus(ctx context.Context, paymentID string) *PaymentResult

	// CancelPayment cancels a payment; legal only from pending
	CancelPayment(ctx context.Context, paymentID string) *PaymentResult

	// RefundPayment refunds a completed payment, fully or partially
	RefundPayment(ctx context.Context, req RefundRequest) *PaymentResult

	// GetPaymentInstructions returns static human-facing guidance, a pure
	// function of configuration.
	GetPaymentInstructions() PaymentInstructions
}
