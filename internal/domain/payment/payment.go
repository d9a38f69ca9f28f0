package payment

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Payment is a single payment record. It is created by exactly one provider
// and only ever mutated by lifecycle calls on that same provider.
type Payment struct {
	ID             string
	SubscriptionID string
	BranchID       string
	Amount         decimal.Decimal
	Currency       string
	Status         Status
	Method         Method
	Reference      string
	InvoiceNumber  string
	PeriodStart    *time.Time
	PeriodEnd      *time.Time
	RefundedAmount decimal.Decimal
	CustomerID     string
	CustomerEmail  string
	CustomerName   string
	Metadata       map[string]string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Status represents payment status
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
	StatusRefunded   Status = "refunded"
)

// Method represents the payment method that owns the record
type Method string

const (
	MethodBankTransfer Method = "bank_transfer"
	MethodStripe       Method = "stripe"
	MethodPayPal       Method = "paypal"
)

// NewPayment creates a pending payment with validation
func NewPayment(method Method, amount decimal.Decimal, currency, reference string) (*Payment, error) {
	if err := validateCreation(method, amount, currency, reference); err != nil {
		return nil, err
	}

	now := time.Now()
	return &Payment{
		Amount:    amount,
		Currency:  strings.ToUpper(currency),
		Status:    StatusPending,
		Method:    method,
		Reference: reference,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// IsTerminal reports whether the record can no longer change. Completed is
// terminal except for the refund path.
func (p *Payment) IsTerminal() bool {
	switch p.Status {
	case StatusFailed, StatusCancelled, StatusRefunded:
		return true
	}
	return false
}

// CanConfirm checks the confirm guard (pending -> processing)
func (p *Payment) CanConfirm() bool {
	return p.Status == StatusPending
}

// CanApprove checks the approval guard (pending/processing -> completed)
func (p *Payment) CanApprove() bool {
	return p.Status == StatusPending || p.Status == StatusProcessing
}

// CanCancel checks the cancel guard (pending only)
func (p *Payment) CanCancel() bool {
	return p.Status == StatusPending
}

// CanRefund checks the refund guard (completed only)
func (p *Payment) CanRefund() bool {
	return p.Status == StatusCompleted
}

// RemainingRefundable returns the amount still open for refund
func (p *Payment) RemainingRefundable() decimal.Decimal {
	return p.Amount.Sub(p.RefundedAmount)
}

func validateCreation(method Method, amount decimal.Decimal, currency, reference string) error {
	if method == "" {
		return fmt.Errorf("payment method is required")
	}
	if amount.Sign() <= 0 {
		return fmt.Errorf("amount must be positive: %s", amount)
	}
	if len(strings.TrimSpace(currency)) != 3 {
		return fmt.Errorf("invalid currency code: %q", currency)
	}
	if strings.TrimSpace(reference) == "" {
		return fmt.Errorf("payment reference is required")
	}
	return nil
}
