package provider

import (
	"time"

	"github.com/shopspring/decimal"

	"lavapay/internal/domain/payment"
)

// Provider identification
type ProviderType string

const (
	ProviderBankTransfer ProviderType = "bank_transfer"
	ProviderStripe       ProviderType = "stripe"
	ProviderPayPal       ProviderType = "paypal"
)

// Customer identifies the payer. Opaque to the orchestration layer.
type Customer struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
}

// CreatePaymentRequest starts a payment lifecycle
type CreatePaymentRequest struct {
	Amount         decimal.Decimal   `json:"amount"`
	Currency       string            `json:"currency"`
	Customer       Customer          `json:"customer"`
	SubscriptionID string            `json:"subscription_id,omitempty"`
	BranchID       string            `json:"branch_id,omitempty"`
	InvoiceNumber  string            `json:"invoice_number,omitempty"`
	PeriodStart    *time.Time        `json:"period_start,omitempty"`
	PeriodEnd      *time.Time        `json:"period_end,omitempty"`
	Description    string            `json:"description,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// ConfirmPaymentRequest advances an existing payment
type ConfirmPaymentRequest struct {
	PaymentID        string            `json:"payment_id"`
	ReceiptReference string            `json:"receipt_reference,omitempty"`
	Metadata         map[string]string `json:"metadata,omitempty"`
}

// RefundRequest reverses a completed payment, fully or partially.
// A zero Amount means full refund of the remaining balance.
type RefundRequest struct {
	PaymentID string          `json:"payment_id"`
	Amount    decimal.Decimal `json:"amount"`
	Reason    string          `json:"reason,omitempty"`
}

// Action types a caller may need to perform out of band
type ActionType string

const (
	ActionRedirect      ActionType = "redirect"
	ActionConfirm       ActionType = "confirm"
	ActionUploadReceipt ActionType = "upload_receipt"
)

// RequiredAction describes the out-of-band step the payer must take
type RequiredAction struct {
	Type ActionType     `json:"type"`
	Data map[string]any `json:"data,omitempty"`
}

// PaymentResult is the uniform response envelope for every lifecycle call.
// Failures are carried here as data; lifecycle methods never return errors.
type PaymentResult struct {
	Success        bool            `json:"success"`
	PaymentID      string          `json:"payment_id,omitempty"`
	Status         payment.Status  `json:"status,omitempty"`
	Reference      string          `json:"reference,omitempty"`
	RedirectURL    string          `json:"redirect_url,omitempty"`
	Message        string          `json:"message,omitempty"`
	Error          string          `json:"error,omitempty"`
	ErrorCode      string          `json:"error_code,omitempty"`
	RequiresAction *RequiredAction `json:"requires_action,omitempty"`
}

// BankAccountInfo is display-only data for manual transfers
type BankAccountInfo struct {
	BankName      string `json:"bank_name"`
	AccountName   string `json:"account_name"`
	AccountNumber string `json:"account_number"`
	AccountType   string `json:"account_type,omitempty"`
	Notes         string `json:"notes,omitempty"`
}

// PaymentInstructions is static, human-facing guidance for one provider
type PaymentInstructions struct {
	Provider     ProviderType      `json:"provider"`
	Title        string            `json:"title"`
	Description  string            `json:"description"`
	Steps        []string          `json:"steps,omitempty"`
	BankAccounts []BankAccountInfo `json:"bank_accounts,omitempty"`
}

// Payment lifecycle events
type EventType string

const (
	EventCreated   EventType = "payment.created"
	EventConfirmed EventType = "payment.confirmed"
	EventApproved  EventType = "payment.approved"
	EventCancelled EventType = "payment.cancelled"
	EventRefunded  EventType = "payment.refunded"
)

// Event is emitted on every state-changing operation that succeeds
type Event struct {
	Type      EventType      `json:"type"`
	PaymentID string         `json:"payment_id"`
	Provider  ProviderType   `json:"provider"`
	Timestamp time.Time      `json:"timestamp"`
	Data      *PaymentResult `json:"data"`
}

// Error codes carried in PaymentResult.ErrorCode
const (
	ErrInvalidAmount       = "invalid_amount"
	ErrUnsupportedCurrency = "unsupported_currency"
	ErrPaymentNotFound     = "payment_not_found"
	ErrProviderNotFound    = "provider_not_found"
	ErrProviderUnavailable = "provider_unavailable"
	ErrStorageFailed       = "storage_failed"
	ErrInvalidRequest      = "invalid_request"
)

// ProviderError is used for registry-level failures that are not part of a
// payment lifecycle result (unknown provider type, registration problems).
type ProviderError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *ProviderError) Error() string {
	return e.Message
}

// Failure builds a failed result with no backing record
func Failure(code, message string) *PaymentResult {
	return &PaymentResult{
		Success:   false,
		Status:    payment.StatusFailed,
		Error:     message,
		ErrorCode: code,
	}
}

// RecordFailure builds a failed result for an operation rejected against an
// existing record; the record's current status is reported unchanged.
func RecordFailure(paymentID string, status payment.Status, code, message string) *PaymentResult {
	return &PaymentResult{
		Success:   false,
		PaymentID: paymentID,
		Status:    status,
		Error:     message,
		ErrorCode: code,
	}
}
