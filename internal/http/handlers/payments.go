package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"lavapay/internal/domain/payment"
	"lavapay/internal/provider"
	paymentsvc "lavapay/internal/services/payment"
	"lavapay/internal/store/repositories"
)

var validate = validator.New()

type createPaymentReq struct {
	Provider       string            `json:"provider" validate:"required"`
	Amount         decimal.Decimal   `json:"amount"`
	Currency       string            `json:"currency" validate:"required,len=3"`
	CustomerID     string            `json:"customer_id"`
	CustomerEmail  string            `json:"customer_email" validate:"omitempty,email"`
	CustomerName   string            `json:"customer_name"`
	CustomerPhone  string            `json:"customer_phone"`
	SubscriptionID string            `json:"subscription_id"`
	BranchID       string            `json:"branch_id"`
	InvoiceNumber  string            `json:"invoice_number"`
	PeriodStart    *time.Time        `json:"period_start"`
	PeriodEnd      *time.Time        `json:"period_end"`
	Description    string            `json:"description"`
	Metadata       map[string]string `json:"metadata"`
}

// CreatePayment starts a payment through the requested provider
func CreatePayment(svc *paymentsvc.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in createPaymentReq
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if err := validate.Struct(in); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if in.Amount.Sign() <= 0 {
			http.Error(w, "amount must be positive", http.StatusBadRequest)
			return
		}

		res := svc.CreatePayment(r.Context(), provider.ProviderType(in.Provider), provider.CreatePaymentRequest{
			Amount:   in.Amount,
			Currency: in.Currency,
			Customer: provider.Customer{
				ID:    in.CustomerID,
				Email: in.CustomerEmail,
				Name:  in.CustomerName,
				Phone: in.CustomerPhone,
			},
			SubscriptionID: in.SubscriptionID,
			BranchID:       in.BranchID,
			InvoiceNumber:  in.InvoiceNumber,
			PeriodStart:    in.PeriodStart,
			PeriodEnd:      in.PeriodEnd,
			Description:    in.Description,
			Metadata:       in.Metadata,
		})
		writeResult(w, res)
	}
}

type confirmPaymentReq struct {
	ReceiptReference string            `json:"receipt_reference"`
	Metadata         map[string]string `json:"metadata"`
}

// ConfirmPayment submits the payer's receipt for an existing payment
func ConfirmPayment(svc *paymentsvc.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in confirmPaymentReq
		if r.ContentLength > 0 {
			if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
				http.Error(w, "bad json", http.StatusBadRequest)
				return
			}
		}

		res := svc.ConfirmPayment(r.Context(),
			provider.ProviderType(chi.URLParam(r, "type")),
			provider.ConfirmPaymentRequest{
				PaymentID:        chi.URLParam(r, "id"),
				ReceiptReference: in.ReceiptReference,
				Metadata:         in.Metadata,
			})
		writeResult(w, res)
	}
}

// GetPaymentStatus reads the current lifecycle state of a payment
func GetPaymentStatus(svc *paymentsvc.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res := svc.GetPaymentStatus(r.Context(),
			provider.ProviderType(chi.URLParam(r, "type")),
			chi.URLParam(r, "id"))
		writeResult(w, res)
	}
}

// CancelPayment cancels a pending payment
func CancelPayment(svc *paymentsvc.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res := svc.CancelPayment(r.Context(),
			provider.ProviderType(chi.URLParam(r, "type")),
			chi.URLParam(r, "id"))
		writeResult(w, res)
	}
}

type refundPaymentReq struct {
	Amount decimal.Decimal `json:"amount"`
	Reason string          `json:"reason"`
}

// RefundPayment refunds a completed payment, fully or partially
func RefundPayment(svc *paymentsvc.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in refundPaymentReq
		if r.ContentLength > 0 {
			if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
				http.Error(w, "bad json", http.StatusBadRequest)
				return
			}
		}

		res := svc.RefundPayment(r.Context(),
			provider.ProviderType(chi.URLParam(r, "type")),
			provider.RefundRequest{
				PaymentID: chi.URLParam(r, "id"),
				Amount:    in.Amount,
				Reason:    in.Reason,
			})
		writeResult(w, res)
	}
}

// ApprovePayment is the privileged operator action that completes a reviewed
// bank transfer.
func ApprovePayment(svc *paymentsvc.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res := svc.ApprovePayment(r.Context(), provider.ProviderBankTransfer, chi.URLParam(r, "id"))
		writeResult(w, res)
	}
}

// GetPaymentByReference looks a payment up by the reference the payer quotes
// on the bank transfer.
func GetPaymentByReference(payments repositories.PaymentRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := payments.FindByReference(r.Context(), chi.URLParam(r, "reference"))
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				http.Error(w, "payment not found", http.StatusNotFound)
				return
			}
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"data": p})
	}
}

// ListPayments lists payment records with optional filters and pagination
func ListPayments(payments repositories.PaymentRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		filter := repositories.PaymentFilter{
			Status:         payment.Status(q.Get("status")),
			Method:         payment.Method(q.Get("method")),
			SubscriptionID: q.Get("subscription_id"),
			BranchID:       q.Get("branch_id"),
			Limit:          50,
		}
		if v := q.Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
				filter.Limit = n
			}
		}
		if v := q.Get("offset"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n >= 0 {
				filter.Offset = n
			}
		}

		rows, err := payments.List(r.Context(), filter)
		if err != nil {
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"data": rows})
	}
}

// writeResult writes the uniform lifecycle envelope. Lifecycle failures are
// data, not transport errors, so the HTTP status stays 200 unless the record
// or provider could not be found at all.
func writeResult(w http.ResponseWriter, res *provider.PaymentResult) {
	status := http.StatusOK
	switch res.ErrorCode {
	case provider.ErrProviderNotFound, provider.ErrPaymentNotFound:
		status = http.StatusNotFound
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(res)
}
