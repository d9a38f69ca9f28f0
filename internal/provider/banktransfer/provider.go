// Package banktransfer implements the manual bank-transfer payment flow:
// the payer wires money out of band, uploads a receipt, and an operator
// approves the payment after reconciling it against the bank statement.
package banktransfer

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"lavapay/internal/config"
	"lavapay/internal/domain/payment"
	"lavapay/internal/provider"
	"lavapay/internal/provider/base"
	"lavapay/internal/store/repositories"
)

// Provider implements the bank transfer payment provider
type Provider struct {
	scaffold *base.Scaffold
	cfg      config.ProviderCfg
	payments repositories.PaymentRepository
	uow      repositories.UnitOfWork
}

// New creates a bank transfer provider instance
func New(cfg config.ProviderCfg, payments repositories.PaymentRepository, uow repositories.UnitOfWork) *Provider {
	return &Provider{
		scaffold: base.NewScaffold(provider.ProviderBankTransfer, cfg),
		cfg:      cfg,
		payments: payments,
		uow:      uow,
	}
}

func (p *Provider) Type() provider.ProviderType {
	return provider.ProviderBankTransfer
}

func (p *Provider) Name() string {
	return p.cfg.DisplayName
}

func (p *Provider) Initialize(ctx context.Context) error {
	if p.scaffold.Initialized() {
		return nil
	}
	p.scaffold.MarkInitialized()
	log.Info().
		Str("provider", string(p.Type())).
		Bool("enabled", p.cfg.Enabled).
		Bool("test_mode", p.cfg.TestMode).
		Int("bank_accounts", len(p.cfg.BankAccounts)).
		Msg("bank transfer provider initialized")
	return nil
}

func (p *Provider) IsAvailable() bool {
	return p.scaffold.Available()
}

// CreatePayment validates bounds, generates a reference and persists a
// pending record. The payer still has to transfer the money and upload the
// receipt, so the result always carries an upload_receipt action.
func (p *Provider) CreatePayment(ctx context.Context, req provider.CreatePaymentRequest) *provider.PaymentResult {
	if !p.IsAvailable() {
		return provider.Failure(provider.ErrProviderUnavailable, "bank transfer payments are not available")
	}

	if verr := p.scaffold.ValidateAmount(req.Amount, req.Currency); verr != nil {
		return provider.Failure(verr.Code, verr.Message)
	}

	reference, err := p.scaffold.GenerateReference()
	if err != nil {
		log.Error().Err(err).Msg("bank transfer: reference generation failed")
		return provider.Failure(provider.ErrStorageFailed, "could not create payment")
	}

	rec, err := payment.NewPayment(payment.MethodBankTransfer, req.Amount, req.Currency, reference)
	if err != nil {
		return provider.Failure(provider.ErrInvalidRequest, err.Error())
	}

	rec.SubscriptionID = req.SubscriptionID
	rec.BranchID = req.BranchID
	rec.InvoiceNumber = req.InvoiceNumber
	rec.PeriodStart = req.PeriodStart
	rec.PeriodEnd = req.PeriodEnd
	rec.CustomerID = req.Customer.ID
	rec.CustomerEmail = req.Customer.Email
	rec.CustomerName = req.Customer.Name
	if len(req.Metadata) > 0 {
		rec.Metadata = make(map[string]string, len(req.Metadata))
		for k, v := range req.Metadata {
			rec.Metadata[k] = v
		}
	}

	if err := p.payments.Insert(ctx, rec); err != nil {
		log.Error().Err(err).Str("reference", reference).Msg("bank transfer: insert payment failed")
		return provider.Failure(provider.ErrStorageFailed, "could not create payment")
	}

	log.Info().
		Str("payment_id", rec.ID).
		Str("reference", reference).
		Str("amount", req.Amount.String()).
		Str("currency", rec.Currency).
		Msg("bank transfer payment created")

	return &provider.PaymentResult{
		Success:   true,
		PaymentID: rec.ID,
		Status:    payment.StatusPending,
		Reference: reference,
		Message:   "transfer the amount to one of the listed accounts and upload the receipt",
		RequiresAction: &provider.RequiredAction{
			Type: provider.ActionUploadReceipt,
			Data: map[string]any{
				"reference":     reference,
				"bank_accounts": p.bankAccounts(),
			},
		},
	}
}

// ConfirmPayment marks the payment as processing: the payer submitted a
// receipt and a human still has to verify it. Completion is a separate
// administrative step (ApprovePayment).
func (p *Provider) ConfirmPayment(ctx context.Context, req provider.ConfirmPaymentRequest) *provider.PaymentResult {
	if !p.IsAvailable() {
		return provider.Failure(provider.ErrProviderUnavailable, "bank transfer payments are not available")
	}

	rec, res := p.fetch(ctx, req.PaymentID)
	if res != nil {
		return res
	}

	ok, err := p.payments.UpdateStatusIf(ctx, rec.ID, []payment.Status{payment.StatusPending}, payment.StatusProcessing)
	if err != nil {
		log.Error().Err(err).Str("payment_id", rec.ID).Msg("bank transfer: confirm update failed")
		return provider.Failure(provider.ErrStorageFailed, "could not confirm payment")
	}
	if !ok {
		return provider.RecordFailure(rec.ID, rec.Status, provider.ErrInvalidRequest,
			"payment can only be confirmed while pending")
	}

	if req.ReceiptReference != "" {
		if err := p.payments.SetReceiptReference(ctx, rec.ID, req.ReceiptReference); err != nil {
			// status already advanced; the receipt token is correlation data only
			log.Warn().Err(err).Str("payment_id", rec.ID).Msg("bank transfer: storing receipt reference failed")
		}
	}

	log.Info().Str("payment_id", rec.ID).Msg("bank transfer payment confirmed, awaiting review")

	return &provider.PaymentResult{
		Success:   true,
		PaymentID: rec.ID,
		Status:    payment.StatusProcessing,
		Reference: rec.Reference,
		Message:   "receipt received, payment is pending manual verification",
	}
}

// GetPaymentStatus is a pure read
func (p *Provider) GetPaymentStatus(ctx context.Context, paymentID string) *provider.PaymentResult {
	rec, res := p.fetch(ctx, paymentID)
	if res != nil {
		return res
	}
	return &provider.PaymentResult{
		Success:   true,
		PaymentID: rec.ID,
		Status:    rec.Status,
		Reference: rec.Reference,
	}
}

// CancelPayment cancels a payment; legal only from pending
func (p *Provider) CancelPayment(ctx context.Context, paymentID string) *provider.PaymentResult {
	if !p.IsAvailable() {
		return provider.Failure(provider.ErrProviderUnavailable, "bank transfer payments are not available")
	}

	rec, res := p.fetch(ctx, paymentID)
	if res != nil {
		return res
	}

	ok, err := p.payments.UpdateStatusIf(ctx, rec.ID, []payment.Status{payment.StatusPending}, payment.StatusCancelled)
	if err != nil {
		log.Error().Err(err).Str("payment_id", rec.ID).Msg("bank transfer: cancel update failed")
		return provider.Failure(provider.ErrStorageFailed, "could not cancel payment")
	}
	if !ok {
		return provider.RecordFailure(rec.ID, rec.Status, provider.ErrInvalidRequest,
			"payment can only be cancelled while pending")
	}

	log.Info().Str("payment_id", rec.ID).Msg("bank transfer payment cancelled")

	return &provider.PaymentResult{
		Success:   true,
		PaymentID: rec.ID,
		Status:    payment.StatusCancelled,
		Reference: rec.Reference,
	}
}

// RefundPayment refunds a completed payment. A zero amount refunds the
// remaining balance; partial refunds keep the record completed until the full
// amount has been returned.
func (p *Provider) RefundPayment(ctx context.Context, req provider.RefundRequest) *provider.PaymentResult {
	if !p.IsAvailable() {
		return provider.Failure(provider.ErrProviderUnavailable, "bank transfer payments are not available")
	}

	rec, res := p.fetch(ctx, req.PaymentID)
	if res != nil {
		return res
	}

	if !rec.CanRefund() {
		return provider.RecordFailure(rec.ID, rec.Status, provider.ErrInvalidRequest,
			"only completed payments can be refunded")
	}

	amount := req.Amount
	remaining := rec.RemainingRefundable()
	if amount.Sign() == 0 {
		amount = remaining
	}
	if amount.Sign() <= 0 || amount.GreaterThan(remaining) {
		return provider.RecordFailure(rec.ID, rec.Status, provider.ErrInvalidAmount,
			"refund amount must be positive and within the remaining balance of "+remaining.String())
	}

	newTotal := rec.RefundedAmount.Add(amount)
	newStatus := payment.StatusCompleted
	if newTotal.Equal(rec.Amount) {
		newStatus = payment.StatusRefunded
	}

	ok, err := p.payments.ApplyRefund(ctx, rec.ID, newTotal, newStatus)
	if err != nil {
		log.Error().Err(err).Str("payment_id", rec.ID).Msg("bank transfer: refund update failed")
		return provider.Failure(provider.ErrStorageFailed, "could not refund payment")
	}
	if !ok {
		return provider.RecordFailure(rec.ID, rec.Status, provider.ErrInvalidRequest,
			"payment is no longer refundable")
	}

	log.Info().
		Str("payment_id", rec.ID).
		Str("refund_amount", amount.String()).
		Str("refund_total", newTotal.String()).
		Msg("bank transfer payment refunded")

	return &provider.PaymentResult{
		Success:   true,
		PaymentID: rec.ID,
		Status:    newStatus,
		Reference: rec.Reference,
		Message:   "refunded " + amount.String() + " " + rec.Currency,
	}
}

// ApprovePayment is a bank-transfer-specific extension, not part of the
// generic contract: a privileged operator verified the transfer against the
// bank statement. It moves pending/processing to completed and, when the
// payment references a subscription, activates that subscription's billing
// window and clears its past-due marker in the same transaction.
func (p *Provider) ApprovePayment(ctx context.Context, paymentID string) *provider.PaymentResult {
	if !p.IsAvailable() {
		return provider.Failure(provider.ErrProviderUnavailable, "bank transfer payments are not available")
	}

	rec, res := p.fetch(ctx, paymentID)
	if res != nil {
		return res
	}
	if !rec.CanApprove() {
		return provider.RecordFailure(rec.ID, rec.Status, provider.ErrInvalidRequest,
			"payment can only be approved while pending or processing")
	}

	tx, err := p.uow.Begin(ctx)
	if err != nil {
		log.Error().Err(err).Str("payment_id", rec.ID).Msg("bank transfer: begin approval tx failed")
		return provider.Failure(provider.ErrStorageFailed, "could not approve payment")
	}
	defer tx.Rollback(ctx)

	ok, err := tx.Payments().UpdateStatusIf(ctx, rec.ID,
		[]payment.Status{payment.StatusPending, payment.StatusProcessing}, payment.StatusCompleted)
	if err != nil {
		log.Error().Err(err).Str("payment_id", rec.ID).Msg("bank transfer: approval update failed")
		return provider.Failure(provider.ErrStorageFailed, "could not approve payment")
	}
	if !ok {
		return provider.RecordFailure(rec.ID, rec.Status, provider.ErrInvalidRequest,
			"payment can only be approved while pending or processing")
	}

	if rec.SubscriptionID != "" {
		if err := p.activateSubscription(ctx, tx, rec); err != nil {
			log.Error().Err(err).
				Str("payment_id", rec.ID).
				Str("subscription_id", rec.SubscriptionID).
				Msg("bank transfer: subscription activation failed")
			return provider.Failure(provider.ErrStorageFailed, "could not approve payment")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		log.Error().Err(err).Str("payment_id", rec.ID).Msg("bank transfer: approval commit failed")
		return provider.Failure(provider.ErrStorageFailed, "could not approve payment")
	}

	log.Info().
		Str("payment_id", rec.ID).
		Str("subscription_id", rec.SubscriptionID).
		Msg("bank transfer payment approved")

	return &provider.PaymentResult{
		Success:   true,
		PaymentID: rec.ID,
		Status:    payment.StatusCompleted,
		Reference: rec.Reference,
		Message:   "payment approved",
	}
}

// GetPaymentInstructions is a pure function of configuration
func (p *Provider) GetPaymentInstructions() provider.PaymentInstructions {
	return provider.PaymentInstructions{
		Provider:    provider.ProviderBankTransfer,
		Title:       p.cfg.DisplayName,
		Description: p.cfg.Description,
		Steps: []string{
			"transfer the exact amount to one of the listed accounts",
			"use the payment reference as the transfer concept",
			"upload a photo or PDF of the receipt",
			"wait for manual verification by the shop",
		},
		BankAccounts: p.bankAccounts(),
	}
}

// fetch loads a record and converts lookup problems into lifecycle results
func (p *Provider) fetch(ctx context.Context, paymentID string) (*payment.Payment, *provider.PaymentResult) {
	rec, err := p.payments.FindByID(ctx, paymentID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, provider.Failure(provider.ErrPaymentNotFound, "payment "+paymentID+" not found")
	}
	if err != nil {
		log.Error().Err(err).Str("payment_id", paymentID).Msg("bank transfer: lookup failed")
		return nil, provider.Failure(provider.ErrStorageFailed, "could not load payment")
	}
	return rec, nil
}

func (p *Provider) activateSubscription(ctx context.Context, tx repositories.Transaction, rec *payment.Payment) error {
	sub, err := tx.Subscriptions().FindByID(ctx, rec.SubscriptionID)
	if err != nil {
		return err
	}

	start, end := billingWindow(rec)
	if err := sub.Activate(start, end); err != nil {
		return err
	}
	return tx.Subscriptions().Save(ctx, sub)
}

// billingWindow prefers the period carried on the payment; a payment without
// one buys a month starting at approval time.
func billingWindow(rec *payment.Payment) (time.Time, time.Time) {
	if rec.PeriodStart != nil && rec.PeriodEnd != nil {
		return *rec.PeriodStart, *rec.PeriodEnd
	}
	now := time.Now()
	return now, now.AddDate(0, 1, 0)
}

func (p *Provider) bankAccounts() []provider.BankAccountInfo {
	accounts := make([]provider.BankAccountInfo, 0, len(p.cfg.BankAccounts))
	for _, a := range p.cfg.BankAccounts {
		accounts = append(accounts, provider.BankAccountInfo{
			BankName:      a.BankName,
			AccountName:   a.AccountName,
			AccountNumber: a.AccountNumber,
			AccountType:   a.AccountType,
			Notes:         a.Notes,
		})
	}
	return accounts
}
