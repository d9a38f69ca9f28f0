package banktransfer

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lavapay/internal/config"
	"lavapay/internal/domain/payment"
	"lavapay/internal/domain/subscription"
	"lavapay/internal/provider"
	"lavapay/internal/store/memory"
	"lavapay/internal/store/repositories"
)

func testCfg(enabled bool) config.ProviderCfg {
	return config.ProviderCfg{
		Enabled:             enabled,
		DisplayName:         "Transferencia Bancaria",
		Description:         "Pago manual por transferencia",
		SupportedCurrencies: []string{"DOP"},
		MinAmount:           decimal.NewFromInt(100),
		MaxAmount:           decimal.NewFromInt(500000),
		BankAccounts: []config.BankAccount{
			{BankName: "Banco Popular", AccountName: "Lavandería El Sol SRL", AccountNumber: "769-123456-8"},
		},
	}
}

func newTestProvider(t *testing.T, enabled bool) (*Provider, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	p := New(testCfg(enabled), store.Payments(), store.UnitOfWork())
	require.NoError(t, p.Initialize(context.Background()))
	return p, store
}

func createReq(amount int64) provider.CreatePaymentRequest {
	return provider.CreatePaymentRequest{
		Amount:   decimal.NewFromInt(amount),
		Currency: "DOP",
		Customer: provider.Customer{ID: "cus-1", Email: "maria@example.com", Name: "María Pérez"},
	}
}

func TestCreatePayment(t *testing.T) {
	p, store := newTestProvider(t, true)
	ctx := context.Background()

	res := p.CreatePayment(ctx, createReq(500))
	require.True(t, res.Success, res.Error)
	assert.Equal(t, payment.StatusPending, res.Status)
	assert.NotEmpty(t, res.PaymentID)
	assert.True(t, strings.HasPrefix(res.Reference, "BT-"))

	require.NotNil(t, res.RequiresAction)
	assert.Equal(t, provider.ActionUploadReceipt, res.RequiresAction.Type)
	accounts, ok := res.RequiresAction.Data["bank_accounts"].([]provider.BankAccountInfo)
	require.True(t, ok)
	require.Len(t, accounts, 1)
	assert.Equal(t, "Banco Popular", accounts[0].BankName)

	rec, err := store.Payments().FindByID(ctx, res.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, payment.StatusPending, rec.Status)
	assert.True(t, rec.Amount.Equal(decimal.NewFromInt(500)))
	assert.Equal(t, "cus-1", rec.CustomerID)
}

func TestCreatePaymentBelowMinimum(t *testing.T) {
	p, store := newTestProvider(t, true)
	ctx := context.Background()

	res := p.CreatePayment(ctx, createReq(50))
	assert.False(t, res.Success)
	assert.Equal(t, payment.StatusFailed, res.Status)
	assert.Equal(t, provider.ErrInvalidAmount, res.ErrorCode)

	rows, err := store.Payments().List(ctx, repositories.PaymentFilter{})
	require.NoError(t, err)
	assert.Empty(t, rows, "validation failure must not persist a record")
}

func TestCreatePaymentUnsupportedCurrency(t *testing.T) {
	p, store := newTestProvider(t, true)

	req := createReq(500)
	req.Currency = "EUR"
	res := p.CreatePayment(context.Background(), req)
	assert.False(t, res.Success)
	assert.Equal(t, provider.ErrUnsupportedCurrency, res.ErrorCode)

	rows, err := store.Payments().List(context.Background(), repositories.PaymentFilter{})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestCreatePaymentDisabled(t *testing.T) {
	p, store := newTestProvider(t, false)

	assert.False(t, p.IsAvailable())
	res := p.CreatePayment(context.Background(), createReq(500))
	assert.False(t, res.Success)
	assert.Equal(t, provider.ErrProviderUnavailable, res.ErrorCode)

	rows, err := store.Payments().List(context.Background(), repositories.PaymentFilter{})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestConfirmPayment(t *testing.T) {
	p, store := newTestProvider(t, true)
	ctx := context.Background()

	created := p.CreatePayment(ctx, createReq(500))
	require.True(t, created.Success)

	res := p.ConfirmPayment(ctx, provider.ConfirmPaymentRequest{
		PaymentID:        created.PaymentID,
		ReceiptReference: "DEP-20260831-01",
	})
	require.True(t, res.Success, res.Error)
	assert.Equal(t, payment.StatusProcessing, res.Status)

	rec, err := store.Payments().FindByID(ctx, created.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, payment.StatusProcessing, rec.Status)
	assert.Equal(t, "DEP-20260831-01", rec.Metadata["receipt_reference"])

	// a second confirm finds the record no longer pending
	again := p.ConfirmPayment(ctx, provider.ConfirmPaymentRequest{PaymentID: created.PaymentID})
	assert.False(t, again.Success)
	assert.Equal(t, payment.StatusProcessing, again.Status)
}

func TestConfirmPaymentNotFound(t *testing.T) {
	p, _ := newTestProvider(t, true)

	res := p.ConfirmPayment(context.Background(), provider.ConfirmPaymentRequest{PaymentID: "nope"})
	assert.False(t, res.Success)
	assert.Equal(t, provider.ErrPaymentNotFound, res.ErrorCode)
}

func TestApprovePaymentActivatesSubscription(t *testing.T) {
	p, store := newTestProvider(t, true)
	ctx := context.Background()

	store.SeedSubscription(&subscription.Subscription{
		ID:      "sub-1",
		Status:  subscription.StatusPastDue,
		PastDue: true,
	})

	start := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	req := createReq(500)
	req.SubscriptionID = "sub-1"
	req.PeriodStart = &start
	req.PeriodEnd = &end

	created := p.CreatePayment(ctx, req)
	require.True(t, created.Success)

	confirmed := p.ConfirmPayment(ctx, provider.ConfirmPaymentRequest{PaymentID: created.PaymentID})
	require.True(t, confirmed.Success)
	assert.Equal(t, payment.StatusProcessing, confirmed.Status)

	approved := p.ApprovePayment(ctx, created.PaymentID)
	require.True(t, approved.Success, approved.Error)
	assert.Equal(t, payment.StatusCompleted, approved.Status)

	sub, err := store.Subscriptions().FindByID(ctx, "sub-1")
	require.NoError(t, err)
	assert.Equal(t, subscription.StatusActive, sub.Status)
	assert.False(t, sub.PastDue)
	assert.True(t, sub.PeriodStart.Equal(start))
	assert.True(t, sub.PeriodEnd.Equal(end))
}

func TestApprovePaymentFromPending(t *testing.T) {
	p, _ := newTestProvider(t, true)
	ctx := context.Background()

	created := p.CreatePayment(ctx, createReq(500))
	require.True(t, created.Success)

	// approval directly from pending is legal; the receipt may have arrived
	// through another channel
	approved := p.ApprovePayment(ctx, created.PaymentID)
	require.True(t, approved.Success)
	assert.Equal(t, payment.StatusCompleted, approved.Status)
}

func TestApprovePaymentGuards(t *testing.T) {
	p, _ := newTestProvider(t, true)
	ctx := context.Background()

	created := p.CreatePayment(ctx, createReq(500))
	require.True(t, p.CancelPayment(ctx, created.PaymentID).Success)

	res := p.ApprovePayment(ctx, created.PaymentID)
	assert.False(t, res.Success)
	assert.Equal(t, payment.StatusCancelled, res.Status)
}

func TestCancelPaymentTwice(t *testing.T) {
	p, store := newTestProvider(t, true)
	ctx := context.Background()

	created := p.CreatePayment(ctx, createReq(500))
	require.True(t, created.Success)

	first := p.CancelPayment(ctx, created.PaymentID)
	require.True(t, first.Success)
	assert.Equal(t, payment.StatusCancelled, first.Status)

	second := p.CancelPayment(ctx, created.PaymentID)
	assert.False(t, second.Success)
	assert.Equal(t, payment.StatusCancelled, second.Status)

	rec, err := store.Payments().FindByID(ctx, created.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, payment.StatusCancelled, rec.Status)
}

func TestCancelNonPending(t *testing.T) {
	p, store := newTestProvider(t, true)
	ctx := context.Background()

	created := p.CreatePayment(ctx, createReq(500))
	require.True(t, p.ApprovePayment(ctx, created.PaymentID).Success)

	res := p.CancelPayment(ctx, created.PaymentID)
	assert.False(t, res.Success)
	assert.Equal(t, payment.StatusCompleted, res.Status)

	rec, err := store.Payments().FindByID(ctx, created.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, payment.StatusCompleted, rec.Status, "failed cancel must leave status unchanged")
}

func TestRefundGuards(t *testing.T) {
	p, _ := newTestProvider(t, true)
	ctx := context.Background()

	created := p.CreatePayment(ctx, createReq(500))

	res := p.RefundPayment(ctx, provider.RefundRequest{PaymentID: created.PaymentID})
	assert.False(t, res.Success, "refund is only legal from completed")
	assert.Equal(t, payment.StatusPending, res.Status)
}

func TestRefundFull(t *testing.T) {
	p, store := newTestProvider(t, true)
	ctx := context.Background()

	created := p.CreatePayment(ctx, createReq(500))
	require.True(t, p.ApprovePayment(ctx, created.PaymentID).Success)

	res := p.RefundPayment(ctx, provider.RefundRequest{PaymentID: created.PaymentID})
	require.True(t, res.Success, res.Error)
	assert.Equal(t, payment.StatusRefunded, res.Status)

	rec, err := store.Payments().FindByID(ctx, created.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, payment.StatusRefunded, rec.Status)
	assert.True(t, rec.RefundedAmount.Equal(decimal.NewFromInt(500)))

	again := p.RefundPayment(ctx, provider.RefundRequest{PaymentID: created.PaymentID})
	assert.False(t, again.Success)
}

func TestRefundPartial(t *testing.T) {
	p, store := newTestProvider(t, true)
	ctx := context.Background()

	created := p.CreatePayment(ctx, createReq(500))
	require.True(t, p.ApprovePayment(ctx, created.PaymentID).Success)

	partial := p.RefundPayment(ctx, provider.RefundRequest{
		PaymentID: created.PaymentID,
		Amount:    decimal.NewFromInt(200),
	})
	require.True(t, partial.Success)
	assert.Equal(t, payment.StatusCompleted, partial.Status, "partially refunded payments stay completed")

	rec, err := store.Payments().FindByID(ctx, created.PaymentID)
	require.NoError(t, err)
	assert.True(t, rec.RefundedAmount.Equal(decimal.NewFromInt(200)))

	over := p.RefundPayment(ctx, provider.RefundRequest{
		PaymentID: created.PaymentID,
		Amount:    decimal.NewFromInt(400),
	})
	assert.False(t, over.Success, "refund beyond the remaining balance must fail")

	rest := p.RefundPayment(ctx, provider.RefundRequest{PaymentID: created.PaymentID})
	require.True(t, rest.Success)
	assert.Equal(t, payment.StatusRefunded, rest.Status)
}

func TestGetPaymentStatusIsPureRead(t *testing.T) {
	p, store := newTestProvider(t, true)
	ctx := context.Background()

	created := p.CreatePayment(ctx, createReq(500))
	before, err := store.Payments().FindByID(ctx, created.PaymentID)
	require.NoError(t, err)

	res := p.GetPaymentStatus(ctx, created.PaymentID)
	require.True(t, res.Success)
	assert.Equal(t, payment.StatusPending, res.Status)

	after, err := store.Payments().FindByID(ctx, created.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, before.UpdatedAt, after.UpdatedAt)
}

func TestGetPaymentInstructions(t *testing.T) {
	p, _ := newTestProvider(t, true)

	instr := p.GetPaymentInstructions()
	assert.Equal(t, provider.ProviderBankTransfer, instr.Provider)
	assert.Equal(t, "Transferencia Bancaria", instr.Title)
	assert.NotEmpty(t, instr.Steps)
	require.Len(t, instr.BankAccounts, 1)
	assert.Equal(t, "769-123456-8", instr.BankAccounts[0].AccountNumber)
}

func TestInitializeIdempotent(t *testing.T) {
	p, _ := newTestProvider(t, true)
	require.NoError(t, p.Initialize(context.Background()))
	require.NoError(t, p.Initialize(context.Background()))
	assert.True(t, p.IsAvailable())
}
