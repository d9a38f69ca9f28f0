package payment

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPayment(t *testing.T) {
	p, err := NewPayment(MethodBankTransfer, decimal.NewFromInt(500), "dop", "BT-20260831120000-ABCD1234")
	require.NoError(t, err)

	assert.Equal(t, StatusPending, p.Status)
	assert.Equal(t, "DOP", p.Currency)
	assert.Equal(t, MethodBankTransfer, p.Method)
	assert.False(t, p.CreatedAt.IsZero())
}

func TestNewPaymentValidation(t *testing.T) {
	_, err := NewPayment("", decimal.NewFromInt(500), "DOP", "ref")
	assert.Error(t, err)

	_, err = NewPayment(MethodBankTransfer, decimal.Zero, "DOP", "ref")
	assert.Error(t, err)

	_, err = NewPayment(MethodBankTransfer, decimal.NewFromInt(500), "DOPX", "ref")
	assert.Error(t, err)

	_, err = NewPayment(MethodBankTransfer, decimal.NewFromInt(500), "DOP", "  ")
	assert.Error(t, err)
}

func TestStatusGuards(t *testing.T) {
	p := &Payment{Status: StatusPending}
	assert.True(t, p.CanConfirm())
	assert.True(t, p.CanCancel())
	assert.True(t, p.CanApprove())
	assert.False(t, p.CanRefund())
	assert.False(t, p.IsTerminal())

	p.Status = StatusProcessing
	assert.False(t, p.CanConfirm())
	assert.False(t, p.CanCancel())
	assert.True(t, p.CanApprove())
	assert.False(t, p.IsTerminal())

	p.Status = StatusCompleted
	assert.False(t, p.CanApprove())
	assert.True(t, p.CanRefund())
	assert.False(t, p.IsTerminal(), "completed still admits the refund path")

	for _, s := range []Status{StatusFailed, StatusCancelled, StatusRefunded} {
		p.Status = s
		assert.True(t, p.IsTerminal(), string(s))
		assert.False(t, p.CanConfirm())
		assert.False(t, p.CanCancel())
		assert.False(t, p.CanRefund())
	}
}

func TestRemainingRefundable(t *testing.T) {
	p := &Payment{
		Amount:         decimal.NewFromInt(500),
		RefundedAmount: decimal.NewFromInt(200),
	}
	assert.True(t, p.RemainingRefundable().Equal(decimal.NewFromInt(300)))
}
