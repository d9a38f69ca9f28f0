package stripe

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lavapay/internal/config"
	"lavapay/internal/provider"
)

func newStub(t *testing.T, enabled bool) *Provider {
	t.Helper()
	p := New(config.ProviderCfg{
		Enabled:             enabled,
		DisplayName:         "Tarjeta de Crédito/Débito",
		SupportedCurrencies: []string{"USD"},
		MinAmount:           decimal.NewFromInt(1),
	})
	require.NoError(t, p.Initialize(context.Background()))
	return p
}

func TestUnavailableRegardlessOfConfig(t *testing.T) {
	assert.False(t, newStub(t, false).IsAvailable())
	assert.False(t, newStub(t, true).IsAvailable(), "the stub ignores the enabled flag")
}

func TestAllLifecycleCallsReturnTheSameFailure(t *testing.T) {
	p := newStub(t, true)
	ctx := context.Background()

	results := []*provider.PaymentResult{
		p.CreatePayment(ctx, provider.CreatePaymentRequest{Amount: decimal.NewFromInt(10), Currency: "USD"}),
		p.ConfirmPayment(ctx, provider.ConfirmPaymentRequest{PaymentID: "x"}),
		p.GetPaymentStatus(ctx, "x"),
		p.CancelPayment(ctx, "x"),
		p.RefundPayment(ctx, provider.RefundRequest{PaymentID: "x"}),
	}

	for _, res := range results {
		assert.False(t, res.Success)
		assert.Equal(t, provider.ErrProviderUnavailable, res.ErrorCode)
		assert.Equal(t, unavailableMessage, res.Error)
		assert.Empty(t, res.PaymentID, "the stub never touches a record")
	}
}

func TestInstructionsMentionUnavailability(t *testing.T) {
	instr := newStub(t, true).GetPaymentInstructions()
	assert.Equal(t, provider.ProviderStripe, instr.Provider)
	assert.Contains(t, instr.Steps, unavailableMessage)
}
