// Package stripe is a capability stub for card processing. Stripe does not
// operate in the Dominican market yet, so the provider implements the full
// contract but reports unavailable and answers every lifecycle call with the
// same fixed failure: no validation, no persistence, no events.
package stripe

import (
	"context"

	"github.com/rs/zerolog/log"

	"lavapay/internal/config"
	"lavapay/internal/provider"
	"lavapay/internal/provider/base"
)

const unavailableMessage = "Los pagos con tarjeta aún no están disponibles en su región"

// Provider implements the payment contract with no-op bodies
type Provider struct {
	scaffold *base.Scaffold
	cfg      config.ProviderCfg
}

// New creates the stub provider instance
func New(cfg config.ProviderCfg) *Provider {
	return &Provider{
		scaffold: base.NewScaffold(provider.ProviderStripe, cfg),
		cfg:      cfg,
	}
}

func (p *Provider) Type() provider.ProviderType {
	return provider.ProviderStripe
}

func (p *Provider) Name() string {
	return p.cfg.DisplayName
}

func (p *Provider) Initialize(ctx context.Context) error {
	if p.scaffold.Initialized() {
		return nil
	}
	p.scaffold.MarkInitialized()
	log.Info().Str("provider", string(p.Type())).Msg("stripe provider initialized (stub, unavailable)")
	return nil
}

// IsAvailable is always false, regardless of the enabled flag: the
// implementation behind the contract does not exist yet.
func (p *Provider) IsAvailable() bool {
	return false
}

func (p *Provider) CreatePayment(ctx context.Context, req provider.CreatePaymentRequest) *provider.PaymentResult {
	return p.unavailable()
}

func (p *Provider) ConfirmPayment(ctx context.Context, req provider.ConfirmPaymentRequest) *provider.PaymentResult {
	return p.unavailable()
}

func (p *Provider) GetPaymentStatus(ctx context.Context, paymentID string) *provider.PaymentResult {
	return p.unavailable()
}

func (p *Provider) CancelPayment(ctx context.Context, paymentID string) *provider.PaymentResult {
	return p.unavailable()
}

func (p *Provider) RefundPayment(ctx context.Context, req provider.RefundRequest) *provider.PaymentResult {
	return p.unavailable()
}

func (p *Provider) GetPaymentInstructions() provider.PaymentInstructions {
	return provider.PaymentInstructions{
		Provider:    provider.ProviderStripe,
		Title:       p.cfg.DisplayName,
		Description: p.cfg.Description,
		Steps:       []string{unavailableMessage},
	}
}

func (p *Provider) unavailable() *provider.PaymentResult {
	return provider.Failure(provider.ErrProviderUnavailable, unavailableMessage)
}
