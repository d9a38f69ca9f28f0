package base

import (
	"crypto/rand"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"lavapay/internal/config"
	"lavapay/internal/provider"
)

// Scaffold carries the bookkeeping every concrete provider needs:
// initialization state, amount/currency validation against configured bounds,
// and reference-number generation. Providers embed it by composition and call
// into it explicitly; it implements none of the lifecycle contract itself.
type Scaffold struct {
	providerType provider.ProviderType
	cfg          config.ProviderCfg
	initialized  atomic.Bool
}

// NewScaffold creates scaffolding for one provider type
func NewScaffold(providerType provider.ProviderType, cfg config.ProviderCfg) *Scaffold {
	return &Scaffold{providerType: providerType, cfg: cfg}
}

// MarkInitialized records that one-time setup ran. Safe to call repeatedly.
func (s *Scaffold) MarkInitialized() {
	s.initialized.Store(true)
}

// Initialized reports whether setup has run
func (s *Scaffold) Initialized() bool {
	return s.initialized.Load()
}

// Available is the standard availability gate: initialized AND enabled.
// The enabled flag is read from config on every call.
func (s *Scaffold) Available() bool {
	return s.initialized.Load() && s.cfg.Enabled
}

// Config returns the static provider descriptor
func (s *Scaffold) Config() config.ProviderCfg {
	return s.cfg
}

// ValidateAmount checks currency membership and the min/max bounds. A nil
// return means the amount is acceptable. A MaxAmount of zero means unbounded.
func (s *Scaffold) ValidateAmount(amount decimal.Decimal, currency string) *provider.ProviderError {
	currency = strings.ToUpper(strings.TrimSpace(currency))

	supported := false
	for _, c := range s.cfg.SupportedCurrencies {
		if c == currency {
			supported = true
			break
		}
	}
	if !supported {
		return &provider.ProviderError{
			Code:    provider.ErrUnsupportedCurrency,
			Message: fmt.Sprintf("currency %s is not supported; accepted: %s", currency, strings.Join(s.cfg.SupportedCurrencies, ", ")),
		}
	}

	if amount.Sign() <= 0 {
		return &provider.ProviderError{
			Code:    provider.ErrInvalidAmount,
			Message: "amount must be greater than zero",
		}
	}

	if amount.LessThan(s.cfg.MinAmount) {
		return &provider.ProviderError{
			Code:    provider.ErrInvalidAmount,
			Message: fmt.Sprintf("amount must be at least %s %s", s.cfg.MinAmount, currency),
		}
	}

	if s.cfg.MaxAmount.Sign() > 0 && amount.GreaterThan(s.cfg.MaxAmount) {
		return &provider.ProviderError{
			Code:    provider.ErrInvalidAmount,
			Message: fmt.Sprintf("amount must not exceed %s %s", s.cfg.MaxAmount, currency),
		}
	}

	return nil
}

// GenerateReference produces a human-correlatable token combining the provider
// prefix, a timestamp component and a random component, for matching against
// external bank or processor records.
func (s *Scaffold) GenerateReference() (string, error) {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("reference generation failed: %w", err)
	}
	return fmt.Sprintf("%s-%s-%X", referencePrefix(s.providerType), time.Now().Format("20060102150405"), buf), nil
}

func referencePrefix(t provider.ProviderType) string {
	switch t {
	case provider.ProviderBankTransfer:
		return "BT"
	case provider.ProviderStripe:
		return "ST"
	case provider.ProviderPayPal:
		return "PP"
	default:
		return "PAY"
	}
}
