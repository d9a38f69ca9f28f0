// Package payment orchestrates the payment providers: it owns the provider
// registry, delegates lifecycle calls and emits the corresponding events.
package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"lavapay/internal/config"
	"lavapay/internal/provider"
	"lavapay/internal/provider/banktransfer"
	"lavapay/internal/provider/stripe"
	"lavapay/internal/store/repositories"
)

// Service is the provider-agnostic payment orchestrator. Construct it once at
// process startup, call Initialize, and pass it by reference to every caller;
// it lives for the process lifetime.
type Service struct {
	registry map[provider.ProviderType]provider.Provider
	order    []provider.ProviderType
	bus      *Bus
}

// New builds the service with the known concrete providers registered
func New(cfg config.Cfg, payments repositories.PaymentRepository, uow repositories.UnitOfWork) *Service {
	s := &Service{
		registry: make(map[provider.ProviderType]provider.Provider),
		bus:      NewBus(),
	}
	s.Register(banktransfer.New(cfg.Providers.BankTransfer, payments, uow))
	s.Register(stripe.New(cfg.Providers.Stripe))
	return s
}

// Register adds a provider to the registry, keeping registration order
func (s *Service) Register(p provider.Provider) {
	s.registry[p.Type()] = p
	s.order = append(s.order, p.Type())
	log.Info().
		Str("provider", string(p.Type())).
		Str("name", p.Name()).
		Msg("registered payment provider")
}

// Initialize runs one-time setup on every registered provider
func (s *Service) Initialize(ctx context.Context) error {
	for _, t := range s.order {
		if err := s.registry[t].Initialize(ctx); err != nil {
			return fmt.Errorf("initialize provider %s: %w", t, err)
		}
	}
	return nil
}

// GetProvider returns a provider by type
func (s *Service) GetProvider(t provider.ProviderType) (provider.Provider, error) {
	p, ok := s.registry[t]
	if !ok {
		return nil, &provider.ProviderError{
			Code:    provider.ErrProviderNotFound,
			Message: fmt.Sprintf("provider %s not registered", t),
		}
	}
	return p, nil
}

// Providers returns every registered provider in registration order
func (s *Service) Providers() []provider.Provider {
	out := make([]provider.Provider, 0, len(s.order))
	for _, t := range s.order {
		out = append(out, s.registry[t])
	}
	return out
}

// GetAvailableProviders returns registered providers that report available,
// in registration order.
func (s *Service) GetAvailableProviders() []provider.Provider {
	var out []provider.Provider
	for _, t := range s.order {
		if p := s.registry[t]; p.IsAvailable() {
			out = append(out, p)
		}
	}
	return out
}

// GetDefaultProvider prefers bank transfer when it is available, otherwise
// the first available provider in registration order. Nil when none are.
func (s *Service) GetDefaultProvider() provider.Provider {
	available := s.GetAvailableProviders()
	for _, p := range available {
		if p.Type() == provider.ProviderBankTransfer {
			return p
		}
	}
	if len(available) > 0 {
		return available[0]
	}
	return nil
}

// CreatePayment delegates creation to the requested provider. Availability is
// pre-checked here so a disabled provider is rejected before any work.
func (s *Service) CreatePayment(ctx context.Context, t provider.ProviderType, req provider.CreatePaymentRequest) *provider.PaymentResult {
	p, err := s.GetProvider(t)
	if err != nil {
		return provider.Failure(provider.ErrProviderNotFound, err.Error())
	}
	if !p.IsAvailable() {
		return provider.Failure(provider.ErrProviderUnavailable,
			fmt.Sprintf("provider %s is not available", t))
	}

	res := p.CreatePayment(ctx, req)
	s.emit(provider.EventCreated, t, res)
	return res
}

// ConfirmPayment delegates confirmation to the requested provider
func (s *Service) ConfirmPayment(ctx context.Context, t provider.ProviderType, req provider.ConfirmPaymentRequest) *provider.PaymentResult {
	p, err := s.GetProvider(t)
	if err != nil {
		return provider.Failure(provider.ErrProviderNotFound, err.Error())
	}

	res := p.ConfirmPayment(ctx, req)
	s.emit(provider.EventConfirmed, t, res)
	return res
}

// GetPaymentStatus delegates the status read; no event is emitted
func (s *Service) GetPaymentStatus(ctx context.Context, t provider.ProviderType, paymentID string) *provider.PaymentResult {
	p, err := s.GetProvider(t)
	if err != nil {
		return provider.Failure(provider.ErrProviderNotFound, err.Error())
	}
	return p.GetPaymentStatus(ctx, paymentID)
}

// CancelPayment delegates cancellation to the requested provider
func (s *Service) CancelPayment(ctx context.Context, t provider.ProviderType, paymentID string) *provider.PaymentResult {
	p, err := s.GetProvider(t)
	if err != nil {
		return provider.Failure(provider.ErrProviderNotFound, err.Error())
	}

	res := p.CancelPayment(ctx, paymentID)
	s.emit(provider.EventCancelled, t, res)
	return res
}

// RefundPayment delegates the refund to the requested provider
func (s *Service) RefundPayment(ctx context.Context, t provider.ProviderType, req provider.RefundRequest) *provider.PaymentResult {
	p, err := s.GetProvider(t)
	if err != nil {
		return provider.Failure(provider.ErrProviderNotFound, err.Error())
	}

	res := p.RefundPayment(ctx, req)
	s.emit(provider.EventRefunded, t, res)
	return res
}

// approver is the provider-specific extension for manually reconciled
// methods; only the bank transfer provider implements it today.
type approver interface {
	ApprovePayment(ctx context.Context, paymentID string) *provider.PaymentResult
}

// ApprovePayment runs the privileged bank-transfer approval
func (s *Service) ApprovePayment(ctx context.Context, t provider.ProviderType, paymentID string) *provider.PaymentResult {
	p, err := s.GetProvider(t)
	if err != nil {
		return provider.Failure(provider.ErrProviderNotFound, err.Error())
	}

	ap, ok := p.(approver)
	if !ok {
		return provider.Failure(provider.ErrInvalidRequest,
			fmt.Sprintf("provider %s does not support manual approval", t))
	}

	res := ap.ApprovePayment(ctx, paymentID)
	s.emit(provider.EventApproved, t, res)
	return res
}

// OnPaymentEvent subscribes a handler to lifecycle events and returns its
// unsubscribe function. Handlers run synchronously in subscription order.
func (s *Service) OnPaymentEvent(h Handler) func() {
	return s.bus.Subscribe(h)
}

// emit publishes an event for a successful state-changing operation
func (s *Service) emit(t provider.EventType, pt provider.ProviderType, res *provider.PaymentResult) {
	if res == nil || !res.Success {
		return
	}
	s.bus.Publish(provider.Event{
		Type:      t,
		PaymentID: res.PaymentID,
		Provider:  pt,
		Timestamp: time.Now(),
		Data:      res,
	})
}
