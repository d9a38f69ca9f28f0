// Package expire cancels bank-transfer payments that stayed pending past the
// configured TTL: the payer never transferred, and the dead record should not
// keep the subscription billing screen occupied.
package expire

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"lavapay/internal/domain/payment"
	"lavapay/internal/provider"
	paymentsvc "lavapay/internal/services/payment"
	"lavapay/internal/store/repositories"
)

type Worker struct {
	payments  repositories.PaymentRepository
	svc       *paymentsvc.Service
	ttl       time.Duration
	pollEvery time.Duration
	batch     int
}

func NewWorker(payments repositories.PaymentRepository, svc *paymentsvc.Service, ttl, pollEvery time.Duration) *Worker {
	if ttl == 0 {
		ttl = 72 * time.Hour
	}
	if pollEvery == 0 {
		pollEvery = 15 * time.Minute
	}
	return &Worker{payments: payments, svc: svc, ttl: ttl, pollEvery: pollEvery, batch: 50}
}

func (w *Worker) Run(ctx context.Context) {
	log.Info().Dur("ttl", w.ttl).Dur("poll_every", w.pollEvery).Msg("expire worker: started")
	t := time.NewTicker(w.pollEvery)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("expire worker: stopping")
			return
		case <-t.C:
			w.tick(ctx)
		}
	}
}

func (w *Worker) tick(ctx context.Context) {
	cutoff := time.Now().Add(-w.ttl)
	stale, err := w.payments.FindPendingOlderThan(ctx, payment.MethodBankTransfer, cutoff, w.batch)
	if err != nil {
		log.Error().Err(err).Msg("expire worker: fetch stale payments failed")
		return
	}

	for _, p := range stale {
		// Going through the service keeps the conditional update and the
		// payment.cancelled event; a payment confirmed meanwhile is left alone.
		res := w.svc.CancelPayment(ctx, provider.ProviderBankTransfer, p.ID)
		if !res.Success {
			log.Debug().
				Str("payment_id", p.ID).
				Str("status", string(res.Status)).
				Msg("expire worker: stale payment no longer cancellable")
			continue
		}
		log.Info().
			Str("payment_id", p.ID).
			Str("reference", p.Reference).
			Time("created_at", p.CreatedAt).
			Msg("expire worker: cancelled stale pending payment")
	}
}
