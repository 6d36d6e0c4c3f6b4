package sched

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"consulting-payments/internal/domain"
	"consulting-payments/internal/domain/ports/repository"
	"consulting-payments/internal/usecase"
)

const reconcileBatchSize = 50

// OrderReconciler periodically scans for stale PENDING orders and re-derives
// their terminal state from gateway ground truth. This covers webhooks that
// never arrived and processes that crashed between charge and commit.
type OrderReconciler struct {
	interval   time.Duration
	staleAfter time.Duration
	orders     repository.OrderRepository
	orderUC    usecase.OrderUseCase
	log        *zerolog.Logger
}

func NewOrderReconciler(
	interval, staleAfter time.Duration,
	orders repository.OrderRepository,
	orderUC usecase.OrderUseCase,
	logger *zerolog.Logger,
) *OrderReconciler {
	recLog := logger.With().Str("component", "OrderReconciler").Logger()
	return &OrderReconciler{
		interval:   interval,
		staleAfter: staleAfter,
		orders:     orders,
		orderUC:    orderUC,
		log:        &recLog,
	}
}

func (w *OrderReconciler) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("Starting order reconciler")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping order reconciler")
			return ctx.Err()
		case <-ticker.C:
			w.runPass(ctx)
		}
	}
}

func (w *OrderReconciler) runPass(ctx context.Context) {
	cutoff := time.Now().Add(-w.staleAfter)
	stale, err := w.orders.ListPendingOlderThan(ctx, nil, cutoff, reconcileBatchSize)
	if err != nil {
		w.log.Error().Err(err).Msg("listing stale orders failed")
		return
	}
	if len(stale) == 0 {
		return
	}

	w.log.Info().Int("count", len(stale)).Msg("reconciling stale orders")
	for _, o := range stale {
		if ctx.Err() != nil {
			return
		}
		resolved, err := w.orderUC.Reconcile(ctx, o.MerchantUID)
		switch {
		case err == nil:
			w.log.Info().Str("merchant_uid", o.MerchantUID).Str("state", string(resolved.State)).
				Msg("stale order reconciled")
		case errors.Is(err, domain.ErrAlreadyProcessed):
			// Resolved by a late webhook between the scan and this call.
		case errors.Is(err, domain.ErrNotFound):
			// No gateway record and not yet old enough to write off as an
			// abandoned checkout; leave it for a later pass.
			w.log.Debug().Str("merchant_uid", o.MerchantUID).Msg("no gateway record yet")
		default:
			w.log.Error().Err(err).Str("merchant_uid", o.MerchantUID).Msg("reconcile failed")
		}
	}
}
