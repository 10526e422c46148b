package booking

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/roamly/roamly-api/internal/domain/wallet"
	"github.com/roamly/roamly-api/internal/pkg/lease"
)

const sweepBatchSize = 100

// SettlementWorker periodically pays out bookings whose trips have ended.
// Each booking is settled through SettlementService, whose idempotency makes
// repeated or overlapping sweeps harmless.
type SettlementWorker struct {
	bookings   BookingStore
	settlement *SettlementService
	adminID    uuid.UUID
	interval   time.Duration
	lease      *lease.Lease
	stopCh     chan struct{}
}

// NewSettlementWorker creates the settlement sweep worker. lease may be nil.
func NewSettlementWorker(bookings BookingStore, settlement *SettlementService, adminID uuid.UUID, interval time.Duration, l *lease.Lease) *SettlementWorker {
	if interval == 0 {
		interval = time.Hour
	}
	return &SettlementWorker{
		bookings:   bookings,
		settlement: settlement,
		adminID:    adminID,
		interval:   interval,
		lease:      l,
		stopCh:     make(chan struct{}),
	}
}

// Start begins the background worker
func (w *SettlementWorker) Start() {
	log.Info().Dur("interval", w.interval).Msg("Starting settlement worker...")
	go w.loop()
}

// Stop gracefully stops the background worker
func (w *SettlementWorker) Stop() {
	log.Info().Msg("Stopping settlement worker...")
	close(w.stopCh)
}

func (w *SettlementWorker) loop() {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	// Run once immediately on startup
	w.RunOnce()

	for {
		select {
		case <-ticker.C:
			w.RunOnce()
		case <-w.stopCh:
			return
		}
	}
}

// RunOnce executes a single settlement sweep.
func (w *SettlementWorker) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if w.lease != nil {
		if !w.lease.TryAcquire(ctx) {
			return
		}
		defer w.lease.Release(ctx)
	}

	due, err := w.bookings.ListUnsettledDue(ctx, sweepBatchSize)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list unsettled bookings")
		return
	}

	settled := 0
	for _, b := range due {
		err := w.settlement.SettleTrip(ctx, b.RefID, b.VendorID, w.adminID, b.Amount)
		switch {
		case err == nil, errors.Is(err, wallet.ErrAlreadySettled):
			// Paid out now or by an earlier run; either way the booking
			// is done.
			if err := w.bookings.MarkSettled(ctx, b.ID); err != nil {
				log.Error().Err(err).Str("booking_id", b.ID.String()).Msg("Failed to mark booking settled")
				continue
			}
			settled++
		case errors.Is(err, wallet.ErrTransactionNotFound):
			// No escrow hold for this booking - it should not exist.
			log.Error().Str("booking_ref", b.RefID).Msg("Unsettled booking has no escrow hold")
		default:
			log.Error().Err(err).Str("booking_ref", b.RefID).Msg("Settlement failed, will retry next sweep")
		}
	}

	if settled > 0 {
		log.Info().Int("count", settled).Msg("Bookings settled")
	}
}
