package trip

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/roamly/roamly-api/internal/pkg/lease"
)

// StatusWorker periodically rewrites trip lifecycle statuses from the clock.
// It is the only writer of trip_status.
type StatusWorker struct {
	service  *Service
	interval time.Duration
	lease    *lease.Lease
	stopCh   chan struct{}
}

// NewStatusWorker creates the status sweep worker. lease may be nil.
func NewStatusWorker(service *Service, interval time.Duration, l *lease.Lease) *StatusWorker {
	if interval == 0 {
		interval = 10 * time.Minute
	}
	return &StatusWorker{
		service:  service,
		interval: interval,
		lease:    l,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the background worker
func (w *StatusWorker) Start() {
	log.Info().Dur("interval", w.interval).Msg("Starting trip status worker...")
	go w.loop()
}

// Stop gracefully stops the background worker
func (w *StatusWorker) Stop() {
	log.Info().Msg("Stopping trip status worker...")
	close(w.stopCh)
}

func (w *StatusWorker) loop() {
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

// RunOnce executes a single sweep tick.
func (w *StatusWorker) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if w.lease != nil {
		if !w.lease.TryAcquire(ctx) {
			return
		}
		defer w.lease.Release(ctx)
	}

	count, err := w.service.RecomputeStatuses(ctx, time.Now())
	if err != nil {
		log.Error().Err(err).Msg("Failed to recompute trip statuses")
		return
	}
	if count > 0 {
		log.Info().Int64("count", count).Msg("Trip statuses advanced")
	}
}
