package main

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/roamly/roamly-api/internal/config"
	"github.com/roamly/roamly-api/internal/domain/booking"
	"github.com/roamly/roamly-api/internal/domain/trip"
	"github.com/roamly/roamly-api/internal/domain/wallet"
	"github.com/roamly/roamly-api/internal/pkg/database"
	"github.com/roamly/roamly-api/internal/pkg/lease"
	"github.com/roamly/roamly-api/internal/pkg/logger"
)

// Single-pass sweep binary for external schedulers (cron, k8s CronJob).
// Recomputes trip statuses from dates and settles finished bookings,
// then exits. The API server runs the same sweeps on a ticker; the
// Redis lease keeps the two from racing.
func main() {
	cfg := config.Load()

	logger.Init(logger.Config{
		Level:       cfg.LogLevel,
		Environment: cfg.Env,
	})

	log.Info().Msg("Starting sweeper")
	started := time.Now()

	adminID, err := uuid.Parse(cfg.AdminAccountID)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid ADMIN_ACCOUNT_ID")
	}

	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	rdb, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Warn().Err(err).Msg("Redis unavailable, running sweep without lease")
	} else {
		defer database.CloseRedis(rdb)
	}

	walletService := wallet.NewService(wallet.NewRepository(db))
	tripRepo := trip.NewRepository(db)
	bookingRepo := booking.NewRepository(db)

	tripService := trip.NewService(tripRepo, nil, nil)
	settlementService := booking.NewSettlementService(walletService, cfg.CommissionPercent)

	statusWorker := trip.NewStatusWorker(tripService, cfg.TripStatusInterval,
		lease.New(rdb, "roamly:lease:trip-status", cfg.SweepLeaseTTL))
	statusWorker.RunOnce()

	settlementWorker := booking.NewSettlementWorker(bookingRepo, settlementService, adminID, cfg.SettlementInterval,
		lease.New(rdb, "roamly:lease:settlement", cfg.SweepLeaseTTL))
	settlementWorker.RunOnce()

	log.Info().Dur("elapsed", time.Since(started)).Msg("Sweep finished")
}
