package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/roamly/roamly-api/internal/config"
	"github.com/roamly/roamly-api/internal/domain/booking"
	"github.com/roamly/roamly-api/internal/domain/trip"
	"github.com/roamly/roamly-api/internal/domain/wallet"
	"github.com/roamly/roamly-api/internal/middleware"
	"github.com/roamly/roamly-api/internal/pkg/database"
	"github.com/roamly/roamly-api/internal/pkg/imaging"
	"github.com/roamly/roamly-api/internal/pkg/jwt"
	"github.com/roamly/roamly-api/internal/pkg/lease"
	"github.com/roamly/roamly-api/internal/pkg/logger"
	"github.com/roamly/roamly-api/internal/pkg/payment"
	"github.com/roamly/roamly-api/internal/pkg/storage"
)

func main() {
	cfg := config.Load()

	logger.Init(logger.Config{
		Level:       cfg.LogLevel,
		Environment: cfg.Env,
	})

	log.Info().Str("env", cfg.Env).Msg("Starting roamly-api")

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
		log.Warn().Err(err).Msg("Redis unavailable, sweep leases disabled")
	} else {
		defer database.CloseRedis(rdb)
	}

	store, err := storage.NewS3Storage(storage.Config{
		S3Endpoint:  cfg.S3Endpoint,
		S3Region:    cfg.S3Region,
		S3AccessKey: cfg.S3AccessKey,
		S3SecretKey: cfg.S3SecretKey,
		S3Bucket:    cfg.S3Bucket,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize object storage")
	}

	jwtService := jwt.NewService(cfg.JWTSecret, cfg.JWTAccessTTL)
	verifier := payment.NewHTTPVerifier(cfg.PaymentVerifyURL, cfg.PaymentVerifyTimeout)
	processor := imaging.NewProcessor(imaging.DefaultConfig())

	// Repositories
	walletRepo := wallet.NewRepository(db)
	tripRepo := trip.NewRepository(db)
	bookingRepo := booking.NewRepository(db)

	// Services
	walletService := wallet.NewService(walletRepo)
	tripService := trip.NewService(tripRepo, store, processor)
	joinService := booking.NewJoinService(tripRepo, bookingRepo, walletService, verifier, adminID)
	settlementService := booking.NewSettlementService(walletService, cfg.CommissionPercent)

	// Handlers
	walletHandler := wallet.NewHandler(walletService)
	tripHandler := trip.NewHandler(tripService)
	bookingHandler := booking.NewHandler(joinService)

	// Background workers; leases keep a single sweeper active across replicas
	statusWorker := trip.NewStatusWorker(tripService, cfg.TripStatusInterval,
		lease.New(rdb, "roamly:lease:trip-status", cfg.SweepLeaseTTL))
	statusWorker.Start()
	defer statusWorker.Stop()

	settlementWorker := booking.NewSettlementWorker(bookingRepo, settlementService, adminID, cfg.SettlementInterval,
		lease.New(rdb, "roamly:lease:settlement", cfg.SweepLeaseTTL))
	settlementWorker.Start()
	defer settlementWorker.Stop()

	authMiddleware := middleware.Auth(jwtService)
	vendorMiddleware := middleware.RequireVendor()
	adminMiddleware := middleware.RequireAdmin()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recover)
	r.Use(middleware.CORSHandler(cfg.AllowedOrigins))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Mount("/wallet", walletHandler.Routes(authMiddleware))
		r.Mount("/trips", tripHandler.Routes(authMiddleware, vendorMiddleware))
		r.With(authMiddleware).Post("/trips/{id}/join", bookingHandler.Join)
		r.Mount("/bookings", bookingHandler.Routes(authMiddleware))
		r.Mount("/admin/trips", tripHandler.AdminRoutes(authMiddleware, adminMiddleware))
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited properly")
}
