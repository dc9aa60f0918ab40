package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	goredis "github.com/redis/go-redis/v9"

	httpapi "rentdesk-backend/internal/api/http"
	"rentdesk-backend/internal/booking"
	"rentdesk-backend/internal/config"
	"rentdesk-backend/internal/inventory"
	"rentdesk-backend/internal/jobs"
	"rentdesk-backend/internal/logger"
	"rentdesk-backend/internal/notify"
	"rentdesk-backend/internal/payments"
	"rentdesk-backend/internal/pricing"
	"rentdesk-backend/internal/repository/postgres"
	redisrepo "rentdesk-backend/internal/repository/redis"
	"rentdesk-backend/internal/returns"
	"rentdesk-backend/internal/scheduler"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting RentDesk booking engine...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "address", cfg.GetServerAddress())
	logger.Info("Database configuration", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)

	// Initialize Database
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Test database connection
	if err := db.Ping(); err != nil {
		logger.Error("Failed to ping database", "error", err)
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	// Initialize Repositories
	store := postgres.NewStore(db)

	// Initialize Redis cache when enabled
	var cache *redisrepo.Adapter
	if cfg.Redis.Enabled {
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(context.Background()).Err(); err != nil {
			logger.Error("Failed to ping redis", "error", err)
			log.Fatalf("Failed to ping redis: %v", err)
		}
		cache = redisrepo.NewAdapter(client)
		defer client.Close()
		logger.Info("Redis connection established", "addr", cfg.Redis.Addr)
	}

	// Initialize notification dispatcher
	sinks := []notify.Sink{notify.LogSink{}}
	if cfg.SendGrid.APIKey != "" {
		sinks = append(sinks, notify.NewSendGridSink(cfg.SendGrid))
	}
	dispatcher := notify.NewDispatcher(256, 2, sinks...)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	dispatcher.Start(ctx)
	defer dispatcher.Close()

	// Initialize engine services
	var unitCache inventory.UnitCache
	if cache != nil {
		unitCache = cache
	}
	ledger := inventory.NewLedger(store.ProductRepository, store.ReservationRepository, unitCache)
	engine := pricing.NewEngine(cfg.Pricing)
	paymentSvc := payments.NewService(store.InstallmentRepository, store.PaymentRepository, payments.NullGateway{})
	bookingSvc := booking.NewService(
		store.BookingRepository,
		store.ProductRepository,
		store.PricelistRepository,
		store.TimelineRepository,
		ledger,
		engine,
		paymentSvc,
		dispatcher,
		cfg.Booking,
		cfg.Pricing,
	)
	resolver := returns.NewResolver(bookingSvc, paymentSvc, store.ReturnCaseRepository, cfg.Pricing, cfg.Booking)

	// Initialize Scheduler
	jobRunner := jobs.NewJobRunner(store, bookingSvc, unitCache, cfg)
	cronScheduler := scheduler.NewScheduler(jobRunner)
	cronScheduler.Start()
	defer cronScheduler.Stop()

	// Set up HTTP server
	var idem httpapi.IdempotencyStore
	if cache != nil {
		idem = cache
	}
	handler := httpapi.NewHandler(bookingSvc, paymentSvc, resolver, ledger, idem)
	router := mux.NewRouter()
	handler.RegisterRoutes(router)

	logger.Info("HTTP server listening", "address", cfg.GetServerAddress())
	if err := http.ListenAndServe(cfg.GetServerAddress(), router); err != nil {
		logger.Error("HTTP server error", "error", err)
		log.Fatalf("Failed to serve: %v", err)
	}
}
