package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"
	goredis "github.com/redis/go-redis/v9"

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
	"rentdesk-backend/internal/scheduler"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	runOnce := flag.String("run-once", "", "Run a specific job once and exit (e.g., 'mark-overdue-installments', 'all-nightly')")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting RentDesk cronjob runner...", "log_level", cfg.Log.Level)

	// Initialize Database
	logger.Info("Connecting to database...", "host", cfg.Database.Host, "port", cfg.Database.Port)
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
	var unitCache inventory.UnitCache
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
		unitCache = redisrepo.NewAdapter(client)
		defer client.Close()
	}

	// Reminder delivery reuses the same sinks as the server
	sinks := []notify.Sink{notify.LogSink{}}
	if cfg.SendGrid.APIKey != "" {
		sinks = append(sinks, notify.NewSendGridSink(cfg.SendGrid))
	}
	dispatcher := notify.NewDispatcher(256, 2, sinks...)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	dispatcher.Start(ctx)
	defer dispatcher.Close()

	// Jobs only need the booking service for reminder emission
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

	// Initialize Job Runner
	jobRunner := jobs.NewJobRunner(store, bookingSvc, unitCache, cfg)

	// Check if running a single job
	if *runOnce != "" {
		logger.Info("Running job once", "job", *runOnce)
		runJobOnce(jobRunner, *runOnce)
		logger.Info("Job execution completed", "job", *runOnce)
		return
	}

	// Initialize Scheduler
	cronScheduler := scheduler.NewScheduler(jobRunner)

	// Start scheduler
	cronScheduler.Start()
	logger.Info("Cronjob scheduler is running. Press Ctrl+C to stop.")

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown
	logger.Info("Shutting down cronjob scheduler...")
	cronScheduler.Stop()
	logger.Info("Cronjob scheduler stopped. Goodbye!")
}

// runJobOnce runs a specific job once and exits
func runJobOnce(jobRunner *jobs.JobRunner, jobName string) {
	switch jobName {
	case "mark-overdue-installments":
		jobRunner.MarkOverdueInstallments()
	case "send-overdue-reminders":
		jobRunner.SendOverdueReminders()
	case "reconcile-unit-counters":
		jobRunner.ReconcileUnitCounters()
	case "all-nightly":
		jobRunner.RunAllNightlyJobs()
	default:
		logger.Error("Unknown job name", "job", jobName)
	}
}
