/**
 * @description
 * This is the main entry point for the scheduler process.
 * It is a non-HTTP, long-running process that executes scheduled tasks (cron
 * jobs): the daily subscription sweep and the due-reminder dispatch pass.
 * It initializes the configuration, database connection, RabbitMQ producer,
 * and the cron scheduler, then starts it.
 */
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/samuelldmj/subscription-management-api/internal/app"
	"github.com/samuelldmj/subscription-management-api/internal/config"
	"github.com/samuelldmj/subscription-management-api/internal/schedule"
	"github.com/samuelldmj/subscription-management-api/internal/store"
	"github.com/samuelldmj/subscription-management-api/pkg/rabbitmq"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// Load .env in development; environment variables win in deployment
	_ = godotenv.Load()

	// Load application configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	// Establish database connection with connection pool configuration
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Error("unable to parse database URL", "error", err)
		os.Exit(1)
	}

	// Configure connection pool for high-traffic scenarios
	poolConfig.MaxConns = 100
	poolConfig.MinConns = 20
	poolConfig.MaxConnLifetime = 30 * time.Minute
	poolConfig.MaxConnIdleTime = 5 * time.Minute

	// Disable prepared statement caching to prevent conflicts
	poolConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	dbpool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Error("unable to connect to database", "error", err)
		os.Exit(1)
	}
	defer dbpool.Close()
	logger.Info("database connection established")

	// Connect to RabbitMQ for handing reminders to the notification boundary
	producer, err := rabbitmq.NewProducer(cfg.AMQPURL, cfg.ReminderExchange)
	if err != nil {
		logger.Error("failed to connect to RabbitMQ", "error", err)
		os.Exit(1)
	}
	defer producer.Close()
	logger.Info("rabbitmq connection established", "exchange", cfg.ReminderExchange)

	// Initialize dependencies
	clock := schedule.SystemClock{}
	repository := store.NewRepository(dbpool)
	dispatcher := app.NewDispatcher(repository, producer, clock, logger)
	service := app.NewService(repository, dispatcher, clock, logger)
	jobs := app.NewJobs(repository, service, dispatcher, clock, logger)
	scheduler := app.NewScheduler(jobs, logger, *cfg)

	// Start the cron scheduler in the background
	scheduler.Start()
	logger.Info("scheduler started")

	// Wait for termination signal to gracefully shut down
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	// Stop the scheduler
	logger.Info("shutdown signal received, stopping scheduler")
	stopCtx := scheduler.Stop()
	<-stopCtx.Done() // Wait for scheduler to fully stop
	logger.Info("scheduler stopped gracefully")
}
