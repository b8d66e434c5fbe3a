package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang-ussd-gateway/internal/adapters/db/memory"
	"golang-ussd-gateway/internal/adapters/db/postgres"
	"golang-ussd-gateway/internal/adapters/device"
	"golang-ussd-gateway/internal/adapters/queue/rabbitmq"
	"golang-ussd-gateway/internal/app"
	cfg "golang-ussd-gateway/internal/config"
	"golang-ussd-gateway/internal/dispatch"
	"golang-ussd-gateway/internal/metrics"
	"golang-ussd-gateway/internal/middleware"
	"golang-ussd-gateway/internal/permission"
	"golang-ussd-gateway/internal/ports"
	"golang-ussd-gateway/internal/subscription"
	"golang-ussd-gateway/internal/transport"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{AddSource: true}))
	if err := run(log); err != nil {
		log.Error("application failed", "error", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	conf, err := cfg.FromEnv()
	if err != nil {
		return err
	}

	store, closeStore, err := openStore(conf.DatabaseURL, log)
	if err != nil {
		return err
	}
	defer closeStore()

	var (
		jobs     ports.JobPublisher
		outcomes ports.OutcomePublisher
	)
	if conf.QueueEnabled {
		publisher, err := rabbitmq.NewPublisher(conf.AMQPURL)
		if err != nil {
			return fmt.Errorf("failed to connect to rabbitmq: %w", err)
		}
		defer publisher.Close()
		jobs, outcomes = publisher, publisher
	} else {
		log.Warn("queue disabled, jobs endpoint and outcome fan-out unavailable")
	}

	dev := device.Open(conf.DeviceURL, conf.DeviceAPILevel, log)

	engine, err := dispatch.New(dev, dev, dev, dispatch.WithTimeout(conf.USSDTimeout), dispatch.WithLogger(log))
	if err != nil {
		return fmt.Errorf("failed to build dispatch engine: %w", err)
	}

	gate := permission.NewGate(dev)
	svc := app.NewUSSDService(app.Deps{
		Engine:     engine,
		Gate:       gate,
		Resolver:   subscription.NewResolver(dev, gate, log),
		Requester:  dev,
		Executions: store,
		Codes:      store,
		Jobs:       jobs,
		Outcomes:   outcomes,
	}, log)

	fiberApp := fiber.New(fiber.Config{
		AppName:               "ussd-api",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		// A send holds the request until the carrier answers or the
		// USSD timeout fires.
		WriteTimeout: conf.USSDTimeout + 10*time.Second,
		IdleTimeout:  120 * time.Second,
		ServerHeader: "",
		BodyLimit:    64 * 1024,
	})

	fiberApp.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))
	fiberApp.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} - ${method} ${path} ${latency}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))
	fiberApp.Use(middleware.RequestIDMiddleware())
	fiberApp.Use(middleware.SecurityHeaders())
	fiberApp.Use(middleware.CORSConfig(conf.AllowedOrigins))

	rateLimiter := middleware.NewRateLimiter(conf.RateLimitPerMinute, 1*time.Minute)
	fiberApp.Use(rateLimiter.Middleware())

	fiberApp.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy", "strategy": engine.Strategy()})
	})
	fiberApp.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	handler := transport.NewHandler(svc, log)
	api := fiberApp.Group("/api")
	enqueueLimit := middleware.EnqueueLimiter(conf.JobsPerMinute, time.Minute)
	api.Use("/ussd/jobs", enqueueLimit)
	api.Post("/codes/:id/jobs", enqueueLimit)
	handler.Register(api)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 1)
	go func() {
		log.Info("ussd-api started", "addr", conf.HTTPAddr, "strategy", engine.Strategy())
		if err := fiberApp.Listen(conf.HTTPAddr); err != nil {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errChan:
		return err
	}

	// In-flight sends may still be waiting on the carrier.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), conf.USSDTimeout+5*time.Second)
	defer cancel()

	if err := fiberApp.ShutdownWithContext(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown gracefully: %w", err)
	}

	log.Info("ussd-api stopped gracefully")
	return nil
}

type repository interface {
	ports.ExecutionRepository
	ports.CodeRepository
}

// openStore returns the postgres repository, or the in-memory one when dsn
// is "memory".
func openStore(dsn string, log *slog.Logger) (repository, func(), error) {
	if dsn == "memory" {
		log.Warn("using in-memory store, history and catalog are lost on restart")
		return memory.New(), func() {}, nil
	}
	repo, err := postgres.New(dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return repo, func() { _ = repo.Close() }, nil
}
