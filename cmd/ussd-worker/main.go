package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang-ussd-gateway/internal/adapters/db/postgres"
	"golang-ussd-gateway/internal/adapters/device"
	"golang-ussd-gateway/internal/adapters/queue/rabbitmq"
	"golang-ussd-gateway/internal/app"
	cfg "golang-ussd-gateway/internal/config"
	"golang-ussd-gateway/internal/dispatch"
	"golang-ussd-gateway/internal/domain"
	"golang-ussd-gateway/internal/permission"
	"golang-ussd-gateway/internal/subscription"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	conf, err := cfg.FromEnv()
	if err != nil {
		log.Error("load config", "err", err)
		os.Exit(1)
	}

	// ── Adapters ─────────────────────────────────────────────────────────────
	repo, err := postgres.New(conf.DatabaseURL)
	if err != nil {
		log.Error("connect postgres", "err", err)
		os.Exit(1)
	}
	defer repo.Close()

	publisher, err := rabbitmq.NewPublisher(conf.AMQPURL)
	if err != nil {
		log.Error("connect rabbitmq publisher", "err", err)
		os.Exit(1)
	}
	defer publisher.Close()

	consumer, err := rabbitmq.NewConsumer(conf.AMQPURL, log)
	if err != nil {
		log.Error("connect rabbitmq consumer", "err", err)
		os.Exit(1)
	}
	defer consumer.Close()

	dev := device.Open(conf.DeviceURL, conf.DeviceAPILevel, log)

	engine, err := dispatch.New(dev, dev, dev, dispatch.WithTimeout(conf.USSDTimeout), dispatch.WithLogger(log))
	if err != nil {
		log.Error("build dispatch engine", "err", err)
		os.Exit(1)
	}

	// ── Application service ──────────────────────────────────────────────────
	gate := permission.NewGate(dev)
	svc := app.NewUSSDService(app.Deps{
		Engine:     engine,
		Gate:       gate,
		Resolver:   subscription.NewResolver(dev, gate, log),
		Executions: repo,
		Codes:      repo,
		Outcomes:   publisher,
	}, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("ussd-worker started", "strategy", engine.Strategy())

	if err := consumer.Consume(ctx, func(ctx context.Context, job domain.Job) error {
		return svc.HandleJob(ctx, job)
	}); err != nil && ctx.Err() == nil {
		log.Error("consumer error", "err", err)
		os.Exit(1)
	}

	log.Info("shutting down ussd-worker")
}
