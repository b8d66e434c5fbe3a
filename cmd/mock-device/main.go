package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"golang-ussd-gateway/internal/adapters/device/simulator"
	"golang-ussd-gateway/internal/ports"

	"github.com/gofiber/fiber/v2"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	addr := getenv("HTTP_ADDR", ":9090")
	cfg, err := deviceConfig()
	if err != nil {
		log.Error("load device config", "err", err)
		os.Exit(1)
	}

	dev := simulator.New(cfg)

	fiberApp := fiber.New(fiber.Config{AppName: "mock-device", DisableStartupMessage: true})
	simulator.NewServer(dev, log).Register(fiberApp)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info("mock-device listening", "addr", addr, "api_level", cfg.APILevel, "latency", cfg.Latency)
		if err := fiberApp.Listen(addr); err != nil {
			log.Error("fiber listen", "err", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down mock-device")
	_ = fiberApp.Shutdown()
}

// deviceConfig reads the simulated handset from the environment.
func deviceConfig() (simulator.Config, error) {
	apiLevel, err := strconv.Atoi(getenv("DEVICE_API_LEVEL", "33"))
	if err != nil {
		return simulator.Config{}, fmt.Errorf("parse DEVICE_API_LEVEL: %w", err)
	}
	latency, err := time.ParseDuration(getenv("DEVICE_LATENCY", "2s"))
	if err != nil {
		return simulator.Config{}, fmt.Errorf("parse DEVICE_LATENCY: %w", err)
	}

	return simulator.Config{
		APILevel:       apiLevel,
		Latency:        latency,
		Failures:       map[string]int{"*999#": ports.FailureReturn},
		Silent:         map[string]bool{"*000#": true},
		Granted:        getenv("DEVICE_GRANTED", "true") == "true",
		GrantOnRequest: true,
	}, nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
