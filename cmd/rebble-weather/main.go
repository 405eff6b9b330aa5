package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpapi "github.com/pebble-dev/rebble-weather/internal/api/http"
	"github.com/pebble-dev/rebble-weather/internal/config"
	"github.com/pebble-dev/rebble-weather/internal/scheduler"
	"github.com/pebble-dev/rebble-weather/internal/store"
	"github.com/pebble-dev/rebble-weather/internal/telemetry"
	"github.com/pebble-dev/rebble-weather/internal/weather"
	"github.com/pebble-dev/rebble-weather/internal/weather/providers"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Shared HTTP client for outbound calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	// Telemetry sink, only when a Honeycomb key is configured.
	var recorder telemetry.Recorder = telemetry.NopRecorder{}
	if cfg.TelemetryEnabled() {
		buffer := store.NewEventBuffer(cfg.TelemetryMaxEvents, time.Hour)
		honeycomb, err := telemetry.NewHoneycomb(telemetry.HoneycombConfig{
			APIRoot:     cfg.HoneycombAPIRoot,
			WriteKey:    cfg.HoneycombKey,
			Dataset:     cfg.HoneycombDataset,
			ServiceName: "weather",
			MaxRetries:  3,
		}, buffer)
		if err != nil {
			log.Fatalf("failed to create telemetry sink: %v", err)
		}
		defer honeycomb.Close()
		recorder = honeycomb

		sched := scheduler.New(cfg.TelemetryFlushInterval, honeycomb)
		if err := sched.Start(); err != nil {
			log.Fatalf("failed to start scheduler: %v", err)
		}
		defer sched.Stop()
	} else {
		log.Println("INFO: HONEYCOMB_KEY not set; telemetry events disabled")
	}

	auth := providers.NewAuthClient(httpClient, cfg.AuthURL)
	provider := providers.NewWeatherCompanyProvider(httpClient, cfg.WeatherAPIRoot, cfg.WeatherAPIKey, cfg.ProviderSchema, cfg.ForecastDays)
	service := weather.NewService(auth, provider)

	app := fiber.New(fiber.Config{
		AppName:               "rebble-weather",
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())
	app.Use(httpapi.Telemetry(recorder))

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// API routes.
	httpapi.RegisterRoutes(app, service)

	go func() {
		log.Printf("INFO: listening on :%s (provider schema %s)", cfg.Port, cfg.ProviderSchema)
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}
