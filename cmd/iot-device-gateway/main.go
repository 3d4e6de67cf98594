package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/diwise/iot-device-gateway/internal/pkg/application"
	"github.com/diwise/iot-device-gateway/internal/pkg/application/devicemanagement"
	"github.com/diwise/iot-device-gateway/internal/pkg/application/events"
	"github.com/diwise/iot-device-gateway/internal/pkg/infrastructure/bluetooth"
	"github.com/diwise/iot-device-gateway/internal/pkg/infrastructure/logging"
	"github.com/diwise/iot-device-gateway/internal/pkg/infrastructure/messaging"
	"github.com/diwise/iot-device-gateway/internal/pkg/infrastructure/router"
	"github.com/diwise/iot-device-gateway/internal/pkg/infrastructure/tracing"
	"github.com/diwise/iot-device-gateway/internal/pkg/presentation/api"
)

const serviceName string = "iot-device-gateway"

func main() {
	serviceVersion := version()

	var configPath, notificationsPath string
	flag.StringVar(&configPath, "config", "/opt/diwise/config/gateway.yaml", "gateway configuration file")
	flag.StringVar(&notificationsPath, "notifications", "", "emergency alert notification subscribers")
	flag.Parse()

	cfg, err := application.LoadConfig(configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	ctx, logger := logging.NewLogger(context.Background(), serviceName, serviceVersion, cfg.LogLevel)
	logger.Info().Msg("starting up ...")

	cleanup, err := tracing.Init(ctx, logger, serviceName, serviceVersion)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init tracing")
	}
	defer cleanup()

	opts, err := options(ctx, cfg, notificationsPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to set up gateway")
	}

	app := application.New(*cfg, opts...)

	if err = app.Start(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to start device adapters")
	}

	server := &http.Server{
		Addr:    ":" + cfg.ControlPort,
		Handler: createRouter(ctx, app, cfg),
	}

	go func() {
		logger.Info().Str("port", cfg.ControlPort).Msg("control api listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("failed to start control api")
		}
	}()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info().Msg("shutting down ...")

	shutdownCtx, cancel := context.WithTimeout(logging.NewContextWithLogger(context.Background(), logger), 15*time.Second)
	defer cancel()

	if err := app.Stop(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("adapters did not shut down cleanly")
	}

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("control api did not shut down cleanly")
	}
}

func options(ctx context.Context, cfg *application.Config, notificationsPath string) ([]application.Option, error) {
	opts := []application.Option{}
	logger := logging.GetFromContext(ctx)

	var notifications *events.Config
	if notificationsPath != "" {
		f, err := os.Open(notificationsPath)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		notifications, err = events.LoadConfiguration(f)
		if err != nil {
			return nil, err
		}
	}

	notifier, err := events.NewNotifier(notifications)
	if err != nil {
		return nil, err
	}
	opts = append(opts, application.WithNotifier(notifier))

	switch {
	case cfg.Messaging.Transport == messaging.TransportMessenger:
		messenger, err := messaging.NewMessenger(ctx, serviceName, slog.New(slog.NewJSONHandler(os.Stdout, nil)))
		if err != nil {
			return nil, err
		}
		opts = append(opts, application.WithPublisher(messenger))
		logger.Info().Msg("forwarding events through messenger")
	case cfg.Messaging.URL != "":
		publisher, err := messaging.NewPublisher(cfg.Messaging, serviceName)
		if err != nil {
			return nil, err
		}
		opts = append(opts, application.WithPublisher(publisher))
		logger.Info().Str("exchange", cfg.Messaging.Exchange).Msg("forwarding events to message broker")
	}

	if cfg.Gateway.Proximity != nil {
		opts = append(opts, application.WithDeviceOptions(devicemanagement.WithScanner(bluetooth.NewScanner())))
	}

	return opts, nil
}

func createRouter(ctx context.Context, app application.App, cfg *application.Config) *chi.Mux {
	r := router.New(serviceName, cfg.AllowedOrigins...)
	return api.RegisterHandlers(ctx, r, app.DeviceManagement(), app.WebEvents())
}

func version() string {
	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}

	buildSettings := buildInfo.Settings
	infoMap := map[string]string{}
	for _, s := range buildSettings {
		infoMap[s.Key] = s.Value
	}

	sha := infoMap["vcs.revision"]
	if infoMap["vcs.modified"] == "true" {
		sha += "+"
	}

	return sha
}
