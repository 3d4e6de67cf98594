package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"

	"github.com/diwise/iot-device-gateway/internal/pkg/application/devicemanagement"
	"github.com/diwise/iot-device-gateway/internal/pkg/infrastructure/logging"
	"github.com/diwise/iot-device-gateway/internal/pkg/infrastructure/tracing"
)

var tracer = otel.Tracer("iot-device-gateway/api")

// RegisterHandlers mounts the diagnostics endpoints. Device and alert management is not
// exposed over HTTP.
func RegisterHandlers(ctx context.Context, router *chi.Mux, dm devicemanagement.DeviceManagement, events http.Handler) *chi.Mux {
	log := logging.GetFromContext(ctx)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	router.Route("/api/v0", func(r chi.Router) {
		r.Get("/status", getSystemStatusHandler(log, dm))
		r.Get("/events", events.ServeHTTP)
	})

	return router
}

func getSystemStatusHandler(log zerolog.Logger, dm devicemanagement.DeviceManagement) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error

		ctx, span := tracer.Start(r.Context(), "get-system-status")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

		status := dm.GetSystemStatus(ctx)

		b, err := json.Marshal(status)
		if err != nil {
			log.Error().Err(err).Msg("failed to marshal system status")
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		w.Header().Add("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(b)
	}
}
