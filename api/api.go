// Package api exposes read-only observability endpoints for a running
// simulation: health, Prometheus metrics, and the accuracy trace.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/absmach/fedsim/server"
)

const contentType = "application/json"

type healthRes struct {
	Status     string `json:"status"`
	Service    string `json:"service"`
	InstanceID string `json:"instance_id"`
}

func MakeHandler(svc server.Service, logger *slog.Logger, svcName, instanceID string) http.Handler {
	mux := chi.NewRouter()

	mux.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		encode(w, logger, healthRes{
			Status:     "ok",
			Service:    svcName,
			InstanceID: instanceID,
		})
	})

	mux.Get("/trace", func(w http.ResponseWriter, _ *http.Request) {
		encode(w, logger, svc.Trace())
	})

	mux.Handle("/metrics", promhttp.Handler())

	return mux
}

func encode(w http.ResponseWriter, logger *slog.Logger, response any) {
	w.Header().Set("Content-Type", contentType)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.Warn("failed to encode response", slog.Any("error", err))
	}
}
