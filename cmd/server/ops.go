package main

import (
	"database/sql"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"casefile/internal/platform/kafka"
	"casefile/internal/platform/redis"
	"casefile/internal/profile/service"
	id "casefile/pkg/domain"
	dErrors "casefile/pkg/domain-errors"
	"casefile/pkg/platform/middleware/requesttime"
)

// opsRouter serves the operational surface: liveness, readiness, metrics,
// and a support-only summary probe. The case-management API is a separate
// system; nothing here is for end users.
func opsRouter(svc *service.Service, db *sql.DB, redisClient *redis.Client, kafkaClient *kafka.Client) http.Handler {
	r := chi.NewRouter()
	r.Use(requesttime.Middleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.Get("/readyz", func(w http.ResponseWriter, req *http.Request) {
		ctx := req.Context()
		if err := db.PingContext(ctx); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		if redisClient != nil {
			if err := redisClient.Health(ctx); err != nil {
				http.Error(w, "cache unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		if kafkaClient != nil {
			if err := kafkaClient.Health(ctx); err != nil {
				http.Error(w, "changefeed unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	})

	r.Handle("/metrics", promhttp.Handler())

	// Support tooling: lets an operator inspect the derived state the cache
	// and changefeed maintain for one profile.
	r.Get("/debug/profiles/{profileID}/summary", func(w http.ResponseWriter, req *http.Request) {
		profileID, err := id.ParseProfileID(chi.URLParam(req, "profileID"))
		if err != nil {
			http.Error(w, "invalid profile id", http.StatusBadRequest)
			return
		}
		summary, err := svc.Summary(req.Context(), profileID)
		if err != nil {
			switch {
			case dErrors.HasCode(err, dErrors.CodeNotFound):
				http.NotFound(w, req)
			case dErrors.HasCode(err, dErrors.CodeInvalidConfig):
				http.Error(w, err.Error(), http.StatusPreconditionFailed)
			default:
				http.Error(w, "summary failed", http.StatusInternalServerError)
			}
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(summary)
	})

	return r
}
