package controllers

import (
	"net/http"

	"github.com/dmarcana/marketplace-analytics-backend/api/responses"
	"github.com/dmarcana/marketplace-analytics-backend/pkg/config"
	"github.com/dmarcana/marketplace-analytics-backend/pkg/db"
	pkgerrors "github.com/dmarcana/marketplace-analytics-backend/pkg/errors"
	"github.com/dmarcana/marketplace-analytics-backend/pkg/logger"
	"github.com/dmarcana/marketplace-analytics-backend/pkg/redis"
)

const envHeader = "X-Mkta-Env"

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		w.Header().Set(envHeader, cfg.App.Env)

		if dbP != nil {
			if err := dbP.Ping(ctx); err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "database unavailable"))
				return
			}
		}
		if redisP != nil {
			if err := redisP.Ping(ctx); err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis unavailable"))
				return
			}
		}

		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
