// Package routes assembles the HTTP surface of the service.
package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmarcana/marketplace-analytics-backend/api/controllers"
	"github.com/dmarcana/marketplace-analytics-backend/api/middleware"
	"github.com/dmarcana/marketplace-analytics-backend/internal/live"
	"github.com/dmarcana/marketplace-analytics-backend/internal/records"
	"github.com/dmarcana/marketplace-analytics-backend/pkg/config"
	"github.com/dmarcana/marketplace-analytics-backend/pkg/db"
	"github.com/dmarcana/marketplace-analytics-backend/pkg/logger"
	"github.com/dmarcana/marketplace-analytics-backend/pkg/redis"
)

// RouterParams carry the dependencies of the HTTP layer.
type RouterParams struct {
	Config     *config.Config
	Logger     *logger.Logger
	DBPinger   db.Pinger
	RedisP     redis.Pinger
	Repository records.Repository
	Legacy     records.GenericRepository
	Hub        *live.Hub
	Metrics    prometheus.Gatherer
}

func NewRouter(params RouterParams) http.Handler {
	cfg := params.Config
	logg := params.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, params.DBPinger, params.RedisP))
	})

	r.Route("/responses", func(r chi.Router) {
		r.Get("/", controllers.ListResponses(params.Repository, logg))
		r.Get("/stats", controllers.GetResponseStats(params.Repository, logg))
		r.Get("/latest", controllers.GetLatestResponse(params.Repository, logg))
		r.Get("/events", controllers.SubscribeEvents(params.Hub, logg))
		r.Post("/events/{subscriberId}", controllers.PostLiveRequest(params.Hub, logg))
		r.Get("/{responseId}", controllers.GetResponseByID(params.Repository, logg))
	})

	if params.Legacy != nil {
		r.Route("/legacy/responses", func(r chi.Router) {
			r.Get("/", controllers.ListLegacyResponses(params.Legacy, logg))
			r.Get("/stats", controllers.GetLegacyResponseStats(params.Legacy, logg))
			r.Get("/latest", controllers.GetLegacyLatestResponse(params.Legacy, logg))
		})
	}

	gatherer := params.Metrics
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	return r
}
