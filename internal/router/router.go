package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/evyataryagoni/geolegacy/internal/handler"
	"github.com/evyataryagoni/geolegacy/internal/limiter"
	"github.com/evyataryagoni/geolegacy/internal/logger"
	"github.com/evyataryagoni/geolegacy/internal/metrics"
	custommiddleware "github.com/evyataryagoni/geolegacy/internal/middleware"
	v1 "github.com/evyataryagoni/geolegacy/internal/router/v1"
)

// SetupRouter creates the Chi router with middleware, the versioned API and
// the operational endpoints
//
// Parameters:
//   - lookupHandler: the lookup handler
//   - rateLimiter: the rate limiter (memory or Redis)
//   - m: metrics collector, may be nil
//   - gatherer: source for /metrics; the endpoint is omitted when nil
//   - log: structured logger
func SetupRouter(lookupHandler *handler.LookupHandler, rateLimiter limiter.Limiter, m *metrics.Metrics, gatherer prometheus.Gatherer, log *logger.Logger) chi.Router {
	r := chi.NewRouter()

	// RequestID first so the logger can see it
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(custommiddleware.LoggingMiddleware(log))
	r.Use(middleware.Recoverer)
	r.Use(custommiddleware.RateLimitMiddleware(rateLimiter))
	r.Use(custommiddleware.MetricsMiddleware(m))

	r.Mount("/v1", v1.SetupRoutes(lookupHandler))

	r.Get("/health", healthCheckHandler)

	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	return r
}

// healthCheckHandler reports liveness only
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}
