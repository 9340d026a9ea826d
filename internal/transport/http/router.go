package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"idverify/internal/platform/metrics"
	"idverify/internal/platform/middleware"
	"idverify/pkg/platform/httputil"
	"idverify/pkg/platform/middleware/auth"
	"idverify/pkg/platform/middleware/metadata"
	"idverify/pkg/platform/middleware/requesttime"
)

// DefaultRequestTimeout bounds each API request, OCR included.
const DefaultRequestTimeout = 60 * time.Second

// Registrar mounts a group of routes.
type Registrar interface {
	Register(r chi.Router)
}

// HealthCheck reports whether one dependency is usable.
type HealthCheck func(ctx context.Context) error

// Options configure NewRouter. Zero values are usable: no auth, no health
// checks, no metrics endpoint.
type Options struct {
	Logger         *slog.Logger
	Metrics        *metrics.Metrics
	Gatherer       prometheus.Gatherer
	RequestTimeout time.Duration
	// Validator enables bearer auth on API routes when set.
	Validator   auth.JWTValidator
	AuthOptions []auth.Option
	// RateLimit runs after auth so limits key on the subject when known.
	RateLimit func(http.Handler) http.Handler
	Health    map[string]HealthCheck
}

// NewRouter wires operational endpoints and the API groups behind the shared
// middleware chain.
func NewRouter(opts Options, api ...Registrar) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	r := chi.NewRouter()
	r.Use(metadata.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)
	r.Use(middleware.Recovery(logger, opts.Metrics))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.LatencyMiddleware(opts.Metrics))

	r.Get("/healthz", healthHandler(opts.Health))
	if opts.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(timeout))
		if opts.Validator != nil {
			r.Use(auth.RequireAuth(opts.Validator, logger, opts.AuthOptions...))
		}
		if opts.RateLimit != nil {
			r.Use(opts.RateLimit)
		}
		for _, reg := range api {
			reg.Register(r)
		}
	})

	return r
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := healthResponse{Status: "ok"}
		status := http.StatusOK
		for name, check := range checks {
			if resp.Checks == nil {
				resp.Checks = make(map[string]string, len(checks))
			}
			if err := check(ctx); err != nil {
				resp.Checks[name] = "unavailable"
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "ok"
		}
		httputil.WriteJSON(w, status, resp)
	}
}
