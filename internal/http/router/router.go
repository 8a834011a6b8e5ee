package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/sandeepkv93/product-media-catalog/internal/health"
	"github.com/sandeepkv93/product-media-catalog/internal/http/handler"
	"github.com/sandeepkv93/product-media-catalog/internal/http/middleware"
	"github.com/sandeepkv93/product-media-catalog/internal/http/response"
)

const defaultBodyLimit = 1 << 20

type RateLimiterFunc func(http.Handler) http.Handler

type Dependencies struct {
	ProductHandler *handler.ProductHandler
	CORSOrigins    []string
	APIRateLimit   int
	// RateLimiter overrides the per-process limiter, e.g. with a redis backed one.
	RateLimiter RateLimiterFunc
	// MultipartBodyLimit bounds create and update requests, which carry images.
	MultipartBodyLimit int64
	Readiness          *health.ProbeRunner
	EnableOTelHTTP     bool
}

func NewRouter(dep Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.StructuredRequestLogger)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(dep.CORSOrigins))

	r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		if dep.Readiness == nil {
			response.JSON(w, r, http.StatusOK, map[string]any{"status": "ready", "checks": []any{}})
			return
		}
		ready, results := dep.Readiness.Ready(r.Context())
		if ready {
			response.JSON(w, r, http.StatusOK, map[string]any{"status": "ready", "checks": results})
			return
		}
		response.Error(w, r, http.StatusServiceUnavailable, "DEPENDENCY_UNREADY", "dependencies are not ready", map[string]any{"checks": results})
	})

	limiter := dep.RateLimiter
	if limiter == nil {
		limiter = middleware.NewRateLimiter(dep.APIRateLimit, time.Minute).Middleware()
	}
	writeLimit := dep.MultipartBodyLimit
	if writeLimit <= 0 {
		writeLimit = defaultBodyLimit
	}

	r.Route("/api/v1/products", func(r chi.Router) {
		r.Use(limiter)
		r.With(middleware.BodyLimit(defaultBodyLimit)).Get("/", dep.ProductHandler.List)
		r.With(middleware.BodyLimit(defaultBodyLimit)).Get("/{id}", dep.ProductHandler.GetByID)
		r.With(middleware.BodyLimit(defaultBodyLimit)).Delete("/{id}", dep.ProductHandler.Delete)
		r.Group(func(r chi.Router) {
			r.Use(middleware.BodyLimit(writeLimit))
			r.Post("/", dep.ProductHandler.Create)
			r.Put("/{id}", dep.ProductHandler.Update)
			r.Patch("/{id}", dep.ProductHandler.Update)
		})
	})

	var h http.Handler = r
	if dep.EnableOTelHTTP {
		h = otelhttp.NewHandler(r, "http.server")
	}
	return h
}
