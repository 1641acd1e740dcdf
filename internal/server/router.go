package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"repuestos/internal/commons"
	"repuestos/internal/config"
	equivalencectl "repuestos/internal/equivalence/controller"
	"repuestos/internal/infrastructure/metrics"
	movementctl "repuestos/internal/movement/controller"
	productctl "repuestos/internal/product/controller"
)

type Pinger interface {
	PingContext(ctx context.Context) error
}

type Controllers struct {
	Products     *productctl.ProductController
	Movements    *movementctl.MovementController
	Equivalences *equivalencectl.EquivalenceController
}

type RouterOptions struct {
	DB       Pinger
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	CORS     config.CORSConfig
	Logger   *zap.Logger
}

func NewRouter(ctrls Controllers, opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(opts.Logger))
	r.Use(middleware.Recoverer)
	r.Use(httpMetrics(opts.Metrics))

	r.Get("/health", health(opts.DB, opts.Logger))
	r.Handle("/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))

	r.Get("/movement-types", ctrls.Movements.MovementTypes)

	r.Route("/products", func(r chi.Router) {
		r.Get("/", ctrls.Products.List)
		r.Post("/", ctrls.Products.Create)

		r.Route("/{productId}", func(r chi.Router) {
			r.Get("/", ctrls.Products.Get)
			r.Put("/", ctrls.Products.Update)
			r.Delete("/", ctrls.Products.Delete)

			r.Get("/movements", ctrls.Movements.List)
			r.Post("/movements", ctrls.Movements.Record)
			r.Get("/reconciliation", ctrls.Movements.Reconcile)

			r.Get("/equivalents", ctrls.Equivalences.List)
			r.Post("/equivalents", ctrls.Equivalences.Link)
		})
	})

	c := cors.New(cors.Options{
		AllowedOrigins: opts.CORS.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	})

	return otelhttp.NewHandler(c.Handler(r), "repuestos.http")
}

func health(db Pinger, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			logger.Warn("health check failed", zap.Error(err))
			commons.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"}, logger)
			return
		}
		commons.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"}, logger)
	}
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			logger.Info("http request",
				zap.String("traceId", middleware.GetReqID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", statusOf(ww)),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}

func httpMetrics(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			m.ObserveHTTP(r.Method, route, statusOf(ww), time.Since(start))
		})
	}
}

func statusOf(ww middleware.WrapResponseWriter) int {
	if ww.Status() == 0 {
		return http.StatusOK
	}
	return ww.Status()
}
