// Package api exposes the provisioning operations over HTTP.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/trace"

	app "github.com/ironhive/provisiond/internal/app/provisioning"
	"github.com/ironhive/provisiond/internal/config"
	"github.com/ironhive/provisiond/pkg/common"
	"github.com/ironhive/provisiond/pkg/common/logger"
	"github.com/ironhive/provisiond/pkg/common/otel"
)

// Server routes HTTP requests to the provisioning service.
type Server struct {
	cfg    *config.Settings
	logger *logger.Logger
	router *chi.Mux
	svc    *app.Service
	tracer trace.Tracer

	// Bounds accepted progress reports across all installers.
	progressLimiter *common.RateLimiter
	metrics         APIMetrics
}

// NewServer constructs the API server around the provisioning service.
func NewServer(cfg *config.Settings, svc *app.Service, log *logger.Logger, tracer trace.Tracer, metrics APIMetrics) *Server {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(otel.Middleware(tracer))
	r.Use(loggerMiddleware(log, metrics))
	r.Use(middleware.Recoverer)

	s := &Server{
		cfg:             cfg,
		logger:          log,
		router:          r,
		svc:             svc,
		tracer:          tracer,
		progressLimiter: common.NewRateLimiter(cfg.RateLimit.ProgressRPS, cfg.RateLimit.ProgressBurst),
		metrics:         metrics,
	}

	s.routes()
	return s
}

// Handler returns the underlying router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

func loggerMiddleware(log *logger.Logger, metrics APIMetrics) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				ctx := r.Context()
				log.Info(ctx, "Request completed",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"duration", time.Since(start),
					"trace_id", otel.GetTraceID(ctx),
				)
				metrics.IncRequestsTotal(ctx, r.Method, r.URL.Path, ww.Status())
				metrics.ObserveRequestDuration(ctx, r.Method, r.URL.Path, time.Since(start))
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

// rateLimited rejects requests with 429 once the shared progress-report
// budget is exhausted.
func (s *Server) rateLimited(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.progressLimiter.Allow() {
			s.metrics.IncRateLimited(r.Context(), r.URL.Path)
			http.Error(w, "too many progress reports", http.StatusTooManyRequests)
			return
		}
		next(w, r)
	}
}

func (s *Server) routes() {
	s.router.Route("/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/readiness", s.handleReadiness)

		r.Route("/machines", func(r chi.Router) {
			r.Post("/", s.handleRegisterMachine)
			r.Get("/{machineID}", s.handleGetMachine)
		})

		r.Route("/hosts", func(r chi.Router) {
			r.Post("/", s.handleCreateHost)
			r.Get("/{hostID}", s.handleGetHost)
			r.Delete("/{hostID}", s.handleDeleteHost)

			r.Patch("/{hostID}/os-config", s.handlePatchHostOSConfig)
			r.Put("/{hostID}/os-config", s.handlePutHostOSConfig)
			r.Post("/{hostID}/config-validated", s.handleMarkHostConfigValidated)
			r.Post("/{hostID}/reinstall", s.handleRequestHostReinstall)
			r.Post("/{hostID}/progress", s.rateLimited(s.handleReportHostProgress))
		})

		r.Route("/clusters", func(r chi.Router) {
			r.Post("/", s.handleCreateCluster)
			r.Get("/{clusterID}", s.handleGetCluster)
			r.Delete("/{clusterID}", s.handleDeleteCluster)
			r.Get("/{clusterID}/status", s.handleGetClusterStatus)

			r.Patch("/{clusterID}/os-config", s.handlePatchClusterOSConfig)
			r.Put("/{clusterID}/os-config", s.handlePutClusterOSConfig)
			r.Patch("/{clusterID}/deploy-config", s.handlePatchClusterDeployConfig)
			r.Put("/{clusterID}/deploy-config", s.handlePutClusterDeployConfig)
			r.Post("/{clusterID}/config-validated", s.handleMarkClusterConfigValidated)
			r.Post("/{clusterID}/reinstall", s.handleRequestClusterReinstall)
			r.Post("/{clusterID}/progress", s.rateLimited(s.handleReportClusterProgress))

			r.Route("/{clusterID}/hosts", func(r chi.Router) {
				r.Post("/", s.handleAddClusterHost)
				r.Get("/{hostID}", s.handleGetClusterHost)
				r.Delete("/{hostID}", s.handleRemoveClusterHost)

				r.Patch("/{hostID}/deploy-config", s.handlePatchClusterHostDeployConfig)
				r.Put("/{hostID}/deploy-config", s.handlePutClusterHostDeployConfig)
				r.Patch("/{hostID}/os-config", s.handlePatchClusterHostOSConfig)
				r.Put("/{hostID}/os-config", s.handlePutClusterHostOSConfig)
				r.Post("/{hostID}/config-validated", s.handleMarkClusterHostConfigValidated)
				r.Post("/{hostID}/progress", s.rateLimited(s.handleReportMembershipProgress))
			})
		})
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// Start runs the server until the context is canceled, then shuts it down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", s.cfg.API.Host, s.cfg.API.Port),
		Handler:      s.router,
		ReadTimeout:  s.cfg.API.ReadTimeout,
		WriteTimeout: s.cfg.API.WriteTimeout,
		IdleTimeout:  s.cfg.API.IdleTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.API.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(shutdownCtx, "failed to shutdown server", "error", err)
		}
	}()

	s.logger.Info(ctx, "starting server",
		"addr", server.Addr,
		"service", "provisiond-api",
	)

	return server.ListenAndServe()
}
