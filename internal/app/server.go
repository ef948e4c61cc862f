package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/markdave123-py/chatterbox/internal/api/handlers"
	middleware "github.com/markdave123-py/chatterbox/internal/api/middlewares"
	"github.com/markdave123-py/chatterbox/internal/config"
)

// Handlers groups the endpoint handlers mounted by NewRouter.
type Handlers struct {
	Auth      *handlers.AuthHandler
	Documents *handlers.DocumentHandler
	Company   *handlers.CompanyHandler
	Health    *handlers.HealthHandler
}

// NewRouter builds the HTTP routes. sessions may be nil when no JWT secret is configured.
func NewRouter(cfg *config.Config, log zerolog.Logger, h Handlers, sessions middleware.SessionParser) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(log))
	r.Use(chimw.Recoverer)
	r.Use(middleware.MetricsRecorder)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))

	r.Get("/healthz", h.Health.Healthz)
	r.Handle("/metrics", promhttp.Handler())

	requestTimeout := durationOr(cfg.RequestTimeout, 60*time.Second)
	// The upload route gets the same budget the S3 client gives PutObject.
	uploadTimeout := durationOr(cfg.UploadTimeout, 2*time.Minute)

	routes := func(api chi.Router) {
		// public endpoints
		api.Group(func(public chi.Router) {
			public.Use(chimw.Timeout(requestTimeout))
			public.Post("/signup", h.Auth.Signup)
			public.Post("/login", h.Auth.Login)
		})

		// company endpoints
		api.Group(func(company chi.Router) {
			if cfg.AuthRequired || sessions != nil {
				company.Use(middleware.JWTMiddleware(sessions, cfg.AuthRequired))
			}
			company.With(chimw.Timeout(uploadTimeout)).Post("/upload", h.Documents.UploadDocument)

			company.Group(func(dashboard chi.Router) {
				dashboard.Use(chimw.Timeout(requestTimeout))
				dashboard.Post("/prompt", h.Company.UpdatePrompt)
				dashboard.Get("/performance", h.Company.GetPerformance)
				dashboard.Get("/conversations", h.Company.ListConversations)
			})
		})
	}
	if cfg.APIPrefix == "" {
		routes(r)
	} else {
		r.Route(cfg.APIPrefix, routes)
	}

	return r
}

func durationOr(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}

// Server wraps the HTTP server instance.
type Server struct {
	httpServer      *http.Server
	shutdownTimeout time.Duration
	log             zerolog.Logger
}

func NewServer(cfg *config.Config, log zerolog.Logger, handler http.Handler) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              cfg.Addr(),
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		shutdownTimeout: cfg.ShutdownTimeout,
		log:             log,
	}
}

// Run serves until ctx is cancelled, then drains in-flight requests for up to the
// configured shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.httpServer.Addr).Msg("HTTP server listening")
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		s.log.Info().Msg("shutting down HTTP server")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}
