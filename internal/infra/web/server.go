package web

import (
	"net/http"
	"strings"
	"time"

	"deep-research-agent/internal/config"
	"deep-research-agent/internal/infra/logging"
	red "deep-research-agent/internal/infra/redis"
	"deep-research-agent/internal/usecase"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Server exposes the research API consumed by the browser UI.
type Server struct {
	researchUC usecase.ResearchUseCase
	estimateUC usecase.EstimateUseCase
	settingsUC usecase.SettingsUseCase
	hub        *Hub
	auth       *AuthManager
	limiter    *red.RateLimiter
	cfg        *config.ServerConfig
	log        *zerolog.Logger
}

func NewServer(
	researchUC usecase.ResearchUseCase,
	estimateUC usecase.EstimateUseCase,
	settingsUC usecase.SettingsUseCase,
	hub *Hub,
	auth *AuthManager,
	limiter *red.RateLimiter,
	cfg *config.ServerConfig,
	logger *zerolog.Logger,
) *Server {
	serverLog := logger.With().Str("component", "web.Server").Logger()
	return &Server{
		researchUC: researchUC,
		estimateUC: estimateUC,
		settingsUC: settingsUC,
		hub:        hub,
		auth:       auth,
		limiter:    limiter,
		cfg:        cfg,
		log:        &serverLog,
	}
}

// Router assembles all routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/session", s.handleCreateSession)
		r.Delete("/auth/session", s.handleDeleteSession)

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Route("/research", func(r chi.Router) {
				r.With(s.rateLimit).Post("/", s.handleCreateResearch)
				r.Get("/", s.handleListResearch)
				r.Post("/estimate", s.handleEstimate)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.handleGetResearch)
					r.Post("/retry", s.handleRetryResearch)
					r.Post("/cancel", s.handleCancelResearch)
					r.Delete("/", s.handleDeleteResearch)
				})
			})

			r.Put("/settings/credentials", s.handleUpdateCredentials)
			r.Get("/settings/credentials", s.handleGetCredentials)
			r.Get("/ws", s.hub.HandleWS)
		})
	})
	return r
}

// requestLogger tags each request with a trace id and logs its outcome.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := uuid.NewString()
		r = r.WithContext(logging.WithTraceID(r.Context(), traceID))
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug().
			Str("trace_id", traceID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

// authMiddleware accepts either the configured bearer API key or a valid
// session cookie.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.APIKey == "" {
			s.log.Error().Msg("server API key is not configured")
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		if s.bearerOK(r) || s.auth.ValidateRequest(r) == nil {
			next.ServeHTTP(w, r)
			return
		}
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	})
}

func (s *Server) bearerOK(r *http.Request) bool {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return false
	}
	parts := strings.Split(authHeader, " ")
	return len(parts) == 2 && strings.EqualFold(parts[0], "bearer") && parts[1] == s.cfg.APIKey
}

// rateLimit bounds submissions per remote address. Without a limiter it is
// a pass-through.
func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter == nil {
			next.ServeHTTP(w, r)
			return
		}
		host := r.RemoteAddr
		if i := strings.LastIndex(host, ":"); i > 0 {
			host = host[:i]
		}
		ok, err := s.limiter.Allow(r.Context(), red.SubmitKey(host), s.cfg.RateLimit.Requests, s.cfg.RateLimit.Window)
		if err != nil {
			s.log.Error().Err(err).Msg("rate limiter error")
			// fail open: the limiter is protection, not a gate
			next.ServeHTTP(w, r)
			return
		}
		if !ok {
			http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
