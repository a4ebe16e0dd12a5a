package server

import (
	"context"
	"crypto/subtle"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/pulsehub/scheduler/internal/capacity"
	"github.com/pulsehub/scheduler/internal/config"
	"github.com/pulsehub/scheduler/internal/holiday"
	"github.com/pulsehub/scheduler/internal/sprint"
	"github.com/pulsehub/scheduler/pkg/cerr"
	"github.com/pulsehub/scheduler/pkg/clog"
)

// Server assembles the REST API: the domain handlers under /api behind
// API-key auth, plus an unauthenticated health probe.
type Server struct {
	httpServer *http.Server
	apiKey     string
}

func New(env *config.Env, sprints *sprint.Server, capacities *capacity.Server, holidays *holiday.Server) *Server {
	s := &Server{apiKey: env.APIKey}

	r := chi.NewRouter()
	r.Get("/health", handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Use(
			clog.SlogChiMiddleware(),
			cerr.NewJSONResponseChiMiddleware(),
			s.apiKeyMiddleware,
		)
		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			cerr.SetNewJSONError(r.Context(), cerr.NotFound, "not found", nil)
		})
		sprints.Routes(r)
		capacities.Routes(r)
		holidays.Routes(r)
	})

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-API-Key"},
		AllowCredentials: false,
	})

	s.httpServer = &http.Server{
		Addr:         env.Addr(),
		Handler:      h2c.NewHandler(c.Handler(r), &http2.Server{}),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) ListenAndServe(ctx context.Context) error {
	s.httpServer.BaseContext = func(net.Listener) context.Context {
		return ctx
	}
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) apiKeyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get("X-API-Key")
		if key == "" {
			auth := r.Header.Get("Authorization")
			if after, ok := strings.CutPrefix(auth, "Bearer "); ok {
				key = after
			}
		}
		if subtle.ConstantTimeCompare([]byte(key), []byte(s.apiKey)) != 1 {
			cerr.SetNewJSONError(r.Context(), cerr.Unauthenticated, "invalid api key", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
