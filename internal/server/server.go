package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	logx "github.com/chatrelay/server/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

// Config carries the HTTP listener settings and the shared secret
// guarding the prompt administration routes.
type Config struct {
	Host      string `envconfig:"HOST" default:"0.0.0.0"`
	Port      int    `envconfig:"PORT" default:"8000"`
	SecretKey string `envconfig:"SECRET_KEY" required:"true"`
}

// ChatService is the slice of the conversation core the transport needs.
type ChatService interface {
	Converse(ctx context.Context, userID, clientID, query string) (string, error)
	SetSystemPrompt(ctx context.Context, clientID, text string) error
	GetSystemPrompt(ctx context.Context, clientID string) (string, bool, error)
}

type Server struct {
	cfg Config
	svc ChatService
	mux *chi.Mux
}

func New(cfg Config, svc ChatService) *Server {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Timeout(60*time.Second),
		cors.Handler(cors.Options{
			AllowedOrigins:   []string{"*"}, // change later to exact domains
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"*"},
			AllowCredentials: true,
		}),
	)

	s := &Server{cfg: cfg, svc: svc, mux: r}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.Get("/", s.handleRoot)
	s.mux.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	s.mux.Get("/metrics", promhttp.Handler().ServeHTTP)

	s.mux.Route("/api", func(r chi.Router) {
		r.Post("/chat", s.handleChat)

		r.Group(func(r chi.Router) {
			r.Use(s.requireSecret)
			r.Post("/set-prompt", s.handleSetPrompt)
			r.Get("/get-prompt/{clientID}", s.handleGetPrompt)
		})
	})
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	srv := &http.Server{Addr: addr, Handler: s.mux}

	g, gctx := errgroup.WithContext(context.Background())
	g.Go(func() error {
		logx.Info().Str("addr", addr).Msg("starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	select {
	case <-ctx.Done():
		logx.Info().Msg("gracefully shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown HTTP server: %w", err)
		}
		// wait for ListenAndServe to return
		return g.Wait()
	case <-gctx.Done():
		if err := g.Wait(); err != nil {
			return fmt.Errorf("HTTP server stopped: %w", err)
		}
	}

	return nil
}
