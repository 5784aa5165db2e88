package api

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	"workq/internal/app"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

func NewServer(a *app.App) *Server {
	h := &handlers{app: a}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(func(r *http.Request) bool { return r.URL.Path == "/healthz" }))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/queues/{kind}", func(r chi.Router) {
		r.Use(h.withQueue)
		r.Get("/items", h.listItems)
		r.Get("/items/{id}", h.getItem)
		r.Patch("/items/{id}", h.patchItem)
		r.Get("/handlers/{ownerType}", h.listHandlers)
		r.Post("/owners/{ownerType}/{ownerID}/create", h.createItem)
		r.Post("/owners/{ownerType}/{ownerID}/schedule", h.scheduleItem)
		r.Post("/sweep", h.sweep)
	})

	return &Server{router: r}
}

type Server struct {
	router *chi.Mux
}

func (s *Server) Handler() http.Handler { return s.router }

// Run serves on port until ctx is canceled or the process gets SIGINT or
// SIGTERM, then drains in-flight requests for up to 30 seconds.
func (s *Server) Run(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)

	httpServer := http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info().Msgf("server serving on port %d", port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("listen and serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("Server is shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	log.Info().Msg("Server stopped")
	return nil
}
