package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog/log"
)

const shutdownTimeout = 5 * time.Second

// Router builds the admin routes.
func Router(registry Registry) chi.Router {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Heartbeat("/health"))
	router.Use(middleware.CleanPath)

	router.Handle("/metrics", MetricsHandler(registry))
	router.Mount("/pipelines", PipelinesRouter(registry))

	return router
}

// Run serves the admin routes on the configured port until ctx is done.
func Run(ctx context.Context, config *koanf.Koanf, registry Registry) error {
	serverPort := config.String("port")
	log.Info().Msgf("Running the web server on port: %s", serverPort)

	srv := &http.Server{
		Addr:              ":" + serverPort,
		Handler:           Router(registry),
		ReadHeaderTimeout: shutdownTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("web server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown web server: %w", err)
	}
	log.Info().Msg("Web server stopped")
	return nil
}
