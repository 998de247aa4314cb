// Command server runs the claimstack REST API.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	app "github.com/harborline/claimstack/internal/app"
	"github.com/harborline/claimstack/internal/app/httpapi"
	"github.com/harborline/claimstack/internal/app/metrics"
	"github.com/harborline/claimstack/internal/app/storage/postgres"
	"github.com/harborline/claimstack/internal/config"
	"github.com/harborline/claimstack/internal/middleware"
	"github.com/harborline/claimstack/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "claimstack: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	}).WithField("component", "server")

	stores := app.Stores{}
	if cfg.Database.URL != "" {
		store, err := postgres.Open(cfg.Database.URL, postgres.PoolConfig{
			MaxOpenConns: cfg.Database.MaxOpenConns,
			MaxIdleConns: cfg.Database.MaxIdleConns,
			ConnLifetime: cfg.Database.ConnLifetime,
		})
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer store.Close()

		stores = app.Stores{
			Customers:   store,
			Employees:   store,
			PolicyTypes: store,
			Claims:      store,
			Users:       store,
		}
		log.Info("using postgres storage")
	} else {
		log.Warn("DATABASE_URL not set, using in-memory storage")
	}

	application, err := app.New(stores, app.Options{
		JWTSecret:      []byte(cfg.Auth.JWTSecret),
		TokenTTL:       cfg.Auth.TokenTTL,
		Issuer:         cfg.Auth.Issuer,
		ReportInterval: cfg.Reports.RefreshInterval,
	}, log)
	if err != nil {
		return fmt.Errorf("build application: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := application.Start(ctx); err != nil {
		return fmt.Errorf("start application: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := application.Stop(shutdownCtx); err != nil {
			log.WithError(err).Warn("application stop failed")
		}
	}()

	handler := buildHandler(application, cfg, log)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", srv.Addr).Info("http server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}

// buildHandler assembles the middleware chain around the REST API. Requests
// flow CORS, rate limiting, authentication, then metrics collection.
func buildHandler(application *app.Application, cfg *config.Config, log *logger.Logger) http.Handler {
	handler := httpapi.NewHandler(application)

	authMW := middleware.NewAuthMiddleware(application.Auth, log, []string{
		"/healthz",
		"/metrics",
		"/auth/register",
		"/auth/login",
	})
	handler = authMW.Handler(handler)

	limiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst, log)
	limiter.StartCleanup(10 * time.Minute)
	handler = limiter.Handler(handler)

	handler = middleware.NewCORSMiddleware(cfg.Server.AllowedOrigins).Handler(handler)
	return metrics.InstrumentHandler(handler)
}
