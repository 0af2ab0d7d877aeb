package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"checkout-arbiter/internal/config"
	"checkout-arbiter/internal/telemetry"
)

type App struct {
	httpServer *http.Server
	cleanup    func() error
	tracing    func(context.Context) error
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	tracing, err := telemetry.Init(ctx, serviceName, cfg.Telemetry)
	if err != nil {
		return nil, err
	}

	router, cleanup, err := setupHTTP(ctx, cfg)
	if err != nil {
		_ = tracing(context.Background())
		return nil, err
	}

	server := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return &App{
		httpServer: server,
		cleanup:    cleanup,
		tracing:    tracing,
	}, nil
}

func (a *App) Run() error {
	if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (a *App) Shutdown(ctx context.Context) error {
	if err := a.httpServer.Shutdown(ctx); err != nil {
		return err
	}
	var errs []error
	if a.cleanup != nil {
		errs = append(errs, a.cleanup())
	}
	if a.tracing != nil {
		errs = append(errs, a.tracing(ctx))
	}
	return errors.Join(errs...)
}
