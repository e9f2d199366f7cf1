package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/ljungman/calendard/internal/api"
	"github.com/ljungman/calendard/internal/config"
	"github.com/ljungman/calendard/internal/engine"
	"github.com/ljungman/calendard/internal/notify"
	"github.com/ljungman/calendard/internal/security"
	"github.com/ljungman/calendard/internal/store"
)

type Application struct {
	cfg    config.Config
	store  store.Store
	logger *slog.Logger
}

func New(cfg config.Config, st store.Store, logger *slog.Logger) *Application {
	if logger == nil {
		logger = slog.Default()
	}
	return &Application{cfg: cfg, store: st, logger: logger}
}

// BuildStore constructs the configured store backend.
func BuildStore(ctx context.Context, cfg config.Config) (store.Store, error) {
	switch cfg.StoreType {
	case "memory":
		return store.NewMemoryStore(), nil
	case "postgres":
		pg, err := store.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := pg.Migrate(ctx); err != nil {
			pg.Close()
			return nil, err
		}
		return pg, nil
	case "http":
		return store.NewHTTPStore(cfg.StoreURL, nil), nil
	default:
		return nil, fmt.Errorf("invalid store type: %s", cfg.StoreType)
	}
}

func (a *Application) Run(ctx context.Context) error {
	eng := engine.New(engine.Options{
		Store:   a.store,
		Logger:  a.logger,
		Horizon: a.cfg.ExpandHorizon,
	})
	if err := eng.Refresh(ctx); err != nil {
		return fmt.Errorf("initial fetch: %w", err)
	}

	server := api.New(api.Options{
		Engine: eng,
		Auth: security.BearerAuth{
			Enabled: a.cfg.RequireBearerToken,
			Token:   a.cfg.BearerToken,
		},
		Logger: a.logger,
	})

	scanner := notify.NewScanner(notify.Options{
		Source:   eng.Events,
		Interval: a.cfg.NotifyInterval,
		Logger:   a.logger,
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 3)
	wg := sync.WaitGroup{}

	if a.cfg.BindAddress != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := server.ServeTCP(ctx, a.cfg.BindAddress); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("tcp server: %w", err)
			}
		}()
	}
	if a.cfg.UnixSocketPath != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := server.ServeUnix(ctx, a.cfg.UnixSocketPath); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("unix server: %w", err)
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := scanner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- fmt.Errorf("notifier: %w", err)
		}
	}()

	select {
	case err := <-errCh:
		cancel()
		wg.Wait()
		return err
	case <-ctx.Done():
		wg.Wait()
		return nil
	}
}
