package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/heartmarshall/wordbrowser/internal/config"
	"github.com/heartmarshall/wordbrowser/internal/service/browse"
	"github.com/heartmarshall/wordbrowser/internal/transport/middleware"
	"github.com/heartmarshall/wordbrowser/internal/transport/rest"
)

// Run is the application entry point. It loads configuration, opens the
// snapshot storage, restores the browsing state, and serves HTTP until ctx
// is cancelled. On shutdown it drains requests, stops any prefetch, and
// flushes pending snapshot writes.
func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := NewLogger(cfg.Log)

	logger.Info("starting application",
		slog.String("version", BuildVersion()),
		slog.String("log_level", cfg.Log.Level),
		slog.String("storage_driver", cfg.Storage.Driver),
	)

	storage, closeStorage, err := OpenStorage(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer closeStorage()

	persister := browse.NewPersister(logger, storage, cfg.Browse)
	store := browse.NewStore(persister)
	session := browse.NewSession(logger, store, NewWordFeed(cfg.Words, logger), persister, cfg.Browse)

	if err := session.Restore(ctx); err != nil {
		// The error is kept in the state; clients can retry with a refresh.
		logger.Warn("initial load failed", slog.String("error", err.Error()))
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimit.CleanupInterval)
	defer limiter.Stop()

	srv := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:      NewHandler(cfg, logger, storage, session, limiter),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("http server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Server.ShutdownTimeout)
		defer cancel()

		var errs []error
		if err := srv.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		}
		session.Close()
		if err := persister.Flush(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("flush snapshot: %w", err))
		}
		return errors.Join(errs...)
	})

	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info("shutdown complete")
	return nil
}

// NewHandler builds the full HTTP handler: the router wrapped in the
// recovery, request ID, logging, and CORS middleware.
func NewHandler(
	cfg *config.Config,
	logger *slog.Logger,
	storage Storage,
	session *browse.Session,
	limiter *middleware.RateLimiter,
) http.Handler {
	store := session.Store()

	router := rest.NewRouter(rest.Routes{
		Health:  rest.NewHealthHandler(storage, cfg.Storage.Driver, BuildVersion()),
		Words:   rest.NewWordsHandler(session, store, logger, cfg.Browse.PrefetchTimeout),
		Events:  rest.NewEventsHandler(store, logger),
		Refresh: limiter.Limit(cfg.RateLimit.RefreshPerMinute),
	})

	return middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.CORS(cfg.CORS),
	)(router)
}
