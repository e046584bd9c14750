package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/shxh08/pastebin-clone/internal/config"
	"github.com/shxh08/pastebin-clone/internal/httpserver"
	"github.com/shxh08/pastebin-clone/internal/id"
	"github.com/shxh08/pastebin-clone/internal/logging"
	"github.com/shxh08/pastebin-clone/internal/paste"
	"github.com/shxh08/pastebin-clone/internal/security"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		errLogger := logging.New("error", false)
		errLogger.Fatal().Err(err).Msg("failed to load configuration")
	}
	if err := config.Validate(cfg); err != nil {
		errLogger := logging.New("error", false)
		errLogger.Fatal().Err(err).Msg("invalid configuration")
	}

	logger := logging.New(cfg.LogLevel, cfg.Environment == "development")
	logger.Info().Str("environment", cfg.Environment).Msg("starting pastebin")

	store, err := openStore(cfg.DatabasePath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.DatabasePath).Msg("failed opening data store")
	}
	defer store.Close()

	svc := paste.NewService(
		store,
		security.NewHasher(security.DefaultParams),
		id.New(cfg.IDLength),
		paste.Options{
			DefaultTTL:     cfg.DefaultTTL,
			MaxPasteSize:   cfg.MaxPasteSize,
			ListLimit:      cfg.ListLimit,
			ExpiringWindow: cfg.ExpiringWindow,
		},
		logger,
	)

	srv, err := httpserver.New(httpserver.Config{
		Service:    svc,
		MaxBytes:   cfg.MaxPasteSize,
		BaseURL:    cfg.BaseURL,
		TrustProxy: cfg.TrustProxy,
		Logger:     logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to construct server")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	paste.NewReaper(store, cfg.ReapInterval, logger).Start(ctx)

	srvHTTP := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("port", cfg.Port).Msg("listening")
		if err := srvHTTP.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srvHTTP.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("shutdown error")
		}
	case err := <-errCh:
		logger.Error().Err(err).Msg("http server error")
		os.Exit(1)
	}

	logger.Info().Msg("shutdown complete")
}
