package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"librarium/internal/auth"
	"librarium/internal/catalog"
	"librarium/internal/config"
	"librarium/internal/httpx"
	"librarium/internal/logging"
	"librarium/internal/platform/openlibrary"
	"librarium/internal/store"
)

func main() {
	_ = godotenv.Load(".env.local")

	cfg, err := config.Load()
	if err != nil {
		// Logger is not configured yet; write plainly and exit.
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	log := logging.New(cfg.Log.Level, cfg.Log.Format)

	if err := os.MkdirAll(cfg.Data.Dir, 0o700); err != nil {
		log.Fatal().Err(err).Str("dir", cfg.Data.Dir).Msg("cannot create data directory")
	}

	creds := store.NewCredentialStore(cfg.Data.Dir)
	sessions := store.NewSessionStore(cfg.Data.Dir)

	var lookup catalog.MetadataLookup
	if cfg.OpenLibrary.Enabled {
		lookup = openlibrary.NewClient(
			cfg.OpenLibrary.BaseURL,
			cfg.OpenLibrary.UserAgent,
			cfg.OpenLibrary.RPS,
			cfg.OpenLibrary.MaxRetries,
			cfg.OpenLibrary.Timeout,
		)
	}

	authService := auth.NewService(creds, sessions, cfg.Auth.TokenSecret, cfg.Auth.TokenTTL, cfg.Auth.SessionTTL, log)
	catalogService := catalog.NewService(creds, lookup, log)

	var rateLimit *httpx.RateLimitMiddleware
	if cfg.RateLimit.RPS > 0 {
		rateLimit = httpx.NewRateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
		defer rateLimit.Stop()
	}

	router := newRouter(cfg, log, rateLimit,
		auth.NewHTTPHandler(authService),
		catalog.NewHTTPHandler(catalogService),
	)

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("starting server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown error")
	}
}
