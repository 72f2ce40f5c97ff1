package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"fuelfeed/internal/config"
	"fuelfeed/internal/httpx"
	"fuelfeed/internal/ingest"
	"fuelfeed/internal/logger"
	"fuelfeed/internal/normalize"
	"fuelfeed/internal/provider"
	"fuelfeed/internal/provider/fuelcheck"
	"fuelfeed/internal/provider/ratelimit"
	"fuelfeed/internal/provider/tabular"
)

func main() {
	_ = godotenv.Load()

	log := logger.GetLogger()

	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.WithError(err).Fatal("loading configuration")
	}
	if err := log.Configure(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output, cfg.Logging.MaxAge); err != nil {
		log.WithError(err).Fatal("configuring logger")
	}

	providers := buildProviders(cfg)
	if len(providers) == 0 {
		log.Warn("no providers enabled; every request will report unavailable")
	}

	svc := ingest.New(providers, time.Duration(cfg.Ingest.CacheTTLSec)*time.Second)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", handleHealth(svc))
	mux.HandleFunc("/api/stations", handleStations(svc))

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           withJSONHeaders(withGzip(recoverPanic(limitBody(mux)))),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.WithFields(logger.Fields{"port": cfg.Server.Port}).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server failed")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func buildProviders(cfg config.Config) []provider.Provider {
	log := logger.GetLogger()
	httpClient := httpx.New(time.Duration(cfg.Server.RequestTimeoutSec) * time.Second)
	policy := httpx.BackoffPolicy{
		Base: time.Duration(cfg.Retry.BaseDelayMS) * time.Millisecond,
		Max:  time.Duration(cfg.Retry.MaxDelayMS) * time.Millisecond,
	}
	norm := normalize.New(cfg.Ingest.DefaultRegion)

	var providers []provider.Provider
	if cfg.Tabular.Enabled {
		retrier := httpx.NewRetrier(httpClient, policy, cfg.Retry.MaxAttempts, "tabular")
		providers = append(providers, tabular.New(tabular.Config{
			BaseURL:           cfg.Tabular.BaseURL,
			Token:             cfg.Tabular.Token,
			StationsTable:     cfg.Tabular.StationsTable,
			PricesTable:       cfg.Tabular.PricesTable,
			PageSize:          cfg.Tabular.PageSize,
			MaxPages:          cfg.Tabular.MaxPages,
			RequestsPerSecond: cfg.Tabular.RequestsPerSecond,
		}, retrier, norm))
	}
	if cfg.FuelCheck.Enabled {
		client, err := fuelcheck.NewClient(cfg.FuelCheck.APIKey,
			fuelcheck.WithBaseURL(cfg.FuelCheck.BaseURL),
			fuelcheck.WithHTTPClient(httpClient.HTTP),
			fuelcheck.WithConsumer(cfg.FuelCheck.Consumer))
		if err != nil {
			log.WithError(err).Error("fuelcheck client init failed; provider skipped")
		} else {
			limiter := ratelimit.NewFixedWindow(cfg.FuelCheck.MaxRequests,
				time.Duration(cfg.FuelCheck.WindowSec)*time.Second)
			providers = append(providers, fuelcheck.New(fuelcheck.Config{
				MaxAttempts: cfg.Retry.MaxAttempts,
				Backoff:     policy,
			}, client, limiter, norm))
		}
	}
	return providers
}
