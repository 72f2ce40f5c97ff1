// Command fetch runs one ingestion cycle and prints the merged station
// list as JSON. Useful for checking credentials and upstream health
// without standing up the server.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
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
	var configPath string
	var timeoutSec int
	var limit int
	var region string

	flag.StringVar(&configPath, "config", os.Getenv("CONFIG_FILE"), "path to config.yaml (optional)")
	flag.IntVar(&timeoutSec, "timeout", 60, "overall timeout in seconds")
	flag.IntVar(&limit, "limit", 10, "max stations to print (0 for all)")
	flag.StringVar(&region, "region", "", "only print stations in this region")
	flag.Parse()

	_ = godotenv.Load()
	log := logger.GetLogger()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.WithError(err).Fatal("loading configuration")
	}

	providers := buildProviders(cfg)
	if len(providers) == 0 {
		log.Fatal("no providers enabled; set TABULAR_TOKEN or FUELCHECK_API_KEY")
	}

	svc := ingest.New(providers, time.Duration(cfg.Ingest.CacheTTLSec)*time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutSec)*time.Second)
	defer cancel()

	stations, err := svc.GetStations(ctx, true)
	if err != nil {
		log.WithError(err).Fatal("fetch failed")
	}

	if region != "" {
		filtered := make([]provider.Station, 0, len(stations))
		for _, st := range stations {
			if st.Region == region {
				filtered = append(filtered, st)
			}
		}
		stations = filtered
	}
	log.WithFields(logger.Fields{"stations": len(stations)}).Info("fetch complete")

	if limit > 0 && len(stations) > limit {
		stations = stations[:limit]
	}
	out := struct {
		Stations []provider.Station `json:"stations"`
	}{Stations: stations}
	b, _ := json.MarshalIndent(out, "", "  ")
	fmt.Println(string(b))
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
