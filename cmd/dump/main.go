// Command dump writes the raw upstream payloads to disk without any
// normalization. Handy for inspecting what a provider actually returns
// when a row is being dropped or a schema change is suspected.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"fuelfeed/internal/config"
	"fuelfeed/internal/httpx"
	"fuelfeed/internal/logger"
	"fuelfeed/internal/provider/fuelcheck"
)

func main() {
	var configPath string
	var outPath string
	var source string
	var timeoutSec int

	flag.StringVar(&configPath, "config", os.Getenv("CONFIG_FILE"), "path to config.yaml (optional)")
	flag.StringVar(&outPath, "out", "dump.json", "output file path")
	flag.StringVar(&source, "source", "fuelcheck", "which upstream to dump: tabular or fuelcheck")
	flag.IntVar(&timeoutSec, "timeout", 60, "overall timeout in seconds")
	flag.Parse()

	_ = godotenv.Load()
	log := logger.GetLogger()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.WithError(err).Fatal("loading configuration")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutSec)*time.Second)
	defer cancel()

	out, err := os.Create(outPath)
	if err != nil {
		log.WithError(err).Fatal("creating output file")
	}
	defer out.Close()
	bw := bufio.NewWriterSize(out, 1<<20)
	defer bw.Flush()

	switch source {
	case "fuelcheck":
		err = dumpFuelCheck(ctx, cfg, bw)
	case "tabular":
		err = dumpTabular(ctx, cfg, bw)
	default:
		log.Fatal("source must be tabular or fuelcheck")
	}
	if err != nil {
		log.WithError(err).Fatal("dump failed")
	}
	if err := bw.Flush(); err != nil {
		log.WithError(err).Fatal("flushing output")
	}
	log.WithFields(logger.Fields{"out": outPath, "source": source}).Info("dump complete")
}

func dumpFuelCheck(ctx context.Context, cfg config.Config, w *bufio.Writer) error {
	if cfg.FuelCheck.APIKey == "" {
		return fmt.Errorf("FUELCHECK_API_KEY missing")
	}
	client, err := fuelcheck.NewClient(cfg.FuelCheck.APIKey,
		fuelcheck.WithBaseURL(cfg.FuelCheck.BaseURL),
		fuelcheck.WithConsumer(cfg.FuelCheck.Consumer))
	if err != nil {
		return err
	}
	snap, err := client.GetCurrentPrices(ctx)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(snap)
}

// dumpTabular streams every page of both tables into one JSON document,
// keeping the rows exactly as the platform returned them.
func dumpTabular(ctx context.Context, cfg config.Config, w *bufio.Writer) error {
	if cfg.Tabular.Token == "" || cfg.Tabular.BaseURL == "" {
		return fmt.Errorf("TABULAR_TOKEN and TABULAR_BASE_URL missing")
	}
	client := httpx.New(time.Duration(cfg.Server.RequestTimeoutSec) * time.Second)
	retrier := httpx.NewRetrier(client, httpx.BackoffPolicy{}, 3, "tabular")
	headers := map[string]string{"Authorization": "Token " + cfg.Tabular.Token}

	tables := map[string]string{
		"stations": cfg.Tabular.StationsTable,
		"prices":   cfg.Tabular.PricesTable,
	}

	if _, err := w.WriteString("{"); err != nil {
		return err
	}
	firstTable := true
	for name, table := range tables {
		if table == "" {
			continue
		}
		if !firstTable {
			_, _ = w.WriteString(",")
		}
		firstTable = false
		fmt.Fprintf(w, "%q:[", name)

		url := fmt.Sprintf("%s/api/database/rows/table/%s/?user_field_names=true&size=%d",
			strings.TrimRight(cfg.Tabular.BaseURL, "/"), table, cfg.Tabular.PageSize)
		firstRow := true
		for page := 0; page < cfg.Tabular.MaxPages; page++ {
			body, err := retrier.Get(ctx, url, headers)
			if err != nil {
				return err
			}
			var env struct {
				Next    *string           `json:"next"`
				Results []json.RawMessage `json:"results"`
			}
			if err := json.Unmarshal(body, &env); err != nil {
				return fmt.Errorf("page %d of %s: %w", page, name, err)
			}
			for _, raw := range env.Results {
				if !firstRow {
					_, _ = w.WriteString(",")
				}
				firstRow = false
				_, _ = w.Write(raw)
			}
			if env.Next == nil || *env.Next == "" {
				break
			}
			url = *env.Next
		}
		_, _ = w.WriteString("]")
	}
	_, err := w.WriteString("}\n")
	return err
}
