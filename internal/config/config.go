package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Server struct {
	Port              string `yaml:"port"`
	RequestTimeoutSec int    `yaml:"request_timeout_sec"`
}

type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
	MaxAge int    `yaml:"max_age"`
}

type Retry struct {
	MaxAttempts  int `yaml:"max_attempts"`
	BaseDelayMS  int `yaml:"base_delay_ms"`
	MaxDelayMS   int `yaml:"max_delay_ms"`
}

// Tabular configures provider A, a cursor-paginated tabular-data platform.
// Rows for stations and prices live in two tables referenced by id.
type Tabular struct {
	Enabled           bool   `yaml:"enabled"`
	BaseURL           string `yaml:"base_url"`
	Token             string `yaml:"token"`
	StationsTable     string `yaml:"stations_table"`
	PricesTable       string `yaml:"prices_table"`
	PageSize          int    `yaml:"page_size"`
	MaxPages          int    `yaml:"max_pages"`
	RequestsPerSecond int    `yaml:"requests_per_second"`
}

// FuelCheck configures provider B, the government fuel-price API. The API
// enforces a hard quota per fixed window; MaxRequests/WindowSec feed the
// local fixed-window limiter that pre-empts quota violations.
type FuelCheck struct {
	Enabled     bool   `yaml:"enabled"`
	BaseURL     string `yaml:"base_url"`
	APIKey      string `yaml:"api_key"`
	Consumer    string `yaml:"consumer"`
	MaxRequests int    `yaml:"max_requests"`
	WindowSec   int    `yaml:"window_sec"`
}

type Ingest struct {
	CacheTTLSec   int    `yaml:"cache_ttl_sec"`
	DefaultRegion string `yaml:"default_region"`
}

type Config struct {
	Server    Server    `yaml:"server"`
	Logging   Logging   `yaml:"logging"`
	Retry     Retry     `yaml:"retry"`
	Tabular   Tabular   `yaml:"tabular"`
	FuelCheck FuelCheck `yaml:"fuelcheck"`
	Ingest    Ingest    `yaml:"ingest"`
}

func Default() Config {
	return Config{
		Server:  Server{Port: "8080", RequestTimeoutSec: 15},
		Logging: Logging{Level: "info", Format: "json", Output: "stdout", MaxAge: 7},
		Retry:   Retry{MaxAttempts: 3, BaseDelayMS: 500, MaxDelayMS: 8000},
		Tabular: Tabular{
			Enabled:           false,
			PageSize:          200,
			MaxPages:          50,
			RequestsPerSecond: 4,
		},
		FuelCheck: FuelCheck{
			Enabled:     false,
			BaseURL:     "https://api.onegov.nsw.gov.au/FuelPriceCheck/v1",
			MaxRequests: 5,
			WindowSec:   60,
		},
		Ingest: Ingest{CacheTTLSec: 300, DefaultRegion: "VIC"},
	}
}

// Load reads YAML config from path. An empty path falls back to config.yaml
// when present, otherwise defaults apply. Environment variables override
// secret-bearing fields so keys stay out of checked-in config.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(b, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config: %w", err)
			}
		}
	}
	applyEnv(&cfg)
	if err := validate(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Port = v
	}
	if v := envInt("REQUEST_TIMEOUT_SEC"); v > 0 {
		cfg.Server.RequestTimeoutSec = v
	}
	if v := os.Getenv("TABULAR_BASE_URL"); v != "" {
		cfg.Tabular.BaseURL = strings.TrimSpace(v)
	}
	if v := os.Getenv("TABULAR_TOKEN"); v != "" {
		cfg.Tabular.Token = strings.TrimSpace(v)
		cfg.Tabular.Enabled = true
	}
	if v := os.Getenv("TABULAR_STATIONS_TABLE"); v != "" {
		cfg.Tabular.StationsTable = v
	}
	if v := os.Getenv("TABULAR_PRICES_TABLE"); v != "" {
		cfg.Tabular.PricesTable = v
	}
	if v := envInt("TABULAR_MAX_PAGES"); v > 0 {
		cfg.Tabular.MaxPages = v
	}
	if v := os.Getenv("FUELCHECK_BASE_URL"); v != "" {
		cfg.FuelCheck.BaseURL = strings.TrimSpace(v)
	}
	if v := os.Getenv("FUELCHECK_API_KEY"); v != "" {
		cfg.FuelCheck.APIKey = strings.TrimSpace(v)
		cfg.FuelCheck.Enabled = true
	}
	if v := os.Getenv("FUELCHECK_CONSUMER"); v != "" {
		cfg.FuelCheck.Consumer = strings.TrimSpace(v)
	}
	if v := envInt("CACHE_TTL_SEC"); v > 0 {
		cfg.Ingest.CacheTTLSec = v
	}
	if v := os.Getenv("DEFAULT_REGION"); v != "" {
		cfg.Ingest.DefaultRegion = strings.ToUpper(strings.TrimSpace(v))
	}
}

func envInt(key string) int {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	var x int
	_, _ = fmt.Sscanf(v, "%d", &x)
	return x
}

func validate(cfg *Config) error {
	if cfg.Server.RequestTimeoutSec <= 0 {
		return fmt.Errorf("server.request_timeout_sec must be greater than 0")
	}
	if cfg.Retry.MaxAttempts <= 0 {
		return fmt.Errorf("retry.max_attempts must be greater than 0")
	}
	if cfg.Ingest.CacheTTLSec <= 0 {
		return fmt.Errorf("ingest.cache_ttl_sec must be greater than 0")
	}
	if cfg.Tabular.Enabled {
		if cfg.Tabular.BaseURL == "" {
			return fmt.Errorf("tabular.base_url is required when tabular is enabled")
		}
		if cfg.Tabular.StationsTable == "" || cfg.Tabular.PricesTable == "" {
			return fmt.Errorf("tabular.stations_table and tabular.prices_table are required when tabular is enabled")
		}
		if cfg.Tabular.MaxPages <= 0 {
			return fmt.Errorf("tabular.max_pages must be greater than 0")
		}
	}
	if cfg.FuelCheck.Enabled {
		if cfg.FuelCheck.APIKey == "" {
			return fmt.Errorf("fuelcheck.api_key is required when fuelcheck is enabled")
		}
		if cfg.FuelCheck.MaxRequests <= 0 || cfg.FuelCheck.WindowSec <= 0 {
			return fmt.Errorf("fuelcheck.max_requests and fuelcheck.window_sec must be greater than 0")
		}
	}
	return nil
}
