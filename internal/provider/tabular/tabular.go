// Package tabular ingests station and price rows from a generic paginated
// tabular-data platform. Each table is walked cursor-style: every response
// carries either an absolute next-page URL or null.
package tabular

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"fuelfeed/internal/httpx"
	"fuelfeed/internal/logger"
	"fuelfeed/internal/normalize"
	"fuelfeed/internal/provider"
)

type Config struct {
	Name          string
	BaseURL       string
	Token         string
	StationsTable string
	PricesTable   string
	PageSize      int
	// MaxPages bounds cursor traversal so a pathological upstream that
	// never reports pagination-complete cannot hang a fetch cycle.
	MaxPages int
	// RequestsPerSecond paces page requests. The platform publishes no
	// quota, so this is politeness rather than enforcement.
	RequestsPerSecond int
}

type Provider struct {
	cfg     Config
	retrier *httpx.Retrier
	norm    *normalize.Normalizer
	limiter *rate.Limiter
	log     *logger.Log
}

func New(cfg Config, retrier *httpx.Retrier, norm *normalize.Normalizer) *Provider {
	if cfg.Name == "" {
		cfg.Name = "tabular"
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 200
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 50
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 4
	}
	return &Provider{
		cfg:     cfg,
		retrier: retrier,
		norm:    norm,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		log:     logger.GetLogger(),
	}
}

func (p *Provider) Name() string { return p.cfg.Name }

// Fetch walks both tables and normalizes their rows into one batch.
func (p *Provider) Fetch(ctx context.Context) (provider.Batch, error) {
	stationRows, err := p.fetchAll(ctx, p.cfg.StationsTable)
	if err != nil {
		return provider.Batch{}, fmt.Errorf("%s stations: %w", p.cfg.Name, err)
	}
	priceRows, err := p.fetchAll(ctx, p.cfg.PricesTable)
	if err != nil {
		return provider.Batch{}, fmt.Errorf("%s prices: %w", p.cfg.Name, err)
	}

	var batch provider.Batch
	for _, raw := range stationRows {
		row, err := p.decodeStation(raw)
		if err != nil {
			p.log.WithComponent("tabular").WithError(err).Warn("dropping malformed station row")
			continue
		}
		st, err := p.norm.Station(row)
		if err != nil {
			continue
		}
		batch.Stations = append(batch.Stations, st)
	}
	for _, raw := range priceRows {
		row, err := p.decodePrice(raw)
		if err != nil {
			p.log.WithComponent("tabular").WithError(err).Warn("dropping malformed price row")
			continue
		}
		prices, err := p.norm.Prices(row)
		if err != nil {
			continue
		}
		batch.Prices = append(batch.Prices, prices...)
	}
	return batch, nil
}

// pageEnvelope is the platform's pagination envelope: a results array plus
// either an absolute next-page URL or null.
type pageEnvelope struct {
	Count   int               `json:"count"`
	Next    *string           `json:"next"`
	Results []json.RawMessage `json:"results"`
}

// fetchAll accumulates every row of one table across pages. A denied or
// slow page is retried in place; the cursor never advances past a failure.
func (p *Provider) fetchAll(ctx context.Context, table string) ([]json.RawMessage, error) {
	url := fmt.Sprintf("%s/api/database/rows/table/%s/?user_field_names=true&size=%d",
		strings.TrimRight(p.cfg.BaseURL, "/"), table, p.cfg.PageSize)
	headers := map[string]string{"Authorization": "Token " + p.cfg.Token}

	var rows []json.RawMessage
	for page := 0; ; page++ {
		if page >= p.cfg.MaxPages {
			p.log.WithComponent("tabular").WithFields(logger.Fields{
				"table":     table,
				"max_pages": p.cfg.MaxPages,
			}).Warn("pagination ceiling reached, truncating table walk")
			break
		}
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		body, err := p.retrier.Get(ctx, url, headers)
		if err != nil {
			return nil, err
		}

		var env pageEnvelope
		if err := json.Unmarshal(body, &env); err != nil {
			return nil, fmt.Errorf("%w: page %d of table %s: %v", provider.ErrUpstreamSchema, page, table, err)
		}
		if env.Results == nil {
			return nil, fmt.Errorf("%w: page %d of table %s has no results array", provider.ErrUpstreamSchema, page, table)
		}
		rows = append(rows, env.Results...)

		if env.Next == nil || *env.Next == "" {
			break
		}
		url = *env.Next
	}
	return rows, nil
}

// rowRef is a link-field entry pointing at a row in another table.
type rowRef struct {
	ID json.Number `json:"id"`
}

type stationFields struct {
	ID       json.Number `json:"id"`
	Name     string      `json:"name"`
	Owner    string      `json:"owner"`
	Address  string      `json:"address"`
	Phone    string      `json:"phone_number"`
	Category string      `json:"category"`
	Lat      json.Number `json:"latitude"`
	Lng      json.Number `json:"longitude"`
	Updated  string      `json:"updated_on"`
}

type priceFields struct {
	Stations []rowRef    `json:"stations"`
	FuelType string      `json:"fuel_type"`
	Price    json.Number `json:"price"`
	Trend    string      `json:"trend"`
	Updated  string      `json:"updated_on"`
	Source   string      `json:"price_source"`
}

func (p *Provider) decodeStation(raw json.RawMessage) (normalize.StationRow, error) {
	var f stationFields
	if err := json.Unmarshal(raw, &f); err != nil {
		return normalize.StationRow{}, err
	}
	lat, _ := f.Lat.Float64()
	lng, _ := f.Lng.Float64()
	return normalize.StationRow{
		ID:        p.rowID(f.ID),
		Name:      f.Name,
		Brand:     f.Owner,
		Address:   f.Address,
		Phone:     f.Phone,
		Category:  f.Category,
		Latitude:  lat,
		Longitude: lng,
		Updated:   parseTime(f.Updated),
	}, nil
}

func (p *Provider) decodePrice(raw json.RawMessage) (normalize.PriceRow, error) {
	var f priceFields
	if err := json.Unmarshal(raw, &f); err != nil {
		return normalize.PriceRow{}, err
	}
	// Prices travel as whole cents; Int64 rejects anything fractional so a
	// float never sneaks into the representation.
	cents, err := f.Price.Int64()
	if err != nil {
		return normalize.PriceRow{}, fmt.Errorf("price %q is not whole cents: %w", f.Price.String(), err)
	}
	ids := make([]string, 0, len(f.Stations))
	for _, ref := range f.Stations {
		ids = append(ids, p.rowID(ref.ID))
	}
	source := f.Source
	if source == "" {
		source = p.cfg.Name
	}
	return normalize.PriceRow{
		StationIDs: ids,
		FuelCode:   f.FuelType,
		PriceCents: cents,
		Trend:      f.Trend,
		Updated:    parseTime(f.Updated),
		Source:     source,
	}, nil
}

// rowID namespaces a row id with the provider name so station identities
// never collide across providers.
func (p *Provider) rowID(id json.Number) string {
	return fmt.Sprintf("%s-%s", p.cfg.Name, id.String())
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
