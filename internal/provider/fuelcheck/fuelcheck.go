// Package fuelcheck ingests the government fuel-price API: one unpaginated
// snapshot per fetch cycle, behind a hard per-window request quota that the
// local fixed-window limiter pre-empts instead of discovering via 429s.
package fuelcheck

import (
	"context"
	"errors"
	"time"

	"fuelfeed/internal/httpx"
	"fuelfeed/internal/logger"
	"fuelfeed/internal/normalize"
	"fuelfeed/internal/provider"
	"fuelfeed/internal/provider/ratelimit"
)

type Config struct {
	Name        string
	MaxAttempts int
	Backoff     httpx.BackoffPolicy
}

type Provider struct {
	cfg     Config
	client  *Client
	limiter *ratelimit.FixedWindow
	norm    *normalize.Normalizer
	log     *logger.Log
}

func New(cfg Config, client *Client, limiter *ratelimit.FixedWindow, norm *normalize.Normalizer) *Provider {
	if cfg.Name == "" {
		cfg.Name = "fuelcheck"
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	return &Provider{
		cfg:     cfg,
		client:  client,
		limiter: limiter,
		norm:    norm,
		log:     logger.GetLogger(),
	}
}

func (p *Provider) Name() string { return p.cfg.Name }

// Fetch retrieves and normalizes the full current snapshot. Quota denials
// from the local limiter wait out the window rather than burning the
// upstream quota; transient failures retry under the backoff policy.
func (p *Provider) Fetch(ctx context.Context) (provider.Batch, error) {
	snap, err := p.getSnapshot(ctx)
	if err != nil {
		return provider.Batch{}, err
	}

	var batch provider.Batch
	for _, rec := range snap.Stations {
		st, err := p.norm.Station(normalize.StationRow{
			ID:        p.stationID(rec.Code),
			Name:      rec.Name,
			Brand:     rec.Brand,
			Address:   rec.Address,
			Category:  "Petrol Station",
			Latitude:  rec.Location.Latitude,
			Longitude: rec.Location.Longitude,
		})
		if err != nil {
			continue
		}
		batch.Stations = append(batch.Stations, st)
	}
	for _, rec := range snap.Prices {
		cents, err := rec.Price.Int64()
		if err != nil {
			p.log.WithComponent("fuelcheck").WithFields(logger.Fields{
				"station": rec.StationCode,
				"price":   rec.Price.String(),
			}).Warn("dropping price that is not whole cents")
			continue
		}
		prices, err := p.norm.Prices(normalize.PriceRow{
			StationIDs: []string{p.stationID(rec.StationCode)},
			FuelCode:   rec.FuelType,
			PriceCents: cents,
			Trend:      rec.Trend,
			Updated:    parseLastUpdated(rec.LastUpdated),
			Source:     p.cfg.Name,
		})
		if err != nil {
			continue
		}
		batch.Prices = append(batch.Prices, prices...)
	}
	return batch, nil
}

func (p *Provider) getSnapshot(ctx context.Context) (Snapshot, error) {
	log := p.log.WithComponent("fuelcheck")

	var lastErr error
	for attempt := 0; attempt < p.cfg.MaxAttempts; attempt++ {
		if attempt > 0 {
			delay := p.cfg.Backoff.Delay(attempt-1, retryAfterHint(lastErr))
			log.WithFields(logger.Fields{
				"attempt": attempt,
				"wait_ms": delay.Milliseconds(),
			}).WithError(lastErr).Warn("retrying snapshot request")
			if err := sleep(ctx, delay); err != nil {
				return Snapshot{}, err
			}
		}

		if err := p.acquireQuota(ctx); err != nil {
			return Snapshot{}, err
		}

		snap, err := p.client.GetCurrentPrices(ctx)
		if err == nil {
			return snap, nil
		}
		if !retryable(err) {
			return Snapshot{}, err
		}
		if ctx.Err() != nil {
			return Snapshot{}, ctx.Err()
		}
		lastErr = err
	}
	return Snapshot{}, &provider.TransientError{Provider: p.cfg.Name, Attempts: p.cfg.MaxAttempts, Cause: lastErr}
}

// acquireQuota blocks until the fixed window admits one more request.
// Waiting locally never advances past the denial, so quota denial cannot
// cause data loss.
func (p *Provider) acquireQuota(ctx context.Context) error {
	for {
		res := p.limiter.TryAcquire(p.cfg.Name)
		if res.Allowed {
			return nil
		}
		p.log.WithComponent("fuelcheck").WithFields(logger.Fields{
			"reset_in_ms": res.ResetIn.Milliseconds(),
		}).Warn("local quota exhausted, waiting for window reset")
		if err := sleep(ctx, res.ResetIn); err != nil {
			return err
		}
	}
}

func retryable(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return false
	}
	if errors.Is(err, provider.ErrUpstreamSchema) {
		return false
	}
	return true
}

func retryAfterHint(err error) time.Duration {
	var rl *provider.RateLimitError
	if errors.As(err, &rl) {
		return rl.ResetIn
	}
	return 0
}

func (p *Provider) stationID(code string) string {
	return p.cfg.Name + "-" + code
}

func parseLastUpdated(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{"02/01/2006 15:04:05", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
