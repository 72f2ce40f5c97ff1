// Package ingest coordinates the upstream providers, merges their output
// into the canonical station model and serves it through a TTL cache.
package ingest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"fuelfeed/internal/cache"
	"fuelfeed/internal/logger"
	"fuelfeed/internal/provider"
)

// State is the coarse lifecycle of the last refresh.
type State string

const (
	StateIdle      State = "idle"
	StateFetching  State = "fetching"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
)

const stationsKey = "stations/all"

// Status is a point-in-time view of the service for health reporting.
type Status struct {
	State         State     `json:"state"`
	LastRefreshed time.Time `json:"last_refreshed,omitempty"`
	LastError     string    `json:"last_error,omitempty"`
	StationCount  int       `json:"station_count"`
}

type Service struct {
	providers []provider.Provider
	cache     *cache.Store[[]provider.Station]
	ttl       time.Duration
	group     singleflight.Group
	log       *logger.Log

	mu            sync.RWMutex
	state         State
	lastErr       error
	lastRefreshed time.Time
	stationCount  int
}

func New(providers []provider.Provider, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Service{
		providers: providers,
		cache:     cache.New[[]provider.Station](),
		ttl:       ttl,
		state:     StateIdle,
		log:       logger.GetLogger(),
	}
}

// GetStations returns the merged station list. A warm cache answers
// directly; otherwise one refresh runs no matter how many callers arrive
// at once. When every provider fails, the most recent expired snapshot is
// served instead, and only a service that has never ingested anything
// reports ErrUnavailable.
func (s *Service) GetStations(ctx context.Context, forceRefresh bool) ([]provider.Station, error) {
	if !forceRefresh {
		if stations, ok := s.cache.Get(stationsKey); ok {
			return stations, nil
		}
	}

	v, err, _ := s.group.Do(stationsKey, func() (any, error) {
		return s.refresh(ctx)
	})
	if err == nil {
		return v.([]provider.Station), nil
	}

	if stations, expiredAt, ok := s.cache.GetStale(stationsKey); ok {
		s.log.WithComponent("ingest").WithFields(logger.Fields{
			"expired_at": expiredAt.UTC().Format(time.RFC3339),
		}).WithError(err).Warn("refresh failed, serving stale snapshot")
		return stations, nil
	}
	return nil, fmt.Errorf("%w: %v", provider.ErrUnavailable, err)
}

// Status reports the lifecycle of the last refresh.
func (s *Service) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Status{
		State:         s.state,
		LastRefreshed: s.lastRefreshed,
		StationCount:  s.stationCount,
	}
	if s.lastErr != nil {
		st.LastError = s.lastErr.Error()
	}
	return st
}

// Invalidate drops every cached station dataset, stale copies included.
func (s *Service) Invalidate() {
	s.cache.InvalidatePrefix("stations/")
}

// refresh fetches all providers concurrently. One provider failing does
// not abort the others; the refresh errors only when nothing succeeded.
func (s *Service) refresh(ctx context.Context) ([]provider.Station, error) {
	log := s.log.WithComponent("ingest")
	s.setState(StateFetching, nil, 0)
	started := time.Now()

	var (
		mu       sync.Mutex
		stations []provider.Station
		prices   []provider.FuelPrice
		okCount  int
		lastErr  error
	)

	g, ctx := errgroup.WithContext(ctx)
	for _, p := range s.providers {
		p := p
		g.Go(func() error {
			batch, err := p.Fetch(ctx)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.WithFields(logger.Fields{"provider": p.Name()}).WithError(err).Error("provider fetch failed")
				lastErr = err
				return nil
			}
			log.WithFields(logger.Fields{
				"provider": p.Name(),
				"stations": len(batch.Stations),
				"prices":   len(batch.Prices),
			}).Info("provider fetch succeeded")
			stations = append(stations, batch.Stations...)
			prices = append(prices, batch.Prices...)
			okCount++
			return nil
		})
	}
	_ = g.Wait()

	if okCount == 0 {
		if lastErr == nil {
			lastErr = fmt.Errorf("no providers configured")
		}
		s.setState(StateFailed, lastErr, s.countCached())
		return nil, lastErr
	}

	merged := Merge(stations, prices)
	s.cache.Set(stationsKey, merged, s.ttl)
	s.setState(StateSucceeded, nil, len(merged))

	log.WithFields(logger.Fields{
		"stations":    len(merged),
		"providers":   okCount,
		"duration_ms": time.Since(started).Milliseconds(),
	}).Info("refresh complete")
	return merged, nil
}

func (s *Service) setState(state State, err error, count int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
	s.lastErr = err
	if state == StateSucceeded {
		s.lastRefreshed = time.Now().UTC()
	}
	if state == StateSucceeded || state == StateFailed {
		s.stationCount = count
	}
}

func (s *Service) countCached() int {
	if stations, _, ok := s.cache.GetStale(stationsKey); ok {
		return len(stations)
	}
	return 0
}
