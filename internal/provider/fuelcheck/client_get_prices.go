package fuelcheck

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"fuelfeed/internal/provider"
)

// StationRecord is one station as reported by the API.
type StationRecord struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Brand    string `json:"brand"`
	Address  string `json:"address"`
	Location struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"location"`
}

// PriceRecord is one fuel price as reported by the API. Price travels as a
// whole-cent integer.
type PriceRecord struct {
	StationCode string      `json:"stationcode"`
	FuelType    string      `json:"fueltype"`
	Price       json.Number `json:"price"`
	Trend       string      `json:"pricetrend"`
	LastUpdated string      `json:"lastupdated"`
}

// Snapshot is the full current-price payload; the endpoint is not paginated.
type Snapshot struct {
	Stations []StationRecord `json:"stations"`
	Prices   []PriceRecord   `json:"prices"`
}

// GetCurrentPrices retrieves the complete current price snapshot in one
// request. The transaction id and request timestamp headers are minted per
// call, so a retried request is a new transaction.
func (c *Client) GetCurrentPrices(ctx context.Context) (Snapshot, error) {
	url := fmt.Sprintf("%s/fuel/prices", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return Snapshot{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header = c.header.Clone()
	req.Header.Set("apikey", c.apiKey)
	if c.consumer != "" {
		req.Header.Set("consumer", c.consumer)
	}
	req.Header.Set("transactionid", uuid.NewString())
	req.Header.Set("requesttimestamp", time.Now().UTC().Format(time.RFC1123))

	res, err := c.httpClient.Do(req)
	if err != nil {
		return Snapshot{}, fmt.Errorf("performing request: %w", err)
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		break

	case http.StatusUnauthorized, http.StatusForbidden:
		return Snapshot{}, &statusError{code: res.StatusCode, msg: "unauthorized"}

	case http.StatusTooManyRequests:
		return Snapshot{}, &provider.RateLimitError{
			Provider: "fuelcheck",
			ResetIn:  parseRetryAfter(res.Header.Get("Retry-After")),
		}

	default:
		if res.StatusCode >= 500 {
			return Snapshot{}, fmt.Errorf("upstream failure: status %d", res.StatusCode)
		}
		return Snapshot{}, &statusError{code: res.StatusCode, msg: "unexpected status"}
	}

	var snap Snapshot
	if err := json.NewDecoder(res.Body).Decode(&snap); err != nil {
		return Snapshot{}, fmt.Errorf("%w: decoding prices response: %v", provider.ErrUpstreamSchema, err)
	}
	if snap.Stations == nil && snap.Prices == nil {
		return Snapshot{}, fmt.Errorf("%w: response carries neither stations nor prices", provider.ErrUpstreamSchema)
	}
	return snap, nil
}

// statusError is a non-retryable HTTP status from the API.
type statusError struct {
	code int
	msg  string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("%s: status %d", e.msg, e.code)
}

func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	var sec int
	if _, err := fmt.Sscanf(v, "%d", &sec); err == nil && sec > 0 {
		return time.Duration(sec) * time.Second
	}
	return 0
}
