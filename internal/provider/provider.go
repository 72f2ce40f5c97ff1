package provider

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// FuelType is the canonical fuel vocabulary. Upstream codes are mapped into
// it by the normalizer; anything unrecognized becomes FuelUnknown rather
// than being dropped, since the owning station may still be valid.
type FuelType string

const (
	FuelUnleaded        FuelType = "Unleaded"
	FuelUnleaded95      FuelType = "Unleaded95"
	FuelPremiumUnleaded FuelType = "PremiumUnleaded"
	FuelDiesel          FuelType = "Diesel"
	FuelE10             FuelType = "E10"
	FuelE85             FuelType = "E85"
	FuelLPG             FuelType = "LPG"
	FuelUnknown         FuelType = "Unknown"
)

// Trend describes the price direction reported by an upstream.
type Trend string

const (
	TrendIncreasing Trend = "Increasing"
	TrendStable     Trend = "Stable"
	TrendDecreasing Trend = "Decreasing"
)

// Station is the canonical record of a single fuel retail location.
// Latitude/Longitude default to 0 when the upstream has no coordinates;
// a 0,0 station is retained, not rejected.
type Station struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Brand       string      `json:"brand"`
	Address     string      `json:"address"`
	Suburb      string      `json:"suburb"`
	Region      string      `json:"region"`
	Postcode    string      `json:"postcode"`
	Latitude    float64     `json:"latitude"`
	Longitude   float64     `json:"longitude"`
	PhoneNumber string      `json:"phone_number,omitempty"`
	Category    string      `json:"category"`
	FuelPrices  []FuelPrice `json:"fuel_prices"`
	LastUpdated time.Time   `json:"last_updated"`
}

// FuelPrice is one fuel type's price at one station at a point in time.
// Prices are whole cents per liter; floats never enter the representation
// so repeated conversions cannot drift.
type FuelPrice struct {
	ID                string   `json:"id"`
	StationID         string   `json:"station_id"`
	FuelType          FuelType `json:"fuel_type"`
	PricePerLiterCents int64   `json:"price_per_liter_cents"`
	Trend             Trend    `json:"trend"`
	LastUpdated       time.Time `json:"last_updated"`
	PriceSource       string   `json:"price_source"`
}

// PriceID derives the deterministic FuelPrice id from its owning station
// and raw fuel code, so re-normalizing the same row yields the same id.
func PriceID(stationID, fuelCode string) string {
	return fmt.Sprintf("%s-%s", stationID, strings.ToLower(strings.TrimSpace(fuelCode)))
}

// Batch is one provider's normalized output for a single fetch cycle.
// Prices are joined to stations by the merger, not by the provider.
type Batch struct {
	Stations []Station
	Prices   []FuelPrice
}

// Provider fetches and normalizes one upstream's current snapshot.
type Provider interface {
	Name() string
	Fetch(ctx context.Context) (Batch, error)
}
