// Package normalize converts validated provider rows into the canonical
// Station and FuelPrice model. A malformed row yields an error and a
// warning-level diagnostic; it never aborts the surrounding batch.
package normalize

import (
	"fmt"
	"strings"
	"time"

	"fuelfeed/internal/logger"
	"fuelfeed/internal/provider"
)

// StationRow is the closed representation of one raw station record after
// the provider has decoded it off the wire. Missing upstream keys surface
// here as zero values, never as silent map lookups.
type StationRow struct {
	ID        string
	Name      string
	Brand     string
	Address   string
	Phone     string
	Category  string
	Latitude  float64
	Longitude float64
	Updated   time.Time
}

// PriceRow is the closed representation of one raw price record. A single
// row may reference several stations through its foreign-key array.
type PriceRow struct {
	StationIDs []string
	FuelCode   string
	PriceCents int64
	Trend      string
	Updated    time.Time
	Source     string
}

type Normalizer struct {
	DefaultRegion string
	log           *logger.Log
}

func New(defaultRegion string) *Normalizer {
	return &Normalizer{DefaultRegion: strings.ToUpper(defaultRegion), log: logger.GetLogger()}
}

// Station normalizes one station row. Rows without an id, name or address
// are dropped; a station without coordinates is kept with the 0,0 sentinel.
func (n *Normalizer) Station(row StationRow) (provider.Station, error) {
	if strings.TrimSpace(row.ID) == "" {
		return provider.Station{}, n.drop("station row missing id", row.Name)
	}
	if strings.TrimSpace(row.Name) == "" {
		return provider.Station{}, n.drop("station row missing name", row.ID)
	}
	if strings.TrimSpace(row.Address) == "" {
		return provider.Station{}, n.drop("station row missing address", row.ID)
	}

	addr := ParseAddress(row.Address, n.DefaultRegion)

	updated := row.Updated
	if updated.IsZero() {
		updated = time.Now().UTC()
	}

	return provider.Station{
		ID:          strings.TrimSpace(row.ID),
		Name:        strings.TrimSpace(row.Name),
		Brand:       NormalizeBrand(row.Brand),
		Address:     addr.Street,
		Suburb:      addr.Suburb,
		Region:      addr.Region,
		Postcode:    addr.Postcode,
		Latitude:    row.Latitude,
		Longitude:   row.Longitude,
		PhoneNumber: strings.TrimSpace(row.Phone),
		Category:    strings.TrimSpace(row.Category),
		FuelPrices:  []provider.FuelPrice{},
		LastUpdated: updated,
	}, nil
}

// Prices expands one price row into a FuelPrice per referenced station.
// The price must already be whole cents; no float conversion happens here.
func (n *Normalizer) Prices(row PriceRow) ([]provider.FuelPrice, error) {
	if len(row.StationIDs) == 0 {
		return nil, n.drop("price row references no stations", row.FuelCode)
	}
	if row.PriceCents <= 0 {
		return nil, n.drop("price row has no usable price", row.FuelCode)
	}

	updated := row.Updated
	if updated.IsZero() {
		updated = time.Now().UTC()
	}

	out := make([]provider.FuelPrice, 0, len(row.StationIDs))
	for _, sid := range row.StationIDs {
		sid = strings.TrimSpace(sid)
		if sid == "" {
			continue
		}
		out = append(out, provider.FuelPrice{
			ID:                 provider.PriceID(sid, row.FuelCode),
			StationID:          sid,
			FuelType:           MapFuelType(row.FuelCode),
			PricePerLiterCents: row.PriceCents,
			Trend:              mapTrend(row.Trend),
			LastUpdated:        updated,
			PriceSource:        row.Source,
		})
	}
	if len(out) == 0 {
		return nil, n.drop("price row references only blank stations", row.FuelCode)
	}
	return out, nil
}

func mapTrend(raw string) provider.Trend {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "up", "increasing", "rising":
		return provider.TrendIncreasing
	case "down", "decreasing", "falling":
		return provider.TrendDecreasing
	default:
		return provider.TrendStable
	}
}

func (n *Normalizer) drop(reason, ref string) error {
	n.log.WithComponent("normalizer").WithFields(logger.Fields{"ref": ref}).Warn(reason)
	return fmt.Errorf("%s (ref %q)", reason, ref)
}
