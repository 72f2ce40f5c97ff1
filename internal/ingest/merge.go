package ingest

import (
	"sort"

	"fuelfeed/internal/logger"
	"fuelfeed/internal/provider"
)

// Merge attaches prices to their stations by station id. A price whose
// station never arrived is dropped and logged; it must not surface as a
// price on a phantom station. Stations come back sorted by id so repeated
// runs over the same data produce the same output.
func Merge(stations []provider.Station, prices []provider.FuelPrice) []provider.Station {
	log := logger.GetLogger().WithComponent("merge")

	byID := make(map[string]int, len(stations))
	out := make([]provider.Station, len(stations))
	for i, st := range stations {
		if st.FuelPrices == nil {
			st.FuelPrices = []provider.FuelPrice{}
		}
		out[i] = st
		byID[st.ID] = i
	}

	dangling := 0
	for _, p := range prices {
		i, ok := byID[p.StationID]
		if !ok {
			dangling++
			log.WithFields(logger.Fields{
				"station_id": p.StationID,
				"price_id":   p.ID,
			}).Warn("dropping price for unknown station")
			continue
		}
		out[i].FuelPrices = append(out[i].FuelPrices, p)
	}
	if dangling > 0 {
		log.WithFields(logger.Fields{"dropped": dangling}).Warn("price rows referenced unknown stations")
	}

	for i := range out {
		sort.Slice(out[i].FuelPrices, func(a, b int) bool {
			return out[i].FuelPrices[a].ID < out[i].FuelPrices[b].ID
		})
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out
}
