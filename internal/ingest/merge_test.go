package ingest_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"fuelfeed/internal/ingest"
	"fuelfeed/internal/provider"
)

func TestMergeDropsDanglingPrices(t *testing.T) {
	stations := []provider.Station{station("tabular-1", "BP Preston")}
	prices := []provider.FuelPrice{price("tabular-1"), price("tabular-404")}

	merged := ingest.Merge(stations, prices)
	require.Len(t, merged, 1)
	require.Len(t, merged[0].FuelPrices, 1)
	require.Equal(t, "tabular-1", merged[0].FuelPrices[0].StationID)
}

func TestMergeNeverReturnsNilPrices(t *testing.T) {
	merged := ingest.Merge([]provider.Station{{ID: "x", Name: "X"}}, nil)
	require.Len(t, merged, 1)
	require.NotNil(t, merged[0].FuelPrices)
	require.Empty(t, merged[0].FuelPrices)
}

func TestMergeIsDeterministic(t *testing.T) {
	stations := []provider.Station{
		station("b", "B"), station("a", "A"), station("c", "C"),
	}
	prices := []provider.FuelPrice{
		{ID: "a-p98", StationID: "a"},
		{ID: "a-e10", StationID: "a"},
	}

	first := ingest.Merge(stations, prices)
	second := ingest.Merge(stations, prices)
	require.Equal(t, first, second)

	require.Equal(t, "a", first[0].ID)
	require.Equal(t, "a-e10", first[0].FuelPrices[0].ID)
	require.Equal(t, "a-p98", first[0].FuelPrices[1].ID)
}
