package tabular_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"fuelfeed/internal/httpx"
	"fuelfeed/internal/normalize"
	"fuelfeed/internal/provider"
	"fuelfeed/internal/provider/tabular"
)

func newProvider(t *testing.T, baseURL string, maxPages int) *tabular.Provider {
	t.Helper()

	client := httpx.New(time.Second)
	policy := httpx.BackoffPolicy{Base: time.Millisecond, Max: 5 * time.Millisecond}
	retrier := httpx.NewRetrier(client, policy, 3, "tabular")

	return tabular.New(tabular.Config{
		BaseURL:           baseURL,
		Token:             "secret",
		StationsTable:     "101",
		PricesTable:       "102",
		PageSize:          2,
		MaxPages:          maxPages,
		RequestsPerSecond: 1000,
	}, retrier, normalize.New("VIC"))
}

const stationPage1 = `{
	"count": 3,
	"next": "%s/api/database/rows/table/101/?user_field_names=true&size=2&page=2",
	"results": [
		{"id": 1, "name": "BP Preston", "owner": "BP AUSTRALIA", "address": "12 High St, Preston VIC 3072", "latitude": -37.74, "longitude": 145.0, "updated_on": "2026-08-30 07:15:00"},
		{"id": 2, "name": "Shell Brunswick", "owner": "COLES EXPRESS", "address": "5 Low Rd, 3056"}
	]
}`

const stationPage2 = `{
	"count": 3,
	"next": null,
	"results": [
		{"id": 3, "name": "Ampol Coburg", "owner": "AMPOL", "address": "88 Bell St, Coburg VIC 3058"}
	]
}`

const pricePage = `{
	"count": 2,
	"next": null,
	"results": [
		{"stations": [{"id": 1}, {"id": 3}], "fuel_type": "U91", "price": 1899, "trend": "up", "updated_on": "2026-08-30 07:15:00"},
		{"stations": [{"id": 2}], "fuel_type": "P98", "price": 2159, "price_source": "board"}
	]
}`

func TestFetchWalksAllPages(t *testing.T) {
	t.Parallel()

	var srvURL string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Token secret", r.Header.Get("Authorization"))
		require.Equal(t, "true", r.URL.Query().Get("user_field_names"))

		switch {
		case r.URL.Path == "/api/database/rows/table/101/" && r.URL.Query().Get("page") == "":
			fmt.Fprintf(w, stationPage1, srvURL)
		case r.URL.Path == "/api/database/rows/table/101/":
			fmt.Fprint(w, stationPage2)
		case r.URL.Path == "/api/database/rows/table/102/":
			fmt.Fprint(w, pricePage)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()
	srvURL = srv.URL

	p := newProvider(t, srv.URL, 10)

	batch, err := p.Fetch(context.Background())
	require.NoError(t, err)

	require.Len(t, batch.Stations, 3)
	require.Equal(t, "tabular-1", batch.Stations[0].ID)
	require.Equal(t, "BP", batch.Stations[0].Brand)
	require.Equal(t, "Preston", batch.Stations[0].Suburb)
	require.Equal(t, "tabular-2", batch.Stations[1].ID)
	require.Equal(t, "VIC", batch.Stations[1].Region)
	require.Equal(t, "tabular-3", batch.Stations[2].ID)

	// The two-station price row expands into one price per station.
	require.Len(t, batch.Prices, 3)
	require.Equal(t, "tabular-1-u91", batch.Prices[0].ID)
	require.Equal(t, int64(1899), batch.Prices[0].PricePerLiterCents)
	require.Equal(t, provider.TrendIncreasing, batch.Prices[0].Trend)
	require.Equal(t, "tabular-3-u91", batch.Prices[1].ID)
	require.Equal(t, "board", batch.Prices[2].PriceSource)
}

func TestFetchTruncatesAtPageCeiling(t *testing.T) {
	t.Parallel()

	var stationPages atomic.Int64
	var srvURL string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/database/rows/table/101/":
			// A cursor that never terminates.
			stationPages.Add(1)
			fmt.Fprintf(w, `{"count": 999, "next": "%s/api/database/rows/table/101/?user_field_names=true&size=2&page=next", "results": [{"id": %d, "name": "S", "address": "1 A St, 3000"}]}`,
				srvURL, stationPages.Load())
		case "/api/database/rows/table/102/":
			fmt.Fprint(w, `{"count": 0, "next": null, "results": []}`)
		}
	}))
	defer srv.Close()
	srvURL = srv.URL

	p := newProvider(t, srv.URL, 3)

	batch, err := p.Fetch(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(3), stationPages.Load())
	require.Len(t, batch.Stations, 3)
}

func TestFetchRetriesFailedPageInPlace(t *testing.T) {
	t.Parallel()

	var priceCalls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/database/rows/table/101/":
			fmt.Fprint(w, `{"count": 0, "next": null, "results": []}`)
		case "/api/database/rows/table/102/":
			if priceCalls.Add(1) == 1 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			fmt.Fprint(w, pricePage)
		}
	}))
	defer srv.Close()

	p := newProvider(t, srv.URL, 10)

	batch, err := p.Fetch(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(2), priceCalls.Load())
	require.Len(t, batch.Prices, 3)
}

func TestFetchMissingResultsArray(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"count": 0, "next": null}`)
	}))
	defer srv.Close()

	p := newProvider(t, srv.URL, 10)

	_, err := p.Fetch(context.Background())
	require.ErrorIs(t, err, provider.ErrUpstreamSchema)
}

func TestFetchDropsMalformedRows(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/database/rows/table/101/":
			// Second row is missing its address and must be skipped.
			fmt.Fprint(w, `{"count": 2, "next": null, "results": [
				{"id": 1, "name": "BP Preston", "address": "12 High St, Preston VIC 3072"},
				{"id": 2, "name": "No Address"}
			]}`)
		case "/api/database/rows/table/102/":
			// First row has a fractional price and must be skipped.
			fmt.Fprint(w, `{"count": 2, "next": null, "results": [
				{"stations": [{"id": 1}], "fuel_type": "U91", "price": 189.9},
				{"stations": [{"id": 1}], "fuel_type": "E10", "price": 1799}
			]}`)
		}
	}))
	defer srv.Close()

	p := newProvider(t, srv.URL, 10)

	batch, err := p.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, batch.Stations, 1)
	require.Len(t, batch.Prices, 1)
	require.Equal(t, "tabular-1-e10", batch.Prices[0].ID)
}

func TestFetchAuthFailureFailsFast(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	p := newProvider(t, srv.URL, 10)

	_, err := p.Fetch(context.Background())
	require.Error(t, err)
	require.Equal(t, int64(1), calls.Load())
}
