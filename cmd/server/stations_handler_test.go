package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"fuelfeed/internal/ingest"
	"fuelfeed/internal/provider"
)

type fakeSource struct {
	stations   []provider.Station
	err        error
	status     ingest.Status
	forceCalls int
}

func (f *fakeSource) GetStations(_ context.Context, forceRefresh bool) ([]provider.Station, error) {
	if forceRefresh {
		f.forceCalls++
	}
	return f.stations, f.err
}

func (f *fakeSource) Status() ingest.Status { return f.status }

func TestStations_ReturnsMergedList(t *testing.T) {
	src := &fakeSource{stations: []provider.Station{
		{ID: "tabular-1", Name: "BP Preston", Region: "VIC", FuelPrices: []provider.FuelPrice{}},
		{ID: "fuelcheck-9", Name: "Ampol Sydney", Region: "NSW", FuelPrices: []provider.FuelPrice{}},
	}}

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/stations", nil)
	handleStations(src)(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	var resp stationsResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Count != 2 || len(resp.Stations) != 2 {
		t.Fatalf("want 2 stations, got %+v", resp)
	}
}

func TestStations_RefreshParam(t *testing.T) {
	src := &fakeSource{stations: []provider.Station{}}

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/stations?refresh=true", nil)
	handleStations(src)(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	if src.forceCalls != 1 {
		t.Fatalf("want 1 forced refresh, got %d", src.forceCalls)
	}
}

func TestStations_RegionFilter(t *testing.T) {
	src := &fakeSource{stations: []provider.Station{
		{ID: "a", Region: "VIC", FuelPrices: []provider.FuelPrice{}},
		{ID: "b", Region: "NSW", FuelPrices: []provider.FuelPrice{}},
	}}

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/stations?region=nsw", nil)
	handleStations(src)(rr, req)

	var resp stationsResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Count != 1 || resp.Stations[0].ID != "b" {
		t.Fatalf("unexpected: %+v", resp)
	}
}

func TestStations_Unavailable(t *testing.T) {
	src := &fakeSource{err: provider.ErrUnavailable}

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/stations", nil)
	handleStations(src)(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
}

func TestStations_MethodNotAllowed(t *testing.T) {
	src := &fakeSource{}

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/stations", nil)
	handleStations(src)(rr, req)

	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status=%d", rr.Code)
	}
}

func TestHealth_ReportsState(t *testing.T) {
	src := &fakeSource{status: ingest.Status{State: ingest.StateSucceeded, StationCount: 42}}

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	handleHealth(src)(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	var st ingest.Status
	if err := json.Unmarshal(rr.Body.Bytes(), &st); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if st.State != ingest.StateSucceeded || st.StationCount != 42 {
		t.Fatalf("unexpected: %+v", st)
	}
}

func TestHealth_FailedStateIs503(t *testing.T) {
	src := &fakeSource{status: ingest.Status{State: ingest.StateFailed, LastError: "boom"}}

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	handleHealth(src)(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status=%d", rr.Code)
	}
}
