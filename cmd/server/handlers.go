package main

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"

	"fuelfeed/internal/ingest"
	"fuelfeed/internal/provider"
)

// stationSource is the slice of the ingestion service the handlers need.
type stationSource interface {
	GetStations(ctx context.Context, forceRefresh bool) ([]provider.Station, error)
	Status() ingest.Status
}

type stationsResponse struct {
	Stations []provider.Station `json:"stations"`
	Count    int                `json:"count"`
}

func handleStations(svc stationSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		force := parseBool(r.URL.Query().Get("refresh"))

		stations, err := svc.GetStations(r.Context(), force)
		if err != nil {
			if errors.Is(err, provider.ErrUnavailable) {
				http.Error(w, "station data unavailable", http.StatusServiceUnavailable)
				return
			}
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		if region := strings.ToUpper(r.URL.Query().Get("region")); region != "" {
			stations = filterRegion(stations, region)
		}

		w.WriteHeader(http.StatusOK)
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		_ = enc.Encode(stationsResponse{Stations: stations, Count: len(stations)})
	}
}

func handleHealth(svc stationSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st := svc.Status()
		code := http.StatusOK
		if st.State == ingest.StateFailed {
			code = http.StatusServiceUnavailable
		}
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(st)
	}
}

func filterRegion(stations []provider.Station, region string) []provider.Station {
	out := make([]provider.Station, 0, len(stations))
	for _, st := range stations {
		if st.Region == region {
			out = append(out, st)
		}
	}
	return out
}

func parseBool(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "yes", "y":
		return true
	}
	return false
}

func withJSONHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withGzip compresses the response when the client supports gzip.
func withGzip(next http.Handler) http.Handler {
	var gzPool = sync.Pool{New: func() any {
		w, _ := gzip.NewWriterLevel(io.Discard, gzip.BestSpeed)
		return w
	}}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
			next.ServeHTTP(w, r)
			return
		}
		gz := gzPool.Get().(*gzip.Writer)
		gz.Reset(w)
		defer func() {
			_ = gz.Close()
			gz.Reset(io.Discard)
			gzPool.Put(gz)
		}()
		w.Header().Set("Content-Encoding", "gzip")
		w.Header().Add("Vary", "Accept-Encoding")
		next.ServeHTTP(gzipResponseWriter{ResponseWriter: w, Writer: gz}, r)
	})
}

type gzipResponseWriter struct {
	http.ResponseWriter
	Writer io.Writer
}

func (g gzipResponseWriter) Write(b []byte) (int, error) {
	return g.Writer.Write(b)
}

// limitBody caps request body size to avoid memory abuse.
func limitBody(next http.Handler) http.Handler {
	const maxBody = 1 << 20
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, maxBody)
		}
		next.ServeHTTP(w, r)
	})
}

// recoverPanic protects handlers from panics.
func recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
