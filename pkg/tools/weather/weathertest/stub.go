// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

// Package weathertest provides a stub National Weather Service API for
// tests.
package weathertest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
)

// Stub is a fake NWS API. It serves Periods forecast periods for any
// point and the alerts set with SetAlerts for any state.
type Stub struct {
	*httptest.Server
	Periods int
	// FailPoints and FailForecast make the respective endpoint return 500.
	FailPoints   atomic.Bool
	FailForecast atomic.Bool
	// Requests counts handled requests.
	Requests atomic.Int64

	mu     sync.Mutex
	alerts []map[string]string
}

// SetAlerts replaces the alert properties served for every state.
func (s *Stub) SetAlerts(alerts ...map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = alerts
}

// NewStub starts a stub serving periods forecast periods. It is closed
// when the test ends.
func NewStub(t *testing.T, periods int) *Stub {
	t.Helper()
	s := &Stub{Periods: periods}
	mux := http.NewServeMux()
	mux.HandleFunc("/points/", s.servePoints)
	mux.HandleFunc("/gridpoints/", s.serveForecast)
	mux.HandleFunc("/alerts/active/area/", s.serveAlerts)
	s.Server = httptest.NewServer(countRequests(&s.Requests, mux))
	t.Cleanup(s.Close)
	return s
}

// PeriodName is the name given to the i-th (zero based) stub period.
func PeriodName(i int) string {
	return fmt.Sprintf("Period %d", i+1)
}

func countRequests(n *atomic.Int64, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n.Add(1)
		next.ServeHTTP(w, r)
	})
}

func (s *Stub) servePoints(w http.ResponseWriter, r *http.Request) {
	if s.FailPoints.Load() {
		http.Error(w, "points unavailable", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{
		"properties": map[string]any{
			"forecast": s.URL + "/gridpoints/OKX/33,37/forecast",
		},
	})
}

func (s *Stub) serveForecast(w http.ResponseWriter, r *http.Request) {
	if s.FailForecast.Load() {
		http.Error(w, "forecast unavailable", http.StatusInternalServerError)
		return
	}
	periods := make([]map[string]any, 0, s.Periods)
	for i := 0; i < s.Periods; i++ {
		periods = append(periods, map[string]any{
			"name":             PeriodName(i),
			"temperature":      60 + i,
			"temperatureUnit":  "F",
			"windSpeed":        fmt.Sprintf("%d mph", 5+i),
			"windDirection":    "NW",
			"detailedForecast": fmt.Sprintf("Forecast text %d.", i+1),
		})
	}
	writeJSON(w, map[string]any{"properties": map[string]any{"periods": periods}})
}

func (s *Stub) serveAlerts(w http.ResponseWriter, r *http.Request) {
	state := strings.TrimPrefix(r.URL.Path, "/alerts/active/area/")
	if state == "XX" {
		http.Error(w, "bad area", http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	alerts := s.alerts
	s.mu.Unlock()

	features := make([]map[string]any, 0, len(alerts))
	for _, a := range alerts {
		props := map[string]any{}
		for k, v := range a {
			props[k] = v
		}
		features = append(features, map[string]any{"properties": props})
	}
	writeJSON(w, map[string]any{"features": features})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/geo+json")
	json.NewEncoder(w).Encode(v)
}
