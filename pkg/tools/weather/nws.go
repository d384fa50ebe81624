// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package weather

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/leseb/beebot-mcp/pkg/upstream"
)

// DefaultBaseURL is the National Weather Service API.
const DefaultBaseURL = "https://api.weather.gov"

// Period is one forecast period as returned by NWS.
type Period struct {
	Name             string   `json:"name"`
	Temperature      *float64 `json:"temperature"`
	TemperatureUnit  string   `json:"temperatureUnit"`
	WindSpeed        string   `json:"windSpeed"`
	WindDirection    string   `json:"windDirection"`
	DetailedForecast string   `json:"detailedForecast"`
}

// Alert is the properties object of an active alert feature.
type Alert struct {
	Event       string `json:"event"`
	AreaDesc    string `json:"areaDesc"`
	Severity    string `json:"severity"`
	Description string `json:"description"`
	Instruction string `json:"instruction"`
}

// NWSClient talks to the National Weather Service API.
type NWSClient struct {
	baseURL string
	http    *upstream.Client
}

// NewNWSClient creates a client. An empty baseURL selects DefaultBaseURL.
func NewNWSClient(baseURL string, client *upstream.Client) *NWSClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &NWSClient{baseURL: strings.TrimRight(baseURL, "/"), http: client}
}

func (c *NWSClient) headers() http.Header {
	h := http.Header{}
	h.Set("Accept", "application/geo+json")
	return h
}

// ForecastURL resolves the gridpoint forecast URL for a coordinate.
func (c *NWSClient) ForecastURL(ctx context.Context, lat, lon float64) (string, error) {
	endpoint := fmt.Sprintf("%s/points/%s,%s", c.baseURL, coord(lat), coord(lon))
	var points struct {
		Properties struct {
			Forecast string `json:"forecast"`
		} `json:"properties"`
	}
	if err := c.http.GetJSON(ctx, endpoint, c.headers(), &points); err != nil {
		return "", fmt.Errorf("points lookup: %w", err)
	}
	if points.Properties.Forecast == "" {
		return "", errors.New("points lookup: response has no forecast url")
	}
	return points.Properties.Forecast, nil
}

// Periods fetches the forecast periods from a forecast URL.
func (c *NWSClient) Periods(ctx context.Context, forecastURL string) ([]Period, error) {
	var forecast struct {
		Properties struct {
			Periods []Period `json:"periods"`
		} `json:"properties"`
	}
	if err := c.http.GetJSON(ctx, forecastURL, c.headers(), &forecast); err != nil {
		return nil, fmt.Errorf("forecast: %w", err)
	}
	if forecast.Properties.Periods == nil {
		return nil, errors.New("forecast: response has no periods")
	}
	return forecast.Properties.Periods, nil
}

// ActiveAlerts returns the active alerts for a two-letter state code.
func (c *NWSClient) ActiveAlerts(ctx context.Context, state string) ([]Alert, error) {
	endpoint := c.baseURL + "/alerts/active/area/" + url.PathEscape(state)
	var data struct {
		Features *[]struct {
			Properties Alert `json:"properties"`
		} `json:"features"`
	}
	if err := c.http.GetJSON(ctx, endpoint, c.headers(), &data); err != nil {
		return nil, fmt.Errorf("alerts: %w", err)
	}
	if data.Features == nil {
		return nil, errors.New("alerts: response has no features")
	}
	alerts := make([]Alert, 0, len(*data.Features))
	for _, f := range *data.Features {
		alerts = append(alerts, f.Properties)
	}
	return alerts, nil
}

// coord renders a coordinate with at most four decimals, the precision
// the points endpoint accepts without redirecting.
func coord(v float64) string {
	return strconv.FormatFloat(math.Round(v*1e4)/1e4, 'f', -1, 64)
}
