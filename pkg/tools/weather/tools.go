// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

// Package weather provides the forecast and alert tools backed by the
// National Weather Service.
package weather

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/leseb/beebot-mcp/pkg/mcp"
	"github.com/leseb/beebot-mcp/pkg/observability/logging"
	"github.com/leseb/beebot-mcp/pkg/toolkit"
)

// maxPeriods is how many forecast periods a forecast reports.
const maxPeriods = 5

// periodSeparator joins forecast and alert blocks.
const periodSeparator = "\n---\n"

// Tools exposes the weather tools over an NWS client.
type Tools struct {
	nws    *NWSClient
	logger *logging.Logger
}

// New creates the weather toolset.
func New(nws *NWSClient, logger *logging.Logger) *Tools {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Tools{nws: nws, logger: logger.Component("weather")}
}

// All returns the tools in registration order.
func (t *Tools) All() []toolkit.Tool {
	return []toolkit.Tool{
		{
			Descriptor: toolkit.Descriptor{
				Name:        "get_forecast",
				Description: "Get weather forecast for a location using latitude and longitude coordinates",
				InputSchema: toolkit.Object(map[string]toolkit.Property{
					"latitude":  toolkit.Number("Latitude of the location").Between(-90, 90),
					"longitude": toolkit.Number("Longitude of the location").Between(-180, 180),
				}, "latitude", "longitude"),
			},
			Handler: t.getForecast,
		},
		{
			Descriptor: toolkit.Descriptor{
				Name:        "get_weather_by_city",
				Description: "Get weather forecast for a city by name (supports major US cities and Dhaka)",
				InputSchema: toolkit.Object(map[string]toolkit.Property{
					"city": toolkit.String("Name of the city (e.g., 'New York', 'San Francisco', 'Dhaka')"),
				}, "city"),
			},
			Handler: t.getWeatherByCity,
		},
		{
			Descriptor: toolkit.Descriptor{
				Name:        "get_alerts",
				Description: "Get weather alerts for a US state",
				InputSchema: toolkit.Object(map[string]toolkit.Property{
					"state": toolkit.String("Two-letter US state code (e.g., 'CA', 'NY')"),
				}, "state"),
			},
			Handler: t.getAlerts,
		},
	}
}

func (t *Tools) getForecast(ctx context.Context, args toolkit.Arguments) (*mcp.ToolCallResult, error) {
	return t.forecast(ctx, args.Float("latitude"), args.Float("longitude")), nil
}

func (t *Tools) forecast(ctx context.Context, lat, lon float64) *mcp.ToolCallResult {
	forecastURL, err := t.nws.ForecastURL(ctx, lat, lon)
	if err != nil {
		t.logger.Warn("forecast lookup failed", "latitude", lat, "longitude", lon, "error", err)
		return toolkit.ErrorResult("Unable to fetch forecast data for this location.")
	}

	periods, err := t.nws.Periods(ctx, forecastURL)
	if err != nil {
		t.logger.Warn("forecast fetch failed", "url", forecastURL, "error", err)
		return toolkit.ErrorResult("Unable to fetch detailed forecast.")
	}

	return toolkit.TextResult(FormatPeriods(periods))
}

func (t *Tools) getWeatherByCity(ctx context.Context, args toolkit.Arguments) (*mcp.ToolCallResult, error) {
	city := args.String("city")
	c, ok := lookupCity(city)
	if !ok {
		return toolkit.TextResult(fmt.Sprintf("Sorry, I don't have coordinates for '%s'. Available cities: %s",
			city, strings.Join(cityNames(), ", "))), nil
	}
	return t.forecast(ctx, c.lat, c.lon), nil
}

func (t *Tools) getAlerts(ctx context.Context, args toolkit.Arguments) (*mcp.ToolCallResult, error) {
	state := strings.ToUpper(strings.TrimSpace(args.String("state")))
	if !isStateCode(state) {
		return toolkit.ErrorResult("Invalid state code %q: expected a two-letter US state code such as CA or NY.", args.String("state")), nil
	}

	alerts, err := t.nws.ActiveAlerts(ctx, state)
	if err != nil {
		t.logger.Warn("alerts fetch failed", "state", state, "error", err)
		return toolkit.ErrorResult("Unable to fetch alerts or no alerts found."), nil
	}
	if len(alerts) == 0 {
		return toolkit.TextResult("No active alerts for this state."), nil
	}
	return toolkit.TextResult(FormatAlerts(alerts)), nil
}

func isStateCode(s string) bool {
	if len(s) != 2 {
		return false
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

// FormatPeriods renders up to five periods, in upstream order.
func FormatPeriods(periods []Period) string {
	if len(periods) > maxPeriods {
		periods = periods[:maxPeriods]
	}
	blocks := make([]string, 0, len(periods))
	for _, p := range periods {
		temp := "?"
		if p.Temperature != nil {
			temp = strconv.FormatFloat(*p.Temperature, 'f', -1, 64)
		}
		blocks = append(blocks, fmt.Sprintf("\n%s:\nTemperature: %s°%s\nWind: %s %s\nForecast: %s\n",
			p.Name, temp, p.TemperatureUnit, p.WindSpeed, p.WindDirection, p.DetailedForecast))
	}
	return strings.Join(blocks, periodSeparator)
}

// FormatAlerts renders alerts with fallbacks for missing fields.
func FormatAlerts(alerts []Alert) string {
	blocks := make([]string, 0, len(alerts))
	for _, a := range alerts {
		blocks = append(blocks, fmt.Sprintf("\nEvent: %s\nArea: %s\nSeverity: %s\nDescription: %s\nInstructions: %s\n",
			orDefault(a.Event, "Unknown"),
			orDefault(a.AreaDesc, "Unknown"),
			orDefault(a.Severity, "Unknown"),
			orDefault(a.Description, "No description available"),
			orDefault(a.Instruction, "No specific instructions provided")))
	}
	return strings.Join(blocks, periodSeparator)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
