// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package weather

import (
	"sort"
	"strings"
)

type coordinates struct {
	lat, lon float64
}

var cities = map[string]coordinates{
	"new york":      {40.7831, -73.9712},
	"san francisco": {37.7749, -122.4194},
	"los angeles":   {34.0522, -118.2437},
	"chicago":       {41.8781, -87.6298},
	"houston":       {29.7604, -95.3698},
	"miami":         {25.7617, -80.1918},
	"seattle":       {47.6062, -122.3321},
	"denver":        {39.7392, -104.9903},
	"atlanta":       {33.7490, -84.3880},
	"boston":        {42.3601, -71.0589},
	"dhaka":         {23.8103, 90.4125},
	"washington":    {38.9072, -77.0369},
	"philadelphia":  {39.9526, -75.1652},
	"phoenix":       {33.4484, -112.0740},
	"las vegas":     {36.1699, -115.1398},
}

// lookupCity matches case-insensitively and ignores surrounding and
// repeated whitespace.
func lookupCity(name string) (coordinates, bool) {
	key := strings.Join(strings.Fields(strings.ToLower(name)), " ")
	c, ok := cities[key]
	return c, ok
}

func cityNames() []string {
	names := make([]string, 0, len(cities))
	for name := range cities {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
