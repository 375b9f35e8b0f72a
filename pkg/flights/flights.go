// Copyright 2025 Farescout Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package flights provides the flight-search data source exposed to the
// reasoning engine as the search_flights tool.
//
// The default source generates mock itineraries; an MCP-backed source can
// be plugged in when a real inventory server is available.
package flights

import (
	"context"
	"encoding/json"
	"time"
)

// Flight is a single itinerary option.
type Flight struct {
	FlightNumber    string  `json:"flight_number"`
	Airline         string  `json:"airline"`
	Origin          string  `json:"origin"`
	Destination     string  `json:"destination"`
	DepartureTime   string  `json:"departure_time"`
	ArrivalTime     string  `json:"arrival_time"`
	DurationMinutes int     `json:"duration_minutes"`
	Price           float64 `json:"price"`
	Currency        string  `json:"currency"`
	Stops           int     `json:"stops"`
	CabinClass      string  `json:"cabin_class"`
	AvailableSeats  int     `json:"available_seats"`
}

// SearchResult is the envelope returned to the engine for a search.
type SearchResult struct {
	Success      bool     `json:"success"`
	Origin       string   `json:"origin"`
	Destination  string   `json:"destination"`
	Budget       *float64 `json:"budget,omitempty"`
	FlightsFound int      `json:"flights_found"`
	Flights      []Flight `json:"flights"`
	Timestamp    string   `json:"timestamp"`
	Source       string   `json:"source"`
}

// ToMap converts the result to a generic map for tool consumption.
func (r *SearchResult) ToMap() (map[string]any, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Source searches for flights. Budget is an optional price ceiling in USD.
type Source interface {
	SearchFlights(ctx context.Context, origin, destination string, budget *float64) (*SearchResult, error)
}

func nowTimestamp() string {
	return time.Now().Format(time.RFC3339)
}
