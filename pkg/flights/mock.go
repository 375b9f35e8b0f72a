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

package flights

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"
)

var airlines = []string{
	"American Airlines", "Delta Airlines", "United Airlines",
	"Southwest Airlines", "JetBlue", "Alaska Airlines",
	"Spirit Airlines", "Frontier Airlines",
}

// airports maps uppercased city names and metro codes to airport codes.
// The first code is the canonical one for the location.
var airports = map[string][]string{
	"NYC":           {"JFK", "LGA", "EWR"},
	"NEW YORK":      {"JFK", "LGA", "EWR"},
	"LON":           {"LHR", "LGW", "STN"},
	"LONDON":        {"LHR", "LGW", "STN"},
	"LAX":           {"LAX"},
	"LOS ANGELES":   {"LAX"},
	"SFO":           {"SFO"},
	"SAN FRANCISCO": {"SFO"},
	"ORD":           {"ORD"},
	"CHICAGO":       {"ORD"},
	"MIA":           {"MIA"},
	"MIAMI":         {"MIA"},
	"BOS":           {"BOS"},
	"BOSTON":        {"BOS"},
	"SEA":           {"SEA"},
	"SEATTLE":       {"SEA"},
	"ATL":           {"ATL"},
	"ATLANTA":       {"ATL"},
	"DFW":           {"DFW"},
	"DALLAS":        {"DFW"},
}

var cabinClasses = []string{"Economy", "Economy", "Premium Economy", "Business"}

// stopChoices yields roughly 75% direct flights.
var stopChoices = []int{0, 0, 0, 1}

// NormalizeLocation resolves a city name or airport code to an airport
// code. Unknown locations fall back to the first three characters
// uppercased.
func NormalizeLocation(location string) string {
	loc := strings.ToUpper(strings.TrimSpace(location))

	if codes, ok := airports[loc]; ok {
		return codes[0]
	}
	for _, codes := range airports {
		for _, code := range codes {
			if loc == code {
				return loc
			}
		}
	}

	if len(loc) > 3 {
		return loc[:3]
	}
	return loc
}

// MockSource generates mock flight inventory.
type MockSource struct {
	mu         sync.Mutex
	rng        *rand.Rand
	numFlights int
}

// MockSourceOption configures a MockSource.
type MockSourceOption func(*MockSource)

// WithRand sets the random source, useful for deterministic tests.
func WithRand(rng *rand.Rand) MockSourceOption {
	return func(s *MockSource) { s.rng = rng }
}

// NewMockSource creates a mock source producing five candidates per search.
func NewMockSource(opts ...MockSourceOption) *MockSource {
	s := &MockSource{
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
		numFlights: 5,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SearchFlights generates candidate flights departing about a week out,
// sorted by price ascending and filtered to the budget when one is given.
func (s *MockSource) SearchFlights(ctx context.Context, origin, destination string, budget *float64) (*SearchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	originCode := NormalizeLocation(origin)
	destCode := NormalizeLocation(destination)

	baseDate := time.Now().AddDate(0, 0, 7)

	flights := make([]Flight, 0, s.numFlights)
	for i := 0; i < s.numFlights; i++ {
		departure := baseDate.AddDate(0, 0, i).Add(time.Duration(s.intRange(6, 20)) * time.Hour)
		duration := time.Duration(s.intRange(2, 12))*time.Hour + time.Duration(s.pick([]int{0, 30}))*time.Minute
		arrival := departure.Add(duration)

		var price float64
		if budget != nil && *budget > 0 {
			// Some candidates land inside the budget, some outside.
			if i < s.numFlights/2 {
				price = float64(s.intRange(int(*budget*0.5), int(*budget*0.95)))
			} else {
				price = float64(s.intRange(int(*budget*0.8), int(*budget*1.3)))
			}
		} else {
			price = float64(s.intRange(200, 1500))
		}

		airline := airlines[s.rng.Intn(len(airlines))]
		prefix := strings.ToUpper(airlines[s.rng.Intn(len(airlines))][:2])

		flights = append(flights, Flight{
			FlightNumber:    fmt.Sprintf("%s%d", prefix, s.intRange(100, 999)),
			Airline:         airline,
			Origin:          originCode,
			Destination:     destCode,
			DepartureTime:   departure.Format(time.RFC3339),
			ArrivalTime:     arrival.Format(time.RFC3339),
			DurationMinutes: int(duration.Minutes()),
			Price:           price,
			Currency:        "USD",
			Stops:           stopChoices[s.rng.Intn(len(stopChoices))],
			CabinClass:      cabinClasses[s.rng.Intn(len(cabinClasses))],
			AvailableSeats:  s.intRange(5, 50),
		})
	}

	sortByPrice(flights)

	if budget != nil && *budget > 0 {
		within := flights[:0]
		for _, f := range flights {
			if f.Price <= *budget {
				within = append(within, f)
			}
		}
		flights = within
	}

	return &SearchResult{
		Success:      true,
		Origin:       origin,
		Destination:  destination,
		Budget:       budget,
		FlightsFound: len(flights),
		Flights:      flights,
		Timestamp:    nowTimestamp(),
		Source:       "mock",
	}, nil
}

func (s *MockSource) intRange(min, max int) int {
	if max <= min {
		return min
	}
	return min + s.rng.Intn(max-min+1)
}

func (s *MockSource) pick(choices []int) int {
	return choices[s.rng.Intn(len(choices))]
}

func sortByPrice(flights []Flight) {
	sort.Slice(flights, func(i, j int) bool {
		return flights[i].Price < flights[j].Price
	})
}

var _ Source = (*MockSource)(nil)
