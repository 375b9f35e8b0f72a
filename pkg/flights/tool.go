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
	"log/slog"

	"github.com/farescout/farescout/pkg/tool"
	"github.com/farescout/farescout/pkg/tool/functiontool"
)

// SearchArgs are the parameters of the search_flights tool.
type SearchArgs struct {
	Origin      string   `json:"origin" jsonschema:"required,description=Origin city or airport code such as NYC or JFK"`
	Destination string   `json:"destination" jsonschema:"required,description=Destination city or airport code such as London or LAX"`
	Budget      *float64 `json:"budget,omitempty" jsonschema:"description=Maximum budget in USD"`
}

// NewSearchTool wraps a Source as the search_flights tool. Source failures
// come back as {success:false, error} payloads so the engine can relay
// them instead of aborting the reasoning loop.
func NewSearchTool(source Source) (tool.CallableTool, error) {
	return functiontool.New(
		functiontool.Config{
			Name:        SearchToolName,
			Description: "Search for flights based on origin, destination, and optional maximum budget in USD. Returns available flights with prices, times, and airlines, sorted by price.",
		},
		func(ctx context.Context, args SearchArgs) (map[string]any, error) {
			slog.Info("Searching flights",
				"origin", args.Origin,
				"destination", args.Destination,
				"budget", args.Budget,
			)

			result, err := source.SearchFlights(ctx, args.Origin, args.Destination, args.Budget)
			if err != nil {
				slog.Error("Flight search failed", "error", err)
				return map[string]any{
					"success": false,
					"error":   err.Error(),
				}, nil
			}

			return result.ToMap()
		},
	)
}
