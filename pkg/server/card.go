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

package server

import (
	"github.com/a2aproject/a2a-go/a2a"

	"github.com/farescout/farescout/pkg/version"
)

// AgentName is the display name advertised on the agent card.
const AgentName = "Flight Search Assistant"

// BuildAgentCard creates the A2A agent card served at the well-known
// path. url is the public base URL clients should send requests to.
func BuildAgentCard(url string) *a2a.AgentCard {
	return &a2a.AgentCard{
		Name:               AgentName,
		Description:        "Conversational assistant that searches flights by origin, destination and budget.",
		URL:                url,
		Version:            version.Version,
		ProtocolVersion:    "1.0",
		DefaultInputModes:  []string{"text/plain"},
		DefaultOutputModes: []string{"text/plain"},
		Skills: []a2a.AgentSkill{
			{
				ID:          "search_flights",
				Name:        "Search Flights",
				Description: "Finds available flights between two cities and filters them by budget.",
				Tags:        []string{"travel", "flights", "search"},
				Examples: []string{
					"Find me a flight from New York to London",
					"I need a flight from SFO to ORD under $500",
				},
			},
		},
		Capabilities: a2a.AgentCapabilities{
			Streaming:              false,
			PushNotifications:      false,
			StateTransitionHistory: false,
		},
		PreferredTransport: a2a.TransportProtocolJSONRPC,
	}
}
