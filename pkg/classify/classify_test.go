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

package classify_test

import (
	"testing"

	"github.com/farescout/farescout/pkg/classify"
)

func TestNeedsInput(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{
			name: "clarifying question",
			text: "Could you please provide your departure city?",
			want: true,
		},
		{
			name: "question mark with asking phrase",
			text: "I need to know your budget. What is your maximum price?",
			want: true,
		},
		{
			name: "bare question mark",
			text: "Ready to book?",
			want: true,
		},
		{
			name: "phrase without question mark",
			text: "Please provide feedback using the form below.",
			want: false,
		},
		{
			name: "final answer with flight details",
			text: "I found 3 flights from JFK to LHR. The cheapest is $420 on Delta Airlines.",
			want: false,
		},
		{
			name: "case insensitive phrase match",
			text: "WHICH CITY are you departing from?",
			want: true,
		},
		{
			name: "empty response",
			text: "",
			want: false,
		},
		{
			name: "which city without question mark",
			text: "Tell me which city you prefer.",
			want: false,
		},
		{
			name: "more details requested",
			text: "I could help better with more details. When do you want to travel?",
			want: true,
		},
	}

	c := classify.NewPhraseClassifier()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.NeedsInput(tt.text); got != tt.want {
				t.Errorf("NeedsInput(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}
