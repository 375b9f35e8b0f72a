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

// Package classify decides whether an assistant response asks the user for
// more information or concludes the conversation.
package classify

import "strings"

// Classifier inspects a response and reports whether it requests
// further user input.
type Classifier interface {
	NeedsInput(text string) bool
}

// askingPhrases are checked against the lowercased response text. The
// bare "?" entry makes the question mark sufficient on its own once the
// question-mark precondition holds.
var askingPhrases = []string{
	"could you please provide",
	"please provide",
	"i need to know",
	"can you tell me",
	"could you specify",
	"which city",
	"where are you",
	"what is your",
	"more details",
	"need more information",
	"?",
}

// PhraseClassifier is a heuristic Classifier: a response needs input when
// it contains a question mark and at least one asking phrase.
type PhraseClassifier struct{}

// NewPhraseClassifier creates the default classifier.
func NewPhraseClassifier() *PhraseClassifier {
	return &PhraseClassifier{}
}

// NeedsInput reports whether the response asks the user for more input.
func (c *PhraseClassifier) NeedsInput(text string) bool {
	if !strings.Contains(text, "?") {
		return false
	}

	lower := strings.ToLower(text)
	for _, phrase := range askingPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

var _ Classifier = (*PhraseClassifier)(nil)
