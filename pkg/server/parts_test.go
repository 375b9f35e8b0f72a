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
	"testing"

	"github.com/a2aproject/a2a-go/a2a"
)

func TestExtractText(t *testing.T) {
	tests := []struct {
		name string
		msg  *a2a.Message
		want string
	}{
		{
			name: "nil message",
			msg:  nil,
			want: "",
		},
		{
			name: "single text part",
			msg:  a2a.NewMessage(a2a.MessageRoleUser, a2a.TextPart{Text: "hello"}),
			want: "hello",
		},
		{
			name: "multiple text parts joined with spaces",
			msg: a2a.NewMessage(a2a.MessageRoleUser,
				a2a.TextPart{Text: "NYC"},
				a2a.TextPart{Text: "to"},
				a2a.TextPart{Text: "LON"},
			),
			want: "NYC to LON",
		},
		{
			name: "non-text parts ignored",
			msg: a2a.NewMessage(a2a.MessageRoleUser,
				a2a.TextPart{Text: "search"},
				a2a.DataPart{Data: map[string]any{"k": "v"}},
			),
			want: "search",
		},
		{
			name: "empty parts",
			msg:  a2a.NewMessage(a2a.MessageRoleUser),
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractText(tt.msg); got != tt.want {
				t.Errorf("extractText() = %q, want %q", got, tt.want)
			}
		})
	}
}
