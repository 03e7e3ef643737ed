// Copyright 2026 Joel Johnson Thomas
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


package openai

import "strings"

// repairJSON patches the one malformation small local models produce often
// enough to matter: object keys missing their opening quote, e.g.
// `, summary":` instead of `, "summary":`. Well-formed input passes through
// unchanged.
func repairJSON(s string) string {
	runes := []rune(s)
	var b strings.Builder
	b.Grow(len(s) + 16)

	for i := 0; i < len(runes); {
		if runes[i] != '{' && runes[i] != ',' {
			b.WriteRune(runes[i])
			i++
			continue
		}
		b.WriteRune(runes[i])
		i++

		// Copy whitespace between the delimiter and whatever follows.
		for i < len(runes) && (runes[i] == ' ' || runes[i] == '\n' || runes[i] == '\t') {
			b.WriteRune(runes[i])
			i++
		}
		if i >= len(runes) || runes[i] == '"' || !isLetter(runes[i]) {
			continue
		}

		// Bare word after the delimiter. If it ends with `":` the opening
		// quote was dropped; insert it. Otherwise copy the word untouched.
		start := i
		for i < len(runes) && (isLetter(runes[i]) || runes[i] == '_' || runes[i] == ' ') {
			i++
		}
		if i+1 < len(runes) && runes[i] == '"' && runes[i+1] == ':' {
			b.WriteRune('"')
		}
		for j := start; j < i; j++ {
			b.WriteRune(runes[j])
		}
	}

	return b.String()
}
