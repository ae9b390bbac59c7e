// Copyright 2025 The cactus-embedder Authors
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


package chunk

import "strings"

const (
	// DefaultSize is the default chunk size in characters.
	DefaultSize = 1000

	// DefaultOverlap is the default overlap between consecutive chunks.
	DefaultOverlap = 200

	// sentenceBreakRatio is the minimum fraction of the window a
	// sentence break must sit past to be used as a break point.
	sentenceBreakRatio = 0.5

	// wordBreakRatio is the minimum fraction of the window a space
	// must sit past to be used as a break point.
	wordBreakRatio = 0.7
)

var sentenceTerminators = []string{". ", "? ", "! "}

// Split divides text into chunks of at most size characters,
// with consecutive chunks overlapping by up to overlap characters.
//
// Whitespace runs collapse to a single space before splitting. Break
// points prefer the last sentence terminator past half the window, then
// the last space past 70% of the window, then a hard cut at size.
// Every returned chunk is non-empty and trimmed.
func Split(text string, size, overlap int) []string {
	if size < 1 {
		size = DefaultSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size - 1
	}

	runes := []rune(normalize(text))
	if len(runes) == 0 {
		return nil
	}
	if len(runes) <= size {
		return []string{string(runes)}
	}

	var chunks []string
	start := 0
	for len(runes)-start > size {
		window := runes[start : start+size]
		breakAt := findBreak(window, size)

		if c := strings.TrimSpace(string(window[:breakAt])); c != "" {
			chunks = append(chunks, c)
		}

		// Advance must be strictly positive: a large overlap can pull
		// the next start at or before the current one and stall the loop.
		advance := breakAt - overlap
		if advance < 1 {
			advance = 1
		}
		start += advance
	}

	if c := strings.TrimSpace(string(runes[start:])); c != "" {
		chunks = append(chunks, c)
	}
	return chunks
}

// findBreak returns the exclusive end offset of the chunk within the
// window: just past the last qualifying sentence terminator, else the
// last qualifying space, else the full window.
func findBreak(window []rune, size int) int {
	minSentence := int(float64(size) * sentenceBreakRatio)
	best := -1
	for _, term := range sentenceTerminators {
		// include the terminator punctuation, not the trailing space
		if idx := lastIndexRunes(window, term); idx >= 0 && idx+1 > minSentence && idx+1 > best {
			best = idx + 1
		}
	}
	if best > 0 {
		return best
	}

	minWord := int(float64(size) * wordBreakRatio)
	for i := len(window) - 1; i > minWord; i-- {
		if window[i] == ' ' {
			return i
		}
	}

	return size
}

// lastIndexRunes is strings.LastIndex over a rune slice, returning a
// rune offset rather than a byte offset.
func lastIndexRunes(window []rune, sep string) int {
	seps := []rune(sep)
	for i := len(window) - len(seps); i >= 0; i-- {
		match := true
		for j, r := range seps {
			if window[i+j] != r {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}

// normalize collapses all whitespace runs to a single space and trims.
func normalize(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
