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


package core

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Well-known item fields.
const (
	// FieldID is the optional stable identifier field on an item.
	FieldID = "id"

	// FieldEmbeddings holds an item's embedding vector once computed.
	// Presence of a non-null value is the resume signal: an item that
	// has it is never re-embedded.
	FieldEmbeddings = "embeddings"
)

// ItemID derives the stable identifier for an item: the string form of
// its "id" field if present, otherwise the positional index.
func ItemID(item *Document, index int) string {
	if v, ok := item.Get(FieldID); ok {
		switch id := v.(type) {
		case string:
			return id
		case json.Number:
			return id.String()
		case int:
			return strconv.Itoa(id)
		case float64:
			return strconv.FormatFloat(id, 'g', -1, 64)
		}
	}
	return strconv.Itoa(index)
}

// HasEmbedding reports whether the item carries a non-null embedding.
func HasEmbedding(item *Document) bool {
	v, ok := item.Get(FieldEmbeddings)
	return ok && v != nil
}

// SetEmbedding attaches an embedding vector to the item.
func SetEmbedding(item *Document, vector []float32) {
	item.Set(FieldEmbeddings, vector)
}

// ItemText returns the trimmed value of the item's text field, or the
// empty string when the field is absent or not a string. Empty means
// the item cannot be embedded and passes through unmodified.
func ItemText(item *Document, field string) string {
	v, ok := item.Get(field)
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}
