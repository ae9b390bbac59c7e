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
	"bytes"
	"encoding/json"
	"fmt"
)

// Document is a JSON object that preserves key order across decode and
// encode. Nested objects decode as *Document, arrays as []any, and
// numbers as json.Number, so a document serialized back to disk is
// byte-equivalent to its source apart from fields the caller changed.
//
// Document is not safe for concurrent mutation.
type Document struct {
	keys   []string
	values map[string]any
}

// NewDocument creates an empty document.
func NewDocument() *Document {
	return &Document{
		values: make(map[string]any),
	}
}

// Len returns the number of top-level keys.
func (d *Document) Len() int {
	return len(d.keys)
}

// Keys returns the document's keys in insertion order.
// The returned slice is a copy.
func (d *Document) Keys() []string {
	out := make([]string, len(d.keys))
	copy(out, d.keys)
	return out
}

// Has reports whether the key is present.
func (d *Document) Has(key string) bool {
	_, ok := d.values[key]
	return ok
}

// Get returns the raw value for key.
func (d *Document) Get(key string) (any, bool) {
	v, ok := d.values[key]
	return v, ok
}

// Set stores value under key. Existing keys keep their position,
// new keys are appended.
func (d *Document) Set(key string, value any) {
	if d.values == nil {
		d.values = make(map[string]any)
	}
	if _, ok := d.values[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.values[key] = value
}

// Delete removes key if present.
func (d *Document) Delete(key string) {
	if _, ok := d.values[key]; !ok {
		return
	}
	delete(d.values, key)
	for i, k := range d.keys {
		if k == key {
			d.keys = append(d.keys[:i], d.keys[i+1:]...)
			break
		}
	}
}

// GetString returns the value for key as a string.
// Returns ErrFieldMissing if absent, ErrFieldType if it is not a string.
func (d *Document) GetString(key string) (string, error) {
	v, ok := d.values[key]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrFieldMissing, key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %q is not a string", ErrFieldType, key)
	}
	return s, nil
}

// GetInt returns the value for key as an int.
// Returns ErrFieldMissing if absent, ErrFieldType if it is not an
// integral number.
func (d *Document) GetInt(key string) (int, error) {
	v, ok := d.values[key]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrFieldMissing, key)
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not an integer", ErrFieldType, key)
		}
		return int(i), nil
	case float64:
		return int(n), nil
	default:
		return 0, fmt.Errorf("%w: %q is not a number", ErrFieldType, key)
	}
}

// GetArray returns the value for key as a JSON array.
func (d *Document) GetArray(key string) ([]any, error) {
	v, ok := d.values[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrFieldMissing, key)
	}
	arr, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: %q is not an array", ErrFieldType, key)
	}
	return arr, nil
}

// GetDocument returns the value for key as a nested document.
func (d *Document) GetDocument(key string) (*Document, error) {
	v, ok := d.values[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrFieldMissing, key)
	}
	doc, ok := v.(*Document)
	if !ok {
		return nil, fmt.Errorf("%w: %q is not an object", ErrFieldType, key)
	}
	return doc, nil
}

// Clone returns a deep copy. Nested documents and arrays are copied,
// scalar values are shared (they are immutable once decoded).
func (d *Document) Clone() *Document {
	out := NewDocument()
	for _, k := range d.keys {
		out.Set(k, cloneValue(d.values[k]))
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case *Document:
		return t.Clone()
	case []any:
		arr := make([]any, len(t))
		for i, e := range t {
			arr[i] = cloneValue(e)
		}
		return arr
	default:
		return v
	}
}

// MarshalJSON encodes the document with keys in insertion order.
func (d *Document) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range d.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(d.values[key])
		if err != nil {
			return nil, fmt.Errorf("marshal field %q: %w", key, err)
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object, preserving key order and decoding
// numbers as json.Number. Nested objects become *Document values.
func (d *Document) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return ErrNotObject
	}

	doc, err := decodeObject(dec)
	if err != nil {
		return err
	}
	*d = *doc
	return nil
}

// decodeObject reads key/value pairs up to and including the closing
// brace. The opening brace must already be consumed.
func decodeObject(dec *json.Decoder) (*Document, error) {
	doc := NewDocument()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected object key token %v", tok)
		}
		val, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		doc.Set(key, val)
	}
	if _, err := dec.Token(); err != nil { // closing '}'
		return nil, err
	}
	return doc, nil
}

func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	delim, ok := tok.(json.Delim)
	if !ok {
		// string, json.Number, bool or nil
		return tok, nil
	}
	switch delim {
	case '{':
		return decodeObject(dec)
	case '[':
		arr := []any{}
		for dec.More() {
			v, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			arr = append(arr, v)
		}
		if _, err := dec.Token(); err != nil { // closing ']'
			return nil, err
		}
		return arr, nil
	default:
		return nil, fmt.Errorf("unexpected delimiter %v", delim)
	}
}
