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


package checkpoint

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/samadon1/cactus-embedder/core"
)

// MetadataKey is the top-level field holding generation metadata in an
// output document.
const MetadataKey = "_embedder_metadata"

// Metadata field names inside the MetadataKey block.
const (
	metaModel         = "model"
	metaTextField     = "text_field"
	metaInputType     = "input_type"
	metaTotalItems    = "total_items"
	metaEmbeddedCount = "embedded_count"
	metaGeneratedAt   = "generated_at"
	metaTool          = "tool"
	metaChunkSize     = "chunk_size"
	metaChunkOverlap  = "chunk_overlap"
)

// EmbedderInfo describes the embedding run recorded in output metadata.
type EmbedderInfo struct {
	Model     string
	TextField string
	InputType core.InputType

	// ChunkSize and ChunkOverlap are recorded for document sources
	// only; zero values are omitted.
	ChunkSize    int
	ChunkOverlap int
}

// Store reads and writes output documents.
type Store struct {
	logger *slog.Logger
}

// NewStore creates a checkpoint store.
func NewStore() *Store {
	return &Store{
		logger: slog.Default().With("component", "checkpoint"),
	}
}

// IsComplete reports whether the output at path records a finished run:
// total_items and embedded_count both present, positive, and equal.
// Any read or parse failure yields false, never an error.
func (s *Store) IsComplete(path string) bool {
	doc, ok := s.read(path)
	if !ok {
		return false
	}

	meta, err := doc.GetDocument(MetadataKey)
	if err != nil {
		return false
	}
	total, err := meta.GetInt(metaTotalItems)
	if err != nil {
		return false
	}
	embedded, err := meta.GetInt(metaEmbeddedCount)
	if err != nil {
		return false
	}
	return total > 0 && total == embedded
}

// LoadExisting returns the already-embedded items of the output at
// path, keyed by item identifier. A missing or malformed output yields
// an empty map: resume starts fresh rather than failing.
func (s *Store) LoadExisting(path, itemsKey string) map[string]*core.Document {
	existing := make(map[string]*core.Document)

	doc, ok := s.read(path)
	if !ok {
		return existing
	}
	arr, err := doc.GetArray(itemsKey)
	if err != nil {
		s.logger.Debug("existing output has no usable items array", "path", path, "err", err)
		return existing
	}

	for i, elem := range arr {
		item, ok := elem.(*core.Document)
		if !ok {
			continue
		}
		if core.HasEmbedding(item) {
			existing[core.ItemID(item, i)] = item
		}
	}

	s.logger.Debug("loaded existing embeddings", "path", path, "count", len(existing))
	return existing
}

// Save writes the full output document for the input set: the item
// array under its key, the pass-through metadata fields, and the
// generation metadata block. The write is atomic from a reader's
// perspective: content goes to a temp file in the same directory which
// is then renamed over path.
func (s *Store) Save(path string, set *core.InputSet, info EmbedderInfo) error {
	out := core.NewDocument()
	out.Set(set.ItemsKey, set.Items)
	for _, key := range set.Metadata.Keys() {
		v, _ := set.Metadata.Get(key)
		out.Set(key, v)
	}
	out.Set(MetadataKey, s.buildMetadata(set, info))

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}

	return s.writeAtomic(path, data)
}

func (s *Store) buildMetadata(set *core.InputSet, info EmbedderInfo) *core.Document {
	embedded := 0
	for _, item := range set.Items {
		if core.HasEmbedding(item) {
			embedded++
		}
	}

	meta := core.NewDocument()
	meta.Set(metaModel, info.Model)
	meta.Set(metaTextField, info.TextField)
	meta.Set(metaInputType, string(info.InputType))
	meta.Set(metaTotalItems, len(set.Items))
	meta.Set(metaEmbeddedCount, embedded)
	meta.Set(metaGeneratedAt, time.Now().UTC().Format(time.RFC3339))
	meta.Set(metaTool, core.ToolID())
	if info.ChunkSize > 0 {
		meta.Set(metaChunkSize, info.ChunkSize)
		meta.Set(metaChunkOverlap, info.ChunkOverlap)
	}
	return meta
}

func (s *Store) writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp output: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write output: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("sync output: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close output: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace output %s: %w", path, err)
	}
	return nil
}

// read loads and parses the output document at path. The second return
// is false for any failure: absent file, unreadable file, bad JSON.
func (s *Store) read(path string) (*core.Document, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	doc := core.NewDocument()
	if err := json.Unmarshal(data, doc); err != nil {
		s.logger.Debug("existing output is not valid JSON", "path", path, "err", err)
		return nil, false
	}
	return doc, true
}
