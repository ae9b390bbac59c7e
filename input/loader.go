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


package input

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/samadon1/cactus-embedder/chunk"
	"github.com/samadon1/cactus-embedder/core"
	"github.com/samadon1/cactus-embedder/pdf"
)

// Metadata field names recorded on PDF-derived chunks.
const (
	fieldText     = "text"
	fieldMetadata = "metadata"
)

// Loader normalizes input sources into core.InputSet values.
type Loader struct {
	extractor    pdf.Extractor
	chunkSize    int
	chunkOverlap int
	logger       *slog.Logger
}

// NewLoader creates a loader. The extractor is only used for PDF
// sources and may be nil for record-only use. Non-positive chunk
// settings fall back to the chunk package defaults.
func NewLoader(extractor pdf.Extractor, chunkSize, chunkOverlap int) *Loader {
	if chunkSize < 1 {
		chunkSize = chunk.DefaultSize
	}
	if chunkOverlap < 0 {
		chunkOverlap = chunk.DefaultOverlap
	}
	return &Loader{
		extractor:    extractor,
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		logger:       slog.Default().With("component", "loader"),
	}
}

// Load dispatches to the loader for the given input type.
func (l *Loader) Load(inputType core.InputType, path string) (*core.InputSet, error) {
	switch inputType {
	case core.InputTypeRecords:
		return l.LoadRecords(path)
	case core.InputTypePDF:
		return l.LoadPDF(path)
	case core.InputTypePDFDir:
		return l.LoadPDFDir(path)
	default:
		return nil, fmt.Errorf("unknown input type %q", inputType)
	}
}

// LoadRecords parses a structured JSON document. The document must hold
// an item array under one of the recognized keys (qa_pairs, items,
// chunks; first match in that priority order wins). All sibling
// top-level fields become pass-through metadata.
func (l *Loader) LoadRecords(path string) (*core.InputSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read input %s: %w", path, err)
	}

	doc := core.NewDocument()
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("parse input %s: %w", path, err)
	}

	itemsKey := ""
	for _, key := range core.ItemsKeys {
		if doc.Has(key) {
			itemsKey = key
			break
		}
	}
	if itemsKey == "" {
		return nil, fmt.Errorf("%s: %w", path, ErrNoItemsKey)
	}

	arr, err := doc.GetArray(itemsKey)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	items := make([]*core.Document, len(arr))
	for i, elem := range arr {
		item, ok := elem.(*core.Document)
		if !ok {
			return nil, fmt.Errorf("%s: %s[%d]: %w", path, itemsKey, i, ErrNotAnObject)
		}
		items[i] = item
	}

	metadata := doc.Clone()
	metadata.Delete(itemsKey)

	l.logger.Debug("loaded record source", "path", path, "items_key", itemsKey, "items", len(items))

	return &core.InputSet{
		ItemsKey:  itemsKey,
		Items:     items,
		Metadata:  metadata,
		InputType: core.InputTypeRecords,
	}, nil
}

// LoadPDF extracts and chunks one PDF document. Pages whose extracted
// text is empty after trimming are skipped; chunks never span page
// boundaries.
func (l *Loader) LoadPDF(path string) (*core.InputSet, error) {
	items, err := l.loadPDFChunks(path)
	if err != nil {
		return nil, err
	}

	return &core.InputSet{
		ItemsKey:     core.ItemsKeyChunks,
		Items:        items,
		Metadata:     core.NewDocument(),
		InputType:    core.InputTypePDF,
		ChunkSize:    l.chunkSize,
		ChunkOverlap: l.chunkOverlap,
	}, nil
}

// LoadPDFDir processes every PDF in dir through the single-document
// path, in lexicographic filename order, and concatenates the results.
func (l *Loader) LoadPDFDir(dir string) (*core.InputSet, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read directory %s: %w", dir, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ".pdf") {
			names = append(names, entry.Name())
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%s: %w", dir, ErrNoPDFs)
	}
	sort.Strings(names)

	var items []*core.Document
	for _, name := range names {
		chunks, err := l.loadPDFChunks(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		items = append(items, chunks...)
	}

	return &core.InputSet{
		ItemsKey:     core.ItemsKeyChunks,
		Items:        items,
		Metadata:     core.NewDocument(),
		InputType:    core.InputTypePDFDir,
		ChunkSize:    l.chunkSize,
		ChunkOverlap: l.chunkOverlap,
	}, nil
}

// loadPDFChunks extracts page texts and chunks them, producing chunk
// items with synthesized ids like "report_p3_c1".
func (l *Loader) loadPDFChunks(path string) ([]*core.Document, error) {
	doc, err := l.extractor.Open(path)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	name := filepath.Base(path)
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	totalPages := doc.PageCount()

	var items []*core.Document
	for page := 0; page < totalPages; page++ {
		text, err := doc.PageText(page)
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(text) == "" {
			continue
		}

		chunks := chunk.Split(text, l.chunkSize, l.chunkOverlap)
		for i, c := range chunks {
			item := core.NewDocument()
			item.Set(core.FieldID, fmt.Sprintf("%s_p%d_c%d", stem, page+1, i+1))
			item.Set(fieldText, c)

			meta := core.NewDocument()
			meta.Set("source_file", name)
			meta.Set("source_path", path)
			meta.Set("page", page+1)
			meta.Set("total_pages", totalPages)
			meta.Set("chunk_index", i+1)
			meta.Set("page_chunks", len(chunks))
			item.Set(fieldMetadata, meta)

			items = append(items, item)
		}
	}

	l.logger.Debug("chunked pdf", "path", path, "pages", totalPages, "chunks", len(items))
	return items, nil
}
