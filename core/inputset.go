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

// ItemsKeys lists the recognized top-level array fields of a record
// source, in priority order. The first key present in the source wins.
var ItemsKeys = []string{"qa_pairs", "items", "chunks"}

// ItemsKeyChunks is the items key used for PDF-derived input sets.
const ItemsKeyChunks = "chunks"

// InputType identifies the shape of an input source.
type InputType string

const (
	// InputTypeRecords is a single structured JSON document holding an
	// item array under one of ItemsKeys.
	InputTypeRecords InputType = "json"

	// InputTypePDF is a single PDF document, chunked per page.
	InputTypePDF InputType = "pdf"

	// InputTypePDFDir is a directory of PDF documents processed in
	// lexicographic filename order.
	InputTypePDFDir InputType = "pdf_directory"
)

// InputSet is the uniform shape every source loads into: an ordered item
// list, the key the items serialize under, and the source's sibling
// top-level fields carried through untouched.
//
// An InputSet is constructed fresh per run and is immutable after
// loading except for the embeddings field the pipeline attaches to items.
type InputSet struct {
	// ItemsKey is the field the items array serializes under.
	ItemsKey string

	// Items in source order. Output order always equals this order.
	Items []*Document

	// Metadata holds pass-through top-level fields from the source
	// document, in their original order. Empty for PDF sources.
	Metadata *Document

	// InputType records which loader produced this set.
	InputType InputType

	// ChunkSize and ChunkOverlap record the chunker settings used for
	// PDF sources. Zero for record sources.
	ChunkSize    int
	ChunkOverlap int
}
