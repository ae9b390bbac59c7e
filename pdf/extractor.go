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


package pdf

// Document is an open PDF ready for page-level text extraction.
type Document interface {
	// PageCount returns the number of pages in the document.
	PageCount() int

	// PageText extracts the plain text of the page at the given
	// zero-based index.
	PageText(pageIndex int) (string, error)

	// Close releases the underlying file handle.
	Close() error
}

// Extractor opens PDF documents for text extraction.
type Extractor interface {
	// Open opens the document at path. A document the extractor cannot
	// open is a fatal error for that file.
	Open(path string) (Document, error)
}
