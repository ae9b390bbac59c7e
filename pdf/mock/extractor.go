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


// Package mock provides an in-memory test double for the pdf package.
package mock

import (
	"fmt"

	"github.com/samadon1/cactus-embedder/pdf"
)

// MockExtractor is a test double for pdf.Extractor backed by an
// in-memory map of file path to page texts.
type MockExtractor struct {
	// Pages maps a document path to its pages' text.
	Pages map[string][]string

	// OpenErr, if set, is returned by Open for every path.
	OpenErr error

	// PageErrs maps a path to an error returned by PageText on any page.
	PageErrs map[string]error
}

var _ pdf.Extractor = (*MockExtractor)(nil)

// NewMockExtractor creates an empty mock extractor.
func NewMockExtractor() *MockExtractor {
	return &MockExtractor{
		Pages: make(map[string][]string),
	}
}

// Open returns a mock document for path, or an error if the path is
// unknown or OpenErr is set.
func (m *MockExtractor) Open(path string) (pdf.Document, error) {
	if m.OpenErr != nil {
		return nil, m.OpenErr
	}
	pages, ok := m.Pages[path]
	if !ok {
		return nil, fmt.Errorf("open pdf %s: no such document", path)
	}
	return &mockDocument{pages: pages, pageErr: m.PageErrs[path]}, nil
}

type mockDocument struct {
	pages   []string
	pageErr error
}

func (d *mockDocument) PageCount() int {
	return len(d.pages)
}

func (d *mockDocument) PageText(pageIndex int) (string, error) {
	if d.pageErr != nil {
		return "", d.pageErr
	}
	if pageIndex < 0 || pageIndex >= len(d.pages) {
		return "", fmt.Errorf("page %d out of range", pageIndex)
	}
	return d.pages[pageIndex], nil
}

func (d *mockDocument) Close() error {
	return nil
}
