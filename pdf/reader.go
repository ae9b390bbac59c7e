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

import (
	"fmt"
	"os"

	"github.com/ledongthuc/pdf"
)

// FileExtractor implements Extractor over PDF files on disk.
type FileExtractor struct{}

var _ Extractor = FileExtractor{}

// NewExtractor creates an extractor for PDF files.
func NewExtractor() Extractor {
	return FileExtractor{}
}

// Open opens the PDF at path.
func (FileExtractor) Open(path string) (Document, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", path, err)
	}
	return &fileDocument{file: f, reader: r}, nil
}

type fileDocument struct {
	file   *os.File
	reader *pdf.Reader
}

func (d *fileDocument) PageCount() int {
	return d.reader.NumPage()
}

func (d *fileDocument) PageText(pageIndex int) (string, error) {
	// ledongthuc/pdf numbers pages from 1
	page := d.reader.Page(pageIndex + 1)
	if page.V.IsNull() {
		return "", nil
	}
	text, err := page.GetPlainText(nil)
	if err != nil {
		return "", fmt.Errorf("extract page %d: %w", pageIndex, err)
	}
	return text, nil
}

func (d *fileDocument) Close() error {
	return d.file.Close()
}
