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


package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/samadon1/cactus-embedder/ai"
	"github.com/samadon1/cactus-embedder/checkpoint"
	"github.com/samadon1/cactus-embedder/core"
	"github.com/samadon1/cactus-embedder/input"
)

// OutputSuffix is appended to an input file's stem to form its output
// file name.
const OutputSuffix = "_embedded.json"

const (
	// estimatedItemsPerFile feeds the batch-mode progress estimate for
	// files that haven't loaded yet. Display only, never a
	// correctness signal.
	estimatedItemsPerFile = 100

	// scanWorkers bounds the completeness pre-scan pool. The scan is
	// read-only; embedding itself stays strictly sequential.
	scanWorkers = 8
)

// Batch enumerates the record-source files of a directory, maps each
// to an independent output file, skips the fully completed, and runs
// the pipeline over the rest with one shared provider instance.
type Batch struct {
	store    *checkpoint.Store
	pipeline *Pipeline
	progress *batchProgress
	logger   *slog.Logger
}

// BatchResult aggregates counters across files. They exist for
// reporting only; each file's correctness is self-contained in its own
// output document.
type BatchResult struct {
	// Files is the number of input files discovered.
	Files int

	// SkippedFiles counts files whose output was already complete.
	SkippedFiles int

	// CompletedFiles counts files processed in this run.
	CompletedFiles int

	// Items and Embedded sum the per-file result counters.
	Items    int
	Embedded int
}

// NewBatch creates a batch orchestrator sharing one provider across
// all files. A nil config uses DefaultConfig; a nil observer discards
// progress updates.
func NewBatch(loader *input.Loader, store *checkpoint.Store, provider ai.Provider, config *Config, observer Observer) *Batch {
	if observer == nil {
		observer = NopObserver{}
	}
	progress := &batchProgress{base: observer}
	return &Batch{
		store:    store,
		pipeline: NewPipeline(loader, store, provider, config, progress),
		progress: progress,
		logger:   slog.Default().With("component", "batch"),
	}
}

// Run processes every .json file in inputDir sequentially, in
// lexicographic order, writing each file's output to outputDir.
//
// A fatal error in any file stops the batch; completed files and the
// failing file's last checkpoint are preserved.
func (b *Batch) Run(ctx context.Context, inputDir, outputDir string) (*BatchResult, error) {
	files, err := discoverInputs(inputDir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory %s: %w", outputDir, err)
	}

	outputs := make([]string, len(files))
	for i, f := range files {
		outputs[i] = OutputPath(outputDir, f)
	}

	result := &BatchResult{Files: len(files)}
	complete := b.scanComplete(outputs)

	remaining := 0
	for i := range files {
		if complete[i] {
			result.SkippedFiles++
		} else {
			remaining++
		}
	}
	b.logger.Info("batch discovered inputs",
		"dir", inputDir, "files", len(files), "complete", result.SkippedFiles, "remaining", remaining)

	for i, file := range files {
		if complete[i] {
			continue
		}
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		b.progress.beginFile(remaining)
		res, err := b.pipeline.Run(ctx, core.InputTypeRecords, filepath.Join(inputDir, file), outputs[i])
		if err != nil {
			return result, fmt.Errorf("file %s: %w", file, err)
		}

		b.progress.endFile(res.Total)
		remaining--
		result.CompletedFiles++
		result.Items += res.Total
		result.Embedded += res.Embedded
	}

	b.logger.Info("batch complete",
		"files", result.Files, "skipped", result.SkippedFiles,
		"processed", result.CompletedFiles, "items", result.Items, "embedded", result.Embedded)
	return result, nil
}

// OutputPath returns the deterministic output path for an input file
// name: its stem plus OutputSuffix, inside outputDir.
func OutputPath(outputDir, inputName string) string {
	stem := strings.TrimSuffix(inputName, filepath.Ext(inputName))
	return filepath.Join(outputDir, stem+OutputSuffix)
}

// scanComplete checks output completeness for every file before any
// embedding work begins. Checks are independent reads, so they run on
// a small worker pool; cost stays O(files), not O(items).
func (b *Batch) scanComplete(outputs []string) []bool {
	complete := make([]bool, len(outputs))

	size := scanWorkers
	if len(outputs) < size {
		size = len(outputs)
	}
	if size < 1 {
		return complete
	}

	pool, err := ants.NewPool(size)
	if err != nil {
		// Fall back to a sequential scan rather than failing the batch.
		for i, out := range outputs {
			complete[i] = b.store.IsComplete(out)
		}
		return complete
	}
	defer pool.Release()

	var wg sync.WaitGroup
	for i := range outputs {
		i := i
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			complete[i] = b.store.IsComplete(outputs[i])
		}); err != nil {
			wg.Done()
			complete[i] = b.store.IsComplete(outputs[i])
		}
	}
	wg.Wait()
	return complete
}

func discoverInputs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read input directory %s: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ".json") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

// batchProgress translates per-file pipeline progress into cumulative
// batch progress. The displayed total is an estimate (completed items
// plus a fixed per-file guess for unloaded files, refined as each file
// loads) and is never used for correctness.
type batchProgress struct {
	base           Observer
	mu             sync.Mutex
	completedItems int
	remainingFiles int
}

var _ Observer = (*batchProgress)(nil)

func (bp *batchProgress) beginFile(remaining int) {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	bp.remainingFiles = remaining
}

func (bp *batchProgress) endFile(items int) {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	bp.completedItems += items
	if bp.remainingFiles > 0 {
		bp.remainingFiles--
	}
}

func (bp *batchProgress) Progress(processed, total int, status string) {
	bp.mu.Lock()
	// The current file's true total replaces its share of the estimate.
	estimate := bp.completedItems + total
	if bp.remainingFiles > 1 {
		estimate += (bp.remainingFiles - 1) * estimatedItemsPerFile
	}
	cumulative := bp.completedItems + processed
	bp.mu.Unlock()

	bp.base.Progress(cumulative, estimate, status)
}
