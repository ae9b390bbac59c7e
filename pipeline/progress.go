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
	"fmt"
	"io"
	"sync"
	"time"
)

// Observer receives progress updates from a run. It is a passive sink:
// the pipeline functions identically with no observer attached, and an
// observer must never influence correctness.
type Observer interface {
	// Progress reports the processed and total item counts with a
	// short status message. In batch mode the total may be a rough
	// estimate until every file is loaded.
	Progress(processed, total int, status string)
}

// NopObserver discards all updates.
type NopObserver struct{}

// Progress implements Observer.
func (NopObserver) Progress(int, int, string) {}

// ProgressTracker is an Observer that writes throttled progress lines
// to a writer (typically os.Stderr).
type ProgressTracker struct {
	writer         io.Writer
	reportInterval int
	current        int
	total          int
	lastReported   int
	lastStatus     string
	startTime      time.Time
	started        bool
	mu             sync.Mutex
}

var _ Observer = (*ProgressTracker)(nil)

// NewProgressTracker creates a progress tracker.
// writer: where to write progress output (typically os.Stderr)
// reportInterval: report progress every N items
func NewProgressTracker(writer io.Writer, reportInterval int) *ProgressTracker {
	if reportInterval <= 0 {
		reportInterval = 1
	}
	return &ProgressTracker{
		writer:         writer,
		reportInterval: reportInterval,
	}
}

// Start begins tracking progress.
func (p *ProgressTracker) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.startTime = time.Now()
	p.started = true
	p.current = 0
	p.total = 0
	p.lastReported = 0
	p.lastStatus = ""
}

// Progress implements Observer. Output is throttled to one line per
// reportInterval items.
func (p *ProgressTracker) Progress(processed, total int, status string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return
	}

	p.current = processed
	p.total = total
	p.lastStatus = status

	if p.current-p.lastReported >= p.reportInterval {
		p.report()
		p.lastReported = p.current
	}
}

// Finish prints the final progress line and a trailing newline.
func (p *ProgressTracker) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return
	}

	p.report()
	fmt.Fprintln(p.writer)
}

// Elapsed returns the time elapsed since Start was called.
func (p *ProgressTracker) Elapsed() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return 0
	}

	return time.Since(p.startTime)
}

// report prints the current progress. Must be called with lock held.
func (p *ProgressTracker) report() {
	elapsed := time.Since(p.startTime)
	rate := float64(p.current) / elapsed.Seconds()

	percentage := 0.0
	if p.total > 0 {
		percentage = float64(p.current) / float64(p.total) * 100.0
	}

	fmt.Fprintf(p.writer, "\rProgress: %d/%d (%.1f%%) - %.1f items/s - %s",
		p.current, p.total, percentage, rate, p.lastStatus)
}
