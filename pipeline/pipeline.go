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

	"github.com/google/uuid"
	"github.com/samadon1/cactus-embedder/ai"
	"github.com/samadon1/cactus-embedder/checkpoint"
	"github.com/samadon1/cactus-embedder/core"
	"github.com/samadon1/cactus-embedder/input"
)

// Pipeline runs one input set through the embedding provider item by
// item: resumed items keep their saved embedding, items without usable
// text pass through unmodified, and a single item's failure never
// aborts the run. Progress persists at a fixed interval and always at
// the end.
type Pipeline struct {
	loader   *input.Loader
	store    *checkpoint.Store
	provider ai.Provider
	config   *Config
	observer Observer
	logger   *slog.Logger
}

// Result reports the outcome of one run. Every item falls in exactly
// one bucket; Total is their sum.
type Result struct {
	// Total is the item count, fixed at load time.
	Total int

	// Embedded counts items newly embedded in this run.
	Embedded int

	// Resumed counts items that already carried an embedding, either
	// from the existing output or from the input itself.
	Resumed int

	// Skipped counts items whose text field was missing or empty.
	Skipped int

	// Failed counts items whose embedding call failed after retries.
	Failed int
}

// NewPipeline creates a pipeline. A nil config uses DefaultConfig; a
// nil observer discards progress updates.
func NewPipeline(loader *input.Loader, store *checkpoint.Store, provider ai.Provider, config *Config, observer Observer) *Pipeline {
	if config == nil {
		config = DefaultConfig()
	}
	if observer == nil {
		observer = NopObserver{}
	}
	return &Pipeline{
		loader:   loader,
		store:    store,
		provider: provider,
		config:   config,
		observer: observer,
		logger:   slog.Default().With("component", "pipeline"),
	}
}

// Run loads the source at inputPath and embeds it into outputPath.
//
// Fatal errors (unreadable source, unparseable source, checkpoint
// write failure, cancellation) abort the run; the output keeps
// whatever was last checkpointed. Per-item failures are logged,
// counted in Result.Failed, and never escalate.
func (p *Pipeline) Run(ctx context.Context, inputType core.InputType, inputPath, outputPath string) (*Result, error) {
	logger := p.logger.With("run_id", uuid.NewString(), "input", inputPath)

	// Loading
	set, err := p.loader.Load(inputType, inputPath)
	if err != nil {
		return nil, err
	}

	// Resuming
	existing := map[string]*core.Document{}
	if p.config.Resume {
		existing = p.store.LoadExisting(outputPath, set.ItemsKey)
	}

	info := checkpoint.EmbedderInfo{
		Model:        p.provider.Model(),
		TextField:    p.config.TextField,
		InputType:    set.InputType,
		ChunkSize:    set.ChunkSize,
		ChunkOverlap: set.ChunkOverlap,
	}

	result := &Result{Total: len(set.Items)}
	logger.Info("starting embedding run",
		"items", result.Total, "resumable", len(existing), "text_field", p.config.TextField)

	// Embedding
	if err := p.embed(ctx, set, existing, outputPath, info, result); err != nil {
		return result, err
	}

	// Saving: unconditional, idempotent on a fully-resumed run
	if err := p.store.Save(outputPath, set, info); err != nil {
		return result, fmt.Errorf("save output %s: %w", outputPath, err)
	}

	// Done
	logger.Info("embedding run complete",
		"total", result.Total, "embedded", result.Embedded, "resumed", result.Resumed,
		"skipped", result.Skipped, "failed", result.Failed)
	return result, nil
}

func (p *Pipeline) embed(ctx context.Context, set *core.InputSet, existing map[string]*core.Document, outputPath string, info checkpoint.EmbedderInfo, result *Result) error {
	embedder := p.provider.Embedder()
	total := len(set.Items)
	processed := 0
	sinceCheckpoint := 0

	for i, item := range set.Items {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		id := core.ItemID(item, i)

		// Substitute the previously saved item in place so output
		// order stays the input order.
		if prev, ok := existing[id]; ok {
			set.Items[i] = prev
			result.Resumed++
			processed++
			continue
		}

		// An embedding present on the input itself is never
		// recomputed or overwritten.
		if core.HasEmbedding(item) {
			result.Resumed++
			processed++
			continue
		}

		text := core.ItemText(item, p.config.TextField)
		if text == "" {
			result.Skipped++
			processed++
			continue
		}

		vector, err := p.embedText(ctx, embedder, text)
		processed++
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.logger.Warn("embedding failed, item passes through unembedded", "id", id, "err", err)
			result.Failed++
			p.observer.Progress(processed, total, fmt.Sprintf("failed %s", id))
			continue
		}

		core.SetEmbedding(item, vector)
		result.Embedded++
		sinceCheckpoint++
		p.observer.Progress(processed, total, fmt.Sprintf("embedded %s", id))

		if sinceCheckpoint >= p.config.BatchSize {
			if err := p.store.Save(outputPath, set, info); err != nil {
				return fmt.Errorf("checkpoint %s: %w", outputPath, err)
			}
			sinceCheckpoint = 0
			p.observer.Progress(processed, total, "checkpoint saved")
		}
	}
	return nil
}

func (p *Pipeline) embedText(ctx context.Context, embedder ai.Embedder, text string) ([]float32, error) {
	var vector []float32
	err := RetryWithBackoff(ctx, func() error {
		var err error
		vector, err = embedder.EmbedText(ctx, text)
		return err
	}, p.config.MaxRetries, p.config.RetryDelay)
	if err != nil {
		return nil, err
	}
	return vector, nil
}
