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


package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/samadon1/cactus-embedder/ai"
	"github.com/samadon1/cactus-embedder/ai/openai"
	"github.com/samadon1/cactus-embedder/checkpoint"
	"github.com/samadon1/cactus-embedder/core"
	"github.com/samadon1/cactus-embedder/input"
	"github.com/samadon1/cactus-embedder/pdf"
	"github.com/samadon1/cactus-embedder/pipeline"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:    core.ToolName,
		Usage:   "Batch embedding generator with checkpointed resume",
		Version: core.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setup,
		Commands: []*cli.Command{
			{
				Name:   "embed",
				Usage:  "Embed a single input file into an output document",
				Action: embedCommand,
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:     "input",
						Aliases:  []string{"i"},
						Usage:    "Path to the input file or PDF directory",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "output",
						Aliases:  []string{"o"},
						Usage:    "Path to the output JSON document",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "input-type",
						Usage: "Input type (json, pdf, pdf_directory)",
						Value: string(core.InputTypeRecords),
					},
					&cli.IntFlag{
						Name:  "chunk-size",
						Usage: "Maximum chunk length in characters for PDF sources",
						Value: 1000,
					},
					&cli.IntFlag{
						Name:  "chunk-overlap",
						Usage: "Overlap between consecutive chunks for PDF sources",
						Value: 200,
					},
				}, embeddingFlags()...),
			},
			{
				Name:   "batch",
				Usage:  "Embed every JSON file in a directory",
				Action: batchCommand,
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:     "input-dir",
						Aliases:  []string{"i"},
						Usage:    "Directory containing input JSON files",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "output-dir",
						Aliases:  []string{"o"},
						Usage:    "Directory for output documents",
						Required: true,
					},
				}, embeddingFlags()...),
			},
			{
				Name:   "inspect",
				Usage:  "Report an output document's embedding status",
				Action: inspectCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "output",
						Aliases:  []string{"o"},
						Usage:    "Path to the output JSON document",
						Required: true,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// embeddingFlags are shared by the embed and batch commands.
func embeddingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "embedding-host",
			Usage: "Embedding service host URL",
			Value: "http://localhost:11434/v1",
		},
		&cli.StringFlag{
			Name:     "embedding-model",
			Aliases:  []string{"m"},
			Usage:    "Embedding model name",
			Required: true,
		},
		&cli.StringFlag{
			Name:    "api-token",
			Usage:   "Embedding service API token",
			EnvVars: []string{"EMBEDDING_API_TOKEN", "OPENAI_API_KEY"},
		},
		&cli.StringFlag{
			Name:  "text-field",
			Usage: "Item field holding the text to embed",
			Value: "text",
		},
		&cli.IntFlag{
			Name:  "batch-size",
			Usage: "Checkpoint after every N newly embedded items",
			Value: 100,
		},
		&cli.BoolFlag{
			Name:  "no-resume",
			Usage: "Ignore existing output and re-embed everything",
		},
		&cli.IntFlag{
			Name:  "max-retries",
			Usage: "Maximum retry attempts for failed embedding calls",
			Value: 3,
		},
		&cli.DurationFlag{
			Name:  "retry-delay",
			Usage: "Base delay for exponential backoff",
			Value: 1 * time.Second,
		},
		&cli.IntFlag{
			Name:  "report-interval",
			Usage: "Report progress every N items",
			Value: 10,
		},
	}
}

func embedCommand(c *cli.Context) error {
	ctx, stop := signalContext()
	defer stop()

	inputType, err := parseInputType(c.String("input-type"))
	if err != nil {
		return err
	}

	config, err := pipelineConfig(c)
	if err != nil {
		return err
	}

	provider, err := newProvider(c)
	if err != nil {
		return err
	}
	defer provider.Close()

	loader := input.NewLoader(pdf.NewExtractor(), c.Int("chunk-size"), c.Int("chunk-overlap"))
	tracker := pipeline.NewProgressTracker(os.Stderr, c.Int("report-interval"))
	pipe := pipeline.NewPipeline(loader, checkpoint.NewStore(), provider, config, tracker)

	fmt.Fprintf(os.Stderr, "Input: %s (%s)\n", c.String("input"), inputType)
	fmt.Fprintf(os.Stderr, "Output: %s\n", c.String("output"))
	fmt.Fprintf(os.Stderr, "Embedding host: %s\n", c.String("embedding-host"))
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", c.String("embedding-model"))
	fmt.Fprintln(os.Stderr)

	tracker.Start()
	result, err := pipe.Run(ctx, inputType, c.String("input"), c.String("output"))
	tracker.Finish()
	if err != nil {
		return fmt.Errorf("embedding failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Done in %s: %d items, %d embedded, %d resumed, %d skipped, %d failed\n",
		tracker.Elapsed().Round(time.Millisecond),
		result.Total, result.Embedded, result.Resumed, result.Skipped, result.Failed)
	return nil
}

func batchCommand(c *cli.Context) error {
	ctx, stop := signalContext()
	defer stop()

	config, err := pipelineConfig(c)
	if err != nil {
		return err
	}

	provider, err := newProvider(c)
	if err != nil {
		return err
	}
	defer provider.Close()

	loader := input.NewLoader(nil, 0, 0)
	tracker := pipeline.NewProgressTracker(os.Stderr, c.Int("report-interval"))
	batch := pipeline.NewBatch(loader, checkpoint.NewStore(), provider, config, tracker)

	fmt.Fprintf(os.Stderr, "Input directory: %s\n", c.String("input-dir"))
	fmt.Fprintf(os.Stderr, "Output directory: %s\n", c.String("output-dir"))
	fmt.Fprintf(os.Stderr, "Embedding host: %s\n", c.String("embedding-host"))
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", c.String("embedding-model"))
	fmt.Fprintln(os.Stderr)

	tracker.Start()
	result, err := batch.Run(ctx, c.String("input-dir"), c.String("output-dir"))
	tracker.Finish()
	if err != nil {
		return fmt.Errorf("batch failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Done in %s: %d files (%d already complete), %d items, %d embedded\n",
		tracker.Elapsed().Round(time.Millisecond),
		result.Files, result.SkippedFiles, result.Items, result.Embedded)
	return nil
}

func inspectCommand(c *cli.Context) error {
	path := c.String("output")
	store := checkpoint.NewStore()

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read output %s: %w", path, err)
	}

	doc := core.NewDocument()
	if err := json.Unmarshal(data, doc); err != nil {
		return fmt.Errorf("parse output %s: %w", path, err)
	}

	meta, err := doc.GetDocument(checkpoint.MetadataKey)
	if err != nil {
		return fmt.Errorf("output %s has no embedder metadata", path)
	}

	fmt.Printf("File: %s\n", path)
	for _, key := range meta.Keys() {
		value, _ := meta.Get(key)
		fmt.Printf("  %s: %v\n", key, value)
	}

	if store.IsComplete(path) {
		fmt.Println("Status: complete")
	} else {
		fmt.Println("Status: incomplete")
	}
	return nil
}

func pipelineConfig(c *cli.Context) (*pipeline.Config, error) {
	config := &pipeline.Config{
		TextField:  c.String("text-field"),
		BatchSize:  c.Int("batch-size"),
		Resume:     !c.Bool("no-resume"),
		MaxRetries: c.Int("max-retries"),
		RetryDelay: c.Duration("retry-delay"),
	}

	if config.TextField == "" {
		return nil, fmt.Errorf("text-field must not be empty")
	}
	if config.BatchSize <= 0 {
		return nil, fmt.Errorf("batch-size must be greater than 0")
	}
	if config.MaxRetries <= 0 {
		return nil, fmt.Errorf("max-retries must be greater than 0")
	}
	return config, nil
}

func newProvider(c *cli.Context) (ai.Provider, error) {
	aiConfig := ai.NewConfig(
		ai.WithHost(c.String("embedding-host")),
		ai.WithModel(c.String("embedding-model")),
		ai.WithToken(c.String("api-token")),
	)
	aiConfig.Normalize()
	if err := aiConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid embedding configuration: %w", err)
	}

	provider, err := openai.NewProvider(aiConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding provider: %w", err)
	}
	return provider, nil
}

func parseInputType(s string) (core.InputType, error) {
	switch core.InputType(strings.ToLower(s)) {
	case core.InputTypeRecords:
		return core.InputTypeRecords, nil
	case core.InputTypePDF:
		return core.InputTypePDF, nil
	case core.InputTypePDFDir:
		return core.InputTypePDFDir, nil
	}
	return "", fmt.Errorf("invalid input type %q: must be one of json, pdf, pdf_directory", s)
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func setup(c *cli.Context) error {
	// Optional .env for API tokens; absence is not an error.
	_ = godotenv.Load()

	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
