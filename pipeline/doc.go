// Package pipeline drives input sets through the embedding provider
// item by item, with resume skip, periodic checkpointing, and per-item
// failure isolation, plus batch orchestration over directories of
// input files.
//
// This package supports progress observation, retry logic with
// exponential backoff, and interval checkpointing so multi-hour jobs
// survive interruption without redoing completed work.
package pipeline
