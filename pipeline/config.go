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

import "time"

// Config holds configuration for an embedding run.
type Config struct {
	// TextField is the item field whose value is embedded.
	TextField string

	// BatchSize is the checkpoint interval: the output document is
	// persisted after every BatchSize newly embedded items.
	BatchSize int

	// Resume skips items whose identifier already has a saved
	// embedding in the output document.
	Resume bool

	// MaxRetries is the maximum number of attempts for a single
	// item's embedding call before the item passes through unembedded.
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff between
	// attempts.
	RetryDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		TextField:  "text",
		BatchSize:  100,
		Resume:     true,
		MaxRetries: 3,
		RetryDelay: 1 * time.Second,
	}
}
