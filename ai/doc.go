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


// Package ai provides the embedding-provider abstraction the pipeline
// depends on.
//
// The pipeline and orchestrator depend only on the Embedder and
// Provider interfaces defined here; the openai subpackage implements
// them against any OpenAI-compatible embeddings API, and the mock
// subpackage provides deterministic test doubles.
//
// A Provider is expected to be initialized exactly once per job and
// closed when the job ends; initialization may download or load a
// model and is assumed to be expensive.
package ai
