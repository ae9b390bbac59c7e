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


// Package input normalizes the supported source shapes (a JSON record
// document, a single PDF, or a directory of PDFs) into a uniform
// core.InputSet.
//
// Load failures here are fatal for the run: a source that cannot be
// read or parsed leaves nothing to embed.
package input
