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


// Package core defines the domain model shared by every other package:
// an order-preserving JSON document type, item identity and embedding
// helpers, and the input set produced by the loaders.
//
// Items are loosely-typed records whose unknown fields must survive a
// load/save round trip untouched, in their original order. Document keeps
// keys in insertion order and decodes numbers as json.Number so that
// values written back to disk match what was read.
package core
