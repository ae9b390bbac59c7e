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


// Package checkpoint reads and writes the on-disk output document.
//
// Every save is a whole-document rewrite through a temp file and
// rename, so a reader never observes a partially written output. Reads
// are maximally forgiving: a missing or malformed output means "no
// prior progress", never an error, so a batch scan cannot be aborted
// by a bad file.
package checkpoint
