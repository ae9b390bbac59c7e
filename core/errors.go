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


package core

import "errors"

var (
	// ErrFieldMissing indicates a requested document field is absent.
	ErrFieldMissing = errors.New("field missing")

	// ErrFieldType indicates a document field has an unexpected type.
	ErrFieldType = errors.New("field has wrong type")

	// ErrNotObject indicates decoded JSON was not an object.
	ErrNotObject = errors.New("not a JSON object")
)
