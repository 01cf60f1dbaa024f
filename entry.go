// Copyright 2024 The Cockroach Authors
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

package rht

import "unsafe"

// maxEntrySize bounds the combined size of a key and value: entries
// larger than this are rejected at construction rather than silently
// accepted and paid for on every probe.
const maxEntrySize = 16384

// entry is a stored key/value pair.
type entry[K comparable, V any] struct {
	key   K
	value V
}

func entrySizeOf[K comparable, V any]() uintptr {
	var e entry[K, V]
	return unsafe.Sizeof(e)
}
