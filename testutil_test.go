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

import "hash/maphash"

var testSeed = maphash.MakeSeed()

func intHash(key int) uint64 {
	var h maphash.Hash
	h.SetSeed(testSeed)
	b := [8]byte{
		byte(key), byte(key >> 8), byte(key >> 16), byte(key >> 24),
		byte(key >> 32), byte(key >> 40), byte(key >> 48), byte(key >> 56),
	}
	h.Write(b[:])
	return h.Sum64()
}

func intEq(a, b int) bool { return a == b }

func stringHash(key string) uint64 {
	var h maphash.Hash
	h.SetSeed(testSeed)
	h.WriteString(key)
	return h.Sum64()
}

func stringEq(a, b string) bool { return a == b }

// constantHash returns a HashFunc that ignores its argument, useful for
// exercising the PSL-limit guard and the growth manager's behavior under
// maximally adversarial collisions.
func constantHash[K comparable](v uint64) HashFunc[K] {
	return func(K) uint64 { return v }
}

// toBuiltinMap drains t's entries into a map[K]V via a read-only iterator,
// for cross-checking against a reference map[K]V in tests.
func toBuiltinMap[K comparable, V any](t *Table[K, V]) map[K]V {
	out := make(map[K]V)
	it, err := t.Iterator(ReadOnly)
	if err != nil {
		panic(err)
	}
	defer it.Close()
	for {
		k, v, ok := it.Next()
		if !ok {
			break
		}
		out[k] = v
	}
	return out
}
