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

// removeAt deletes the occupant of bucket idx and closes the gap by
// shifting each subsequent run of displaced entries (PSL > 0) back by one
// slot, decrementing their PSL as they move, until an empty bucket or a
// bucket already at its own home (PSL == 0) is reached. This is the
// backward-shift deletion companion to Robin Hood insertion: it preserves
// the invariant that every occupant's PSL equals its distance from its
// home bucket without leaving a tombstone behind.
//
// The loop's index arithmetic wraps modulo the table size via mask, so a
// run that crosses the end of the array is handled the same way as one
// that doesn't; there is no separate wrap-around case to special-case.
func (t *Table[K, V]) removeAt(hole uint32) {
	idx := hole
	next := (idx + 1) & t.mask
	for {
		b := t.buckets[next]
		if !b.occupied() || b.psl() == 0 {
			break
		}
		t.buckets[idx] = b.withPSL(b.psl() - 1)
		t.entries[idx] = t.entries[next]
		idx = next
		next = (next + 1) & t.mask
	}
	t.clearBucket(idx)
	t.count--
}
