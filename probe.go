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

// splitHash derives a bucket index and a 24-bit fingerprint from a 64-bit
// hash. The index comes from the low bits (masked to the current table
// size) and the fingerprint from a disjoint set of high bits, so that
// resizing (which only changes how many low bits of the index are used)
// does not correlate with the fingerprint stored per bucket.
func (t *Table[K, V]) splitHash(h uint64) (home uint32, fp uint32) {
	home = uint32(h) & t.mask
	fp = uint32(h>>32) & uint32(hashMask)
	return home, fp
}

// find walks the probe sequence for key starting at its home bucket,
// relying on the Robin Hood invariant that an occupant's PSL never exceeds
// the distance of any key that could still be found ahead of it: once a
// bucket's PSL is smaller than the number of steps taken, key cannot be
// present further along the sequence.
func (t *Table[K, V]) find(key K) (idx uint32, found bool) {
	h := t.hash(key)
	home, fp := t.splitHash(h)
	idx = home
	dist := 0
	for {
		b := t.buckets[idx]
		if !b.occupied() || b.psl() < dist {
			return 0, false
		}
		if b.hash24() == fp && t.eq(t.entries[idx].key, key) {
			return idx, true
		}
		idx = (idx + 1) & t.mask
		dist++
	}
}

// insertWouldExceedPSLLimit simulates the Robin Hood displacement cascade
// that inserting a new entry at home (with fingerprint fp) would cause,
// without mutating the table, and reports whether any resulting occupant
// would need a PSL greater than pslLimit. The walk only reads bucket
// metadata, so it is safe to run before committing to a real insert.
func (t *Table[K, V]) insertWouldExceedPSLLimit(home uint32, fp uint32) bool {
	idx := home
	dist := 0
	limit := int(t.pslLimit)
	for {
		if dist > limit {
			return true
		}
		b := t.buckets[idx]
		if !b.occupied() {
			return false
		}
		if b.psl() < dist {
			dist = b.psl()
		}
		dist++
		idx = (idx + 1) & t.mask
	}
}

// insertAt performs the Robin Hood displacement cascade for a new
// (key, value) known to be absent from the table and known, via
// insertWouldExceedPSLLimit, not to violate the PSL limit.
func (t *Table[K, V]) insertAt(home uint32, fp uint32, key K, value V) {
	insertCascade(t.buckets, t.entries, t.mask, home, fp, key, value)
	t.count++
}

// insertCascade performs the Robin Hood displacement cascade against an
// arbitrary bucket/entry array pair: whenever the carried entry has probed
// farther from home than the occupant of a candidate slot, it "steals"
// that slot and the displaced occupant continues the walk in its place.
// It is shared by normal inserts (against a table's own arrays) and by
// growth's rehash pass (against the freshly allocated, larger arrays,
// before they are installed on the table).
func insertCascade[K comparable, V any](buckets []bucketMeta, entries []entry[K, V], mask uint32, home uint32, fp uint32, key K, value V) {
	idx := home
	dist := 0
	curFP := fp
	curKey, curVal := key, value
	for {
		b := buckets[idx]
		if !b.occupied() {
			buckets[idx] = newBucketMeta(curFP, dist)
			entries[idx] = entry[K, V]{curKey, curVal}
			return
		}
		if b.psl() < dist {
			exEntry := entries[idx]
			exFP, exDist := b.hash24(), b.psl()

			buckets[idx] = newBucketMeta(curFP, dist)
			entries[idx] = entry[K, V]{curKey, curVal}

			curFP = exFP
			curKey, curVal = exEntry.key, exEntry.value
			dist = exDist
		}
		dist++
		idx = (idx + 1) & mask
	}
}
