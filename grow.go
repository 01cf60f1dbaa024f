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

// grow doubles the table's bucket count, walks the existing buckets in
// index order reinserting each occupant into the new arrays, and installs
// the result. It performs exactly one allocation of each array and frees
// the old ones through the configured Allocator. A table already at the
// maximum size (1<<24 buckets) cannot grow further and returns ErrTooBig.
func (t *Table[K, V]) grow() error {
	newTsize := t.tsize() * 2
	if newTsize == 0 {
		newTsize = 1
	}
	if newTsize > maxTsize {
		return t.recordErr(newError(ErrTooBig, "table already at maximum size %d", maxTsize))
	}

	newBuckets, newEntries, err := t.allocArrays(newTsize)
	if err != nil {
		return t.recordErr(err)
	}
	newMask := newTsize - 1

	for idx, b := range t.buckets {
		if !b.occupied() {
			continue
		}
		e := t.entries[idx]
		home, fp := splitHashForMask(t.hash(e.key), newMask)
		insertCascade(newBuckets, newEntries, newMask, home, fp, e.key, e.value)
	}

	oldBuckets, oldEntries := t.buckets, t.entries
	t.buckets = newBuckets
	t.entries = newEntries
	t.mask = newMask
	t.thold = newTsize * uint32(t.loadFactorPct) / 100

	t.allocator.FreeBuckets(oldBuckets)
	t.allocator.FreeEntries(oldEntries)

	t.debugTrace("grow: tsize %d -> %d, count %d", len(oldBuckets), newTsize, t.count)
	return nil
}

// splitHashForMask is splitHash against an explicit mask rather than the
// table's current one, used while computing homes for the larger array
// during grow before that array is installed on the table.
func splitHashForMask(h uint64, mask uint32) (home uint32, fp uint32) {
	home = uint32(h) & mask
	fp = uint32(h>>32) & uint32(hashMask)
	return home, fp
}
