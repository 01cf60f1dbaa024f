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

// Add inserts key/value only if key is not already present. It reports
// whether the insertion happened; if key was already present the table is
// left unchanged and inserted is false.
func (t *Table[K, V]) Add(key K, value V) (inserted bool, err error) {
	t.requireInit("Add")
	t.requireNotIterating("Add")
	if _, found := t.find(key); found {
		return false, nil
	}
	if err := t.tryInsert(key, value); err != nil {
		return false, err
	}
	t.checkInvariants()
	return true, nil
}

// Set inserts key/value, overwriting any existing value for key. If a
// value is replaced, onRemove (if configured) is invoked on the old value
// before it is discarded. It reports whether key was newly inserted.
func (t *Table[K, V]) Set(key K, value V) (inserted bool, err error) {
	t.requireInit("Set")
	t.requireNotIterating("Set")
	if idx, found := t.find(key); found {
		old := t.entries[idx].value
		t.entries[idx].value = value
		if t.onRemove != nil {
			t.onRemove(old)
		}
		return false, nil
	}
	if err := t.tryInsert(key, value); err != nil {
		return false, err
	}
	t.checkInvariants()
	return true, nil
}

// tryInsert inserts a key known to be absent, growing the table first if
// the load factor threshold would be exceeded, and again (at most once
// more) if the resulting probe would exceed the configured PSL limit. A
// second PSL violation after growth indicates a poor hash function rather
// than insufficient capacity and is reported as ErrBadHash rather than
// grown around indefinitely.
func (t *Table[K, V]) tryInsert(key K, value V) error {
	grownForPSL := false
	for {
		if t.count+1 > t.thold {
			if err := t.grow(); err != nil {
				return err
			}
			continue
		}
		home, fp := t.splitHash(t.hash(key))
		if !t.insertWouldExceedPSLLimit(home, fp) {
			t.insertAt(home, fp, key, value)
			return nil
		}
		if grownForPSL {
			return t.recordErr(newError(ErrBadHash, "insert would need PSL greater than limit %d", t.pslLimit))
		}
		if err := t.grow(); err != nil {
			return err
		}
		grownForPSL = true
	}
}

// Delete removes key if present, invoking onRemove (if configured) on its
// value. It reports whether key was present.
func (t *Table[K, V]) Delete(key K) bool {
	t.requireInit("Delete")
	t.requireNotIterating("Delete")
	idx, found := t.find(key)
	if !found {
		return false
	}
	value := t.entries[idx].value
	t.removeAt(idx)
	if t.onRemove != nil {
		t.onRemove(value)
	}
	t.checkInvariants()
	return true
}

// Pop removes key if present and returns its value, transferring ownership
// to the caller instead of invoking onRemove.
func (t *Table[K, V]) Pop(key K) (value V, ok bool) {
	t.requireInit("Pop")
	t.requireNotIterating("Pop")
	idx, found := t.find(key)
	if !found {
		return value, false
	}
	value = t.entries[idx].value
	t.removeAt(idx)
	t.checkInvariants()
	return value, true
}

// Replace overwrites the value stored for an existing key without
// invoking onRemove, reporting whether key was present. Replace does not
// require an outstanding iterator; see Iterator.Replace for the
// cursor-based equivalent.
func (t *Table[K, V]) Replace(key K, value V) bool {
	t.requireInit("Replace")
	idx, found := t.find(key)
	if !found {
		return false
	}
	t.entries[idx].value = value
	return true
}

// Swap overwrites the value stored for an existing key and returns the
// value it replaced, transferring ownership to the caller instead of
// invoking onRemove. It reports whether key was present.
func (t *Table[K, V]) Swap(key K, value V) (previous V, ok bool) {
	t.requireInit("Swap")
	idx, found := t.find(key)
	if !found {
		return previous, false
	}
	previous = t.entries[idx].value
	t.entries[idx].value = value
	return previous, true
}

// Close releases the table's storage. If onRemove is configured it is
// invoked once for every entry still present. Close aborts if an
// iterator is outstanding.
func (t *Table[K, V]) Close() {
	if t.tsize() == 0 {
		return
	}
	t.requireNotIterating("Close")
	if t.onRemove != nil {
		for idx, b := range t.buckets {
			if b.occupied() {
				t.onRemove(t.entries[idx].value)
			}
		}
	}
	t.allocator.FreeBuckets(t.buckets)
	t.allocator.FreeEntries(t.entries)
	t.buckets = nil
	t.entries = nil
	t.mask = 0
	t.thold = 0
	t.count = 0
}

func (t *Table[K, V]) requireNotIterating(op string) {
	if t.iterLock != 0 {
		abortf("rht.%s: table has an outstanding iterator", op)
	}
}
