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

// Mode selects whether an Iterator permits structural mutation through
// Delete/Replace.
type Mode uint8

const (
	// ReadOnly iterators may coexist with other read-only iterators, up to
	// maxIters of them, but not with a ReadWrite iterator.
	ReadOnly Mode = iota
	// ReadWrite iterators are exclusive: no other iterator, of either
	// mode, may be outstanding while one exists.
	ReadWrite
)

const (
	maxIters   = 0x7fff
	writerLock = uint16(0xffff)
)

// Iterator walks a Table's entries in bucket order, which is unspecified
// and not stable across structural mutations.
// A Table tracks how many iterators of which mode are outstanding via its
// iterLock counter and refuses structural mutation - Add, Set, Delete,
// Pop, Close - while any iterator exists, and refuses a second
// incompatible iterator while one is already outstanding.
type Iterator[K comparable, V any] struct {
	t      *Table[K, V]
	mode   Mode
	last   int64
	done   bool
	closed bool
}

// Iterator acquires a new iterator over t. A read-only request fails with
// ErrIterLock if a read-write iterator is outstanding, or with
// ErrIterCount if maxIters read-only iterators already are; a read-write
// request fails with ErrIterLock if any iterator at all is outstanding.
func (t *Table[K, V]) Iterator(mode Mode) (*Iterator[K, V], error) {
	t.requireInit("Iterator")
	switch mode {
	case ReadOnly:
		if t.iterLock == writerLock {
			return nil, t.recordErr(newError(ErrIterLock, "a read-write iterator is outstanding"))
		}
		if t.iterLock >= maxIters {
			return nil, t.recordErr(newError(ErrIterCount, "maximum of %d concurrent iterators reached", maxIters))
		}
		t.iterLock++
	case ReadWrite:
		if t.iterLock != 0 {
			return nil, t.recordErr(newError(ErrIterLock, "table already has an outstanding iterator"))
		}
		t.iterLock = writerLock
	default:
		abortf("rht.Iterator: invalid mode %d", mode)
	}
	return &Iterator[K, V]{t: t, mode: mode, last: -1}, nil
}

func (it *Iterator[K, V]) requireOpen(op string) {
	if it.closed {
		abortf("rht.Iterator.%s: iterator already closed", op)
	}
}

// Next advances the cursor to the next occupied bucket in array order and
// returns its key and value. ok is false once every bucket has been
// visited.
func (it *Iterator[K, V]) Next() (key K, value V, ok bool) {
	it.requireOpen("Next")
	if it.done {
		return key, value, false
	}
	idx := it.last + 1
	for idx < int64(it.t.tsize()) {
		if it.t.buckets[idx].occupied() {
			it.last = idx
			e := it.t.entries[idx]
			return e.key, e.value, true
		}
		idx++
	}
	it.done = true
	return key, value, false
}

// Delete removes the entry last returned by Next. It requires a
// read-write iterator and a valid cursor position; calling it before the
// first Next, or after the cursor's entry was already removed, returns
// ErrIterNoLast. The cursor is stepped back so the next Next call
// revisits whatever backward-shift deletion moved into the freed slot.
func (it *Iterator[K, V]) Delete() error {
	it.requireOpen("Delete")
	if it.mode != ReadWrite {
		abortf("rht.Iterator.Delete: iterator is read-only")
	}
	if it.last < 0 {
		return it.t.recordErr(newError(ErrIterNoLast, "iterator has not visited an entry"))
	}
	idx := uint32(it.last)
	value := it.t.entries[idx].value
	it.t.removeAt(idx)
	if it.t.onRemove != nil {
		it.t.onRemove(value)
	}
	it.last--
	it.done = false
	return nil
}

// Replace overwrites the value of the entry last returned by Next without
// invoking onRemove. It requires a read-write iterator and a valid cursor
// position.
func (it *Iterator[K, V]) Replace(value V) error {
	it.requireOpen("Replace")
	if it.mode != ReadWrite {
		abortf("rht.Iterator.Replace: iterator is read-only")
	}
	if it.last < 0 {
		return it.t.recordErr(newError(ErrIterNoLast, "iterator has not visited an entry"))
	}
	it.t.entries[uint32(it.last)].value = value
	return nil
}

// Close releases the iterator's lock on the table. Closing an
// already-closed iterator is a no-op.
func (it *Iterator[K, V]) Close() {
	if it.closed {
		return
	}
	it.closed = true
	if it.mode == ReadWrite {
		it.t.iterLock = 0
	} else {
		it.t.iterLock--
	}
}
