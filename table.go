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

// Package rht is a Go implementation of an open-addressing hash table
// using Robin Hood linear probing: when an inserted entry has probed
// farther from its home bucket than the entry already occupying a
// candidate slot, it displaces that entry and carries it onward. This
// keeps the variance of probe sequence lengths low compared to plain
// linear probing, without the tombstone bookkeeping that chaining or
// quadratic-probe tables need on deletion - Robin Hood tables instead
// shift subsequent entries backward to close the gap.
//
// A Table is not safe for concurrent use by multiple goroutines without
// external synchronization, except that the iterator lock (see Iterator)
// prevents a caller from structurally mutating a table while an
// incompatible iterator is outstanding on the same goroutine.
package rht

import (
	"fmt"
	"math/bits"
)

const (
	debug       = false
	invariants  = false
	defaultCap  = 6
	maxTableLog = 24
	maxTsize    = uint32(1) << maxTableLog
)

// Table is an unordered map from keys to values with Add, Set, Get,
// Delete, and iterator-based traversal. It starts uninitialized: only the
// With* options applied at New time and a single call to Init are legal
// until initialization succeeds, after which Init may not be called
// again.
type Table[K comparable, V any] struct {
	hash      HashFunc[K]
	eq        EqualFunc[K]
	onRemove  OnRemoveFunc[V]
	allocator Allocator[K, V]

	loadFactorPct uint8
	pslLimit      uint8

	buckets []bucketMeta
	entries []entry[K, V]

	mask  uint32
	thold uint32
	count uint32

	iterLock uint16

	lastErr ErrorKind
}

// New constructs an uninitialized Table. hash and eq are mandatory; a nil
// value for either is a contract violation reported through AbortHook.
// Options configure the load factor threshold, PSL limit, removal
// callback, and allocator; all are only legal here, before Init.
func New[K comparable, V any](hash HashFunc[K], eq EqualFunc[K], opts ...Option[K, V]) (*Table[K, V], error) {
	if hash == nil {
		abortf("rht.New: hash function must not be nil")
	}
	if eq == nil {
		abortf("rht.New: equality function must not be nil")
	}
	if sz := entrySizeOf[K, V](); sz > maxEntrySize {
		return nil, newError(ErrBadEntrySize, "entry size %d exceeds maximum %d", sz, maxEntrySize)
	}

	t := &Table[K, V]{
		hash:          hash,
		eq:            eq,
		allocator:     defaultAllocator[K, V]{},
		loadFactorPct: defaultLoadFactorThreshold,
		pslLimit:      defaultPSLLimit,
	}
	for _, opt := range opts {
		opt.apply(t)
	}
	if t.loadFactorPct < 1 || t.loadFactorPct > 100 {
		abortf("rht.New: load factor threshold %d out of range [1,100]", t.loadFactorPct)
	}
	if int(t.pslLimit) < 1 || int(t.pslLimit) > maxPSL {
		abortf("rht.New: PSL limit %d out of range [1,%d]", t.pslLimit, maxPSL)
	}
	return t, nil
}

// Init transitions an uninitialized Table into an initialized one sized
// to hold at least capacity entries without growing, given the table's
// configured load factor threshold. A capacity of 0 requests the default
// initial capacity. Init may only be called once; calling it again is a
// contract violation.
func (t *Table[K, V]) Init(capacity uint32) error {
	if t.tsize() != 0 {
		abortf("rht.Init: table is already initialized")
	}
	if capacity == 0 {
		capacity = defaultCap
	}
	if uint64(capacity)*100 > uint64(maxTsize)*uint64(t.loadFactorPct) {
		return t.recordErr(newError(ErrTooBig, "capacity %d requires more than %d buckets", capacity, maxTsize))
	}

	need := ceilDiv(capacity*100, uint32(t.loadFactorPct))
	tsize := nextPow2(need)
	if tsize > maxTsize {
		return t.recordErr(newError(ErrTooBig, "capacity %d requires more than %d buckets", capacity, maxTsize))
	}
	if tsize == 0 {
		tsize = 1
	}

	buckets, entries, err := t.allocArrays(tsize)
	if err != nil {
		return t.recordErr(err)
	}
	t.buckets = buckets
	t.entries = entries
	t.mask = tsize - 1
	t.thold = tsize * uint32(t.loadFactorPct) / 100
	t.count = 0
	return nil
}

func (t *Table[K, V]) allocArrays(tsize uint32) ([]bucketMeta, []entry[K, V], error) {
	buckets := t.allocator.AllocBuckets(int(tsize))
	if buckets == nil {
		return nil, nil, newError(ErrAlloc, "failed to allocate %d buckets", tsize)
	}
	for i := range buckets {
		buckets[i] = emptyBucket
	}
	entries := t.allocator.AllocEntries(int(tsize))
	if entries == nil {
		t.allocator.FreeBuckets(buckets)
		return nil, nil, newError(ErrAlloc, "failed to allocate %d entries", tsize)
	}
	return buckets, entries, nil
}

func (t *Table[K, V]) tsize() uint32 {
	return uint32(len(t.buckets))
}

func (t *Table[K, V]) requireInit(op string) {
	if t.tsize() == 0 {
		abortf("rht.%s: table is not initialized", op)
	}
}

// Size returns the number of entries currently stored.
func (t *Table[K, V]) Size() uint32 {
	t.requireInit("Size")
	return t.count
}

// Empty reports whether the table holds no entries.
func (t *Table[K, V]) Empty() bool {
	t.requireInit("Empty")
	return t.count == 0
}

// Err returns the ErrorKind recorded by the most recent operation that
// failed, or zero if the table has not yet recorded a failure.
func (t *Table[K, V]) Err() ErrorKind {
	return t.lastErr
}

// Get looks up key and reports whether it was present.
func (t *Table[K, V]) Get(key K) (value V, ok bool) {
	t.requireInit("Get")
	idx, found := t.find(key)
	if !found {
		return value, false
	}
	return t.entries[idx].value, true
}

// clearBucket marks a bucket empty.
func (t *Table[K, V]) clearBucket(idx uint32) {
	t.buckets[idx] = emptyBucket
}

// Stats reports point-in-time probe-sequence-length diagnostics computed
// by scanning the occupied buckets. PSL totals are not tracked
// incrementally; Stats is a diagnostic, not a hot-path operation, so a
// table walk on demand is simpler than keeping running sums consistent
// through every displacement cascade.
type Stats struct {
	Count      uint32
	AveragePSL float64
	PeakPSL    int
}

func (t *Table[K, V]) Stats() Stats {
	t.requireInit("Stats")
	var sum uint64
	var peak int
	for _, b := range t.buckets {
		if !b.occupied() {
			continue
		}
		sum += uint64(b.psl())
		if b.psl() > peak {
			peak = b.psl()
		}
	}
	s := Stats{Count: t.count, PeakPSL: peak}
	if t.count > 0 {
		s.AveragePSL = float64(sum) / float64(t.count)
	}
	return s
}

func ceilDiv(a, b uint32) uint32 {
	if b == 0 {
		return a
	}
	return (a + b - 1) / b
}

func nextPow2(n uint32) uint32 {
	if n <= 1 {
		return 1
	}
	return uint32(1) << bits.Len32(n-1)
}

func (t *Table[K, V]) debugTrace(format string, args ...interface{}) {
	if debug {
		fmt.Printf(format+"\n", args...)
	}
}

// checkInvariants is a self-check gated behind the invariants build-time
// const, called after mutating operations to validate structural
// invariants. It is expensive (linear in table size) and does nothing
// unless invariants is set to true.
func (t *Table[K, V]) checkInvariants() {
	if !invariants {
		return
	}
	var count uint32
	for idx := uint32(0); idx < t.tsize(); idx++ {
		b := t.buckets[idx]
		if !b.occupied() {
			continue
		}
		count++
		if b.psl() > int(t.pslLimit) {
			panic(fmt.Sprintf("rht: bucket %d exceeds PSL limit: psl=%d limit=%d", idx, b.psl(), t.pslLimit))
		}
		home, fp := t.splitHash(t.hash(t.entries[idx].key))
		if fp != b.hash24() {
			panic(fmt.Sprintf("rht: bucket %d fingerprint mismatch", idx))
		}
		want := (idx - home) & t.mask
		if uint32(b.psl()) != want {
			panic(fmt.Sprintf("rht: bucket %d has psl %d, want %d", idx, b.psl(), want))
		}
	}
	if count != t.count {
		panic(fmt.Sprintf("rht: counted %d occupied buckets, count field is %d", count, t.count))
	}
}
