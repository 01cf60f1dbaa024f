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

const (
	defaultLoadFactorThreshold = 85
	defaultPSLLimit            = 127
)

// HashFunc computes a hash for a key. The bucket index is taken from the
// low bits of the result and the 24-bit fingerprint stored per bucket from
// bits 32-55, so a hash function should mix well in both halves of its
// result.
type HashFunc[K comparable] func(key K) uint64

// EqualFunc reports whether two keys are equal. It is only invoked after a
// bucket's stored fingerprint already matches the candidate key's hash, so
// it need not be constant-time or especially fast.
type EqualFunc[K comparable] func(a, b K) bool

// OnRemoveFunc is invoked exactly once for each value that leaves the table
// through Delete, Iterator.Delete, Set's overwrite, or Close - but not
// through Pop or Swap, which hand the value to the caller, nor through
// Replace or Iterator.Replace.
type OnRemoveFunc[V any] func(value V)

// Option configures a Table at construction time. Options are applied only
// by New, so a Table's configuration is fixed before Init.
type Option[K comparable, V any] interface {
	apply(t *Table[K, V])
}

type loadFactorOption[K comparable, V any] struct{ pct uint8 }

func (o loadFactorOption[K, V]) apply(t *Table[K, V]) { t.loadFactorPct = o.pct }

// WithLoadFactorThreshold sets the percentage (1-100) of a bucket array's
// capacity that may be filled before growth is triggered. The default is
// 85. Legal only before Init.
func WithLoadFactorThreshold[K comparable, V any](pct uint8) Option[K, V] {
	return loadFactorOption[K, V]{pct}
}

type pslLimitOption[K comparable, V any] struct{ limit uint8 }

func (o pslLimitOption[K, V]) apply(t *Table[K, V]) { t.pslLimit = o.limit }

// WithPSLLimit sets the maximum probe sequence length (1-127) a bucket may
// reach before an insert is preemptively refused with ErrBadHash rather
// than allowed to walk further. The default is 127. Legal only before
// Init.
func WithPSLLimit[K comparable, V any](limit uint8) Option[K, V] {
	return pslLimitOption[K, V]{limit}
}

type onRemoveOption[K comparable, V any] struct{ fn OnRemoveFunc[V] }

func (o onRemoveOption[K, V]) apply(t *Table[K, V]) { t.onRemove = o.fn }

// WithOnRemove installs a callback invoked for every value that leaves the
// table other than through Pop, Swap, Replace or Iterator.Replace. Legal
// only before Init.
func WithOnRemove[K comparable, V any](fn OnRemoveFunc[V]) Option[K, V] {
	return onRemoveOption[K, V]{fn}
}

type allocatorOption[K comparable, V any] struct{ allocator Allocator[K, V] }

func (o allocatorOption[K, V]) apply(t *Table[K, V]) { t.allocator = o.allocator }

// WithAllocator is an option to specify the Allocator to use for a
// Table[K,V]. Legal only before Init.
func WithAllocator[K comparable, V any](allocator Allocator[K, V]) Option[K, V] {
	return allocatorOption[K, V]{allocator}
}

// Allocator specifies an interface for allocating and releasing the bucket
// metadata and entry arrays used by a Table. The default allocator uses
// Go's builtin make() and lets the GC reclaim memory.
//
// If the allocator manages memory that must be explicitly released, Close
// must be called to ensure FreeBuckets and FreeEntries are invoked.
type Allocator[K comparable, V any] interface {
	// AllocBuckets should return a slice equivalent to make([]bucketMeta, n).
	AllocBuckets(n int) []bucketMeta
	// AllocEntries should return a slice equivalent to make([]entry[K,V], n).
	AllocEntries(n int) []entry[K, V]
	// FreeBuckets may optionally release memory allocated by AllocBuckets.
	FreeBuckets(v []bucketMeta)
	// FreeEntries may optionally release memory allocated by AllocEntries.
	FreeEntries(v []entry[K, V])
}

type defaultAllocator[K comparable, V any] struct{}

func (defaultAllocator[K, V]) AllocBuckets(n int) []bucketMeta  { return make([]bucketMeta, n) }
func (defaultAllocator[K, V]) AllocEntries(n int) []entry[K, V] { return make([]entry[K, V], n) }
func (defaultAllocator[K, V]) FreeBuckets(v []bucketMeta)       {}
func (defaultAllocator[K, V]) FreeEntries(v []entry[K, V])      {}
