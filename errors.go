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

import (
	"fmt"
	"os"

	"github.com/cockroachdb/errors"
)

// ErrorKind classifies a recoverable failure. Contract violations (nil
// callbacks, use of an uninitialized table, mutating while iterating, bad
// construction parameters) are not represented here: they go through
// AbortHook because they indicate a bug in the caller, not a condition the
// caller can reasonably recover from.
type ErrorKind uint8

const (
	// ErrAlloc means the configured Allocator could not supply the memory
	// needed for an operation. The table is left unchanged.
	ErrAlloc ErrorKind = iota + 1
	// ErrBadEntrySize means entry[K,V] exceeds maxEntrySize; only possible
	// at construction.
	ErrBadEntrySize
	// ErrTooBig means growth would need more buckets than the table's
	// maximum size (1<<24) can hold.
	ErrTooBig
	// ErrBadHash means every available slot up to pslLimit is occupied
	// during an insert, which in a correctly distributed table indicates a
	// poor or adversarial hash function rather than genuine capacity
	// exhaustion.
	ErrBadHash
	// ErrIterLock means an iterator could not be acquired because the
	// table already has an incompatible iterator outstanding.
	ErrIterLock
	// ErrIterCount means the maximum number of concurrent read-only
	// iterators (32767) is already outstanding.
	ErrIterCount
	// ErrIterNoLast means Delete or Replace was called on an iterator
	// whose cursor has not yet visited a valid entry.
	ErrIterNoLast
)

func (k ErrorKind) String() string {
	switch k {
	case ErrAlloc:
		return "alloc"
	case ErrBadEntrySize:
		return "bad entry size"
	case ErrTooBig:
		return "too big"
	case ErrBadHash:
		return "bad hash"
	case ErrIterLock:
		return "iterator lock"
	case ErrIterCount:
		return "iterator count"
	case ErrIterNoLast:
		return "iterator has no last entry"
	default:
		return "unknown"
	}
}

// Error is the concrete error type returned for recoverable failures. The
// Kind can be tested independently of the formatted message via errors.As.
type Error struct {
	Kind ErrorKind
	msg  string
}

func (e *Error) Error() string {
	return e.msg
}

func newError(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, msg: errors.Wrapf(fmt.Errorf(format, args...), "rht: %s", kind).Error()}
}

// AbortHook is invoked for contract violations: calling a method on an
// uninitialized table, passing a nil required callback, mutating a table
// while an incompatible iterator is outstanding, or supplying construction
// parameters outside their documented range. The default implementation
// prints to stderr and panics; tests may replace it to observe the
// violation without terminating the process.
var AbortHook = func(msg string) {
	fmt.Fprintln(os.Stderr, "rht: fatal:", msg)
	panic(msg)
}

func abortf(format string, args ...interface{}) {
	AbortHook(fmt.Sprintf(format, args...))
}

// recordErr saves the ErrorKind of a recoverable failure on the table so
// callers preferring status inspection over error values can call Err
// after an operation returns a non-nil error.
func (t *Table[K, V]) recordErr(err error) error {
	if e, ok := err.(*Error); ok {
		t.lastErr = e.Kind
	}
	return err
}
