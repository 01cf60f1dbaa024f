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
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func newIntTable(t *testing.T, capacity uint32, opts ...Option[int, int]) *Table[int, int] {
	tbl, err := New[int, int](intHash, intEq, opts...)
	require.NoError(t, err)
	require.NoError(t, tbl.Init(capacity))
	t.Cleanup(tbl.Close)
	return tbl
}

func TestInitialCapacity(t *testing.T) {
	testCases := []struct {
		capacity uint32
		lft      uint8
		wantSize uint32
	}{
		{0, 85, 8}, // default capacity 6, ceil(6*100/85)=8 -> nextPow2=8
		{1, 85, 2},
		{85, 85, 128},
		{100, 100, 128},
	}
	for _, c := range testCases {
		t.Run("", func(t *testing.T) {
			tbl := newIntTable(t, c.capacity, WithLoadFactorThreshold[int, int](c.lft))
			require.EqualValues(t, c.wantSize, tbl.tsize())
		})
	}
}

func TestBasic(t *testing.T) {
	test := func(t *testing.T, tbl *Table[int, int]) {
		const count = 200
		e := make(map[int]int)
		require.EqualValues(t, 0, tbl.Size())

		for i := 0; i < count; i++ {
			_, ok := tbl.Get(i)
			require.False(t, ok)
		}

		for i := 0; i < count; i++ {
			inserted, err := tbl.Add(i, i+count)
			require.NoError(t, err)
			require.True(t, inserted)
			e[i] = i + count
			v, ok := tbl.Get(i)
			require.True(t, ok)
			require.EqualValues(t, i+count, v)
			require.EqualValues(t, i+1, tbl.Size())
			require.Equal(t, e, toBuiltinMap(tbl))
		}

		for i := 0; i < count; i++ {
			inserted, err := tbl.Add(i, -1)
			require.NoError(t, err)
			require.False(t, inserted)
			v, _ := tbl.Get(i)
			require.EqualValues(t, i+count, v)
		}

		for i := 0; i < count; i++ {
			inserted, err := tbl.Set(i, i+2*count)
			require.NoError(t, err)
			require.False(t, inserted)
			e[i] = i + 2*count
			v, ok := tbl.Get(i)
			require.True(t, ok)
			require.EqualValues(t, i+2*count, v)
			require.Equal(t, e, toBuiltinMap(tbl))
		}

		for i := 0; i < count; i++ {
			ok := tbl.Delete(i)
			require.True(t, ok)
			delete(e, i)
			require.EqualValues(t, count-i-1, tbl.Size())
			_, ok = tbl.Get(i)
			require.False(t, ok)
			require.Equal(t, e, toBuiltinMap(tbl))
		}
	}

	t.Run("normal", func(t *testing.T) {
		test(t, newIntTable(t, 0))
	})

	t.Run("small-table", func(t *testing.T) {
		test(t, newIntTable(t, 0, WithLoadFactorThreshold[int, int](50)))
	})
}

func TestRandom(t *testing.T) {
	tbl := newIntTable(t, 0)
	e := make(map[int]int)
	for i := 0; i < 20000; i++ {
		switch r := rand.Float64(); {
		case r < 0.5:
			k, v := rand.Intn(2000), rand.Int()
			_, err := tbl.Set(k, v)
			require.NoError(t, err)
			e[k] = v
		case r < 0.8:
			k := rand.Intn(2000)
			want, wantOK := e[k]
			v, ok := tbl.Get(k)
			require.Equal(t, wantOK, ok)
			if ok {
				require.Equal(t, want, v)
			}
		default:
			k := rand.Intn(2000)
			ok := tbl.Delete(k)
			_, wantOK := e[k]
			require.Equal(t, wantOK, ok)
			delete(e, k)
		}
		require.EqualValues(t, len(e), tbl.Size())
	}
	require.Equal(t, e, toBuiltinMap(tbl))
}

func TestPopSwapReplace(t *testing.T) {
	tbl := newIntTable(t, 0)
	_, err := tbl.Set(1, 100)
	require.NoError(t, err)

	v, ok := tbl.Pop(1)
	require.True(t, ok)
	require.Equal(t, 100, v)
	_, ok = tbl.Get(1)
	require.False(t, ok)

	_, ok = tbl.Pop(1)
	require.False(t, ok)

	_, err = tbl.Set(2, 200)
	require.NoError(t, err)
	ok = tbl.Replace(2, 201)
	require.True(t, ok)
	v, _ = tbl.Get(2)
	require.Equal(t, 201, v)

	ok = tbl.Replace(999, 0)
	require.False(t, ok)

	prev, ok := tbl.Swap(2, 202)
	require.True(t, ok)
	require.Equal(t, 201, prev)
	v, _ = tbl.Get(2)
	require.Equal(t, 202, v)

	_, ok = tbl.Swap(999, 0)
	require.False(t, ok)
}

func TestOnRemove(t *testing.T) {
	var removed []int
	tbl, err := New[int, int](intHash, intEq, WithOnRemove[int, int](func(v int) {
		removed = append(removed, v)
	}))
	require.NoError(t, err)
	require.NoError(t, tbl.Init(0))

	for i := 0; i < 5; i++ {
		_, err := tbl.Set(i, i*10)
		require.NoError(t, err)
	}
	tbl.Delete(2)
	require.Equal(t, []int{20}, removed)

	_, err = tbl.Set(3, 999)
	require.NoError(t, err)
	require.Equal(t, []int{20, 30}, removed)

	tbl.Close()
	require.Len(t, removed, 6) // 2 removed above, plus the 4 entries still present at Close
}

type countingAllocator struct {
	allocBuckets, freeBuckets int
	allocEntries, freeEntries int
}

func (a *countingAllocator) AllocBuckets(n int) []bucketMeta {
	a.allocBuckets++
	return make([]bucketMeta, n)
}
func (a *countingAllocator) AllocEntries(n int) []entry[int, int] {
	a.allocEntries++
	return make([]entry[int, int], n)
}
func (a *countingAllocator) FreeBuckets(v []bucketMeta)      { a.freeBuckets++ }
func (a *countingAllocator) FreeEntries(v []entry[int, int]) { a.freeEntries++ }

func TestAllocator(t *testing.T) {
	a := &countingAllocator{}
	tbl, err := New[int, int](intHash, intEq, WithAllocator[int, int](a))
	require.NoError(t, err)
	require.NoError(t, tbl.Init(0))

	for i := 0; i < 1000; i++ {
		_, err := tbl.Set(i, i)
		require.NoError(t, err)
	}
	require.Greater(t, a.allocBuckets, 1)
	require.Equal(t, a.allocBuckets, a.allocEntries)
	require.Equal(t, a.allocBuckets-1, a.freeBuckets)

	tbl.Close()
	require.Equal(t, a.allocBuckets, a.freeBuckets)
	require.Equal(t, a.allocEntries, a.freeEntries)
}

func TestBadEntrySize(t *testing.T) {
	type big struct {
		data [maxEntrySize]byte
	}
	_, err := New[int, big](func(int) uint64 { return 0 }, intEq)
	require.Error(t, err)
	var rhtErr *Error
	require.ErrorAs(t, err, &rhtErr)
	require.Equal(t, ErrBadEntrySize, rhtErr.Kind)
}

func TestInitTwiceAborts(t *testing.T) {
	tbl := newIntTable(t, 0)
	require.Panics(t, func() { tbl.Init(0) })
}

func TestStats(t *testing.T) {
	tbl := newIntTable(t, 0)
	for i := 0; i < 500; i++ {
		_, err := tbl.Set(i, i)
		require.NoError(t, err)
	}
	s := tbl.Stats()
	require.EqualValues(t, 500, s.Count)
	require.GreaterOrEqual(t, s.PeakPSL, 0)
	require.LessOrEqual(t, s.PeakPSL, int(tbl.pslLimit))
}

func TestErrorKindString(t *testing.T) {
	for k := ErrAlloc; k <= ErrIterNoLast; k++ {
		require.NotEmpty(t, k.String())
	}
	require.Equal(t, "unknown", ErrorKind(0).String())
}
