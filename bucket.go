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

// bucketMeta is the packed metadata word for a single bucket: the low 24
// bits hold a truncated hash fingerprint, the next 7 bits hold the probe
// sequence length (PSL) of the occupant, and the top bit is set only for an
// empty bucket. An all-ones word is therefore the empty sentinel, which
// lets a freshly allocated metadata array be marked entirely empty with one
// fill pass instead of bucket-by-bucket initialization.
type bucketMeta uint32

const (
	hashBits = 24
	pslBits  = 7

	hashMask = bucketMeta(1)<<hashBits - 1
	pslShift = hashBits
	pslMask  = bucketMeta(1)<<pslBits - 1

	emptyBit = bucketMeta(1) << (hashBits + pslBits)

	emptyBucket = bucketMeta(0xFFFFFFFF)

	// maxPSL is the largest PSL representable in pslBits; WithPSLLimit
	// rejects limits above this (127 in the 7-bit field).
	maxPSL = int(pslMask)
)

// newBucketMeta packs a truncated hash and a PSL into an occupied bucket
// word, leaving emptyBit clear.
func newBucketMeta(hash24 uint32, psl int) bucketMeta {
	return bucketMeta(psl&int(pslMask))<<pslShift | bucketMeta(hash24)&hashMask
}

func (b bucketMeta) occupied() bool {
	return b&emptyBit == 0
}

func (b bucketMeta) hash24() uint32 {
	return uint32(b & hashMask)
}

func (b bucketMeta) psl() int {
	return int((b >> pslShift) & pslMask)
}

// withPSL returns a copy of b with its PSL field replaced, preserving the
// occupancy bit and hash fingerprint.
func (b bucketMeta) withPSL(psl int) bucketMeta {
	return (b &^ (pslMask << pslShift)) | bucketMeta(psl&int(pslMask))<<pslShift
}

// truncHash returns the low 24 bits of a hash value. The fingerprint stored
// alongside each bucket is not this value: splitHash takes it from bits
// 32-55.
func truncHash(h uint64) uint32 {
	return uint32(h) & uint32(hashMask)
}
