// Copyright 2024 Matrix Origin
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package hashtable

import "math/bits"

const (
	// fibonacci is 2^64 divided by the golden ratio, rounded to odd.
	fibonacci = 0x9e3779b97f4a7c15

	// wyhash multipliers, used as the second and third cuckoo hash.
	m2 = 0xe7037ed1a0b428db
	m3 = 0x8ebc6af09c88c6e3
)

// fibonacciPlace folds h into [0, 1<<(64-shift)).
func fibonacciPlace(h uint64, shift int) int {
	return int((h * fibonacci) >> shift)
}

// mixPlace multiplies h by an odd constant and xors the high bits back
// before masking, so keys sharing low bits spread over the table.
func mixPlace(h uint64, prime uint64, hashShift int, mask int) int {
	h *= prime
	return int((h ^ h>>hashShift) & uint64(mask))
}

func nextPowerOfTwo(v int) int {
	if v <= 1 {
		return 1
	}
	return 1 << bits.Len64(uint64(v-1))
}

func log2(v int) int {
	return bits.TrailingZeros64(uint64(v))
}
