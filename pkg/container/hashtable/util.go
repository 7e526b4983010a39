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

import (
	"fmt"
	"strings"

	"github.com/matrixorigin/primcoll/pkg/logutil"
	"go.uber.org/zap"
)

// Equal reports whether a and b hold the same keys with values equal
// under eq. The map kinds may differ.
func Equal[K Key, V any](a, b Map[K, V], eq func(x, y V) bool) bool {
	if a.Len() != b.Len() {
		return false
	}
	equal := true
	a.Range(func(k K, v V) bool {
		other, ok := b.Get(k)
		equal = ok && eq(v, other)
		return equal
	})
	return equal
}

// Hash returns a hash of m that does not depend on iteration order, so
// equal maps of different kinds hash the same.
func Hash[K Key, V any](m Map[K, V], hashValue func(V) uint64) uint64 {
	h := uint64(m.Len())
	m.Range(func(k K, v V) bool {
		h += uint64(k)*31 + hashValue(v)
		return true
	})
	return h
}

// PutAll copies every entry of src into dst. When dst cannot be presized
// the entries are still copied and dst grows as they arrive.
func PutAll[K Key, V any](dst, src Map[K, V]) {
	if e, ok := dst.(interface{ EnsureCapacity(int) error }); ok {
		if err := e.EnsureCapacity(src.Len()); err != nil {
			logutil.Warn("presize map for put all",
				zap.Int("len", dst.Len()),
				zap.Int("additional", src.Len()),
				zap.Error(err))
		}
	}
	src.Range(func(k K, v V) bool {
		dst.Put(k, v)
		return true
	})
}

type ranger[K Key, V any] interface {
	Range(fn func(key K, value V) bool)
}

// formatMap renders "[k1=v1, k2=v2]", "[]" when empty.
func formatMap[K Key, V any](m ranger[K, V]) string {
	var sb strings.Builder
	sb.WriteByte('[')
	first := true
	m.Range(func(k K, v V) bool {
		if !first {
			sb.WriteString(", ")
		}
		first = false
		fmt.Fprintf(&sb, "%v=%v", k, v)
		return true
	})
	sb.WriteByte(']')
	return sb.String()
}
