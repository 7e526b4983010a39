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

package v2

import "github.com/prometheus/client_golang/prometheus"

var (
	collectionResizeCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "primcoll",
			Subsystem: "collection",
			Name:      "resize_total",
			Help:      "Total number of backing array resizes.",
		}, []string{"type"})
	CuckooResizeCounter   = collectionResizeCounter.WithLabelValues("cuckoo")
	LinearResizeCounter   = collectionResizeCounter.WithLabelValues("linear")
	DequeResizeCounter    = collectionResizeCounter.WithLabelValues("deque")
	FreeListResizeCounter = collectionResizeCounter.WithLabelValues("freelist")

	CuckooStashCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "primcoll",
			Subsystem: "collection",
			Name:      "cuckoo_stash_total",
			Help:      "Total number of keys placed in a cuckoo stash.",
		})
)

var (
	evictionCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "primcoll",
			Subsystem: "collection",
			Name:      "eviction_total",
			Help:      "Total number of entries evicted from bounded maps.",
		}, []string{"policy"})
	FrequencyEvictionCounter = evictionCounter.WithLabelValues("frequency")
	RecencyEvictionCounter   = evictionCounter.WithLabelValues("recency")
)

func initCollectionMetrics() {
	registry.MustRegister(collectionResizeCounter)
	registry.MustRegister(CuckooStashCounter)
	registry.MustRegister(evictionCounter)
}
