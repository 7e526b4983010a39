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

// workload.go observes the stress runner.

var (
	stressOpsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "primcoll",
			Subsystem: "stress",
			Name:      "ops_total",
			Help:      "Total number of operations applied by stress workers.",
		}, []string{"type"})

	stressViolationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "primcoll",
			Subsystem: "stress",
			Name:      "violation_total",
			Help:      "Count of collection results that disagreed with the reference model.",
		}, []string{"type"})

	stressTaskDurationHistogram = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "primcoll",
			Subsystem: "stress",
			Name:      "task_duration_seconds",
			Help:      "Bucketed histogram of stress task duration.",
			Buckets:   getDurationBuckets(),
		}, []string{"type"})
)

func GetStressOpsCounter(typ string) prometheus.Counter {
	return stressOpsCounter.WithLabelValues(typ)
}

func GetStressViolationCounter(typ string) prometheus.Counter {
	return stressViolationCounter.WithLabelValues(typ)
}

func GetStressTaskDurationHistogram(typ string) prometheus.Observer {
	return stressTaskDurationHistogram.WithLabelValues(typ)
}

func getDurationBuckets() []float64 {
	return prometheus.ExponentialBuckets(0.0005, 2.0, 20)
}

func initWorkloadMetrics() {
	registry.MustRegister(stressOpsCounter)
	registry.MustRegister(stressViolationCounter)
	registry.MustRegister(stressTaskDurationHistogram)
}
