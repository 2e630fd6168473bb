// Copyright 2025 Antfly, Inc.
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

package hints

import "github.com/prometheus/client_golang/prometheus"

var (
	toolRequestOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "madera",
			Subsystem: "hints",
			Name:      "tool_request_ops_total",
			Help:      "The total number of tool invocations.",
		},
		[]string{"tool"},
	)
	toolFailureOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "madera",
			Subsystem: "hints",
			Name:      "tool_failure_ops_total",
			Help:      "The total number of failed tool invocations.",
		},
		[]string{"tool"},
	)

	pageAnalysisOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "madera",
			Subsystem: "hints",
			Name:      "page_analysis_ops_total",
			Help:      "The total number of pages analyzed.",
		},
		[]string{"tool"},
	)

	renderOps = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "madera",
			Subsystem: "hints",
			Name:      "render_ops_total",
			Help:      "The total number of documents rendered to images.",
		},
	)
	renderDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "madera",
			Subsystem: "hints",
			Name:      "render_duration_seconds",
			Help:      "Time taken to render a document.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	ocrOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "madera",
			Subsystem: "hints",
			Name:      "ocr_ops_total",
			Help:      "The total number of OCR zone reads.",
		},
		[]string{"status"},
	)

	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "madera",
			Subsystem: "hints",
			Name:      "request_duration_seconds",
			Help:      "Time taken to process a request.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"endpoint", "tool", "status"},
	)

	cacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "madera",
			Subsystem: "hints",
			Name:      "cache_hits_total",
			Help:      "Total number of cache hits.",
		},
		[]string{"type"}, // render
	)

	cacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "madera",
			Subsystem: "hints",
			Name:      "cache_misses_total",
			Help:      "Total number of cache misses.",
		},
		[]string{"type"}, // render
	)

	// Queue metrics
	queueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "madera",
			Subsystem: "hints",
			Name:      "queue_depth",
			Help:      "Number of requests currently waiting in queue.",
		},
	)

	queueActiveRequests = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "madera",
			Subsystem: "hints",
			Name:      "queue_active_requests",
			Help:      "Number of requests currently being processed.",
		},
	)

	queueRejectedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "madera",
			Subsystem: "hints",
			Name:      "queue_rejected_total",
			Help:      "Total number of requests rejected due to full queue.",
		},
	)

	queueTimedOutTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "madera",
			Subsystem: "hints",
			Name:      "queue_timed_out_total",
			Help:      "Total number of requests that timed out while waiting in queue.",
		},
	)

	queueWaitDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "madera",
			Subsystem: "hints",
			Name:      "queue_wait_duration_seconds",
			Help:      "Time spent waiting in queue before processing.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)
)

func init() {
	prometheus.MustRegister(toolRequestOps)
	prometheus.MustRegister(toolFailureOps)
	prometheus.MustRegister(pageAnalysisOps)
	prometheus.MustRegister(renderOps)
	prometheus.MustRegister(renderDuration)
	prometheus.MustRegister(ocrOps)
	prometheus.MustRegister(requestDuration)
	prometheus.MustRegister(cacheHits)
	prometheus.MustRegister(cacheMisses)
	prometheus.MustRegister(queueDepth)
	prometheus.MustRegister(queueActiveRequests)
	prometheus.MustRegister(queueRejectedTotal)
	prometheus.MustRegister(queueTimedOutTotal)
	prometheus.MustRegister(queueWaitDuration)
}

// RecordToolRequest increments the tool invocation counter
func RecordToolRequest(tool string) {
	toolRequestOps.WithLabelValues(tool).Inc()
}

// RecordToolFailure increments the failed invocation counter
func RecordToolFailure(tool string) {
	toolFailureOps.WithLabelValues(tool).Inc()
}

// RecordPageAnalysis records the number of pages a tool analyzed
func RecordPageAnalysis(tool string, count int) {
	pageAnalysisOps.WithLabelValues(tool).Add(float64(count))
}

// RecordRender records one document render and its duration
func RecordRender(seconds float64) {
	renderOps.Inc()
	renderDuration.Observe(seconds)
}

// RecordOCR increments the OCR zone read counter
func RecordOCR(status string) {
	ocrOps.WithLabelValues(status).Inc()
}

// RecordRequestDuration records how long a request took
func RecordRequestDuration(endpoint, tool, status string, seconds float64) {
	requestDuration.WithLabelValues(endpoint, tool, status).Observe(seconds)
}

// RecordCacheHit increments the cache hit counter
func RecordCacheHit(cacheType string) {
	cacheHits.WithLabelValues(cacheType).Inc()
}

// RecordCacheMiss increments the cache miss counter
func RecordCacheMiss(cacheType string) {
	cacheMisses.WithLabelValues(cacheType).Inc()
}

// UpdateQueueMetrics updates all queue-related metrics from QueueStats
func UpdateQueueMetrics(stats QueueStats) {
	queueDepth.Set(float64(stats.CurrentQueued))
	queueActiveRequests.Set(float64(stats.CurrentActive))
}

// RecordQueueRejection increments the rejected counter
func RecordQueueRejection() {
	queueRejectedTotal.Inc()
}

// RecordQueueTimeout increments the timeout counter
func RecordQueueTimeout() {
	queueTimedOutTotal.Inc()
}

// RecordQueueWaitTime records how long a request waited in queue
func RecordQueueWaitTime(seconds float64) {
	queueWaitDuration.Observe(seconds)
}
