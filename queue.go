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

import (
	"context"
	"errors"
	"net/http"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/bytedance/sonic/encoder"
	"go.uber.org/zap"
)

var (
	// ErrQueueFull is returned when the waiting queue is at capacity.
	ErrQueueFull = errors.New("request queue full")
	// ErrRequestTimeout is returned when a request waited longer than the
	// configured timeout for a processing slot.
	ErrRequestTimeout = errors.New("request timed out in queue")
)

// RequestQueueConfig controls backpressure behavior.
type RequestQueueConfig struct {
	// MaxConcurrentRequests is the number of requests processed in
	// parallel. Defaults to the CPU count.
	MaxConcurrentRequests int
	// MaxQueueSize is the number of requests allowed to wait for a slot.
	// Defaults to 4x the concurrency limit.
	MaxQueueSize int
	// RequestTimeout bounds the time spent waiting in queue. Zero means
	// wait until the request context is done.
	RequestTimeout time.Duration
}

// QueueStats is a point-in-time snapshot of queue state.
type QueueStats struct {
	CurrentQueued  int64 `json:"current_queued"`
	CurrentActive  int64 `json:"current_active"`
	TotalProcessed int64 `json:"total_processed"`
	TotalRejected  int64 `json:"total_rejected"`
	TotalTimedOut  int64 `json:"total_timed_out"`
}

// RequestQueue bounds concurrent request processing. Requests beyond the
// concurrency limit wait in a bounded queue; beyond that they are
// rejected immediately so the caller can shed load instead of piling up
// renders.
type RequestQueue struct {
	logger *zap.Logger

	slots        chan struct{}
	maxQueueSize int64
	timeout      time.Duration

	queued    atomic.Int64
	active    atomic.Int64
	processed atomic.Int64
	rejected  atomic.Int64
	timedOut  atomic.Int64
}

// NewRequestQueue creates a request queue with the given limits.
func NewRequestQueue(cfg RequestQueueConfig, logger *zap.Logger) *RequestQueue {
	if cfg.MaxConcurrentRequests <= 0 {
		cfg.MaxConcurrentRequests = runtime.NumCPU()
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = cfg.MaxConcurrentRequests * 4
	}

	logger.Info("Request queue configured",
		zap.Int("max_concurrent", cfg.MaxConcurrentRequests),
		zap.Int("max_queue_size", cfg.MaxQueueSize),
		zap.Duration("request_timeout", cfg.RequestTimeout))

	return &RequestQueue{
		logger:       logger,
		slots:        make(chan struct{}, cfg.MaxConcurrentRequests),
		maxQueueSize: int64(cfg.MaxQueueSize),
		timeout:      cfg.RequestTimeout,
	}
}

// Acquire blocks until a processing slot is available and returns a
// release function. Returns ErrQueueFull when the waiting queue is at
// capacity and ErrRequestTimeout when the configured wait expires.
func (q *RequestQueue) Acquire(ctx context.Context) (func(), error) {
	if q.queued.Add(1) > q.maxQueueSize {
		q.queued.Add(-1)
		q.rejected.Add(1)
		return nil, ErrQueueFull
	}
	defer q.queued.Add(-1)

	var timeoutC <-chan time.Time
	if q.timeout > 0 {
		timer := time.NewTimer(q.timeout)
		defer timer.Stop()
		timeoutC = timer.C
	}

	start := time.Now()

	select {
	case q.slots <- struct{}{}:
	case <-timeoutC:
		q.timedOut.Add(1)
		return nil, ErrRequestTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	RecordQueueWaitTime(time.Since(start).Seconds())
	q.active.Add(1)

	var released atomic.Bool
	return func() {
		if !released.CompareAndSwap(false, true) {
			return
		}
		q.active.Add(-1)
		q.processed.Add(1)
		<-q.slots
	}, nil
}

// Stats returns a snapshot of queue state.
func (q *RequestQueue) Stats() QueueStats {
	return QueueStats{
		CurrentQueued:  q.queued.Load(),
		CurrentActive:  q.active.Load(),
		TotalProcessed: q.processed.Load(),
		TotalRejected:  q.rejected.Load(),
		TotalTimedOut:  q.timedOut.Load(),
	}
}

// queueErrorResponse is the body for queue rejections.
type queueErrorResponse struct {
	Error      string `json:"error"`
	RetryAfter int    `json:"retry_after_seconds,omitempty"`
}

// WriteQueueFullResponse writes a 503 with a Retry-After hint.
func WriteQueueFullResponse(w http.ResponseWriter, retryAfter time.Duration) {
	seconds := int(retryAfter.Seconds())
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Retry-After", strconv.Itoa(seconds))
	w.WriteHeader(http.StatusServiceUnavailable)
	_ = encoder.NewStreamEncoder(w).Encode(queueErrorResponse{
		Error:      "server overloaded, request queue full",
		RetryAfter: seconds,
	})
}

// WriteTimeoutResponse writes a 503 for requests that timed out waiting.
func WriteTimeoutResponse(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusServiceUnavailable)
	_ = encoder.NewStreamEncoder(w).Encode(queueErrorResponse{
		Error: "request timed out waiting for processing slot",
	})
}
