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
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestRequestQueue_AcquireRelease(t *testing.T) {
	q := NewRequestQueue(RequestQueueConfig{
		MaxConcurrentRequests: 2,
		MaxQueueSize:          10,
	}, zaptest.NewLogger(t))

	release1, err := q.Acquire(context.Background())
	require.NoError(t, err)
	release2, err := q.Acquire(context.Background())
	require.NoError(t, err)

	stats := q.Stats()
	assert.Equal(t, int64(2), stats.CurrentActive)
	assert.Equal(t, int64(0), stats.TotalProcessed)

	release1()
	release2()

	stats = q.Stats()
	assert.Equal(t, int64(0), stats.CurrentActive)
	assert.Equal(t, int64(2), stats.TotalProcessed)
}

func TestRequestQueue_ReleaseIdempotent(t *testing.T) {
	q := NewRequestQueue(RequestQueueConfig{
		MaxConcurrentRequests: 1,
		MaxQueueSize:          1,
	}, zaptest.NewLogger(t))

	release, err := q.Acquire(context.Background())
	require.NoError(t, err)

	release()
	release()
	release()

	stats := q.Stats()
	assert.Equal(t, int64(0), stats.CurrentActive)
	assert.Equal(t, int64(1), stats.TotalProcessed)
}

func TestRequestQueue_FullRejection(t *testing.T) {
	q := NewRequestQueue(RequestQueueConfig{
		MaxConcurrentRequests: 1,
		MaxQueueSize:          1,
	}, zaptest.NewLogger(t))

	// Occupy the only slot
	release, err := q.Acquire(context.Background())
	require.NoError(t, err)
	defer release()

	// Fill the waiting queue
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	waiting := make(chan error, 1)
	go func() {
		_, err := q.Acquire(ctx)
		waiting <- err
	}()

	// Wait until the waiter is counted as queued
	require.Eventually(t, func() bool {
		return q.Stats().CurrentQueued >= 1
	}, time.Second, time.Millisecond)

	_, err = q.Acquire(context.Background())
	assert.ErrorIs(t, err, ErrQueueFull)
	assert.Equal(t, int64(1), q.Stats().TotalRejected)

	cancel()
	assert.ErrorIs(t, <-waiting, context.Canceled)
}

func TestRequestQueue_Timeout(t *testing.T) {
	q := NewRequestQueue(RequestQueueConfig{
		MaxConcurrentRequests: 1,
		MaxQueueSize:          5,
		RequestTimeout:        10 * time.Millisecond,
	}, zaptest.NewLogger(t))

	release, err := q.Acquire(context.Background())
	require.NoError(t, err)
	defer release()

	_, err = q.Acquire(context.Background())
	assert.ErrorIs(t, err, ErrRequestTimeout)
	assert.Equal(t, int64(1), q.Stats().TotalTimedOut)
}

func TestRequestQueue_ContextCancelled(t *testing.T) {
	q := NewRequestQueue(RequestQueueConfig{
		MaxConcurrentRequests: 1,
		MaxQueueSize:          5,
	}, zaptest.NewLogger(t))

	release, err := q.Acquire(context.Background())
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = q.Acquire(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWriteQueueFullResponse(t *testing.T) {
	w := httptest.NewRecorder()
	WriteQueueFullResponse(w, 5*time.Second)

	assert.Equal(t, 503, w.Code)
	assert.Equal(t, "5", w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "queue full")
}

func TestWriteTimeoutResponse(t *testing.T) {
	w := httptest.NewRecorder()
	WriteTimeoutResponse(w)

	assert.Equal(t, 503, w.Code)
	assert.Contains(t, w.Body.String(), "timed out")
}
