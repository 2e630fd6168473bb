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
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/madera-ai/hints/lib/vision"
)

func newTestRenderCache(t *testing.T) *RenderCache {
	t.Helper()
	logger := zaptest.NewLogger(t)
	rc := NewRenderCache(vision.NewRenderer(logger), logger)
	t.Cleanup(rc.Close)
	return rc
}

func TestRenderCache_HitAfterMiss(t *testing.T) {
	rc := newTestRenderCache(t)
	path := writeWhitePNG(t)

	pages, err := rc.Render(context.Background(), path, 150)
	require.NoError(t, err)
	require.Len(t, pages, 1)

	again, err := rc.Render(context.Background(), path, 150)
	require.NoError(t, err)
	require.Len(t, again, 1)

	stats := rc.Stats()
	assert.Equal(t, uint64(1), stats["misses"])
	assert.Equal(t, uint64(1), stats["hits"])
}

func TestRenderCache_DistinctDPIKeys(t *testing.T) {
	rc := newTestRenderCache(t)
	path := writeWhitePNG(t)

	_, err := rc.Render(context.Background(), path, 150)
	require.NoError(t, err)
	_, err = rc.Render(context.Background(), path, 200)
	require.NoError(t, err)

	stats := rc.Stats()
	assert.Equal(t, uint64(2), stats["misses"])
	assert.Equal(t, uint64(0), stats["hits"])
	assert.Equal(t, 2, stats["items"])
}

func TestRenderCache_MissingFile(t *testing.T) {
	rc := newTestRenderCache(t)

	_, err := rc.Render(context.Background(), filepath.Join(t.TempDir(), "nope.pdf"), 150)
	require.Error(t, err)

	// A stat failure never touches the cache counters
	stats := rc.Stats()
	assert.Equal(t, uint64(0), stats["misses"])
	assert.Equal(t, uint64(0), stats["hits"])
}
