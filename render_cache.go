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
	"encoding/binary"
	"fmt"
	"image"
	"os"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/jellydator/ttlcache/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/madera-ai/hints/lib/vision"
)

// RenderCacheTTL is the default TTL for cached page renders. Several
// tools usually run against the same document back to back, so even a
// short TTL removes most duplicate renders.
const RenderCacheTTL = 2 * time.Minute

// RenderCache caches rendered document pages keyed by file identity and
// DPI. Concurrent renders of the same document are deduplicated.
type RenderCache struct {
	renderer *vision.Renderer
	cache    *ttlcache.Cache[string, []image.Image]
	sfGroup  *singleflight.Group
	logger   *zap.Logger
	cancel   context.CancelFunc

	// Metrics
	hits   atomic.Uint64
	misses atomic.Uint64
	sfHits atomic.Uint64
}

// NewRenderCache creates a render cache around the given renderer.
func NewRenderCache(renderer *vision.Renderer, logger *zap.Logger) *RenderCache {
	cache := ttlcache.New(
		ttlcache.WithTTL[string, []image.Image](RenderCacheTTL),
	)
	go cache.Start()

	ctx, cancel := context.WithCancel(context.Background())
	rc := &RenderCache{
		renderer: renderer,
		cache:    cache,
		sfGroup:  &singleflight.Group{},
		logger:   logger,
		cancel:   cancel,
	}

	// Log cache stats periodically
	go rc.logStats(ctx)

	return rc
}

// Render returns the pages of the document at path rendered at dpi,
// from cache when possible.
func (rc *RenderCache) Render(ctx context.Context, path string, dpi int) ([]image.Image, error) {
	key, err := rc.cacheKey(path, dpi)
	if err != nil {
		return nil, err
	}

	if item := rc.cache.Get(key); item != nil {
		rc.hits.Add(1)
		RecordCacheHit("render")
		rc.logger.Debug("Render cache hit",
			zap.String("path", path),
			zap.Int("dpi", dpi),
			zap.Int("pages", len(item.Value())))
		return item.Value(), nil
	}

	// Use singleflight to deduplicate concurrent identical renders
	result, err, shared := rc.sfGroup.Do(key, func() (any, error) {
		rc.misses.Add(1)
		RecordCacheMiss("render")

		start := time.Now()
		pages, err := rc.renderer.Render(ctx, path, dpi)
		if err != nil {
			return nil, err
		}
		RecordRender(time.Since(start).Seconds())

		rc.cache.Set(key, pages, ttlcache.DefaultTTL)

		rc.logger.Debug("Document rendered and cached",
			zap.String("path", path),
			zap.Int("dpi", dpi),
			zap.Int("pages", len(pages)),
			zap.Duration("duration", time.Since(start)))

		return pages, nil
	})

	if err != nil {
		return nil, err
	}

	if shared {
		rc.sfHits.Add(1)
		rc.logger.Debug("Singleflight hit for render", zap.String("path", path))
	}

	return result.([]image.Image), nil
}

// cacheKey identifies a render by path, DPI, and the file's size and
// mtime, so an overwritten document is never served from stale cache.
func (rc *RenderCache) cacheKey(path string, dpi int) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", path, err)
	}

	h := xxhash.New()
	_, _ = h.WriteString(path)
	_, _ = h.WriteString("|")
	_, _ = h.WriteString(fmt.Sprintf("%d|%d|%d", dpi, info.Size(), info.ModTime().UnixNano()))

	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], h.Sum64())
	return string(buf[:]), nil
}

// Close stops the cache
func (rc *RenderCache) Close() {
	rc.cancel()
	rc.cache.Stop()
}

// Stats returns cache statistics
func (rc *RenderCache) Stats() map[string]any {
	return map[string]any{
		"hits":              rc.hits.Load(),
		"misses":            rc.misses.Load(),
		"singleflight_hits": rc.sfHits.Load(),
		"items":             rc.cache.Len(),
	}
}

// logStats logs cache statistics periodically
func (rc *RenderCache) logStats(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			hits := rc.hits.Load()
			misses := rc.misses.Load()
			if hits == 0 && misses == 0 {
				continue
			}
			hitRate := float64(hits) / float64(hits+misses) * 100
			rc.logger.Info("Render cache stats",
				zap.Uint64("hits", hits),
				zap.Uint64("misses", misses),
				zap.Float64("hit_rate_pct", hitRate),
				zap.Int("items", rc.cache.Len()))
		}
	}
}
