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
	"image"
	"net/http"
	"net/url"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/madera-ai/hints/lib/ocr"
	"github.com/madera-ai/hints/lib/vision"
)

// HintsNode serves the document-analysis tools over HTTP.
type HintsNode struct {
	logger *zap.Logger

	toolbox     *Toolbox
	renderCache *RenderCache

	// Request queue for backpressure control
	requestQueue *RequestQueue

	ocrAvailable bool
}

// meteredEngine wraps an OCR engine with outcome metrics.
type meteredEngine struct {
	inner ocr.Engine
}

func (e *meteredEngine) Recognize(ctx context.Context, img image.Image, languages []string) (string, error) {
	text, err := e.inner.Recognize(ctx, img, languages)
	if err != nil {
		RecordOCR("error")
		return "", err
	}
	RecordOCR("success")
	return text, nil
}

// corsMiddleware adds permissive CORS headers for the Hints API
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, PATCH")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With, Accept, Origin")
		w.Header().Set("Access-Control-Max-Age", "3600")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// DefaultShutdownTimeout is the default time to wait for graceful shutdown
const DefaultShutdownTimeout = 30 * time.Second

// RunAsHints runs a hints node serving the tool API.
// If readyC is non-nil, it will be closed when the server is ready to accept requests.
func RunAsHints(ctx context.Context, zl *zap.Logger, config Config, readyC chan struct{}) {
	zl = zl.Named("hints")
	zl.Info("Starting hints node", zap.Any("config", config))

	u, err := url.Parse(config.ApiUrl)
	if err != nil {
		zl.Fatal("Invalid API URL", zap.String("url", config.ApiUrl), zap.Error(err))
	}

	// Configure OCR languages before any tool runs
	if len(config.TesseractLanguages) > 0 {
		ocr.DefaultLanguages = config.TesseractLanguages
		zl.Info("OCR languages configured", zap.Strings("languages", config.TesseractLanguages))
	}

	var engine ocr.Engine
	if config.DisableOCR {
		zl.Warn("OCR disabled, zone text tools will find no evidence")
	} else {
		engine = &meteredEngine{inner: ocr.NewTesseractEngine()}
	}

	// Parse request_timeout duration
	var requestTimeout time.Duration
	if config.RequestTimeout != "" && config.RequestTimeout != "0" {
		requestTimeout, err = time.ParseDuration(config.RequestTimeout)
		if err != nil {
			zl.Fatal("Invalid request_timeout duration", zap.String("request_timeout", config.RequestTimeout), zap.Error(err))
		}
	}

	requestQueue := NewRequestQueue(RequestQueueConfig{
		MaxConcurrentRequests: config.MaxConcurrentRequests,
		MaxQueueSize:          config.MaxQueueSize,
		RequestTimeout:        requestTimeout,
	}, zl.Named("queue"))

	renderer := vision.NewRenderer(zl.Named("renderer"))
	renderCache := NewRenderCache(renderer, zl.Named("render-cache"))
	defer renderCache.Close()

	node := &HintsNode{
		logger:       zl,
		toolbox:      NewToolbox(engine, zl.Named("toolbox")),
		renderCache:  renderCache,
		requestQueue: requestQueue,
		ocrAvailable: engine != nil,
	}

	apiHandler := NewHintsAPI(zl, node)

	// Create root mux with health endpoints and API handler
	rootMux := http.NewServeMux()

	// Health endpoints (outside /api prefix for k8s compatibility)
	rootMux.HandleFunc("GET /healthz", node.handleHealthz)
	rootMux.HandleFunc("GET /readyz", node.handleReadyz)
	rootMux.Handle("GET /metrics", promhttp.Handler())

	rootMux.Handle("/api/", apiHandler)

	srv := &http.Server{
		Addr:        u.Host,
		Handler:     corsMiddleware(rootMux),
		ReadTimeout: 540 * time.Second,
	}

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		zl.Info("Hints api server starting", zap.String("address", config.ApiUrl))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
		close(serverErr)
	}()

	// Signal readiness after server starts
	if readyC != nil {
		close(readyC)
	}

	// Wait for context cancellation or server error
	select {
	case err := <-serverErr:
		if err != nil {
			zl.Fatal("HTTP server error", zap.Error(err))
		}
	case <-ctx.Done():
		zl.Info("Shutdown signal received, starting graceful shutdown...")
	}

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
	defer shutdownCancel()

	// Stop accepting new connections
	srv.SetKeepAlivesEnabled(false)

	// Attempt graceful shutdown
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zl.Warn("Graceful shutdown failed, forcing close",
			zap.Error(err),
			zap.Duration("timeout", DefaultShutdownTimeout))
		_ = srv.Close()
	} else {
		zl.Info("Graceful shutdown completed successfully")
	}

	zl.Info("HTTP server stopped")
}
