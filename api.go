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
	"fmt"
	"image"
	"net/http"
	"runtime"
	"time"

	"github.com/bytedance/sonic/decoder"
	"github.com/bytedance/sonic/encoder"
	"go.uber.org/zap"
)

// HintsAPI routes the tool endpoints.
type HintsAPI struct {
	logger *zap.Logger
	node   *HintsNode
}

// NewHintsAPI creates the HTTP handler for the Hints API.
func NewHintsAPI(logger *zap.Logger, node *HintsNode) http.Handler {
	api := &HintsAPI{
		logger: logger,
		node:   node,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/tools", api.ListTools)
	mux.HandleFunc("POST /api/tools/{tool}", api.RunTool)
	mux.HandleFunc("POST /api/analyze", api.AnalyzeDocument)
	mux.HandleFunc("GET /api/version", api.GetVersion)
	return mux
}

// ToolRequest asks for a tool run over a document.
type ToolRequest struct {
	// Path is the document to analyze (PDF or image file).
	Path string `json:"path"`
	// Dpi overrides the tool's default render resolution.
	Dpi int `json:"dpi,omitempty"`
}

// ToolsResponse lists the tool catalog.
type ToolsResponse struct {
	Tools []ToolInfo `json:"tools"`
}

// AnalyzeResponse holds the results of every tool, keyed by tool id.
type AnalyzeResponse struct {
	Results map[string]*ToolResult `json:"results"`
}

// VersionResponse reports build information.
type VersionResponse struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
}

// RunTool executes one tool against a document.
func (h *HintsAPI) RunTool(w http.ResponseWriter, r *http.Request) {
	h.node.handleApiTool(w, r)
}

// AnalyzeDocument executes every tool against a document.
func (h *HintsAPI) AnalyzeDocument(w http.ResponseWriter, r *http.Request) {
	h.node.handleApiAnalyze(w, r)
}

// ListTools returns the tool catalog.
func (h *HintsAPI) ListTools(w http.ResponseWriter, r *http.Request) {
	resp := ToolsResponse{Tools: ToolCatalog}

	w.Header().Set("Content-Type", "application/json")
	if err := encoder.NewStreamEncoder(w).Encode(resp); err != nil {
		h.logger.Error("encoding response", zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

// GetVersion returns build information.
func (h *HintsAPI) GetVersion(w http.ResponseWriter, r *http.Request) {
	resp := VersionResponse{
		Version:   Version,
		GitCommit: GitCommit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := encoder.NewStreamEncoder(w).Encode(resp); err != nil {
		h.logger.Error("encoding response", zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

// acquireSlot applies backpressure via the request queue. It returns a
// release func, or writes the rejection response and returns false.
func (ln *HintsNode) acquireSlot(w http.ResponseWriter, r *http.Request) (func(), bool) {
	release, err := ln.requestQueue.Acquire(r.Context())
	if err != nil {
		switch err {
		case ErrQueueFull:
			RecordQueueRejection()
			WriteQueueFullResponse(w, 5*time.Second)
		case ErrRequestTimeout:
			RecordQueueTimeout()
			WriteTimeoutResponse(w)
		default:
			// Context cancelled
			http.Error(w, "request cancelled", http.StatusRequestTimeout)
		}
		return nil, false
	}

	UpdateQueueMetrics(ln.requestQueue.Stats())
	return release, true
}

func (ln *HintsNode) handleApiTool(w http.ResponseWriter, r *http.Request) {
	defer func() { _ = r.Body.Close() }()

	toolID := r.PathValue("tool")
	info, ok := LookupTool(toolID)
	if !ok {
		http.Error(w, fmt.Sprintf("unknown tool: %s", toolID), http.StatusNotFound)
		return
	}

	release, ok := ln.acquireSlot(w, r)
	if !ok {
		return
	}
	defer release()

	var req ToolRequest
	if err := decoder.NewStreamDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("decoding request: %v", err), http.StatusBadRequest)
		return
	}

	if req.Path == "" {
		http.Error(w, "path is required", http.StatusBadRequest)
		return
	}

	dpi := info.RenderDPI
	if req.Dpi > 0 {
		dpi = req.Dpi
	}

	start := time.Now()

	var result *ToolResult
	pages, err := ln.renderCache.Render(r.Context(), req.Path, dpi)
	if err != nil {
		// A document that cannot be rasterized fails the whole call,
		// reported in the result envelope.
		RecordToolFailure(toolID)
		result = &ToolResult{
			Success: false,
			Error:   fmt.Sprintf("rendering document: %v", err),
		}
	} else {
		result = ln.toolbox.Run(r.Context(), toolID, pages)
	}

	status := "success"
	if !result.Success {
		status = "failure"
	}
	RecordRequestDuration("/api/tools", toolID, status, time.Since(start).Seconds())

	w.Header().Set("Content-Type", "application/json")
	if err := encoder.NewStreamEncoder(w).Encode(result); err != nil {
		ln.logger.Error("encoding response", zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (ln *HintsNode) handleApiAnalyze(w http.ResponseWriter, r *http.Request) {
	defer func() { _ = r.Body.Close() }()

	release, ok := ln.acquireSlot(w, r)
	if !ok {
		return
	}
	defer release()

	var req ToolRequest
	if err := decoder.NewStreamDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("decoding request: %v", err), http.StatusBadRequest)
		return
	}

	if req.Path == "" {
		http.Error(w, "path is required", http.StatusBadRequest)
		return
	}

	start := time.Now()
	results := ln.toolbox.RunAll(r.Context(), func(ctx context.Context, dpi int) ([]image.Image, error) {
		if req.Dpi > 0 {
			dpi = req.Dpi
		}
		return ln.renderCache.Render(ctx, req.Path, dpi)
	})

	status := "success"
	for _, result := range results {
		if !result.Success {
			status = "failure"
			break
		}
	}
	RecordRequestDuration("/api/analyze", "all", status, time.Since(start).Seconds())

	resp := AnalyzeResponse{Results: results}
	w.Header().Set("Content-Type", "application/json")
	if err := encoder.NewStreamEncoder(w).Encode(resp); err != nil {
		ln.logger.Error("encoding response", zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}
