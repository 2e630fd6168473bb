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
	"bytes"
	"encoding/json"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/madera-ai/hints/lib/vision"
)

func newTestNode(t *testing.T) (*HintsNode, http.Handler) {
	t.Helper()
	logger := zaptest.NewLogger(t)

	renderCache := NewRenderCache(vision.NewRenderer(logger), logger)
	t.Cleanup(renderCache.Close)

	node := &HintsNode{
		logger:      logger,
		toolbox:     NewToolbox(nil, logger),
		renderCache: renderCache,
		requestQueue: NewRequestQueue(RequestQueueConfig{
			MaxConcurrentRequests: 4,
			MaxQueueSize:          16,
		}, logger.Named("queue")),
	}
	return node, NewHintsAPI(logger, node)
}

// writeWhitePNG writes an all-white letter-size page and returns its path.
func writeWhitePNG(t *testing.T) string {
	t.Helper()

	img := image.NewGray(image.Rect(0, 0, 850, 1100))
	for i := range img.Pix {
		img.Pix[i] = 255
	}

	path := filepath.Join(t.TempDir(), "page.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	require.NoError(t, png.Encode(f, img))
	return path
}

func postJSON(t *testing.T, handler http.Handler, url string, reqBody any) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(reqBody)
	require.NoError(t, err)

	req := httptest.NewRequest("POST", url, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func TestHintsAPI_RunTool_BlankPages(t *testing.T) {
	_, handler := newTestNode(t)
	path := writeWhitePNG(t)

	w := postJSON(t, handler, "/api/tools/detect_blank_pages", ToolRequest{Path: path})
	require.Equal(t, http.StatusOK, w.Code)

	var result ToolResult
	require.NoError(t, json.NewDecoder(w.Body).Decode(&result))

	require.True(t, result.Success, "error: %s", result.Error)
	assert.GreaterOrEqual(t, result.Confidence, 0.5)
	assert.Equal(t, []any{float64(1)}, result.Data["blank_pages"])
	assert.Equal(t, float64(1), result.Data["total_pages"])
	assert.Equal(t, "Skip pages [1]", result.Hints["message"])
}

func TestHintsAPI_RunTool_UnknownTool(t *testing.T) {
	_, handler := newTestNode(t)

	w := postJSON(t, handler, "/api/tools/read_minds", ToolRequest{Path: "x.png"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHintsAPI_RunTool_MissingPath(t *testing.T) {
	_, handler := newTestNode(t)

	w := postJSON(t, handler, "/api/tools/detect_blank_pages", ToolRequest{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHintsAPI_RunTool_RenderFailure(t *testing.T) {
	_, handler := newTestNode(t)

	w := postJSON(t, handler, "/api/tools/detect_blank_pages", ToolRequest{
		Path: filepath.Join(t.TempDir(), "does-not-exist.pdf"),
	})
	require.Equal(t, http.StatusOK, w.Code)

	var result ToolResult
	require.NoError(t, json.NewDecoder(w.Body).Decode(&result))

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "rendering document")
	assert.Zero(t, result.Confidence)
}

func TestHintsAPI_Analyze(t *testing.T) {
	_, handler := newTestNode(t)
	path := writeWhitePNG(t)

	w := postJSON(t, handler, "/api/analyze", ToolRequest{Path: path})
	require.Equal(t, http.StatusOK, w.Code)

	var resp AnalyzeResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))

	require.Len(t, resp.Results, len(ToolCatalog))
	for _, info := range ToolCatalog {
		result, ok := resp.Results[info.Id]
		require.True(t, ok, "missing result for %s", info.Id)
		assert.True(t, result.Success, "%s failed: %s", info.Id, result.Error)
	}
}

func TestHintsAPI_ListTools(t *testing.T) {
	_, handler := newTestNode(t)

	req := httptest.NewRequest("GET", "/api/tools", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp ToolsResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Len(t, resp.Tools, len(ToolCatalog))
	assert.Equal(t, "detect_blank_pages", resp.Tools[0].Id)
}

func TestHintsAPI_GetVersion(t *testing.T) {
	_, handler := newTestNode(t)

	req := httptest.NewRequest("GET", "/api/version", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp VersionResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, Version, resp.Version)
	assert.NotEmpty(t, resp.GoVersion)
}

func TestHandleHealthz(t *testing.T) {
	node, _ := newTestNode(t)

	w := httptest.NewRecorder()
	node.handleHealthz(w, httptest.NewRequest("GET", "/healthz", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestHandleReadyz(t *testing.T) {
	node, _ := newTestNode(t)

	w := httptest.NewRecorder()
	node.handleReadyz(w, httptest.NewRequest("GET", "/readyz", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var resp ReadyResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "ready", resp.Status)
	assert.Equal(t, len(ToolCatalog), resp.Tools.Total)
	assert.False(t, resp.Tools.OCR)
}

func TestCorsMiddleware_Preflight(t *testing.T) {
	handler := corsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/tools", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	// Non-preflight requests pass through
	req = httptest.NewRequest("GET", "/api/tools", nil)
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusTeapot, w.Code)
}
