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

// Package vision provides page rendering and the pixel-level primitives the
// document classifiers are built on: grayscale statistics, zone cropping,
// edge operators, and skew estimation.
package vision

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	_ "golang.org/x/image/bmp"  // Register BMP decoder
	_ "golang.org/x/image/tiff" // Register TIFF decoder
	_ "golang.org/x/image/webp" // Register WebP decoder
)

// Default rendering resolutions. Fast heuristics run at DefaultDPI; detectors
// that look at small glyphs or card features render at DetailDPI.
const (
	DefaultDPI = 150
	DetailDPI  = 200
)

// RenderError means a document could not be rasterized at all (corrupt,
// unsupported, zero pages). It is terminal for that document: callers must
// not retry and must not expect partial results.
type RenderError struct {
	Path string
	Err  error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("rendering %s: %v", e.Path, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// Renderer rasterizes document pages by shelling out to pdftoppm (poppler).
// Plain image files are decoded directly as single-page documents.
type Renderer struct {
	logger *zap.Logger
	binary string
}

// NewRenderer creates a Renderer using the pdftoppm binary from PATH.
func NewRenderer(logger *zap.Logger) *Renderer {
	return &Renderer{
		logger: logger,
		binary: "pdftoppm",
	}
}

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".bmp":  true,
	".tiff": true,
	".tif":  true,
	".webp": true,
}

// Render rasterizes every page of the document at path into images, in page
// order. A failure to produce any page is reported as a *RenderError.
func (r *Renderer) Render(ctx context.Context, path string, dpi int) ([]image.Image, error) {
	if dpi <= 0 {
		dpi = DefaultDPI
	}

	if _, err := os.Stat(path); err != nil {
		return nil, &RenderError{Path: path, Err: err}
	}

	if imageExtensions[strings.ToLower(filepath.Ext(path))] {
		img, err := decodeImageFile(path)
		if err != nil {
			return nil, &RenderError{Path: path, Err: err}
		}
		return []image.Image{img}, nil
	}

	start := time.Now()

	tmpDir, err := os.MkdirTemp("", "hints-render-")
	if err != nil {
		return nil, &RenderError{Path: path, Err: err}
	}
	defer func() { _ = os.RemoveAll(tmpDir) }()

	prefix := filepath.Join(tmpDir, "page")
	cmd := exec.CommandContext(ctx, r.binary, "-r", strconv.Itoa(dpi), "-png", path, prefix)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, &RenderError{Path: path, Err: fmt.Errorf("%s: %w: %s", r.binary, err, strings.TrimSpace(string(out)))}
	}

	entries, err := filepath.Glob(prefix + "*.png")
	if err != nil {
		return nil, &RenderError{Path: path, Err: err}
	}
	if len(entries) == 0 {
		return nil, &RenderError{Path: path, Err: fmt.Errorf("document produced zero pages")}
	}

	// pdftoppm zero-pads page numbers, so a lexical sort is page order.
	sort.Strings(entries)

	pages := make([]image.Image, 0, len(entries))
	for _, entry := range entries {
		img, err := decodeImageFile(entry)
		if err != nil {
			return nil, &RenderError{Path: path, Err: fmt.Errorf("decoding page %s: %w", filepath.Base(entry), err)}
		}
		pages = append(pages, img)
	}

	r.logger.Debug("Rendered document",
		zap.String("path", path),
		zap.Int("dpi", dpi),
		zap.Int("pages", len(pages)),
		zap.Duration("duration", time.Since(start)))

	return pages, nil
}

func decodeImageFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	return img, nil
}
