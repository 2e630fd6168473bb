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

// Package cli provides shared CLI functions for the hints tools.
// These functions are used by both the standalone hints binary and embedding callers.
package cli

import (
	"context"
	"fmt"
	"image"
	"io"
	"sync"
	"text/tabwriter"

	"github.com/bytedance/sonic/encoder"
	"go.uber.org/zap"

	"github.com/madera-ai/hints"
	"github.com/madera-ai/hints/lib/ocr"
	"github.com/madera-ai/hints/lib/vision"
)

// ListOptions contains options for listing tools
type ListOptions struct {
	ClassFilter string
}

// ListTools prints the tool catalog as a table.
func ListTools(w io.Writer, tools []hints.ToolInfo, opts ListOptions) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCLASS\tDPI\tOCR\tDESCRIPTION")

	for _, tool := range tools {
		if opts.ClassFilter != "" && string(tool.Class) != opts.ClassFilter {
			continue
		}
		ocrMark := ""
		if tool.UsesOCR {
			ocrMark = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n",
			tool.Id, tool.Class, tool.RenderDPI, ocrMark, tool.Description)
	}

	return tw.Flush()
}

// AnalyzeOptions contains options for a one-shot document analysis
type AnalyzeOptions struct {
	// Tool runs a single tool instead of the whole catalog.
	Tool string
	// Dpi overrides the per-tool render resolution.
	Dpi int
	// DisableOCR skips the OCR engine; zone tools find no evidence.
	DisableOCR bool
}

// Analyze runs tools against a local document and writes the JSON results
// to w. With opts.Tool set, only that tool runs.
func Analyze(ctx context.Context, logger *zap.Logger, path string, opts AnalyzeOptions, w io.Writer) error {
	var engine ocr.Engine
	if !opts.DisableOCR {
		engine = ocr.NewTesseractEngine()
	}

	renderer := vision.NewRenderer(logger.Named("renderer"))
	toolbox := hints.NewToolbox(engine, logger.Named("toolbox"))

	if opts.Tool != "" {
		info, ok := hints.LookupTool(opts.Tool)
		if !ok {
			return fmt.Errorf("unknown tool: %s", opts.Tool)
		}

		dpi := info.RenderDPI
		if opts.Dpi > 0 {
			dpi = opts.Dpi
		}

		pages, err := renderer.Render(ctx, path, dpi)
		if err != nil {
			return fmt.Errorf("rendering %s: %w", path, err)
		}

		return encoder.NewStreamEncoder(w).Encode(toolbox.Run(ctx, opts.Tool, pages))
	}

	// Render once per distinct DPI the catalog asks for. RunAll calls
	// back from multiple goroutines, so the memo needs a lock.
	var mu sync.Mutex
	rendered := map[int][]image.Image{}
	results := toolbox.RunAll(ctx, func(ctx context.Context, dpi int) ([]image.Image, error) {
		if opts.Dpi > 0 {
			dpi = opts.Dpi
		}
		mu.Lock()
		defer mu.Unlock()
		if pages, ok := rendered[dpi]; ok {
			return pages, nil
		}
		pages, err := renderer.Render(ctx, path, dpi)
		if err != nil {
			return nil, err
		}
		rendered[dpi] = pages
		return pages, nil
	})

	return encoder.NewStreamEncoder(w).Encode(results)
}
