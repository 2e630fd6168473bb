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
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/madera-ai/hints/lib/blank"
	"github.com/madera-ai/hints/lib/doctype"
	"github.com/madera-ai/hints/lib/fiscalyear"
	"github.com/madera-ai/hints/lib/idcard"
	"github.com/madera-ai/hints/lib/ocr"
	"github.com/madera-ai/hints/lib/quality"
	"github.com/madera-ai/hints/lib/splitter"
)

// Toolbox runs the document-analysis tools over rendered pages. All tools
// are stateless and safe to run concurrently over the same pages.
type Toolbox struct {
	ocr    ocr.Engine
	logger *zap.Logger
	now    func() time.Time
}

// NewToolbox creates a toolbox around an OCR engine. engine may be nil,
// in which case zone OCR contributes no evidence.
func NewToolbox(engine ocr.Engine, logger *zap.Logger) *Toolbox {
	return &Toolbox{
		ocr:    engine,
		logger: logger,
		now:    time.Now,
	}
}

// Run executes a single tool by id against the given pages.
func (t *Toolbox) Run(ctx context.Context, toolID string, pages []image.Image) *ToolResult {
	info, ok := LookupTool(toolID)
	if !ok {
		return &ToolResult{
			Success: false,
			Error:   fmt.Sprintf("unknown tool: %s", toolID),
		}
	}

	result := runTool(ctx, t.logger, toolID, func(ctx context.Context) (toolOutput, error) {
		if len(pages) == 0 {
			return toolOutput{}, fmt.Errorf("document has no pages")
		}
		return info.run(ctx, t, pages)
	})
	if result.Success {
		RecordPageAnalysis(toolID, len(pages))
	}
	return result
}

// RunAll executes every registered tool concurrently and returns results
// keyed by tool id. render supplies pages at the DPI each tool asks for;
// backed by the render cache it runs once per distinct DPI. The tools
// share no state, so parallelism is bounded only by CPU and the OCR
// engine.
func (t *Toolbox) RunAll(ctx context.Context, render func(ctx context.Context, dpi int) ([]image.Image, error)) map[string]*ToolResult {
	results := make([]*ToolResult, len(ToolCatalog))

	g, gctx := errgroup.WithContext(ctx)
	for i, info := range ToolCatalog {
		g.Go(func() error {
			pages, err := render(gctx, info.RenderDPI)
			if err != nil {
				results[i] = &ToolResult{
					Success: false,
					Error:   fmt.Sprintf("rendering document: %v", err),
				}
				return nil
			}
			results[i] = t.Run(gctx, info.Id, pages)
			return nil
		})
	}
	_ = g.Wait()

	out := make(map[string]*ToolResult, len(ToolCatalog))
	for i, info := range ToolCatalog {
		out[info.Id] = results[i]
	}
	return out
}

func (t *Toolbox) runBlankPages(_ context.Context, pages []image.Image) (toolOutput, error) {
	result := blank.Detect(pages, blank.DefaultConfig())

	message := "No blank pages detected"
	if len(result.BlankPages) > 0 {
		message = fmt.Sprintf("Skip pages %v", result.BlankPages)
	}

	return toolOutput{
		data: map[string]any{
			"blank_pages":         result.BlankPages,
			"confidence_per_page": result.ConfidencePerPage,
			"total_pages":         result.TotalPages,
		},
		hints: map[string]any{
			"blank_pages": result.BlankPages,
			"total_pages": result.TotalPages,
			"message":     message,
		},
		confidence: result.Confidence,
	}, nil
}

func (t *Toolbox) runIDCardSides(_ context.Context, pages []image.Image) (toolOutput, error) {
	result := idcard.Detect(pages, idcard.DefaultConfig())

	message := "No ID cards detected"
	if len(result.Cards) > 0 {
		parts := make([]string, len(result.Cards))
		for i, c := range result.Cards {
			parts[i] = fmt.Sprintf("page %d (%s)", c.Page, c.Side)
		}
		message = "ID cards detected: " + strings.Join(parts, ", ")
		if len(result.Groupings) > 0 {
			message += fmt.Sprintf(". Suggested groupings: %v", result.Groupings)
		}
	}

	return toolOutput{
		data: map[string]any{
			"id_cards":    result.Cards,
			"groupings":   result.Groupings,
			"total_pages": result.TotalPages,
		},
		hints: map[string]any{
			"id_cards":  result.Cards,
			"groupings": result.Groupings,
			"message":   message,
		},
		confidence: result.Confidence,
	}, nil
}

func (t *Toolbox) runCRADocumentType(ctx context.Context, pages []image.Image) (toolOutput, error) {
	result := doctype.DetectCRA(ctx, t.ocr, pages)

	message := "No CRA documents detected"
	if len(result.Documents) > 0 {
		// Count per type, preserving first-seen order
		var order []string
		counts := map[string]int{}
		for _, doc := range result.Documents {
			if _, seen := counts[doc.Type]; !seen {
				order = append(order, doc.Type)
			}
			counts[doc.Type]++
		}
		parts := make([]string, len(order))
		for i, docType := range order {
			parts[i] = fmt.Sprintf("%dx %s", counts[docType], docType)
		}
		message = "CRA documents detected: " + strings.Join(parts, ", ")
	}

	return toolOutput{
		data: map[string]any{
			"documents":   result.Documents,
			"total_pages": result.TotalPages,
		},
		hints: map[string]any{
			"cra_documents": result.Documents,
			"message":       message,
		},
		confidence: result.Confidence,
	}, nil
}

func (t *Toolbox) runTaxFormType(ctx context.Context, pages []image.Image) (toolOutput, error) {
	result := doctype.DetectTaxForms(ctx, t.ocr, pages)

	message := "No tax forms detected"
	if len(result.TaxForms) > 0 {
		var order []string
		formPages := map[string][]int{}
		for _, form := range result.TaxForms {
			if _, seen := formPages[form.FormType]; !seen {
				order = append(order, form.FormType)
			}
			formPages[form.FormType] = append(formPages[form.FormType], form.Page)
		}
		parts := make([]string, len(order))
		for i, formType := range order {
			parts[i] = fmt.Sprintf("%s (pages %v)", formType, formPages[formType])
		}
		message = "Tax forms detected: " + strings.Join(parts, ", ")
	}

	return toolOutput{
		data: map[string]any{
			"tax_forms":   result.TaxForms,
			"total_pages": result.TotalPages,
		},
		hints: map[string]any{
			"tax_forms": result.TaxForms,
			"message":   message,
		},
		confidence: result.Confidence,
	}, nil
}

func (t *Toolbox) runFiscalYear(ctx context.Context, pages []image.Image) (toolOutput, error) {
	result := fiscalyear.Detect(ctx, t.ocr, pages, t.now())

	message := "No fiscal years detected"
	if len(result.FiscalYears) > 0 {
		if result.MostCommonYear != 0 {
			message = fmt.Sprintf("Fiscal year %d detected across %d pages",
				result.MostCommonYear, len(result.FiscalYears))
		} else {
			message = fmt.Sprintf("Fiscal years detected on %d pages", len(result.FiscalYears))
		}
	}

	return toolOutput{
		data: map[string]any{
			"fiscal_years":     result.FiscalYears,
			"most_common_year": result.MostCommonYear,
			"total_pages":      result.TotalPages,
		},
		hints: map[string]any{
			"fiscal_years":     result.FiscalYears,
			"most_common_year": result.MostCommonYear,
			"message":          message,
		},
		confidence: result.Confidence,
	}, nil
}

func (t *Toolbox) runDocumentBoundaries(ctx context.Context, pages []image.Image) (toolOutput, error) {
	result := splitter.Detect(ctx, t.ocr, pages)

	message := "Single document (no splits needed)"
	if len(result.DocumentRanges) > 1 {
		message = fmt.Sprintf("Multiple documents detected: %d documents. Split at pages: %v",
			len(result.DocumentRanges), result.SplitPoints[1:])
	}

	return toolOutput{
		data: map[string]any{
			"split_points":    result.SplitPoints,
			"document_ranges": result.DocumentRanges,
			"confidences":     result.Confidences,
			"reasons":         result.Reasons,
			"total_pages":     result.TotalPages,
		},
		hints: map[string]any{
			"split_points":    result.SplitPoints,
			"document_ranges": result.DocumentRanges,
			"message":         message,
		},
		confidence: result.Confidence,
	}, nil
}

func (t *Toolbox) runImageQuality(_ context.Context, pages []image.Image) (toolOutput, error) {
	result := quality.AssessDocument(pages)

	var message string
	if result.NeedsPreprocessing {
		message = fmt.Sprintf("Overall quality: %s. Preprocessing recommended: %s",
			result.OverallQuality, strings.Join(result.Recommendations, ", "))
	} else {
		message = fmt.Sprintf("Overall quality: %s. No preprocessing needed.", result.OverallQuality)
	}

	return toolOutput{
		data: map[string]any{
			"pages":                 result.Pages,
			"overall_quality":       result.OverallQuality,
			"average_quality_score": result.AverageQualityScore,
			"needs_preprocessing":   result.NeedsPreprocessing,
			"recommendations":       result.Recommendations,
			"total_pages":           result.TotalPages,
		},
		hints: map[string]any{
			"overall_quality":     result.OverallQuality,
			"needs_preprocessing": result.NeedsPreprocessing,
			"recommendations":     result.Recommendations,
			"message":             message,
		},
		confidence: quality.Confidence,
	}, nil
}
