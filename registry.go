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
)

// ToolClass groups tools by the document workflows they serve.
type ToolClass string

const (
	// ToolClassAllAround tools apply to any scanned document.
	ToolClassAllAround ToolClass = "all_around"
	// ToolClassMortgage tools are specific to mortgage file processing.
	ToolClassMortgage ToolClass = "hypothecaire"
)

// ToolInfo describes a registered tool. RenderDPI is the resolution the
// tool wants its pages rendered at; UsesOCR reports whether the tool
// reads text from page zones.
type ToolInfo struct {
	Id          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Class       ToolClass `json:"class"`
	RenderDPI   int       `json:"render_dpi"`
	UsesOCR     bool      `json:"uses_ocr"`

	run func(ctx context.Context, t *Toolbox, pages []image.Image) (toolOutput, error)
}

// Tool ids.
const (
	ToolDetectBlankPages         = "detect_blank_pages"
	ToolDetectIDCardSides        = "detect_id_card_sides"
	ToolIdentifyCRADocumentType  = "identify_cra_document_type"
	ToolDetectTaxFormType        = "detect_tax_form_type"
	ToolDetectFiscalYear         = "detect_fiscal_year"
	ToolDetectDocumentBoundaries = "detect_document_boundaries"
	ToolAssessImageQuality       = "assess_image_quality"
)

// ToolCatalog is the ordered catalog of supported tools.
var ToolCatalog = []ToolInfo{
	{
		Id:          ToolDetectBlankPages,
		Name:        "Blank Page Detector",
		Description: "Detect blank or near-blank pages from pixel variance and ink density",
		Class:       ToolClassAllAround,
		RenderDPI:   150,
		UsesOCR:     false,
		run: func(ctx context.Context, t *Toolbox, pages []image.Image) (toolOutput, error) {
			return t.runBlankPages(ctx, pages)
		},
	},
	{
		Id:          ToolDetectIDCardSides,
		Name:        "ID Card Side Classifier",
		Description: "Classify ID card pages as recto or verso and suggest recto/verso pairings",
		Class:       ToolClassAllAround,
		RenderDPI:   200,
		UsesOCR:     false,
		run: func(ctx context.Context, t *Toolbox, pages []image.Image) (toolOutput, error) {
			return t.runIDCardSides(ctx, pages)
		},
	},
	{
		Id:          ToolIdentifyCRADocumentType,
		Name:        "CRA Document Classifier",
		Description: "Identify Canada Revenue Agency document types from zone OCR and pattern tables",
		Class:       ToolClassAllAround,
		RenderDPI:   150,
		UsesOCR:     true,
		run: func(ctx context.Context, t *Toolbox, pages []image.Image) (toolOutput, error) {
			return t.runCRADocumentType(ctx, pages)
		},
	},
	{
		Id:          ToolDetectTaxFormType,
		Name:        "Tax Form Detector",
		Description: "Detect Canadian and Quebec tax form types (T4, T5, RL-1, ...) with tax year",
		Class:       ToolClassMortgage,
		RenderDPI:   200,
		UsesOCR:     true,
		run: func(ctx context.Context, t *Toolbox, pages []image.Image) (toolOutput, error) {
			return t.runTaxFormType(ctx, pages)
		},
	},
	{
		Id:          ToolDetectFiscalYear,
		Name:        "Fiscal Year Detector",
		Description: "Extract the fiscal year a document refers to from dated zones",
		Class:       ToolClassAllAround,
		RenderDPI:   150,
		UsesOCR:     true,
		run: func(ctx context.Context, t *Toolbox, pages []image.Image) (toolOutput, error) {
			return t.runFiscalYear(ctx, pages)
		},
	},
	{
		Id:          ToolDetectDocumentBoundaries,
		Name:        "Document Boundary Detector",
		Description: "Split a multi-document scan into ranges using blank pages, layout hashes and page numbering",
		Class:       ToolClassAllAround,
		RenderDPI:   150,
		UsesOCR:     true,
		run: func(ctx context.Context, t *Toolbox, pages []image.Image) (toolOutput, error) {
			return t.runDocumentBoundaries(ctx, pages)
		},
	},
	{
		Id:          ToolAssessImageQuality,
		Name:        "Image Quality Assessor",
		Description: "Score scan quality (DPI, blur, brightness, skew) and recommend preprocessing",
		Class:       ToolClassAllAround,
		RenderDPI:   150,
		UsesOCR:     false,
		run: func(ctx context.Context, t *Toolbox, pages []image.Image) (toolOutput, error) {
			return t.runImageQuality(ctx, pages)
		},
	},
}

// LookupTool finds a tool by id.
func LookupTool(id string) (ToolInfo, bool) {
	for _, info := range ToolCatalog {
		if info.Id == id {
			return info, true
		}
	}
	return ToolInfo{}, false
}
