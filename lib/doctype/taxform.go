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

package doctype

import (
	"context"
	"image"
	"math"
	"strconv"
	"strings"

	"github.com/madera-ai/hints/lib/ocr"
	"github.com/madera-ai/hints/lib/vision"
)

// NoFormsConfidence is reported when no page carries a tax slip.
const NoFormsConfidence = 0.80

// codeMatchConfidence applies when the form code is read directly from
// its standard top-right location, which is more reliable than content
// scoring.
const codeMatchConfidence = 0.90

// TaxFormFinding is a page identified as a Canadian tax slip.
type TaxFormFinding struct {
	Page            int      `json:"page"`
	FormType        string   `json:"form_type"`
	Year            int      `json:"year,omitempty"`
	Confidence      float64  `json:"confidence"`
	Issuer          string   `json:"issuer"`
	MatchedKeywords []string `json:"matched_keywords"`
}

// TaxFormResult is the document-level tax slip detection.
type TaxFormResult struct {
	TaxForms   []TaxFormFinding `json:"tax_forms"`
	TotalPages int              `json:"total_pages"`
	Confidence float64          `json:"confidence"`
}

// extractFormCode reads the standard form code location, the top-right
// corner of the page.
func extractFormCode(ctx context.Context, engine ocr.Engine, img image.Image) string {
	bounds := img.Bounds()
	topRight := vision.FractionalZone(bounds.Dx(), bounds.Dy(), 0.7, 0, 0.3, 0.15)
	text := ocr.ZoneText(ctx, engine, img, topRight, ocr.DefaultLanguages)
	if text == "" {
		return ""
	}

	for _, form := range taxForms {
		if form.Codes.MatchString(text) {
			return form.Code
		}
	}
	return ""
}

// detectFormByContent scores the top 40% of the page against each form's
// patterns and keywords. Patterns count double; they are the form's own
// title lines, keywords merely corroborate.
func detectFormByContent(ctx context.Context, engine ocr.Engine, img image.Image) (string, float64, []string) {
	bounds := img.Bounds()
	content := vision.FractionalZone(bounds.Dx(), bounds.Dy(), 0, 0, 1, 0.4)
	text := ocr.ZoneText(ctx, engine, img, content, ocr.DefaultLanguages)
	if text == "" {
		return "", 0, nil
	}

	bestCode := ""
	bestScore := 0
	var matched []string

	for _, form := range taxForms {
		score := 0
		var hits []string

		for _, p := range form.Patterns {
			if p.MatchString(text) {
				score += 2
				hits = append(hits, p.String())
			}
		}
		// Zone text is already lowercased by the OCR layer, as are the
		// table keywords.
		for _, keyword := range form.Keywords {
			if strings.Contains(text, keyword) {
				score++
				hits = append(hits, keyword)
			}
		}

		if score > bestScore {
			bestScore = score
			bestCode = form.Code
			matched = hits
		}
	}

	if bestCode == "" {
		return "", 0, nil
	}
	return bestCode, math.Min(0.3+float64(bestScore)*0.15, 0.92), matched
}

// extractYear finds a plausible tax year near the form code or in the
// header.
func extractYear(ctx context.Context, engine ocr.Engine, img image.Image) int {
	bounds := img.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()

	zones := []vision.Zone{
		vision.FractionalZone(w, h, 0.7, 0, 0.3, 0.15),
		vision.FractionalZone(w, h, 0, 0, 1, 0.1),
	}

	for _, zone := range zones {
		text := ocr.ZoneText(ctx, engine, img, zone, ocr.DefaultLanguages)
		if m := yearPattern.FindStringSubmatch(text); m != nil {
			year, err := strconv.Atoi(m[1])
			if err == nil {
				return year
			}
		}
	}
	return 0
}

// ClassifyTaxFormPage detects a tax slip on a single page. The direct
// form code read is preferred; content scoring is the fallback. The
// boolean is false when neither method finds a form.
func ClassifyTaxFormPage(ctx context.Context, engine ocr.Engine, img image.Image) (TaxFormFinding, bool) {
	var keywords []string
	confidence := 0.0

	formCode := extractFormCode(ctx, engine, img)
	if formCode != "" {
		confidence = codeMatchConfidence
	} else {
		formCode, confidence, keywords = detectFormByContent(ctx, engine, img)
	}

	if formCode == "" {
		return TaxFormFinding{}, false
	}

	year := extractYear(ctx, engine, img)
	if year != 0 {
		confidence = math.Min(confidence+0.05, 0.95)
	}

	issuer := "unknown"
	for _, form := range taxForms {
		if form.Code == formCode {
			issuer = form.Issuer
			break
		}
	}

	return TaxFormFinding{
		FormType:        formCode,
		Year:            year,
		Confidence:      math.Round(confidence*100) / 100,
		Issuer:          issuer,
		MatchedKeywords: keywords,
	}, true
}

// DetectTaxForms classifies every page of a document.
func DetectTaxForms(ctx context.Context, engine ocr.Engine, pages []image.Image) TaxFormResult {
	result := TaxFormResult{
		TaxForms:   []TaxFormFinding{},
		TotalPages: len(pages),
	}

	var sum float64
	for i, page := range pages {
		finding, ok := ClassifyTaxFormPage(ctx, engine, page)
		if !ok {
			continue
		}
		finding.Page = i + 1
		result.TaxForms = append(result.TaxForms, finding)
		sum += finding.Confidence
	}

	if len(result.TaxForms) > 0 {
		result.Confidence = sum / float64(len(result.TaxForms))
	} else {
		result.Confidence = NoFormsConfidence
	}

	return result
}
