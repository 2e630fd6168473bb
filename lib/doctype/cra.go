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

// Package doctype identifies Canadian tax documents from zonal OCR text.
// It covers two related classifiers: CRA document categories (notice of
// assessment, statement of account, ...) and tax slip codes (T4, T5,
// RL-1, ...). Both read a handful of page zones rather than the full
// page, trading recall for speed.
package doctype

import (
	"context"
	"image"
	"math"
	"strings"

	"github.com/madera-ai/hints/lib/ocr"
	"github.com/madera-ai/hints/lib/vision"
)

// NoCRAConfidence is reported when no page looks like a CRA document.
const NoCRAConfidence = 0.85

// UnknownCRAType labels pages with a CRA header but no recognizable
// category.
const UnknownCRAType = "unknown_cra_document"

// CRADocument is a page identified as issued by the Canada Revenue
// Agency.
type CRADocument struct {
	Page            int      `json:"page"`
	Type            string   `json:"type"`
	Issuer          string   `json:"issuer"`
	FormNumber      string   `json:"form_number,omitempty"`
	Confidence      float64  `json:"confidence"`
	MatchedPatterns []string `json:"matched_patterns"`
}

// CRAResult is the document-level CRA classification.
type CRAResult struct {
	Documents  []CRADocument `json:"documents"`
	TotalPages int           `json:"total_pages"`
	Confidence float64       `json:"confidence"`
}

// detectCRAIssuer scans the header band for CRA keywords. Confidence
// scales with the number of distinct keywords found, saturating at two.
func detectCRAIssuer(ctx context.Context, engine ocr.Engine, img image.Image) (bool, float64) {
	bounds := img.Bounds()
	header := vision.FractionalZone(bounds.Dx(), bounds.Dy(), 0, 0, 1, 0.15)
	text := ocr.ZoneText(ctx, engine, img, header, ocr.DefaultLanguages)

	matches := 0
	for _, keyword := range craKeywords {
		if strings.Contains(text, keyword) {
			matches++
		}
	}

	return matches > 0, math.Min(float64(matches)/2.0, 0.95)
}

// identifyCRAType matches the combined text of four page zones against
// the category pattern table and keeps the best-scoring category.
func identifyCRAType(ctx context.Context, engine ocr.Engine, img image.Image) (string, float64, []string) {
	bounds := img.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()

	zones := []vision.Zone{
		vision.FractionalZone(w, h, 0, 0, 1, 0.15),          // header
		vision.FractionalZone(w, h, 0, 0, 0.4, 0.25),        // top left
		vision.FractionalZone(w, h, 0.6, 0, 0.4, 0.25),      // top right
		vision.FractionalZone(w, h, 0.25, 0.3, 0.5, 0.4),    // center
	}

	texts := make([]string, 0, len(zones))
	for _, zone := range zones {
		texts = append(texts, ocr.ZoneText(ctx, engine, img, zone, ocr.DefaultLanguages))
	}
	combined := strings.Join(texts, " ")

	bestType := ""
	bestScore := 0
	var matched []string

	for _, dp := range documentPatterns {
		score := 0
		var hits []string
		for _, p := range dp.Patterns {
			if p.MatchString(combined) {
				score++
				hits = append(hits, p.String())
			}
		}
		if score > bestScore {
			bestScore = score
			bestType = dp.Type
			matched = hits
		}
	}

	if bestType == "" {
		return "", 0, nil
	}
	return bestType, math.Min(0.5+float64(bestScore)*0.15, 0.95), matched
}

// detectFormNumber reads the top-right corner for a CRA form number.
func detectFormNumber(ctx context.Context, engine ocr.Engine, img image.Image) string {
	bounds := img.Bounds()
	topRight := vision.FractionalZone(bounds.Dx(), bounds.Dy(), 0.7, 0, 0.3, 0.15)
	text := ocr.ZoneText(ctx, engine, img, topRight, ocr.DefaultLanguages)

	for _, p := range formNumberPatterns {
		if m := p.FindStringSubmatch(text); m != nil {
			return strings.ToUpper(m[1])
		}
	}
	return ""
}

// ClassifyCRAPage decides whether a single page is a CRA document and,
// if so, which category. The boolean is false for non-CRA pages.
func ClassifyCRAPage(ctx context.Context, engine ocr.Engine, img image.Image) (CRADocument, bool) {
	isCRA, issuerConf := detectCRAIssuer(ctx, engine, img)
	if !isCRA {
		return CRADocument{}, false
	}

	docType, typeConf, patterns := identifyCRAType(ctx, engine, img)
	formNumber := detectFormNumber(ctx, engine, img)

	if docType == "" {
		docType = UnknownCRAType
	}

	// Issuer evidence and category evidence are blended 40/60; the
	// category match carries more signal than the header keywords.
	confidence := issuerConf*0.4 + typeConf*0.6

	return CRADocument{
		Type:            docType,
		Issuer:          "cra",
		FormNumber:      formNumber,
		Confidence:      math.Round(confidence*100) / 100,
		MatchedPatterns: patterns,
	}, true
}

// DetectCRA classifies every page of a document. Pages without a CRA
// header are skipped entirely.
func DetectCRA(ctx context.Context, engine ocr.Engine, pages []image.Image) CRAResult {
	result := CRAResult{
		Documents:  []CRADocument{},
		TotalPages: len(pages),
	}

	var sum float64
	for i, page := range pages {
		doc, ok := ClassifyCRAPage(ctx, engine, page)
		if !ok {
			continue
		}
		doc.Page = i + 1
		result.Documents = append(result.Documents, doc)
		sum += doc.Confidence
	}

	if len(result.Documents) > 0 {
		result.Confidence = sum / float64(len(result.Documents))
	} else {
		result.Confidence = NoCRAConfidence
	}

	return result
}
