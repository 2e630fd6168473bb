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

// Package fiscalyear extracts the fiscal year of tax and financial
// documents from zonal OCR text. Labeled mentions ("Tax Year 2024",
// date ranges) outrank standalone four-digit years; findings across
// zones are aggregated per page and validated against a plausibility
// window around the current date.
package fiscalyear

import (
	"context"
	"image"
	"math"
	"regexp"
	"strconv"
	"time"

	"github.com/madera-ai/hints/lib/ocr"
	"github.com/madera-ai/hints/lib/vision"
)

// NoYearConfidence is reported when no page yields a fiscal year.
const NoYearConfidence = 0.70

// Finding is one year mention with the pattern family that produced it.
type Finding struct {
	Year       int     `json:"year"`
	Context    string  `json:"context"`
	Confidence float64 `json:"confidence"`
}

// yearPatterns is ordered from strongest to weakest evidence. Each entry
// captures the year as group 1.
var yearPatterns = []struct {
	re         *regexp.Regexp
	context    string
	confidence float64
}{
	{
		re:         regexp.MustCompile(`(?i)(?:tax\s+year|ann[ée]e\s+d.imposition|fiscal\s+year|taxation\s+year)\s*:?\s*(\d{4})`),
		context:    "tax_year_label",
		confidence: 0.95,
	},
	{
		re:         regexp.MustCompile(`(?i)(?:for\s+the\s+year|pour\s+l.ann[ée]e)\s+(\d{4})`),
		context:    "for_the_year",
		confidence: 0.90,
	},
	{
		re:         regexp.MustCompile(`(?i)(\d{4})\s+(?:tax\s+return|income\s+tax|d[ée]claration|notice|avis)`),
		context:    "year_before_label",
		confidence: 0.85,
	},
	{
		re:         regexp.MustCompile(`(?i)(?:january|janvier)\s+\d+,?\s+(\d{4})\s+(?:to|[àa])\s+(?:december|d[ée]cembre)\s+\d+,?\s+\d{4}`),
		context:    "date_range",
		confidence: 0.92,
	},
	{
		re:         regexp.MustCompile(`(?i)as\s+of\s+(?:december|d[ée]cembre)\s+\d+,?\s+(\d{4})`),
		context:    "as_of_date",
		confidence: 0.88,
	},
	{
		re:         regexp.MustCompile(`\b(202[0-9]|203[0])\b`),
		context:    "standalone_year",
		confidence: 0.60,
	},
}

// ExtractYears returns every year mention in the text. The same year may
// appear multiple times under different contexts; aggregation rewards
// that.
func ExtractYears(text string) []Finding {
	var findings []Finding
	for _, p := range yearPatterns {
		for _, m := range p.re.FindAllStringSubmatch(text, -1) {
			year, err := strconv.Atoi(m[1])
			if err != nil {
				continue
			}
			findings = append(findings, Finding{
				Year:       year,
				Context:    p.context,
				Confidence: p.confidence,
			})
		}
	}
	return findings
}

// searchZone is one page region scanned for years, with the confidence
// boost its location earns.
type searchZone struct {
	name  string
	zone  vision.Zone
	boost float64
}

// pageZones returns the regions where fiscal years commonly appear.
// Header and top-right findings get a boost; those are the standard
// placements on Canadian tax slips.
func pageZones(width, height int) []searchZone {
	return []searchZone{
		{name: "header", zone: vision.FractionalZone(width, height, 0, 0, 1, 0.12), boost: 0.05},
		{name: "top_right", zone: vision.FractionalZone(width, height, 0.65, 0, 0.35, 0.15), boost: 0.03},
		{name: "top_left", zone: vision.FractionalZone(width, height, 0, 0, 0.35, 0.15)},
		{name: "center_top", zone: vision.FractionalZone(width, height, 0.25, 0.1, 0.5, 0.15)},
	}
}

// ValidYear reports whether year is plausible as a fiscal year: from ten
// years ago to two years ahead of now.
func ValidYear(year int, now time.Time) bool {
	current := now.Year()
	return current-10 <= year && year <= current+2
}

// Aggregate merges the findings of one page into a single (year, score)
// pick. Implausible years are discarded; each surviving year scores the
// average of its confidences plus a capped bonus for repeated detection.
// Returns (0, 0) when nothing survives.
func Aggregate(findings []Finding, now time.Time) (int, float64) {
	grouped := map[int][]float64{}
	var order []int

	for _, f := range findings {
		if !ValidYear(f.Year, now) {
			continue
		}
		if _, seen := grouped[f.Year]; !seen {
			order = append(order, f.Year)
		}
		grouped[f.Year] = append(grouped[f.Year], f.Confidence)
	}

	bestYear := 0
	bestScore := 0.0

	// First-seen order breaks score ties deterministically.
	for _, year := range order {
		confs := grouped[year]
		var sum float64
		for _, c := range confs {
			sum += c
		}
		avg := sum / float64(len(confs))
		bonus := math.Min(float64(len(confs))*0.05, 0.15)
		score := math.Min(avg+bonus, 0.98)

		if score > bestScore {
			bestScore = score
			bestYear = year
		}
	}

	return bestYear, bestScore
}

// ClassifyPage scans one page's zones and aggregates the year mentions.
// Returns (0, 0) when no plausible year is found.
func ClassifyPage(ctx context.Context, engine ocr.Engine, img image.Image, now time.Time) (int, float64) {
	bounds := img.Bounds()

	var findings []Finding
	for _, sz := range pageZones(bounds.Dx(), bounds.Dy()) {
		text := ocr.ZoneText(ctx, engine, img, sz.zone, ocr.DefaultLanguages)
		for _, f := range ExtractYears(text) {
			if sz.boost > 0 {
				f.Confidence = math.Min(f.Confidence+sz.boost, 0.98)
			}
			findings = append(findings, f)
		}
	}

	return Aggregate(findings, now)
}

// PageYear is the fiscal year detected on one page.
type PageYear struct {
	Year       int     `json:"year"`
	Confidence float64 `json:"confidence"`
}

// Result is the document-level fiscal year detection. FiscalYears is
// keyed by 1-based page number; pages without a detected year are
// absent.
type Result struct {
	FiscalYears    map[int]PageYear `json:"fiscal_years"`
	MostCommonYear int              `json:"most_common_year,omitempty"`
	TotalPages     int              `json:"total_pages"`
	Confidence     float64          `json:"confidence"`
}

// Detect scans every page and picks the most common year across the
// document. now anchors the plausibility window.
func Detect(ctx context.Context, engine ocr.Engine, pages []image.Image, now time.Time) Result {
	result := Result{
		FiscalYears: map[int]PageYear{},
		TotalPages:  len(pages),
	}

	counts := map[int]int{}
	var sum float64

	for i, page := range pages {
		year, score := ClassifyPage(ctx, engine, page, now)
		if year == 0 {
			continue
		}

		pageNum := i + 1
		result.FiscalYears[pageNum] = PageYear{
			Year:       year,
			Confidence: math.Round(score*100) / 100,
		}
		counts[year]++
		sum += result.FiscalYears[pageNum].Confidence

		// Earliest-page year wins a count tie.
		if result.MostCommonYear == 0 || counts[year] > counts[result.MostCommonYear] {
			result.MostCommonYear = year
		}
	}

	if len(result.FiscalYears) > 0 {
		result.Confidence = sum / float64(len(result.FiscalYears))
	} else {
		result.Confidence = NoYearConfidence
	}

	return result
}
