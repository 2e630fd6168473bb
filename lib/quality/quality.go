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

// Package quality scores scanned pages for downstream processing:
// resolution, sharpness, brightness, contrast, and skew. Each page gets
// a 0-100 score with concrete preprocessing recommendations.
package quality

import (
	"fmt"
	"image"
	"math"
	"sort"

	"github.com/madera-ai/hints/lib/vision"
)

// Quality thresholds.
const (
	MinDPI        = 150
	GoodDPI       = 300
	MinSharpness  = 100.0
	MinBrightness = 50.0
	MaxBrightness = 200.0
	MinContrast   = 30.0
	MaxSkewAngle  = 3.0
)

// Confidence reflects that the metrics are direct pixel measurements,
// not inferences.
const Confidence = 0.90

// PageQuality is the assessment of a single page.
type PageQuality struct {
	Page               int      `json:"page"`
	DPI                int      `json:"dpi"`
	BlurScore          float64  `json:"blur_score"`
	BlurLevel          string   `json:"blur_level"`
	Brightness         float64  `json:"brightness"`
	Contrast           float64  `json:"contrast"`
	SkewAngle          float64  `json:"skew_angle"`
	QualityScore       float64  `json:"quality_score"`
	QualityLevel       string   `json:"quality_level"`
	NeedsPreprocessing bool     `json:"needs_preprocessing"`
	Recommendations    []string `json:"recommendations"`
}

// Result is the document-level assessment.
type Result struct {
	Pages               map[int]PageQuality `json:"pages"`
	OverallQuality      string              `json:"overall_quality"`
	AverageQualityScore float64             `json:"average_quality_score"`
	NeedsPreprocessing  bool                `json:"needs_preprocessing"`
	Recommendations     []string            `json:"recommendations"`
	TotalPages          int                 `json:"total_pages"`
}

// EstimateDPI estimates resolution from pixel dimensions, assuming a
// letter-size page.
func EstimateDPI(width, height int) int {
	if height > width {
		return height / 11
	}
	return width / 11
}

// BlurLevel buckets a Laplacian variance into a sharpness label.
func BlurLevel(variance float64) string {
	switch {
	case variance > 500:
		return "excellent"
	case variance > 200:
		return "good"
	case variance > 100:
		return "acceptable"
	case variance > 50:
		return "poor"
	default:
		return "very_poor"
	}
}

// BrightnessIssues lists what is wrong with the page exposure: too_dark,
// too_bright and low_contrast.
func BrightnessIssues(mean, stddev float64) []string {
	var issues []string
	if mean < MinBrightness {
		issues = append(issues, "too_dark")
	} else if mean > MaxBrightness {
		issues = append(issues, "too_bright")
	}
	if stddev < MinContrast {
		issues = append(issues, "low_contrast")
	}
	return issues
}

// scoreLevel buckets a 0-100 score into a quality label.
func scoreLevel(score float64) string {
	switch {
	case score >= 85:
		return "excellent"
	case score >= 70:
		return "good"
	case score >= 50:
		return "acceptable"
	case score >= 30:
		return "poor"
	default:
		return "very_poor"
	}
}

// Assess scores a single page. Starts from 100 and subtracts penalties
// for low resolution, blur, exposure issues and skew; each penalty adds
// a recommendation.
func Assess(img image.Image) PageQuality {
	g := vision.ToGray(img)
	bounds := g.Bounds()

	dpi := EstimateDPI(bounds.Dx(), bounds.Dy())
	blurScore := vision.LaplacianVariance(g)
	brightness, contrast := vision.MeanStdDev(g)
	skewAngle := vision.EstimateSkew(g)
	issues := BrightnessIssues(brightness, contrast)

	score := 100.0
	var recommendations []string

	if dpi < MinDPI {
		score -= float64(MinDPI-dpi) / float64(MinDPI) * 40
		recommendations = append(recommendations, fmt.Sprintf("increase_dpi_from_%d_to_%d", dpi, MinDPI))
	} else if dpi < GoodDPI {
		score -= float64(GoodDPI-dpi) / float64(GoodDPI) * 10
	}

	if blurScore < MinSharpness {
		score -= (MinSharpness - blurScore) / MinSharpness * 30
		recommendations = append(recommendations, "image_too_blurry")
	}

	for _, issue := range issues {
		score -= 15
		recommendations = append(recommendations, issue)
	}

	if math.Abs(skewAngle) > MaxSkewAngle {
		score -= math.Min(math.Abs(skewAngle)*5, 20)
		recommendations = append(recommendations, fmt.Sprintf("deskew_%.1f_degrees", math.Abs(skewAngle)))
	}

	score = math.Max(0, math.Min(100, score))

	return PageQuality{
		DPI:                dpi,
		BlurScore:          math.Round(blurScore*100) / 100,
		BlurLevel:          BlurLevel(blurScore),
		Brightness:         math.Round(brightness*100) / 100,
		Contrast:           math.Round(contrast*100) / 100,
		SkewAngle:          math.Round(skewAngle*100) / 100,
		QualityScore:       math.Round(score*100) / 100,
		QualityLevel:       scoreLevel(score),
		NeedsPreprocessing: len(recommendations) > 0,
		Recommendations:    recommendations,
	}
}

// AssessDocument scores every page and averages the result. The document
// needs preprocessing when any page does.
func AssessDocument(pages []image.Image) Result {
	result := Result{
		Pages:      map[int]PageQuality{},
		TotalPages: len(pages),
	}

	seen := map[string]bool{}
	var sum float64

	for i, page := range pages {
		pq := Assess(page)
		pq.Page = i + 1
		result.Pages[pq.Page] = pq

		sum += pq.QualityScore
		if pq.NeedsPreprocessing {
			result.NeedsPreprocessing = true
		}
		for _, rec := range pq.Recommendations {
			if !seen[rec] {
				seen[rec] = true
				result.Recommendations = append(result.Recommendations, rec)
			}
		}
	}

	if len(pages) > 0 {
		result.AverageQualityScore = math.Round(sum/float64(len(pages))*100) / 100
	}

	sort.Strings(result.Recommendations)

	switch {
	case result.AverageQualityScore >= 85:
		result.OverallQuality = "excellent"
	case result.AverageQualityScore >= 70:
		result.OverallQuality = "good"
	case result.AverageQualityScore >= 50:
		result.OverallQuality = "acceptable"
	default:
		result.OverallQuality = "poor"
	}

	return result
}
