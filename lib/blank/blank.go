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

// Package blank classifies blank or near-blank pages by combining pixel
// variance with sampled ink density. Both signals must agree before a page
// is called blank.
package blank

import (
	"image"

	"github.com/madera-ai/hints/lib/vision"
)

// Config holds the blank-detection thresholds.
type Config struct {
	// VarianceThreshold is the maximum grayscale variance for a blank page.
	VarianceThreshold float64 `json:"variance_threshold"`
	// DensityThreshold is the maximum ink density for a blank page.
	DensityThreshold float64 `json:"density_threshold"`
	// GridSize is the sampling grid used for ink density.
	GridSize int `json:"grid_size"`
	// WhiteCutoff is the intensity below which a pixel counts as ink.
	WhiteCutoff uint8 `json:"white_cutoff"`
}

// DefaultConfig returns the calibrated defaults.
func DefaultConfig() Config {
	return Config{
		VarianceThreshold: 100.0,
		DensityThreshold:  0.02,
		GridSize:          3,
		WhiteCutoff:       240,
	}
}

// NoBlanksConfidence is reported when a document contains no blank pages.
const NoBlanksConfidence = 0.95

// PageFinding is the per-page classification.
type PageFinding struct {
	Page       int     `json:"page"`
	Blank      bool    `json:"blank"`
	Confidence float64 `json:"confidence"`
	Variance   float64 `json:"variance"`
	Density    float64 `json:"density"`
}

// Result is the document-level classification.
type Result struct {
	BlankPages        []int           `json:"blank_pages"`
	ConfidencePerPage map[int]float64 `json:"confidence_per_page"`
	TotalPages        int             `json:"total_pages"`
	Confidence        float64         `json:"confidence"`
}

// Classify decides whether a single page is blank. The page is blank only
// when both variance and density fall below their thresholds. Confidence
// grows with the distance from the thresholds and is clamped into
// [0.5, 1.0] in both branches: the classifier asserts no opinion below 50%.
func Classify(img image.Image, cfg Config) PageFinding {
	g := vision.ToGray(img)

	variance := vision.Variance(g)
	density := vision.InkDensity(g, cfg.GridSize, cfg.WhiteCutoff)

	isBlank := variance < cfg.VarianceThreshold && density < cfg.DensityThreshold

	var confidence float64
	if isBlank {
		varianceConf := 1.0 - variance/cfg.VarianceThreshold
		densityConf := 1.0 - density/cfg.DensityThreshold
		confidence = (varianceConf + densityConf) / 2
	} else {
		varianceConf := min(1.0, (variance-cfg.VarianceThreshold)/cfg.VarianceThreshold)
		densityConf := min(1.0, (density-cfg.DensityThreshold)/cfg.DensityThreshold)
		confidence = (varianceConf + densityConf) / 2
	}

	confidence = max(0.5, min(1.0, confidence))

	return PageFinding{
		Blank:      isBlank,
		Confidence: confidence,
		Variance:   variance,
		Density:    density,
	}
}

// Detect classifies every page of a document. The aggregate confidence is
// the mean over blank pages, or NoBlanksConfidence when none were found.
func Detect(pages []image.Image, cfg Config) Result {
	result := Result{
		BlankPages:        []int{},
		ConfidencePerPage: map[int]float64{},
		TotalPages:        len(pages),
	}

	var sum float64
	for i, page := range pages {
		finding := Classify(page, cfg)
		finding.Page = i + 1

		if finding.Blank {
			result.BlankPages = append(result.BlankPages, finding.Page)
			result.ConfidencePerPage[finding.Page] = finding.Confidence
			sum += finding.Confidence
		}
	}

	if len(result.BlankPages) > 0 {
		result.Confidence = sum / float64(len(result.BlankPages))
	} else {
		result.Confidence = NoBlanksConfidence
	}

	return result
}
