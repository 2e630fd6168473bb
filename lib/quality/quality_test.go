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

package quality

import (
	"image"
	"image/color"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uniformPage(width, height int, value uint8) *image.Gray {
	g := image.NewGray(image.Rect(0, 0, width, height))
	for i := range g.Pix {
		g.Pix[i] = value
	}
	return g
}

func TestEstimateDPI(t *testing.T) {
	assert.Equal(t, 100, EstimateDPI(850, 1100))
	assert.Equal(t, 100, EstimateDPI(1100, 850))
	assert.Equal(t, 300, EstimateDPI(2550, 3300))
	assert.Equal(t, 72, EstimateDPI(612, 792))
}

func TestBlurLevel(t *testing.T) {
	assert.Equal(t, "excellent", BlurLevel(600))
	assert.Equal(t, "good", BlurLevel(350))
	assert.Equal(t, "acceptable", BlurLevel(150))
	assert.Equal(t, "poor", BlurLevel(75))
	assert.Equal(t, "very_poor", BlurLevel(10))
}

func TestBrightnessIssues(t *testing.T) {
	assert.Empty(t, BrightnessIssues(128, 60))
	assert.Equal(t, []string{"too_dark"}, BrightnessIssues(30, 60))
	assert.Equal(t, []string{"too_bright"}, BrightnessIssues(230, 60))
	assert.Equal(t, []string{"low_contrast"}, BrightnessIssues(128, 10))
	assert.Equal(t, []string{"too_dark", "low_contrast"}, BrightnessIssues(30, 5))
}

func TestAssess_LowResOverexposedScan(t *testing.T) {
	// 72 DPI fax-quality page, uniformly overexposed: every penalty
	// except skew fires.
	pq := Assess(uniformPage(612, 792, 230))

	assert.Equal(t, 72, pq.DPI)
	assert.Equal(t, "very_poor", pq.BlurLevel)
	assert.InDelta(t, 230.0, pq.Brightness, 1e-9)
	assert.Zero(t, pq.Contrast)
	assert.Zero(t, pq.SkewAngle)

	// 100 - 20.8 (dpi) - 30 (blur) - 15 (too_bright) - 15 (low_contrast).
	assert.InDelta(t, 19.2, pq.QualityScore, 0.01)
	assert.Equal(t, "very_poor", pq.QualityLevel)
	assert.True(t, pq.NeedsPreprocessing)
	assert.Contains(t, pq.Recommendations, "increase_dpi_from_72_to_150")
	assert.Contains(t, pq.Recommendations, "image_too_blurry")
	assert.Contains(t, pq.Recommendations, "too_bright")
	assert.Contains(t, pq.Recommendations, "low_contrast")
}

func TestAssess_SkewedPage(t *testing.T) {
	// White page with parallel lines tilted roughly 5 degrees.
	g := uniformPage(300, 300, 255)
	tan := math.Tan(5 * math.Pi / 180)
	for i := 0; i < 5; i++ {
		base := 40 + i*50
		for x := 0; x < 300; x++ {
			y := base + int(float64(x)*tan)
			for dy := 0; dy < 3; dy++ {
				if y+dy < 300 {
					g.SetGray(x, y+dy, color.Gray{Y: 0})
				}
			}
		}
	}

	pq := Assess(g)
	assert.Greater(t, math.Abs(pq.SkewAngle), MaxSkewAngle)

	found := false
	for _, rec := range pq.Recommendations {
		if strings.HasPrefix(rec, "deskew_") {
			found = true
		}
	}
	assert.True(t, found, "expected a deskew recommendation, got %v", pq.Recommendations)
}

func TestAssessDocument(t *testing.T) {
	pages := []image.Image{
		uniformPage(612, 792, 230), // overexposed
		uniformPage(612, 792, 128), // midtone but flat and low-res
	}

	result := AssessDocument(pages)
	require.Len(t, result.Pages, 2)
	assert.Equal(t, 2, result.TotalPages)
	assert.Equal(t, 1, result.Pages[1].Page)

	// Page scores 19.2 and 34.2 average to 26.7.
	assert.InDelta(t, 26.7, result.AverageQualityScore, 0.01)
	assert.Equal(t, "poor", result.OverallQuality)
	assert.True(t, result.NeedsPreprocessing)

	// Deduplicated across pages and sorted.
	assert.Equal(t, []string{
		"image_too_blurry",
		"increase_dpi_from_72_to_150",
		"low_contrast",
		"too_bright",
	}, result.Recommendations)
}

func TestAssessDocument_Empty(t *testing.T) {
	result := AssessDocument(nil)
	assert.Empty(t, result.Pages)
	assert.False(t, result.NeedsPreprocessing)
	assert.Zero(t, result.AverageQualityScore)
	assert.Equal(t, "poor", result.OverallQuality)
}
