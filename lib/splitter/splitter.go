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

// Package splitter finds document boundaries inside a multi-document
// scan. Four signals mark a page as the start of a new document: a
// preceding blank page, a "page 1 of N" footer, a header/footer change,
// and a coarse layout change. The signals are combined per page and the
// page range is partitioned at the surviving split points.
package splitter

import (
	"context"
	"fmt"
	"image"
	"math"
	"regexp"
	"sort"
	"strconv"

	"github.com/madera-ai/hints/lib/blank"
	"github.com/madera-ai/hints/lib/ocr"
	"github.com/madera-ai/hints/lib/vision"
)

// SingleDocumentConfidence is reported when no split point is found.
const SingleDocumentConfidence = 0.90

// Split signal confidences. A blank separator is the strongest signal;
// layout drift alone the weakest.
const (
	blankSplitConfidence   = 0.85
	pageOneConfidence      = 0.80
	headerChangeConfidence = 0.70
	layoutChangeConfidence = 0.60
)

// layoutDiffThreshold is the quadrant-count distance above which two
// consecutive pages count as having different layouts.
const layoutDiffThreshold = 10

// pageNumberPatterns match footer page numbering, most specific first.
var pageNumberPatterns = []*regexp.Regexp{
	regexp.MustCompile(`page\s+(\d+)\s+of\s+(\d+)`),
	regexp.MustCompile(`page\s+(\d+)\s*/\s*(\d+)`),
	regexp.MustCompile(`(\d+)\s+of\s+(\d+)`),
	regexp.MustCompile(`(\d+)\s*/\s*(\d+)`),
}

// LayoutHash reduces a page to edge counts over the four quadrants of a
// 32x32 thumbnail. Counts are bucketed by ten so that minor scan noise
// does not change the signature.
func LayoutHash(img image.Image) [4]int {
	small := vision.Resize(vision.ToGray(img), 32, 32)
	edges := vision.EdgeMap(small, vision.EdgeThreshold)

	var hash [4]int
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			if !edges[y*32+x] {
				continue
			}
			q := 0
			if x >= 16 {
				q = 1
			}
			if y >= 16 {
				q += 2
			}
			hash[q]++
		}
	}
	for i := range hash {
		hash[i] /= 10
	}
	return hash
}

// LayoutDifference is the L1 distance between two layout hashes.
func LayoutDifference(a, b [4]int) int {
	diff := 0
	for i := range a {
		d := a[i] - b[i]
		if d < 0 {
			d = -d
		}
		diff += d
	}
	return diff
}

// DetectPageNumber reads the footer band for "page X of Y" style
// numbering. Returns (0, 0) when none is found.
func DetectPageNumber(ctx context.Context, engine ocr.Engine, img image.Image) (int, int) {
	bounds := img.Bounds()
	footer := vision.FractionalZone(bounds.Dx(), bounds.Dy(), 0, 0.9, 1, 0.1)
	text := ocr.ZoneText(ctx, engine, img, footer, nil)

	for _, p := range pageNumberPatterns {
		if m := p.FindStringSubmatch(text); m != nil {
			current, err1 := strconv.Atoi(m[1])
			total, err2 := strconv.Atoi(m[2])
			if err1 == nil && err2 == nil {
				return current, total
			}
		}
	}
	return 0, 0
}

// bandSimilarity compares two page bands after normalizing both to
// 100x100. MSE is mapped to (0, 1]; identical bands score 1.
func bandSimilarity(a, b *image.Gray) float64 {
	mse := vision.MSE(vision.Resize(a, 100, 100), vision.Resize(b, 100, 100))
	return 1.0 / (1.0 + mse/1000.0)
}

// HeaderFooterChange compares the header and footer bands (top and
// bottom 10%) of consecutive pages. A low average similarity means the
// running header changed, which usually means a different document.
func HeaderFooterChange(prev, cur image.Image) (bool, float64) {
	pg := vision.ToGray(prev)
	cg := vision.ToGray(cur)
	pb := pg.Bounds()
	cb := cg.Bounds()

	headerSim := bandSimilarity(
		vision.Crop(pg, vision.FractionalZone(pb.Dx(), pb.Dy(), 0, 0, 1, 0.1)),
		vision.Crop(cg, vision.FractionalZone(cb.Dx(), cb.Dy(), 0, 0, 1, 0.1)),
	)
	footerSim := bandSimilarity(
		vision.Crop(pg, vision.FractionalZone(pb.Dx(), pb.Dy(), 0, 0.9, 1, 0.1)),
		vision.Crop(cg, vision.FractionalZone(cb.Dx(), cb.Dy(), 0, 0.9, 1, 0.1)),
	)

	avg := (headerSim + footerSim) / 2.0
	return avg < 0.6, avg
}

// pageBoundary holds the per-page signals feeding split detection.
type pageBoundary struct {
	page          int
	isBlank       bool
	layout        [4]int
	isPageOne     bool
	headerChanged bool
}

// Result is the document-level boundary detection. SplitPoints are the
// 1-based pages where documents start, always including page 1;
// DocumentRanges partition [1, TotalPages].
type Result struct {
	SplitPoints    []int           `json:"split_points"`
	DocumentRanges [][2]int        `json:"document_ranges"`
	Confidences    map[int]float64 `json:"confidences"`
	Reasons        map[int]string  `json:"reasons"`
	TotalPages     int             `json:"total_pages"`
	Confidence     float64         `json:"confidence"`
}

// analyze gathers the boundary signals for every page.
func analyze(ctx context.Context, engine ocr.Engine, pages []image.Image, blankCfg blank.Config) []pageBoundary {
	boundaries := make([]pageBoundary, len(pages))

	for i, page := range pages {
		b := pageBoundary{
			page:   i + 1,
			layout: LayoutHash(page),
		}

		finding := blank.Classify(page, blankCfg)
		b.isBlank = finding.Blank

		current, _ := DetectPageNumber(ctx, engine, page)
		b.isPageOne = current == 1

		if i > 0 {
			b.headerChanged, _ = HeaderFooterChange(pages[i-1], page)
		}

		boundaries[i] = b
	}

	return boundaries
}

type splitCandidate struct {
	page       int
	confidence float64
	reason     string
}

// identifySplits turns the per-page signals into split candidates. A
// blank page splits after itself and suppresses its other signals; the
// remaining signals are averaged when more than one fires on a page.
func identifySplits(boundaries []pageBoundary) []splitCandidate {
	var candidates []splitCandidate

	for i, b := range boundaries {
		if b.isBlank && i+1 < len(boundaries) {
			candidates = append(candidates, splitCandidate{
				page:       b.page + 1,
				confidence: blankSplitConfidence,
				reason:     fmt.Sprintf("blank_page_%d", b.page),
			})
			continue
		}

		var reasons string
		var factors []float64

		add := func(reason string, conf float64) {
			if reasons != "" {
				reasons += ","
			}
			reasons += reason
			factors = append(factors, conf)
		}

		if b.isPageOne {
			add("page_one_detected", pageOneConfidence)
		}
		if b.headerChanged {
			add("header_change", headerChangeConfidence)
		}
		if i > 0 && LayoutDifference(boundaries[i-1].layout, b.layout) > layoutDiffThreshold {
			add("layout_change", layoutChangeConfidence)
		}

		if len(factors) == 0 {
			continue
		}

		var sum float64
		for _, f := range factors {
			sum += f
		}
		candidates = append(candidates, splitCandidate{
			page:       b.page,
			confidence: math.Min(sum/float64(len(factors)), 0.95),
			reason:     reasons,
		})
	}

	return candidates
}

// Detect finds the document boundaries across all pages. Page 1 always
// starts a document; the returned ranges cover every page exactly once.
func Detect(ctx context.Context, engine ocr.Engine, pages []image.Image) Result {
	totalPages := len(pages)

	result := Result{
		SplitPoints: []int{1},
		Confidences: map[int]float64{1: 1.0},
		Reasons:     map[int]string{1: "first_page"},
		TotalPages:  totalPages,
	}

	boundaries := analyze(ctx, engine, pages, blank.DefaultConfig())

	// First candidate for a page wins; a blank separator is recorded
	// before the following page's own signals are considered.
	for _, c := range identifySplits(boundaries) {
		if _, seen := result.Confidences[c.page]; seen {
			continue
		}
		result.SplitPoints = append(result.SplitPoints, c.page)
		result.Confidences[c.page] = c.confidence
		result.Reasons[c.page] = c.reason
	}

	sort.Ints(result.SplitPoints)

	for i, start := range result.SplitPoints {
		end := totalPages
		if i+1 < len(result.SplitPoints) {
			end = result.SplitPoints[i+1] - 1
		}
		result.DocumentRanges = append(result.DocumentRanges, [2]int{start, end})
	}

	if len(result.SplitPoints) > 1 {
		var sum float64
		for _, c := range result.Confidences {
			sum += c
		}
		result.Confidence = sum / float64(len(result.Confidences))
	} else {
		result.Confidence = SingleDocumentConfidence
	}

	return result
}
