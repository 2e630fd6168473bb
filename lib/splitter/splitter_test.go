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

package splitter

import (
	"context"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// zoneStub returns canned text keyed by the cropped zone's dimensions.
type zoneStub struct {
	texts map[[2]int]string
}

func (s zoneStub) Recognize(_ context.Context, img image.Image, _ []string) (string, error) {
	b := img.Bounds()
	return s.texts[[2]int{b.Dx(), b.Dy()}], nil
}

// footerDims is the bottom 10% band of an 850x1100 page.
var footerDims = [2]int{850, 110}

func whitePage() *image.Gray {
	g := image.NewGray(image.Rect(0, 0, 850, 1100))
	for i := range g.Pix {
		g.Pix[i] = 255
	}
	return g
}

// textPage is white with a solid dark block, enough ink to clear the
// blank-page thresholds.
func textPage() *image.Gray {
	g := whitePage()
	for y := 100; y < 300; y++ {
		for x := 100; x < 300; x++ {
			g.SetGray(x, y, color.Gray{Y: 0})
		}
	}
	return g
}

func TestLayoutHash_UniformPage(t *testing.T) {
	assert.Equal(t, [4]int{}, LayoutHash(whitePage()))
}

func TestLayoutHash_Deterministic(t *testing.T) {
	page := textPage()
	assert.Equal(t, LayoutHash(page), LayoutHash(page))
}

func TestLayoutDifference(t *testing.T) {
	assert.Equal(t, 0, LayoutDifference([4]int{1, 2, 3, 4}, [4]int{1, 2, 3, 4}))
	assert.Equal(t, 8, LayoutDifference([4]int{1, 2, 3, 4}, [4]int{3, 4, 1, 2}))
}

func TestDetectPageNumber(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		current int
		total   int
	}{
		{name: "page x of y", text: "page 3 of 10", current: 3, total: 10},
		{name: "page x slash y", text: "page 2/7", current: 2, total: 7},
		{name: "bare x of y", text: "1 of 4", current: 1, total: 4},
		{name: "bare slash", text: "2 / 7", current: 2, total: 7},
		{name: "no numbering", text: "sincerely yours", current: 0, total: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := zoneStub{texts: map[[2]int]string{footerDims: tt.text}}
			current, total := DetectPageNumber(context.Background(), engine, whitePage())
			assert.Equal(t, tt.current, current)
			assert.Equal(t, tt.total, total)
		})
	}
}

func TestHeaderFooterChange(t *testing.T) {
	same := textPage()
	changed, sim := HeaderFooterChange(same, same)
	assert.False(t, changed)
	assert.InDelta(t, 1.0, sim, 1e-9)

	inverted := image.NewGray(image.Rect(0, 0, 850, 1100))
	changed, sim = HeaderFooterChange(whitePage(), inverted)
	assert.True(t, changed)
	assert.Less(t, sim, 0.6)
}

func TestDetect_SingleDocument(t *testing.T) {
	engine := zoneStub{texts: map[[2]int]string{}}
	pages := []image.Image{textPage(), textPage(), textPage()}

	result := Detect(context.Background(), engine, pages)
	assert.Equal(t, []int{1}, result.SplitPoints)
	assert.Equal(t, [][2]int{{1, 3}}, result.DocumentRanges)
	assert.Equal(t, "first_page", result.Reasons[1])
	assert.InDelta(t, SingleDocumentConfidence, result.Confidence, 1e-9)
}

func TestDetect_BlankSeparator(t *testing.T) {
	engine := zoneStub{texts: map[[2]int]string{}}
	pages := []image.Image{textPage(), whitePage(), textPage()}

	result := Detect(context.Background(), engine, pages)
	assert.Equal(t, []int{1, 3}, result.SplitPoints)
	// The blank page stays with the first document.
	assert.Equal(t, [][2]int{{1, 2}, {3, 3}}, result.DocumentRanges)
	assert.Equal(t, "blank_page_2", result.Reasons[3])
	assert.InDelta(t, blankSplitConfidence, result.Confidences[3], 1e-9)
}

func TestDetect_TrailingBlankDoesNotSplit(t *testing.T) {
	engine := zoneStub{texts: map[[2]int]string{}}
	pages := []image.Image{textPage(), whitePage()}

	result := Detect(context.Background(), engine, pages)
	// No page follows the blank, so there is nothing to split.
	assert.NotContains(t, result.Reasons, 3)
	assert.Equal(t, [][2]int{{1, 2}}, result.DocumentRanges)
}

func TestDetect_PageOneFooter(t *testing.T) {
	engine := zoneStub{texts: map[[2]int]string{footerDims: "page 1 of 4"}}
	pages := []image.Image{textPage(), textPage()}

	result := Detect(context.Background(), engine, pages)
	assert.Equal(t, []int{1, 2}, result.SplitPoints)
	assert.Equal(t, "page_one_detected", result.Reasons[2])
	assert.InDelta(t, pageOneConfidence, result.Confidences[2], 1e-9)
	assert.InDelta(t, 0.9, result.Confidence, 1e-9)
}

func TestDetect_RangesPartitionPages(t *testing.T) {
	engine := zoneStub{texts: map[[2]int]string{}}
	pages := []image.Image{
		textPage(), whitePage(), textPage(), textPage(), whitePage(), textPage(),
	}

	result := Detect(context.Background(), engine, pages)
	require.NotEmpty(t, result.DocumentRanges)

	// Ranges must cover [1, total] contiguously and in order.
	assert.Equal(t, 1, result.DocumentRanges[0][0])
	for i := 1; i < len(result.DocumentRanges); i++ {
		assert.Equal(t, result.DocumentRanges[i-1][1]+1, result.DocumentRanges[i][0])
	}
	assert.Equal(t, result.TotalPages, result.DocumentRanges[len(result.DocumentRanges)-1][1])
}
