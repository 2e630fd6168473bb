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

package idcard

import (
	"image"
	"math"

	"github.com/madera-ai/hints/lib/vision"
)

// detectRoundedCorners checks the four corner patches (10% of the short
// dimension each) for edge content. A physical card corner that curves
// away leaves the patch mostly featureless, so low edge density in at
// least 3 of 4 corners reads as rounded.
func detectRoundedCorners(g *image.Gray) (bool, float64) {
	bounds := g.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()

	cornerSize := int(float64(min(w, h)) * 0.1)
	if cornerSize < 2 {
		return false, 0
	}

	corners := []vision.Zone{
		{X: 0, Y: 0, Width: cornerSize, Height: cornerSize},
		{X: w - cornerSize, Y: 0, Width: cornerSize, Height: cornerSize},
		{X: 0, Y: h - cornerSize, Width: cornerSize, Height: cornerSize},
		{X: w - cornerSize, Y: h - cornerSize, Width: cornerSize, Height: cornerSize},
	}

	roundedCount := 0
	for _, corner := range corners {
		patch := vision.Crop(g, corner)
		if vision.EdgeDensity(patch, vision.EdgeThreshold) < 0.3 {
			roundedCount++
		}
	}

	return roundedCount >= 3, float64(roundedCount) / 4.0
}

// detectBarcode looks for the vertical bar pattern of a barcode in the
// bottom third of the card. Columns with many strong horizontal-gradient
// responses mark bars; enough such columns across the width reads as a
// barcode.
func detectBarcode(g *image.Gray) (bool, float64) {
	bounds := g.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	if w <= 10 || h < 3 {
		return false, 0
	}

	bottom := vision.Crop(g, vision.Zone{X: 0, Y: int(float64(h) * 0.66), Width: w, Height: h - int(float64(h)*0.66)})
	bw := bottom.Bounds().Dx()
	bh := bottom.Bounds().Dy()

	sobel := vision.HorizontalSobel(bottom)

	var sum, sumSq float64
	for _, v := range sobel {
		sum += v
		sumSq += v * v
	}
	n := float64(len(sobel))
	mean := sum / n
	std := math.Sqrt(math.Max(0, sumSq/n-mean*mean))
	threshold := mean + std

	columnCounts := make([]int, bw)
	for y := 0; y < bh; y++ {
		for x := 0; x < bw; x++ {
			if sobel[y*bw+x] > threshold {
				columnCounts[x]++
			}
		}
	}

	// Bars run the height of the strip; a column counts as a bar edge when
	// its strong-edge count clears 10% of the card height.
	highColumns := 0
	for _, c := range columnCounts {
		if float64(c) > float64(h)*0.1 {
			highColumns++
		}
	}

	hasBarcode := float64(highColumns) > float64(w)*0.2
	confidence := math.Min(float64(highColumns)/(float64(w)*0.3), 1.0)
	if !hasBarcode {
		confidence = 0
	}

	return hasBarcode, confidence
}

// detectMagneticStripe scans for a dark horizontal band. The stripe shows
// up as the longest run of rows whose mean intensity falls more than one
// standard deviation below the typical row.
func detectMagneticStripe(g *image.Gray) (bool, float64) {
	bounds := g.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	if w == 0 || h == 0 {
		return false, 0
	}

	rowMeans := make([]float64, h)
	for y := 0; y < h; y++ {
		var sum float64
		off := (bounds.Min.Y+y)*g.Stride + bounds.Min.X
		for x := 0; x < w; x++ {
			sum += float64(g.Pix[off+x])
		}
		rowMeans[y] = sum / float64(w)
	}

	var sum, sumSq float64
	for _, m := range rowMeans {
		sum += m
		sumSq += m * m
	}
	mean := sum / float64(h)
	std := math.Sqrt(math.Max(0, sumSq/float64(h)-mean*mean))
	darkThreshold := mean - std

	maxRun := 0
	run := 0
	for _, m := range rowMeans {
		if m < darkThreshold {
			run++
			maxRun = max(maxRun, run)
		} else {
			run = 0
		}
	}

	// A magnetic stripe is typically 5-10% of card height.
	expectedHeight := float64(h) * 0.075
	hasStripe := float64(maxRun) > expectedHeight*0.5

	confidence := 0.0
	if hasStripe {
		confidence = math.Min(float64(maxRun)/expectedHeight, 1.0)
	}

	return hasStripe, confidence
}

// detectHologram finds shiny security areas via local contrast: the
// absolute difference between each pixel and a local mean. Holograms cover
// a middling fraction of the card, so both near-zero and near-total
// coverage are rejected.
func detectHologram(g *image.Gray) (bool, float64) {
	bounds := g.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()

	kernelSize := int(float64(min(w, h)) * 0.1)
	if kernelSize < 3 {
		return false, 0
	}
	kernelSize |= 1

	blurred := boxBlur(g, kernelSize/2)

	diffs := make([]float64, w*h)
	for y := 0; y < h; y++ {
		off := (bounds.Min.Y+y)*g.Stride + bounds.Min.X
		for x := 0; x < w; x++ {
			diffs[y*w+x] = math.Abs(float64(g.Pix[off+x]) - blurred[y*w+x])
		}
	}

	var sum, sumSq float64
	for _, d := range diffs {
		sum += d
		sumSq += d * d
	}
	n := float64(len(diffs))
	mean := sum / n
	std := math.Sqrt(math.Max(0, sumSq/n-mean*mean))
	threshold := mean + std

	highVariance := 0
	for _, d := range diffs {
		if d > threshold {
			highVariance++
		}
	}
	pct := float64(highVariance) / n

	hasHologram := pct > 0.05 && pct < 0.35
	confidence := math.Min(pct/0.2, 1.0)
	if !hasHologram {
		confidence = 0
	}

	return hasHologram, confidence
}

// boxBlur computes a local mean per pixel over a (2r+1) square window via
// a summed-area table, clamping the window at the borders.
func boxBlur(g *image.Gray, radius int) []float64 {
	bounds := g.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()

	// integral[y][x] holds the sum over pixels [0,y) x [0,x).
	integral := make([]float64, (w+1)*(h+1))
	for y := 0; y < h; y++ {
		off := (bounds.Min.Y+y)*g.Stride + bounds.Min.X
		rowSum := 0.0
		for x := 0; x < w; x++ {
			rowSum += float64(g.Pix[off+x])
			integral[(y+1)*(w+1)+x+1] = integral[y*(w+1)+x+1] + rowSum
		}
	}

	out := make([]float64, w*h)
	for y := 0; y < h; y++ {
		y0 := max(0, y-radius)
		y1 := min(h-1, y+radius)
		for x := 0; x < w; x++ {
			x0 := max(0, x-radius)
			x1 := min(w-1, x+radius)

			area := float64((x1 - x0 + 1) * (y1 - y0 + 1))
			total := integral[(y1+1)*(w+1)+x1+1] -
				integral[y0*(w+1)+x1+1] -
				integral[(y1+1)*(w+1)+x0] +
				integral[y0*(w+1)+x0]
			out[y*w+x] = total / area
		}
	}

	return out
}
