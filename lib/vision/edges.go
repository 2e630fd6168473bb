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

package vision

import (
	"image"
	"math"
	"sort"
)

// EdgeThreshold is the gradient magnitude above which a pixel counts as an
// edge. Matches the upper hysteresis threshold of the usual Canny(50, 150)
// parameterization.
const EdgeThreshold = 150.0

// sobelAt computes the horizontal and vertical Sobel responses at (x, y),
// replicating border pixels.
func sobelAt(g *image.Gray, x, y, width, height int) (float64, float64) {
	px := func(xx, yy int) float64 {
		if xx < 0 {
			xx = 0
		}
		if yy < 0 {
			yy = 0
		}
		if xx >= width {
			xx = width - 1
		}
		if yy >= height {
			yy = height - 1
		}
		return float64(g.Pix[yy*g.Stride+xx])
	}

	gx := -px(x-1, y-1) + px(x+1, y-1) +
		-2*px(x-1, y) + 2*px(x+1, y) +
		-px(x-1, y+1) + px(x+1, y+1)
	gy := -px(x-1, y-1) - 2*px(x, y-1) - px(x+1, y-1) +
		px(x-1, y+1) + 2*px(x, y+1) + px(x+1, y+1)

	return gx, gy
}

// EdgeMap marks pixels whose Sobel gradient magnitude exceeds threshold.
// Returned row-major, width*height entries.
func EdgeMap(g *image.Gray, threshold float64) []bool {
	bounds := g.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	edges := make([]bool, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			gx, gy := sobelAt(g, x, y, width, height)
			if math.Hypot(gx, gy) > threshold {
				edges[y*width+x] = true
			}
		}
	}
	return edges
}

// EdgeDensity returns the fraction of pixels that are edges.
func EdgeDensity(g *image.Gray, threshold float64) float64 {
	bounds := g.Bounds()
	n := bounds.Dx() * bounds.Dy()
	if n == 0 {
		return 0
	}

	count := 0
	for _, e := range EdgeMap(g, threshold) {
		if e {
			count++
		}
	}
	return float64(count) / float64(n)
}

// HorizontalSobel returns the absolute horizontal Sobel response per pixel.
// Strong responses mark vertical strokes, the signature of barcode bars.
func HorizontalSobel(g *image.Gray) []float64 {
	bounds := g.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	out := make([]float64, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			gx, _ := sobelAt(g, x, y, width, height)
			out[y*width+x] = math.Abs(gx)
		}
	}
	return out
}

// LaplacianVariance measures image sharpness as the variance of the
// Laplacian response. Blurry images score low.
func LaplacianVariance(g *image.Gray) float64 {
	bounds := g.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width < 3 || height < 3 {
		return 0
	}

	px := func(x, y int) float64 {
		return float64(g.Pix[y*g.Stride+x])
	}

	n := 0
	var sum, sumSq float64
	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			lap := px(x-1, y) + px(x+1, y) + px(x, y-1) + px(x, y+1) - 4*px(x, y)
			sum += lap
			sumSq += lap * lap
			n++
		}
	}

	mean := sum / float64(n)
	variance := sumSq/float64(n) - mean*mean
	if variance < 0 {
		variance = 0
	}
	return variance
}

// Hough accumulator settings for skew estimation. Lines are binned over
// theta in one-degree steps; the vote threshold matches HoughLines with a
// 200-intersection minimum.
const (
	houghVoteThreshold = 200
	houghMaxLines      = 50
	maxSkewSearchAngle = 45.0
)

// EstimateSkew estimates the page rotation angle in degrees using a Hough
// transform over edge pixels. The median angle of the strongest detected
// lines is taken, normalized to [-45, 45]. Returns 0 when no dominant line
// orientation is found.
func EstimateSkew(g *image.Gray) float64 {
	bounds := g.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width < 3 || height < 3 {
		return 0
	}

	edges := EdgeMap(g, EdgeThreshold)

	diagonal := int(math.Ceil(math.Hypot(float64(width), float64(height))))
	const thetaSteps = 180

	// Accumulator indexed by [theta][rho + diagonal].
	acc := make([][]int, thetaSteps)
	for i := range acc {
		acc[i] = make([]int, 2*diagonal+1)
	}

	sinTab := make([]float64, thetaSteps)
	cosTab := make([]float64, thetaSteps)
	for t := 0; t < thetaSteps; t++ {
		rad := float64(t) * math.Pi / float64(thetaSteps)
		sinTab[t] = math.Sin(rad)
		cosTab[t] = math.Cos(rad)
	}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if !edges[y*width+x] {
				continue
			}
			for t := 0; t < thetaSteps; t++ {
				rho := int(math.Round(float64(x)*cosTab[t] + float64(y)*sinTab[t]))
				acc[t][rho+diagonal]++
			}
		}
	}

	type line struct {
		votes int
		theta int
	}
	var lines []line
	for t := 0; t < thetaSteps; t++ {
		for _, votes := range acc[t] {
			if votes >= houghVoteThreshold {
				lines = append(lines, line{votes: votes, theta: t})
			}
		}
	}
	if len(lines) == 0 {
		return 0
	}

	sort.Slice(lines, func(i, j int) bool { return lines[i].votes > lines[j].votes })
	if len(lines) > houghMaxLines {
		lines = lines[:houghMaxLines]
	}

	angles := make([]float64, 0, len(lines))
	for _, l := range lines {
		angle := float64(l.theta) - 90
		if angle < -maxSkewSearchAngle {
			angle += 90
		} else if angle > maxSkewSearchAngle {
			angle -= 90
		}
		angles = append(angles, angle)
	}

	sort.Float64s(angles)
	mid := len(angles) / 2
	if len(angles)%2 == 1 {
		return angles[mid]
	}
	return (angles[mid-1] + angles[mid]) / 2
}
