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
	"image/color"
	"math"
)

// Zone is an axis-aligned rectangle in pixel coordinates of a page image,
// used to restrict OCR or pixel statistics to a probable content area.
type Zone struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Rect converts the zone to an image.Rectangle.
func (z Zone) Rect() image.Rectangle {
	return image.Rect(z.X, z.Y, z.X+z.Width, z.Y+z.Height)
}

// FractionalZone builds a Zone from fractions of the page dimensions.
func FractionalZone(width, height int, fx, fy, fw, fh float64) Zone {
	return Zone{
		X:      int(float64(width) * fx),
		Y:      int(float64(height) * fy),
		Width:  int(float64(width) * fw),
		Height: int(float64(height) * fh),
	}
}

// ToGray converts an image to 8-bit grayscale. *image.Gray inputs are
// returned as-is.
func ToGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}

	bounds := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			gray.Set(x-bounds.Min.X, y-bounds.Min.Y, color.GrayModel.Convert(img.At(x, y)))
		}
	}
	return gray
}

// Crop extracts a zone from an image as grayscale. The zone is clamped to
// the image bounds.
func Crop(img image.Image, z Zone) *image.Gray {
	g := ToGray(img)
	bounds := g.Bounds()

	r := z.Rect().Intersect(bounds)
	if r.Empty() {
		return image.NewGray(image.Rect(0, 0, 1, 1))
	}

	cropped := image.NewGray(image.Rect(0, 0, r.Dx(), r.Dy()))
	for y := 0; y < r.Dy(); y++ {
		srcOff := (r.Min.Y+y)*g.Stride + r.Min.X
		dstOff := y * cropped.Stride
		copy(cropped.Pix[dstOff:dstOff+r.Dx()], g.Pix[srcOff:srcOff+r.Dx()])
	}
	return cropped
}

// Resize scales a grayscale image to the target dimensions using bilinear
// interpolation.
func Resize(g *image.Gray, targetWidth, targetHeight int) *image.Gray {
	bounds := g.Bounds()
	srcWidth := bounds.Dx()
	srcHeight := bounds.Dy()

	if srcWidth == targetWidth && srcHeight == targetHeight {
		return g
	}

	resized := image.NewGray(image.Rect(0, 0, targetWidth, targetHeight))

	xRatio := float64(srcWidth) / float64(targetWidth)
	yRatio := float64(srcHeight) / float64(targetHeight)

	for y := 0; y < targetHeight; y++ {
		for x := 0; x < targetWidth; x++ {
			srcX := float64(x) * xRatio
			srcY := float64(y) * yRatio
			resized.Pix[y*resized.Stride+x] = bilinearGray(g, srcX, srcY)
		}
	}

	return resized
}

// bilinearGray performs bilinear interpolation at floating-point coordinates.
func bilinearGray(g *image.Gray, x, y float64) uint8 {
	bounds := g.Bounds()

	x0 := int(x)
	y0 := int(y)
	x1 := x0 + 1
	y1 := y0 + 1

	if x0 < bounds.Min.X {
		x0 = bounds.Min.X
	}
	if y0 < bounds.Min.Y {
		y0 = bounds.Min.Y
	}
	if x1 >= bounds.Max.X {
		x1 = bounds.Max.X - 1
	}
	if y1 >= bounds.Max.Y {
		y1 = bounds.Max.Y - 1
	}

	v00 := float64(g.GrayAt(x0, y0).Y)
	v01 := float64(g.GrayAt(x0, y1).Y)
	v10 := float64(g.GrayAt(x1, y0).Y)
	v11 := float64(g.GrayAt(x1, y1).Y)

	xWeight := x - float64(int(x))
	yWeight := y - float64(int(y))

	top := v00*(1-xWeight) + v10*xWeight
	bottom := v01*(1-xWeight) + v11*xWeight

	return uint8(math.Round(top*(1-yWeight) + bottom*yWeight))
}

// Mean returns the mean pixel intensity.
func Mean(g *image.Gray) float64 {
	mean, _ := MeanStdDev(g)
	return mean
}

// MeanStdDev returns the mean and population standard deviation of pixel
// intensities.
func MeanStdDev(g *image.Gray) (float64, float64) {
	bounds := g.Bounds()
	n := bounds.Dx() * bounds.Dy()
	if n == 0 {
		return 0, 0
	}

	var sum, sumSq float64
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		off := (y - bounds.Min.Y) * g.Stride
		for x := 0; x < bounds.Dx(); x++ {
			v := float64(g.Pix[off+x])
			sum += v
			sumSq += v * v
		}
	}

	mean := sum / float64(n)
	variance := sumSq/float64(n) - mean*mean
	if variance < 0 {
		variance = 0
	}
	return mean, math.Sqrt(variance)
}

// Variance returns the population variance of pixel intensities. Low
// variance means little visual content.
func Variance(g *image.Gray) float64 {
	_, std := MeanStdDev(g)
	return std * std
}

// InkDensity estimates ink coverage by sampling a gridSize x gridSize grid
// of regions and averaging the fraction of pixels darker than whiteCutoff
// in each region. Returns a value in [0, 1].
func InkDensity(g *image.Gray, gridSize int, whiteCutoff uint8) float64 {
	bounds := g.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	if gridSize <= 0 || width < gridSize || height < gridSize {
		return 0
	}

	cellWidth := width / gridSize
	cellHeight := height / gridSize

	var total float64
	for row := 0; row < gridSize; row++ {
		for col := 0; col < gridSize; col++ {
			nonWhite := 0
			for y := row * cellHeight; y < (row+1)*cellHeight; y++ {
				off := (bounds.Min.Y+y)*g.Stride + bounds.Min.X
				for x := col * cellWidth; x < (col+1)*cellWidth; x++ {
					if g.Pix[off+x] < whiteCutoff {
						nonWhite++
					}
				}
			}
			total += float64(nonWhite) / float64(cellWidth*cellHeight)
		}
	}

	return total / float64(gridSize*gridSize)
}

// MSE computes the mean squared intensity difference between two grayscale
// images of the same dimensions. Images of differing size are resized to
// the smaller common bounds first.
func MSE(a, b *image.Gray) float64 {
	aw, ah := a.Bounds().Dx(), a.Bounds().Dy()
	bw, bh := b.Bounds().Dx(), b.Bounds().Dy()

	if aw != bw || ah != bh {
		w := min(aw, bw)
		h := min(ah, bh)
		if w == 0 || h == 0 {
			return 0
		}
		a = Resize(a, w, h)
		b = Resize(b, w, h)
	}

	bounds := a.Bounds()
	n := bounds.Dx() * bounds.Dy()
	if n == 0 {
		return 0
	}

	var sum float64
	for y := 0; y < bounds.Dy(); y++ {
		aOff := (bounds.Min.Y+y)*a.Stride + bounds.Min.X
		bOff := (b.Bounds().Min.Y+y)*b.Stride + b.Bounds().Min.X
		for x := 0; x < bounds.Dx(); x++ {
			d := float64(a.Pix[aOff+x]) - float64(b.Pix[bOff+x])
			sum += d * d
		}
	}

	return sum / float64(n)
}
