// Package imageutil cuts near-uniform backgrounds out of species photos,
// producing PNGs with a transparent background.
//
// NOAA profile photos are studio-style shots on a flat backdrop, so a
// flood fill seeded from the image border is enough: every border pixel
// close to the sampled backdrop color starts a fill, and the fill spreads
// to neighbors that are also close to the backdrop color. Regions of
// backdrop color fully enclosed by the subject are left opaque.
package imageutil

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"

	// register decoders for the formats NOAA serves
	_ "image/gif"
	_ "image/jpeg"
)

// DefaultTolerance is the per-channel distance allowed between a pixel
// and the sampled backdrop color before the pixel stops counting as
// background.
const DefaultTolerance = 28

// RemoveBackground decodes an image, makes its backdrop transparent and
// re-encodes it as PNG.
func RemoveBackground(data []byte) ([]byte, error) {
	return RemoveBackgroundTolerance(data, DefaultTolerance)
}

// RemoveBackgroundTolerance is RemoveBackground with an explicit
// per-channel tolerance.
func RemoveBackgroundTolerance(data []byte, tolerance int) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	out := cutBackground(src, tolerance)

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func cutBackground(src image.Image, tolerance int) *image.NRGBA {
	img := toNRGBA(src)
	w := img.Rect.Dx()
	h := img.Rect.Dy()
	if w == 0 || h == 0 {
		return img
	}

	bg := borderColor(img)
	visited := make([]bool, w*h)
	var queue []int

	seed := func(x, y int) {
		idx := y*w + x
		if !visited[idx] && withinTolerance(img, x, y, bg, tolerance) {
			visited[idx] = true
			queue = append(queue, idx)
		}
	}
	for x := 0; x < w; x++ {
		seed(x, 0)
		seed(x, h-1)
	}
	for y := 0; y < h; y++ {
		seed(0, y)
		seed(w-1, y)
	}

	for len(queue) > 0 {
		idx := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		x := idx % w
		y := idx / w

		for _, d := range [4][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}} {
			nx, ny := x+d[0], y+d[1]
			if nx < 0 || nx >= w || ny < 0 || ny >= h {
				continue
			}
			nidx := ny*w + nx
			if visited[nidx] || !withinTolerance(img, nx, ny, bg, tolerance) {
				continue
			}
			visited[nidx] = true
			queue = append(queue, nidx)
		}
	}

	for idx, bgPixel := range visited {
		if bgPixel {
			img.Pix[idx*4+3] = 0
		}
	}
	return img
}

// borderColor averages the RGB values of the outermost pixel ring.
func borderColor(img *image.NRGBA) [3]int {
	w := img.Rect.Dx()
	h := img.Rect.Dy()

	var sum [3]int
	count := 0
	add := func(x, y int) {
		off := y*img.Stride + x*4
		sum[0] += int(img.Pix[off])
		sum[1] += int(img.Pix[off+1])
		sum[2] += int(img.Pix[off+2])
		count++
	}
	for x := 0; x < w; x++ {
		add(x, 0)
		if h > 1 {
			add(x, h-1)
		}
	}
	for y := 1; y < h-1; y++ {
		add(0, y)
		if w > 1 {
			add(w-1, y)
		}
	}
	if count == 0 {
		return sum
	}
	return [3]int{sum[0] / count, sum[1] / count, sum[2] / count}
}

func withinTolerance(img *image.NRGBA, x, y int, bg [3]int, tolerance int) bool {
	off := y*img.Stride + x*4
	return absDiff(int(img.Pix[off]), bg[0]) <= tolerance &&
		absDiff(int(img.Pix[off+1]), bg[1]) <= tolerance &&
		absDiff(int(img.Pix[off+2]), bg[2]) <= tolerance
}

func absDiff(a, b int) int {
	if a > b {
		return a - b
	}
	return b - a
}

// toNRGBA normalizes any decoded image to NRGBA with a zero origin.
func toNRGBA(src image.Image) *image.NRGBA {
	b := src.Bounds()
	img := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(img, img.Rect, src, b.Min, draw.Src)
	return img
}
