// Package visual renders disparity maps to viewable images: a normalized
// grayscale map and a jet-colormapped variant. Invalid pixels render black.
package visual

import (
	"image"
	"math"

	"golang.org/x/image/draw"
)

// Gray renders disp (height*width floats) as an 8-bit grayscale image,
// normalized over the finite values.
func Gray(disp []float32, width, height int) *image.Gray {
	lo, hi := finiteRange(disp)
	img := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			d := float64(disp[y*width+x])
			if math.IsInf(d, 0) || math.IsNaN(d) {
				continue
			}
			img.Pix[y*img.Stride+x] = normalize(d, lo, hi)
		}
	}
	return img
}

// Jet renders disp with the jet colormap over the finite value range.
func Jet(disp []float32, width, height int) *image.NRGBA {
	lo, hi := finiteRange(disp)
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := y*img.Stride + x*4
			d := float64(disp[y*width+x])
			if math.IsInf(d, 0) || math.IsNaN(d) {
				img.Pix[i+3] = 255
				continue
			}
			t := float64(normalize(d, lo, hi)) / 255.0
			r, g, b := jet(t)
			img.Pix[i] = r
			img.Pix[i+1] = g
			img.Pix[i+2] = b
			img.Pix[i+3] = 255
		}
	}
	return img
}

// Downsample scales img down to fit maxSize with CatmullRom filtering.
// Images already small enough come back unchanged.
func Downsample(img image.Image, maxSize int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxSize && h <= maxSize {
		return img
	}
	scale := float64(maxSize) / float64(w)
	if h > w {
		scale = float64(maxSize) / float64(h)
	}
	dw := int(float64(w)*scale + 0.5)
	dh := int(float64(h)*scale + 0.5)
	dst := image.NewNRGBA(image.Rect(0, 0, dw, dh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

func finiteRange(disp []float32) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range disp {
		d := float64(v)
		if math.IsInf(d, 0) || math.IsNaN(d) {
			continue
		}
		lo = math.Min(lo, d)
		hi = math.Max(hi, d)
	}
	return lo, hi
}

func normalize(d, lo, hi float64) uint8 {
	if hi <= lo {
		return 0
	}
	v := (d - lo) / (hi - lo) * 255
	if v < 0 {
		v = 0
	}
	if v > 255 {
		v = 255
	}
	return uint8(v + 0.5)
}

// jet maps t in [0,1] to the classic blue-cyan-yellow-red ramp.
func jet(t float64) (r, g, b uint8) {
	clamp := func(v float64) uint8 {
		if v < 0 {
			v = 0
		}
		if v > 1 {
			v = 1
		}
		return uint8(v*255 + 0.5)
	}
	r = clamp(1.5 - math.Abs(4*t-3))
	g = clamp(1.5 - math.Abs(4*t-2))
	b = clamp(1.5 - math.Abs(4*t-1))
	return r, g, b
}
