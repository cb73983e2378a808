package stereo

import "math"

// Sentinels shared by every stage. InvalidFloat marks disparity holes,
// LargeFloat is the neutral element for running minima over costs.
var (
	InvalidFloat = float32(math.Inf(1))
	LargeFloat   = float32(99999.0)
)

// MaxArmLength bounds cross arms so they fit in a byte.
const MaxArmLength = 255

// CrossArm holds the accepted extent of a pixel's support cross in the four
// cardinal directions. Lengths never reach outside the image.
type CrossArm struct {
	Left, Right, Top, Bottom uint8
}

// colorDist is the max-channel absolute difference between two BGR pixels.
// a and b point at the first (blue) byte of each pixel.
func colorDist(a, b []byte) int {
	d := absInt(int(a[0]) - int(b[0]))
	if g := absInt(int(a[1]) - int(b[1])); g > d {
		d = g
	}
	if r := absInt(int(a[2]) - int(b[2])); r > d {
		d = r
	}
	return d
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func minF32(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

// grayscale fills gray with the rounded BT.601 luminance of the interleaved
// BGR image. len(gray) = width*height, len(img) = width*height*3.
func grayscale(img []byte, gray []byte) {
	for i, j := 0, 0; i < len(gray); i, j = i+1, j+3 {
		b := float64(img[j])
		g := float64(img[j+1])
		r := float64(img[j+2])
		gray[i] = byte(0.114*b + 0.587*g + 0.299*r + 0.5)
	}
}
