package stereo

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMedianFilterRemovesOutlier(t *testing.T) {
	const w, h = 5, 5
	in := make([]float32, w*h)
	for i := range in {
		in[i] = 3.0
	}
	in[2*w+2] = 50.0

	out := make([]float32, w*h)
	medianFilter(in, out, w, h, 3)

	for _, v := range out {
		require.Equal(t, float32(3.0), v)
	}
}

func TestMedianFilterBorderWindowsShrink(t *testing.T) {
	// 2x2 image: every window holds the same four values, median is the
	// upper of the two middle elements.
	in := []float32{1, 2, 3, 4}
	out := make([]float32, 4)
	medianFilter(in, out, 2, 2, 3)

	for _, v := range out {
		require.Equal(t, float32(3), v)
	}
}

func TestMedianFilterPreservesConstantRegions(t *testing.T) {
	const w, h = 8, 6
	in := make([]float32, w*h)
	for i := range in {
		in[i] = 7.25
	}
	out := make([]float32, w*h)
	medianFilter(in, out, w, h, 3)
	require.Equal(t, in, out)
}

func TestEdgeDetectMarksDisparityStep(t *testing.T) {
	const w, h = 10, 8
	disp := make([]float32, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if x >= 5 {
				disp[y*w+x] = 20
			} else {
				disp[y*w+x] = 5
			}
		}
	}

	mask := make([]byte, w*h)
	edgeDetect(mask, disp, w, h, 5.0)

	for y := 1; y < h-1; y++ {
		// Columns straddling the step light up, flat interior stays dark.
		require.Equal(t, byte(1), mask[y*w+4])
		require.Equal(t, byte(1), mask[y*w+5])
		require.Equal(t, byte(0), mask[y*w+2])
		require.Equal(t, byte(0), mask[y*w+7])
	}
	// Borders are never marked.
	for x := 0; x < w; x++ {
		require.Equal(t, byte(0), mask[x])
		require.Equal(t, byte(0), mask[(h-1)*w+x])
	}
}
