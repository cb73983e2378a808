package stereo

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestAggregator(t *testing.T, img []byte, width, height, dispRange int) *crossAggregator {
	t.Helper()
	a := &crossAggregator{}
	require.True(t, a.initialize(width, height, 0, dispRange))
	a.setData(img, img, make([]float32, width*height*dispRange))
	a.setParams(34, 17, 20, 6)
	return a
}

func TestArmsStopAtPatchBoundary(t *testing.T) {
	const w, h = 40, 40
	img := flatImage(w, h, 100, 100, 100)
	// Discordant patch spanning x in [10,20), y in [12,22).
	for y := 12; y < 22; y++ {
		for x := 10; x < 20; x++ {
			i := (y*w + x) * 3
			img[i], img[i+1], img[i+2] = 200, 60, 30
		}
	}

	a := newTestAggregator(t, img, w, h, 4)
	a.buildArms()

	// A pixel inside the patch: arms stop at the patch boundary.
	arm := a.arms[16*w+15]
	require.Equal(t, uint8(5), arm.Left)
	require.Equal(t, uint8(4), arm.Right)
	require.Equal(t, uint8(4), arm.Top)
	require.Equal(t, uint8(5), arm.Bottom)
}

func TestArmsFlatImage(t *testing.T) {
	const w, h = 80, 80
	a := newTestAggregator(t, flatImage(w, h, 90, 90, 90), w, h, 4)
	a.buildArms()

	// Interior pixel far from every edge: arms reach the L1 bound.
	arm := a.arms[40*w+40]
	require.Equal(t, uint8(34), arm.Left)
	require.Equal(t, uint8(34), arm.Right)
	require.Equal(t, uint8(34), arm.Top)
	require.Equal(t, uint8(34), arm.Bottom)

	// Corner pixel: arms clip at the image border.
	corner := a.arms[0]
	require.Equal(t, uint8(0), corner.Left)
	require.Equal(t, uint8(0), corner.Top)
	require.Equal(t, uint8(34), corner.Right)
	require.Equal(t, uint8(34), corner.Bottom)
}

func TestArmsNeverLeaveImage(t *testing.T) {
	const w, h = 30, 25
	a := newTestAggregator(t, texturedImage(w, h), w, h, 4)
	a.buildArms()

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			arm := a.arms[y*w+x]
			require.LessOrEqual(t, int(arm.Left), x)
			require.LessOrEqual(t, int(arm.Right), w-1-x)
			require.LessOrEqual(t, int(arm.Top), y)
			require.LessOrEqual(t, int(arm.Bottom), h-1-y)
		}
	}
}

func TestArmColourConstraints(t *testing.T) {
	const w, h = 32, 24
	img := texturedImage(w, h)
	a := newTestAggregator(t, img, w, h, 4)
	a.buildArms()

	px := func(x, y int) []byte { return img[(y*w+x)*3 : (y*w+x)*3+3] }

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			arm := a.arms[y*w+x]
			// Every accepted step along the right arm honours both colour
			// rules; the tight threshold applies beyond L2.
			for k := 1; k <= int(arm.Right); k++ {
				require.Less(t, colorDist(px(x+k, y), px(x, y)), 20)
				require.Less(t, colorDist(px(x+k, y), px(x+k-1, y)), 20)
				if k > 17 {
					require.Less(t, colorDist(px(x+k, y), px(x, y)), 6)
				}
			}
		}
	}
}

func TestSupportCountsMatchRegion(t *testing.T) {
	const w, h = 24, 20
	a := newTestAggregator(t, texturedImage(w, h), w, h, 4)
	a.buildArms()
	a.computeSupportCounts()

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			arm := a.arms[y*w+x]

			// Horizontal-first: each vertical-arm member contributes its
			// horizontal extent.
			hf := 0
			for t2 := -int(arm.Top); t2 <= int(arm.Bottom); t2++ {
				m := a.arms[(y+t2)*w+x]
				hf += int(m.Left) + int(m.Right) + 1
			}
			require.Equal(t, hf, a.supCount[0][y*w+x])

			// Vertical-first: mirrored.
			vf := 0
			for s := -int(arm.Left); s <= int(arm.Right); s++ {
				m := a.arms[y*w+x+s]
				vf += int(m.Top) + int(m.Bottom) + 1
			}
			require.Equal(t, vf, a.supCount[1][y*w+x])
		}
	}
}

func TestAggregatePreservesConstantVolume(t *testing.T) {
	const w, h, dr = 20, 16, 3
	a := newTestAggregator(t, flatImage(w, h, 50, 50, 50), w, h, dr)
	for i := range a.costInit {
		a.costInit[i] = 1.5
	}

	a.aggregate(4)

	// Averaging a constant plane over any region is the identity.
	for i, v := range a.costAggr {
		require.Equal(t, float32(1.5), v, "index %d", i)
	}
}

func TestAggregateSmoothsOutlier(t *testing.T) {
	const w, h, dr = 20, 16, 1
	a := newTestAggregator(t, flatImage(w, h, 50, 50, 50), w, h, dr)
	for i := range a.costInit {
		a.costInit[i] = 1.0
	}
	a.costInit[(8*w+10)*dr] = 100.0 // single spike

	a.aggregate(1)

	// The spike is averaged down over its support region.
	require.Less(t, a.costAggr[(8*w+10)*dr], float32(100.0))
	require.Greater(t, a.costAggr[(8*w+10)*dr], float32(1.0))
}
