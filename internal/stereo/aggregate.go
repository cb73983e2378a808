package stereo

// crossAggregator averages the initial cost volume over per-pixel adaptive
// cross regions. Arms are computed from the left image only.
type crossAggregator struct {
	width, height int
	minDisparity  int
	maxDisparity  int

	crossL1 int
	crossL2 int
	crossT1 int
	crossT2 int

	imgLeft  []byte
	imgRight []byte
	costInit []float32

	arms []CrossArm

	// Support-region pixel counts per orientation: [0] horizontal-first,
	// [1] vertical-first.
	supCount    [2][]int
	supCountTmp []int

	// Two scratch planes for the two-pass sweep of one disparity slice.
	costTmp [2][]float32

	// costAggr holds the aggregated volume, same layout as costInit.
	costAggr []float32
}

func (a *crossAggregator) initialize(width, height, minDisparity, maxDisparity int) bool {
	a.width = width
	a.height = height
	a.minDisparity = minDisparity
	a.maxDisparity = maxDisparity

	if width <= 0 || height <= 0 {
		return false
	}
	dispRange := maxDisparity - minDisparity
	if dispRange <= 0 {
		return false
	}

	size := width * height
	a.arms = make([]CrossArm, size)
	a.supCount[0] = make([]int, size)
	a.supCount[1] = make([]int, size)
	a.supCountTmp = make([]int, size)
	a.costTmp[0] = make([]float32, size)
	a.costTmp[1] = make([]float32, size)
	a.costAggr = make([]float32, size*dispRange)
	return true
}

func (a *crossAggregator) setData(imgLeft, imgRight []byte, costInit []float32) {
	a.imgLeft = imgLeft
	a.imgRight = imgRight
	a.costInit = costInit
}

func (a *crossAggregator) setParams(crossL1, crossL2, crossT1, crossT2 int) {
	a.crossL1 = crossL1
	a.crossL2 = crossL2
	a.crossT1 = crossT1
	a.crossT2 = crossT2
}

// aggregate runs numIters alternating two-pass sweeps, starting
// horizontal-first, over a copy of the initial volume.
func (a *crossAggregator) aggregate(numIters int) {
	a.buildArms()
	a.computeSupportCounts()

	copy(a.costAggr, a.costInit)

	horizontalFirst := true
	for it := 0; it < numIters; it++ {
		for d := a.minDisparity; d < a.maxDisparity; d++ {
			a.aggregateInArms(d, horizontalFirst)
		}
		horizontalFirst = !horizontalFirst
	}
}

// buildArms computes the four arm lengths of every pixel.
func (a *crossAggregator) buildArms() {
	for y := 0; y < a.height; y++ {
		for x := 0; x < a.width; x++ {
			arm := &a.arms[y*a.width+x]
			arm.Left = uint8(a.findArm(x, y, -1, 0))
			arm.Right = uint8(a.findArm(x, y, 1, 0))
			arm.Top = uint8(a.findArm(x, y, 0, -1))
			arm.Bottom = uint8(a.findArm(x, y, 0, 1))
		}
	}
}

// findArm extends from (x,y) along (dirX,dirY) and returns the accepted step
// count. A step k (0-based) onto pixel c_k is accepted iff it stays inside
// the image, colorDist(c_k, c_0) < T1, for k > 0 also
// colorDist(c_k, c_{k-1}) < T1, and beyond L2 steps colorDist(c_k, c_0) < T2.
func (a *crossAggregator) findArm(x, y, dirX, dirY int) int {
	width := a.width
	p0 := a.imgLeft[(y*width+x)*3 : (y*width+x)*3+3]
	pLast := p0

	maxLen := minInt(a.crossL1, MaxArmLength)
	length := 0
	xn, yn := x+dirX, y+dirY
	for k := 0; k < maxLen; k++ {
		if xn < 0 || xn >= width || yn < 0 || yn >= a.height {
			break
		}
		pk := a.imgLeft[(yn*width+xn)*3 : (yn*width+xn)*3+3]

		d1 := colorDist(pk, p0)
		if d1 >= a.crossT1 {
			break
		}
		if k > 0 && colorDist(pk, pLast) >= a.crossT1 {
			break
		}
		if k+1 > a.crossL2 && d1 >= a.crossT2 {
			break
		}

		length++
		pLast = pk
		xn += dirX
		yn += dirY
	}
	return length
}

// computeSupportCounts precomputes, for both orientations, the number of
// pixels each two-pass sweep actually sums, so aggregation divides by the
// true region size.
func (a *crossAggregator) computeSupportCounts() {
	width := a.width
	height := a.height

	horizontalFirst := true
	for n := 0; n < 2; n++ {
		id := 1
		if horizontalFirst {
			id = 0
		}
		for k := 0; k < 2; k++ {
			for y := 0; y < height; y++ {
				for x := 0; x < width; x++ {
					arm := a.arms[y*width+x]
					if k == 0 {
						// Pass 1 counts the first-direction arm itself.
						var count int
						if horizontalFirst {
							count = int(arm.Left) + int(arm.Right) + 1
						} else {
							count = int(arm.Top) + int(arm.Bottom) + 1
						}
						a.supCountTmp[y*width+x] = count
					} else {
						// Pass 2 sums pass-1 counts along the second direction.
						count := 0
						if horizontalFirst {
							for t := -int(arm.Top); t <= int(arm.Bottom); t++ {
								count += a.supCountTmp[(y+t)*width+x]
							}
						} else {
							for t := -int(arm.Left); t <= int(arm.Right); t++ {
								count += a.supCountTmp[y*width+x+t]
							}
						}
						a.supCount[id][y*width+x] = count
					}
				}
			}
		}
		horizontalFirst = !horizontalFirst
	}
}

// aggregateInArms recomputes one disparity slice of the aggregated volume as
// the average over each pixel's cross region, in two passes.
func (a *crossAggregator) aggregateInArms(disparity int, horizontalFirst bool) {
	width := a.width
	height := a.height
	dispRange := a.maxDisparity - a.minDisparity
	d := disparity - a.minDisparity
	if d < 0 || d >= dispRange {
		return
	}

	// Extract the slice into the first scratch plane.
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			a.costTmp[0][y*width+x] = a.costAggr[(y*width+x)*dispRange+d]
		}
	}

	id := 1
	if horizontalFirst {
		id = 0
	}

	for k := 0; k < 2; k++ {
		src := a.costTmp[k]
		horizontalPass := horizontalFirst == (k == 0)
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				arm := a.arms[y*width+x]
				var sum float32
				if horizontalPass {
					for t := -int(arm.Left); t <= int(arm.Right); t++ {
						sum += src[y*width+x+t]
					}
				} else {
					for t := -int(arm.Top); t <= int(arm.Bottom); t++ {
						sum += src[(y+t)*width+x]
					}
				}
				if k == 0 {
					a.costTmp[1][y*width+x] = sum
				} else {
					a.costAggr[(y*width+x)*dispRange+d] = sum / float32(a.supCount[id][y*width+x])
				}
			}
		}
	}
}
