package stereo

// scanlineOptimizer runs four dynamic-programming sweeps over the aggregated
// volume, ping-ponging between the initial and aggregated buffers so the
// result ends up back in the aggregated one.
type scanlineOptimizer struct {
	width, height int
	minDisparity  int
	maxDisparity  int

	p1  float32
	p2  float32
	tso int

	imgLeft  []byte
	imgRight []byte
	costInit []float32
	costAggr []float32

	// Padded per-path scratch: dispRange+2 entries, outer two pinned at
	// LargeFloat so d-1/d+1 lookups need no bounds checks.
	lastPath []float32
	curPath  []float32
}

func (s *scanlineOptimizer) setData(imgLeft, imgRight []byte, costInit, costAggr []float32) {
	s.imgLeft = imgLeft
	s.imgRight = imgRight
	s.costInit = costInit
	s.costAggr = costAggr
}

func (s *scanlineOptimizer) setParams(width, height, minDisparity, maxDisparity int, p1, p2 float32, tso int) {
	s.width = width
	s.height = height
	s.minDisparity = minDisparity
	s.maxDisparity = maxDisparity
	s.p1 = p1
	s.p2 = p2
	s.tso = tso

	dispRange := maxDisparity - minDisparity
	s.lastPath = make([]float32, dispRange+2)
	s.curPath = make([]float32, dispRange+2)
}

// optimize sweeps L→R, R→L, U→D, D→U. Sources and destinations alternate so
// the optimized volume lands in costAggr and costInit is clobbered.
func (s *scanlineOptimizer) optimize() {
	s.sweepHorizontal(s.costAggr, s.costInit, true)
	s.sweepHorizontal(s.costInit, s.costAggr, false)
	s.sweepVertical(s.costAggr, s.costInit, true)
	s.sweepVertical(s.costInit, s.costAggr, false)
}

// penalties scales P1/P2 by the colour gradients on both images.
func (s *scanlineOptimizer) penalties(d1, d2 int) (float32, float32) {
	switch {
	case d1 < s.tso && d2 < s.tso:
		return s.p1, s.p2
	case d1 >= s.tso && d2 >= s.tso:
		return s.p1 / 10, s.p2 / 10
	default:
		return s.p1 / 4, s.p2 / 4
	}
}

// seedPath copies the sweep-start costs into dst and primes the padded path
// buffer; returns the running minimum over all dispRange+2 entries.
func (s *scanlineOptimizer) seedPath(src, dst []float32, base int) float32 {
	dispRange := s.maxDisparity - s.minDisparity
	s.lastPath[0] = LargeFloat
	s.lastPath[dispRange+1] = LargeFloat
	for d := 0; d < dispRange; d++ {
		c := src[base+d]
		dst[base+d] = c
		s.lastPath[d+1] = c
	}
	minCost := LargeFloat
	for _, c := range s.lastPath {
		minCost = minF32(minCost, c)
	}
	return minCost
}

func (s *scanlineOptimizer) sweepHorizontal(src, dst []float32, forward bool) {
	width := s.width
	dispRange := s.maxDisparity - s.minDisparity

	direction := 1
	if !forward {
		direction = -1
	}

	for y := 0; y < s.height; y++ {
		x := 0
		if !forward {
			x = width - 1
		}
		minCostLastPath := s.seedPath(src, dst, (y*width+x)*dispRange)

		x += direction
		for j := 0; j < width-1; j++ {
			pc := s.imgLeft[(y*width+x)*3 : (y*width+x)*3+3]
			pl := s.imgLeft[(y*width+x-direction)*3 : (y*width+x-direction)*3+3]
			d1 := colorDist(pc, pl)

			base := (y*width + x) * dispRange
			s.curPath[0] = LargeFloat
			s.curPath[dispRange+1] = LargeFloat
			minCost := LargeFloat
			for d := 0; d < dispRange; d++ {
				// Gradient on the right image at the candidate match,
				// against its predecessor along the sweep.
				d2 := d1
				xr := x - (d + s.minDisparity)
				if xr > 0 && xr < width-1 {
					rc := s.imgRight[(y*width+xr)*3 : (y*width+xr)*3+3]
					rl := s.imgRight[(y*width+xr-direction)*3 : (y*width+xr-direction)*3+3]
					d2 = colorDist(rc, rl)
				}
				p1, p2 := s.penalties(d1, d2)

				l1 := s.lastPath[d+1]
				l2 := s.lastPath[d] + p1
				l3 := s.lastPath[d+2] + p1
				l4 := minCostLastPath + p2

				cost := (src[base+d] + minF32(minF32(l1, l2), minF32(l3, l4))) / 2
				dst[base+d] = cost
				s.curPath[d+1] = cost
				minCost = minF32(minCost, cost)
			}

			s.lastPath, s.curPath = s.curPath, s.lastPath
			minCostLastPath = minCost
			x += direction
		}
	}
}

func (s *scanlineOptimizer) sweepVertical(src, dst []float32, forward bool) {
	width := s.width
	height := s.height
	dispRange := s.maxDisparity - s.minDisparity

	direction := 1
	if !forward {
		direction = -1
	}

	for x := 0; x < width; x++ {
		y := 0
		if !forward {
			y = height - 1
		}
		minCostLastPath := s.seedPath(src, dst, (y*width+x)*dispRange)

		y += direction
		for i := 0; i < height-1; i++ {
			pc := s.imgLeft[(y*width+x)*3 : (y*width+x)*3+3]
			pl := s.imgLeft[((y-direction)*width+x)*3 : ((y-direction)*width+x)*3+3]
			d1 := colorDist(pc, pl)

			base := (y*width + x) * dispRange
			s.curPath[0] = LargeFloat
			s.curPath[dispRange+1] = LargeFloat
			minCost := LargeFloat
			for d := 0; d < dispRange; d++ {
				d2 := d1
				xr := x - (d + s.minDisparity)
				if xr >= 0 && xr < width {
					rc := s.imgRight[(y*width+xr)*3 : (y*width+xr)*3+3]
					rl := s.imgRight[((y-direction)*width+xr)*3 : ((y-direction)*width+xr)*3+3]
					d2 = colorDist(rc, rl)
				}
				p1, p2 := s.penalties(d1, d2)

				l1 := s.lastPath[d+1]
				l2 := s.lastPath[d] + p1
				l3 := s.lastPath[d+2] + p1
				l4 := minCostLastPath + p2

				cost := (src[base+d] + minF32(minF32(l1, l2), minF32(l3, l4))) / 2
				dst[base+d] = cost
				s.curPath[d+1] = cost
				minCost = minF32(minCost, cost)
			}

			s.lastPath, s.curPath = s.curPath, s.lastPath
			minCostLastPath = minCost
			y += direction
		}
	}
}
