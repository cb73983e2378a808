package stereo

import "math"

// pixelCoord is an (x, y) entry of the outlier lists. Lists keep scanline
// order; later steps iterate and drain them in that order.
type pixelCoord struct {
	x, y int
}

// multiStepRefiner post-processes the left disparity map: LR consistency,
// iterative region voting over the cross arms, proper interpolation,
// depth-discontinuity adjustment, and a final 3x3 median.
type multiStepRefiner struct {
	width, height int

	imgLeft   []byte
	cost      []float32
	crossArms []CrossArm
	dispLeft  []float32
	dispRight []float32

	minDisparity int
	maxDisparity int
	irvTS        int
	irvTH        float32
	lrcheckThres float32

	doLRCheck                 bool
	doRegionVoting            bool
	doInterpolating           bool
	doDiscontinuityAdjustment bool

	edgeLeft []byte

	occlusions []pixelCoord
	mismatches []pixelCoord
}

func (r *multiStepRefiner) initialize(width, height int) bool {
	r.width = width
	r.height = height
	if width <= 0 || height <= 0 {
		return false
	}
	r.edgeLeft = make([]byte, width*height)
	return true
}

func (r *multiStepRefiner) setData(imgLeft []byte, cost []float32, crossArms []CrossArm, dispLeft, dispRight []float32) {
	r.imgLeft = imgLeft
	r.cost = cost
	r.crossArms = crossArms
	r.dispLeft = dispLeft
	r.dispRight = dispRight
}

func (r *multiStepRefiner) setParams(minDisparity, maxDisparity, irvTS int, irvTH, lrcheckThres float32,
	doLRCheck, doRegionVoting, doInterpolating, doDiscontinuityAdjustment bool) {
	r.minDisparity = minDisparity
	r.maxDisparity = maxDisparity
	r.irvTS = irvTS
	r.irvTH = irvTH
	r.lrcheckThres = lrcheckThres
	r.doLRCheck = doLRCheck
	r.doRegionVoting = doRegionVoting
	r.doInterpolating = doInterpolating
	r.doDiscontinuityAdjustment = doDiscontinuityAdjustment
}

func (r *multiStepRefiner) refine() {
	if r.width <= 0 || r.height <= 0 ||
		r.dispLeft == nil || r.dispRight == nil ||
		r.cost == nil || r.crossArms == nil {
		return
	}

	if r.doLRCheck {
		r.outlierDetection()
	}
	if r.doRegionVoting {
		r.iterativeRegionVoting()
	}
	if r.doInterpolating {
		r.properInterpolation()
	}
	if r.doDiscontinuityAdjustment {
		r.depthDiscontinuityAdjustment()
	}

	medianFilter(r.dispLeft, r.dispLeft, r.width, r.height, 3)
}

// outlierDetection invalidates left pixels failing the LR check and splits
// them into occlusions and mismatches by re-projecting the right disparity.
func (r *multiStepRefiner) outlierDetection() {
	width := r.width
	height := r.height
	threshold := r.lrcheckThres

	r.occlusions = r.occlusions[:0]
	r.mismatches = r.mismatches[:0]

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			disp := r.dispLeft[y*width+x]
			if disp == InvalidFloat {
				r.mismatches = append(r.mismatches, pixelCoord{x, y})
				continue
			}

			colRight := int(math.Round(float64(x) - float64(disp)))
			if colRight < 0 || colRight >= width {
				// No corresponding right pixel inside the image.
				r.dispLeft[y*width+x] = InvalidFloat
				r.mismatches = append(r.mismatches, pixelCoord{x, y})
				continue
			}

			dispR := r.dispRight[y*width+colRight]
			if absF32(disp-dispR) <= threshold {
				continue
			}

			// Re-project through the right disparity: a larger disparity at
			// the landing pixel means occluded geometry.
			colRL := int(math.Round(float64(colRight) + float64(dispR)))
			if colRL > 0 && colRL < width && r.dispLeft[y*width+colRL] > disp {
				r.occlusions = append(r.occlusions, pixelCoord{x, y})
			} else {
				r.mismatches = append(r.mismatches, pixelCoord{x, y})
			}
			r.dispLeft[y*width+x] = InvalidFloat
		}
	}
}

// iterativeRegionVoting fills invalid pixels whose cross-region disparity
// histogram has a dominant bin; five iterations, mismatches before
// occlusions, filled pixels drained from the lists after each pass.
func (r *multiStepRefiner) iterativeRegionVoting() {
	width := r.width
	dispRange := r.maxDisparity - r.minDisparity
	if dispRange <= 0 {
		return
	}

	histogram := make([]int, dispRange)

	const numIters = 5
	for it := 0; it < numIters; it++ {
		for k := 0; k < 2; k++ {
			trgPixels := &r.mismatches
			if k == 1 {
				trgPixels = &r.occlusions
			}
			for _, pix := range *trgPixels {
				x, y := pix.x, pix.y
				if r.dispLeft[y*width+x] != InvalidFloat {
					continue
				}

				for i := range histogram {
					histogram[i] = 0
				}

				// Vertical arm first, then each member's horizontal arm.
				arm := r.crossArms[y*width+x]
				for t := -int(arm.Top); t <= int(arm.Bottom); t++ {
					yt := y + t
					arm2 := r.crossArms[yt*width+x]
					for s := -int(arm2.Left); s <= int(arm2.Right); s++ {
						d := r.dispLeft[yt*width+x+s]
						if d != InvalidFloat {
							di := int(math.Round(float64(d)))
							if bin := di - r.minDisparity; bin >= 0 && bin < dispRange {
								histogram[bin]++
							}
						}
					}
				}

				bestDisp, count, maxHt := 0, 0, 0
				for d := 0; d < dispRange; d++ {
					h := histogram[d]
					if maxHt < h {
						maxHt = h
						bestDisp = d
					}
					count += h
				}

				if maxHt > 0 && count > r.irvTS && float32(maxHt)/float32(count) > r.irvTH {
					r.dispLeft[y*width+x] = float32(bestDisp + r.minDisparity)
				}
			}

			// Drop pixels filled by this pass.
			kept := (*trgPixels)[:0]
			for _, pix := range *trgPixels {
				if r.dispLeft[pix.y*width+pix.x] == InvalidFloat {
					kept = append(kept, pix)
				}
			}
			*trgPixels = kept
		}
	}
}

// properInterpolation fills the remaining holes from the nearest valid
// disparities along 16 rays: mismatches take the most colour-similar
// candidate, occlusions the smallest disparity. Fills are computed for a
// whole list before any are written.
func (r *multiStepRefiner) properInterpolation() {
	width := r.width
	height := r.height

	const pi = 3.1415926
	// Search no farther than the largest representable offset.
	maxSearchLength := maxInt(absInt(r.maxDisparity), absInt(r.minDisparity))

	type candidate struct {
		pix  int // byte offset of the candidate pixel in imgLeft
		disp float32
	}
	collects := make([]candidate, 0, 16)

	for k := 0; k < 2; k++ {
		trgPixels := r.mismatches
		if k == 1 {
			trgPixels = r.occlusions
		}
		if len(trgPixels) == 0 {
			continue
		}
		fillDisps := make([]float32, len(trgPixels))

		for n, pix := range trgPixels {
			x, y := pix.x, pix.y
			fillDisps[n] = r.dispLeft[y*width+x]

			collects = collects[:0]
			ang := 0.0
			for s := 0; s < 16; s++ {
				sina := math.Sin(ang)
				cosa := math.Cos(ang)
				for m := 1; m < maxSearchLength; m++ {
					yy := int(math.Round(float64(y) + float64(m)*sina))
					xx := int(math.Round(float64(x) + float64(m)*cosa))
					if yy < 0 || yy >= height || xx < 0 || xx >= width {
						break
					}
					d := r.dispLeft[yy*width+xx]
					if d != InvalidFloat {
						collects = append(collects, candidate{yy*width*3 + 3*xx, d})
						break
					}
				}
				ang += pi / 16
			}
			if len(collects) == 0 {
				continue
			}

			if k == 0 {
				// Mismatch: most similar colour wins.
				minDist := 1 << 30
				var d float32
				base := y*width*3 + 3*x
				for _, dc := range collects {
					dist := absInt(int(r.imgLeft[base])-int(r.imgLeft[dc.pix])) +
						absInt(int(r.imgLeft[base+1])-int(r.imgLeft[dc.pix+1])) +
						absInt(int(r.imgLeft[base+2])-int(r.imgLeft[dc.pix+2]))
					if minDist > dist {
						minDist = dist
						d = dc.disp
					}
				}
				fillDisps[n] = d
			} else {
				// Occlusion: background disparity wins.
				minDisp := LargeFloat
				for _, dc := range collects {
					minDisp = minF32(minDisp, dc.disp)
				}
				fillDisps[n] = minDisp
			}
		}

		for n, pix := range trgPixels {
			r.dispLeft[pix.y*width+pix.x] = fillDisps[n]
		}
	}
}

// depthDiscontinuityAdjustment nudges edge pixels toward whichever
// horizontal neighbour's disparity has the lower matching cost.
func (r *multiStepRefiner) depthDiscontinuityAdjustment() {
	width := r.width
	height := r.height
	dispRange := r.maxDisparity - r.minDisparity
	if dispRange <= 0 {
		return
	}

	const edgeThres = 5.0
	edgeDetect(r.edgeLeft, r.dispLeft, width, height, edgeThres)

	for y := 0; y < height; y++ {
		for x := 1; x < width-1; x++ {
			if r.edgeLeft[y*width+x] != 1 {
				continue
			}
			d := r.dispLeft[y*width+x]
			if d == InvalidFloat {
				continue
			}
			di := int(math.Round(float64(d)))
			costBase := (y*width + x) * dispRange
			if di < 0 || di >= dispRange {
				continue
			}
			c0 := r.cost[costBase+di]

			for k := 0; k < 2; k++ {
				x2 := x - 1
				if k == 1 {
					x2 = x + 1
				}
				d2 := r.dispLeft[y*width+x2]
				if d2 == InvalidFloat {
					continue
				}
				d2i := int(math.Round(float64(d2)))
				if d2i < 0 || d2i >= dispRange {
					continue
				}
				c := r.cost[(y*width+x2)*dispRange+d2i]
				if c < c0 {
					r.dispLeft[y*width+x] = d2
					c0 = c
				}
			}
		}
	}
}
