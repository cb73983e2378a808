package stereo

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"
)

// Matcher is the AD-Census stereo matching engine. Allocate with NewMatcher,
// then Initialize once and Match per pair; buffers are reused across calls.
// A Matcher is not safe for concurrent use; run one per goroutine.
type Matcher struct {
	width  int
	height int
	option Option

	imgLeft  []byte
	imgRight []byte

	cost       costComputer
	aggregator crossAggregator
	scanline   scanlineOptimizer
	refiner    multiStepRefiner

	dispLeft  []float32
	dispRight []float32

	initialized bool

	log logrus.FieldLogger
}

// NewMatcher returns an uninitialized matcher.
func NewMatcher() *Matcher {
	return &Matcher{}
}

// SetLogger enables per-stage timing logs during Match. Pass nil to disable.
func (m *Matcher) SetLogger(log logrus.FieldLogger) {
	m.log = log
}

// Initialize validates the option set and allocates every buffer of the
// pipeline for the given dimensions.
func (m *Matcher) Initialize(width, height int, option Option) error {
	m.width = width
	m.height = height
	m.option = option
	m.initialized = false

	if width <= 0 || height <= 0 {
		return fmt.Errorf("stereo: invalid dimensions %dx%d", width, height)
	}
	if option.MaxDisparity-option.MinDisparity <= 0 {
		return fmt.Errorf("stereo: empty disparity range [%d,%d)", option.MinDisparity, option.MaxDisparity)
	}

	size := width * height
	m.dispLeft = make([]float32, size)
	m.dispRight = make([]float32, size)

	if !m.cost.initialize(width, height, option.MinDisparity, option.MaxDisparity) {
		return errors.New("stereo: cost computer initialization failed")
	}
	if !m.aggregator.initialize(width, height, option.MinDisparity, option.MaxDisparity) {
		return errors.New("stereo: aggregator initialization failed")
	}
	if !m.refiner.initialize(width, height) {
		return errors.New("stereo: refiner initialization failed")
	}

	m.initialized = true
	return nil
}

// Match computes the left-view disparity map for a rectified pair. Both
// images are height*width*3 interleaved BGR bytes; dispOut receives
// height*width floats with InvalidFloat marking holes.
func (m *Matcher) Match(imgLeft, imgRight []byte, dispOut []float32) error {
	if !m.initialized {
		return errors.New("stereo: matcher not initialized")
	}
	if imgLeft == nil || imgRight == nil || dispOut == nil {
		return errors.New("stereo: nil buffer")
	}
	size := m.width * m.height
	if len(imgLeft) != size*3 || len(imgRight) != size*3 {
		return fmt.Errorf("stereo: image buffer size mismatch, want %d bytes", size*3)
	}
	if len(dispOut) != size {
		return fmt.Errorf("stereo: disparity buffer size mismatch, want %d floats", size)
	}

	m.imgLeft = imgLeft
	m.imgRight = imgRight

	m.timed("cost computation", m.computeCost)
	m.timed("cost aggregation", m.costAggregation)
	m.timed("scanline optimization", m.scanlineOptimize)
	m.timed("disparity computation", func() {
		m.computeDisparity()
		m.computeDisparityRight()
	})
	m.timed("multistep refinement", m.multiStepRefine)

	copy(dispOut, m.dispLeft)
	return nil
}

// Reset drops the current buffers and re-initializes.
func (m *Matcher) Reset(width, height int, option Option) error {
	m.release()
	m.initialized = false
	return m.Initialize(width, height, option)
}

func (m *Matcher) release() {
	m.dispLeft = nil
	m.dispRight = nil
	m.cost = costComputer{}
	m.aggregator = crossAggregator{}
	m.scanline = scanlineOptimizer{}
	m.refiner = multiStepRefiner{}
}

func (m *Matcher) timed(stage string, fn func()) {
	start := time.Now()
	fn()
	if m.log != nil {
		m.log.WithField("took", time.Since(start)).Debug(stage)
	}
}

func (m *Matcher) computeCost() {
	m.cost.setData(m.imgLeft, m.imgRight)
	m.cost.setParams(m.option.LambdaAD, m.option.LambdaCensus)
	m.cost.compute()
}

func (m *Matcher) costAggregation() {
	m.aggregator.setData(m.imgLeft, m.imgRight, m.cost.cost)
	m.aggregator.setParams(m.option.CrossL1, m.option.CrossL2, m.option.CrossT1, m.option.CrossT2)
	m.aggregator.aggregate(4)
}

func (m *Matcher) scanlineOptimize() {
	m.scanline.setData(m.imgLeft, m.imgRight, m.cost.cost, m.aggregator.costAggr)
	m.scanline.setParams(m.width, m.height, m.option.MinDisparity, m.option.MaxDisparity,
		m.option.P1, m.option.P2, m.option.TSO)
	m.scanline.optimize()
}

func (m *Matcher) multiStepRefine() {
	m.refiner.setData(m.imgLeft, m.aggregator.costAggr, m.aggregator.arms, m.dispLeft, m.dispRight)
	m.refiner.setParams(m.option.MinDisparity, m.option.MaxDisparity,
		m.option.IrvTS, m.option.IrvTH, m.option.LRCheckThres,
		m.option.DoLRCheck, m.option.DoFilling, m.option.DoFilling, m.option.DoDiscontinuityAdjustment)
	m.refiner.refine()
}

// computeDisparity runs winner-take-all with parabolic sub-pixel refinement
// on the left view. Winners at either end of the range become InvalidFloat.
func (m *Matcher) computeDisparity() {
	minDisparity := m.option.MinDisparity
	maxDisparity := m.option.MaxDisparity
	dispRange := maxDisparity - minDisparity
	width := m.width
	height := m.height
	costPtr := m.aggregator.costAggr

	costLocal := make([]float32, dispRange)

	for i := 0; i < height; i++ {
		for j := 0; j < width; j++ {
			minCost := LargeFloat
			bestDisparity := 0

			for d := minDisparity; d < maxDisparity; d++ {
				dIdx := d - minDisparity
				cost := costPtr[(i*width+j)*dispRange+dIdx]
				costLocal[dIdx] = cost
				if minCost > cost {
					minCost = cost
					bestDisparity = d
				}
			}

			if bestDisparity == minDisparity || bestDisparity == maxDisparity-1 {
				m.dispLeft[i*width+j] = InvalidFloat
				continue
			}

			cost1 := costLocal[bestDisparity-1-minDisparity]
			cost2 := costLocal[bestDisparity+1-minDisparity]
			denom := cost1 + cost2 - 2*minCost
			if denom != 0 {
				m.dispLeft[i*width+j] = float32(bestDisparity) + (cost1-cost2)/(denom*2)
			} else {
				m.dispLeft[i*width+j] = float32(bestDisparity)
			}
		}
	}
}

// computeDisparityRight derives the right view from the same volume via
// cost(xr, yr, d) = cost(xr+d, yl, d). Boundary winners keep their integer
// disparity; the asymmetry with the left view is deliberate.
func (m *Matcher) computeDisparityRight() {
	minDisparity := m.option.MinDisparity
	maxDisparity := m.option.MaxDisparity
	dispRange := maxDisparity - minDisparity
	width := m.width
	height := m.height
	costPtr := m.aggregator.costAggr

	costLocal := make([]float32, dispRange)

	for i := 0; i < height; i++ {
		for j := 0; j < width; j++ {
			minCost := LargeFloat
			bestDisparity := 0

			for d := minDisparity; d < maxDisparity; d++ {
				dIdx := d - minDisparity
				colLeft := j + d
				if colLeft >= 0 && colLeft < width {
					cost := costPtr[(i*width+colLeft)*dispRange+dIdx]
					costLocal[dIdx] = cost
					if minCost > cost {
						minCost = cost
						bestDisparity = d
					}
				} else {
					costLocal[dIdx] = LargeFloat
				}
			}

			if bestDisparity == minDisparity || bestDisparity == maxDisparity-1 {
				m.dispRight[i*width+j] = float32(bestDisparity)
				continue
			}

			cost1 := costLocal[bestDisparity-1-minDisparity]
			cost2 := costLocal[bestDisparity+1-minDisparity]
			denom := cost1 + cost2 - 2*minCost
			if denom != 0 {
				m.dispRight[i*width+j] = float32(bestDisparity) + (cost1-cost2)/(denom*2)
			} else {
				m.dispRight[i*width+j] = float32(bestDisparity)
			}
		}
	}
}

// Size returns the initialized dimensions, or zeros before Initialize.
func (m *Matcher) Size() (width, height int) {
	if !m.initialized {
		return 0, 0
	}
	return m.width, m.height
}

// Arms exposes the per-pixel cross arms of the last Match, for diagnostics.
func (m *Matcher) Arms() []CrossArm {
	return m.aggregator.arms
}

// ValidFraction reports the share of finite entries in a disparity map.
func ValidFraction(disp []float32) float64 {
	if len(disp) == 0 {
		return 0
	}
	valid := 0
	for _, d := range disp {
		if !math.IsInf(float64(d), 0) {
			valid++
		}
	}
	return float64(valid) / float64(len(disp))
}
