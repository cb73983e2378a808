package stereo

import (
	"math"
	"math/bits"
)

// Census window: 9 rows by 7 columns over the luminance plane, clamp-to-edge,
// one bit per neighbour set when it is darker than the centre. 63 bits.
const (
	censusRadiusY = 4
	censusRadiusX = 3
)

// costComputer builds the initial AD+Census cost volume.
type costComputer struct {
	width, height int
	minDisparity  int
	maxDisparity  int

	lambdaAD     float32
	lambdaCensus float32

	imgLeft  []byte
	imgRight []byte

	grayLeft  []byte
	grayRight []byte

	censusLeft  []uint64
	censusRight []uint64

	// cost holds width*height*dispRange float32s, [y][x][d] row-major.
	cost []float32
}

func (c *costComputer) initialize(width, height, minDisparity, maxDisparity int) bool {
	c.width = width
	c.height = height
	c.minDisparity = minDisparity
	c.maxDisparity = maxDisparity

	if width <= 0 || height <= 0 {
		return false
	}
	dispRange := maxDisparity - minDisparity
	if dispRange <= 0 {
		return false
	}

	size := width * height
	c.grayLeft = make([]byte, size)
	c.grayRight = make([]byte, size)
	c.censusLeft = make([]uint64, size)
	c.censusRight = make([]uint64, size)
	c.cost = make([]float32, size*dispRange)
	return true
}

func (c *costComputer) setData(imgLeft, imgRight []byte) {
	c.imgLeft = imgLeft
	c.imgRight = imgRight
}

func (c *costComputer) setParams(lambdaAD, lambdaCensus float32) {
	c.lambdaAD = lambdaAD
	c.lambdaCensus = lambdaCensus
}

func (c *costComputer) compute() {
	grayscale(c.imgLeft, c.grayLeft)
	grayscale(c.imgRight, c.grayRight)

	censusTransform(c.grayLeft, c.censusLeft, c.width, c.height)
	censusTransform(c.grayRight, c.censusRight, c.width, c.height)

	c.computeCost()
}

// censusTransform fills census with the 9x7 ordinal code of every pixel.
func censusTransform(gray []byte, census []uint64, width, height int) {
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			center := gray[y*width+x]
			var code uint64
			for dy := -censusRadiusY; dy <= censusRadiusY; dy++ {
				yy := clampInt(y+dy, 0, height-1)
				for dx := -censusRadiusX; dx <= censusRadiusX; dx++ {
					xx := clampInt(x+dx, 0, width-1)
					code <<= 1
					if gray[yy*width+xx] < center {
						code |= 1
					}
				}
			}
			census[y*width+x] = code
		}
	}
}

func (c *costComputer) computeCost() {
	width := c.width
	height := c.height
	dispRange := c.maxDisparity - c.minDisparity

	invLambdaAD := 1.0 / float64(c.lambdaAD)
	invLambdaCensus := 1.0 / float64(c.lambdaCensus)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			pl := (y*width + x) * 3
			censusL := c.censusLeft[y*width+x]
			costRow := c.cost[(y*width+x)*dispRange : (y*width+x+1)*dispRange]

			for d := c.minDisparity; d < c.maxDisparity; d++ {
				xr := x - d
				if xr < 0 || xr >= width {
					// Out of the right image: both robust terms at their
					// asymptote.
					costRow[d-c.minDisparity] = 2
					continue
				}
				pr := (y*width + xr) * 3

				// AD: mean absolute colour difference.
				ad := float64(absInt(int(c.imgLeft[pl])-int(c.imgRight[pr]))+
					absInt(int(c.imgLeft[pl+1])-int(c.imgRight[pr+1]))+
					absInt(int(c.imgLeft[pl+2])-int(c.imgRight[pr+2]))) / 3.0

				// Census: Hamming distance of the two window codes.
				censusR := c.censusRight[y*width+xr]
				hamming := float64(bits.OnesCount64(censusL ^ censusR))

				costRow[d-c.minDisparity] = float32(
					(1 - math.Exp(-ad*invLambdaAD)) +
						(1 - math.Exp(-hamming*invLambdaCensus)))
			}
		}
	}
}
