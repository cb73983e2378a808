package stereo

import "sort"

// medianFilter applies a wndSize x wndSize median in scanline order. in and
// out may alias, in which case later windows see already-filtered rows.
// Border windows shrink to the in-bounds samples.
func medianFilter(in, out []float32, width, height, wndSize int) {
	radius := wndSize / 2
	wnd := make([]float32, 0, wndSize*wndSize)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			wnd = wnd[:0]
			for r := -radius; r <= radius; r++ {
				for c := -radius; c <= radius; c++ {
					row := y + r
					col := x + c
					if row >= 0 && row < height && col >= 0 && col < width {
						wnd = append(wnd, in[row*width+col])
					}
				}
			}
			sort.Slice(wnd, func(i, j int) bool { return wnd[i] < wnd[j] })
			out[y*width+x] = wnd[len(wnd)/2]
		}
	}
}

// edgeDetect marks pixels whose Sobel magnitude |Gx|+|Gy| over disp exceeds
// threshold. Mask borders stay zero.
func edgeDetect(mask []byte, disp []float32, width, height int, threshold float32) {
	for i := range mask {
		mask[i] = 0
	}
	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			gradX := (-disp[(y-1)*width+x-1] + disp[(y-1)*width+x+1]) +
				(-2*disp[y*width+x-1] + 2*disp[y*width+x+1]) +
				(-disp[(y+1)*width+x-1] + disp[(y+1)*width+x+1])
			gradY := (-disp[(y-1)*width+x-1] - 2*disp[(y-1)*width+x] - disp[(y-1)*width+x+1]) +
				(disp[(y+1)*width+x-1] + 2*disp[(y+1)*width+x] + disp[(y+1)*width+x+1])
			grad := absF32(gradX) + absF32(gradY)
			if grad > threshold {
				mask[y*width+x] = 1
			}
		}
	}
}

func absF32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
