package stereo

// Shared fixtures for the pipeline tests.

// flatImage returns a width*height BGR buffer filled with one colour.
func flatImage(width, height int, b, g, r byte) []byte {
	img := make([]byte, width*height*3)
	for i := 0; i < len(img); i += 3 {
		img[i] = b
		img[i+1] = g
		img[i+2] = r
	}
	return img
}

// texturedImage returns a deterministic high-frequency BGR pattern, so every
// pixel has a distinctive census code and AD signature.
func texturedImage(width, height int) []byte {
	img := make([]byte, width*height*3)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := (y*width + x) * 3
			img[i] = byte((x*37 + y*91 + 13) % 251)
			img[i+1] = byte((x*53 + y*29 + 101) % 241)
			img[i+2] = byte((x*71 + y*17 + 59) % 239)
		}
	}
	return img
}

// shiftLeft returns img with every pixel taken shift columns to the right of
// its own position (content moves left); the rightmost columns repeat the
// last available pixel.
func shiftLeft(img []byte, width, height, shift int) []byte {
	out := make([]byte, len(img))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			src := minInt(x+shift, width-1)
			copy(out[(y*width+x)*3:(y*width+x)*3+3], img[(y*width+src)*3:(y*width+src)*3+3])
		}
	}
	return out
}
