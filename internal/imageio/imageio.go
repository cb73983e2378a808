// Package imageio decodes stereo pairs into the interleaved BGR byte buffers
// the matching core consumes, and writes rendered disparity maps back out.
package imageio

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"image/jpeg"

	"github.com/HugoSmits86/nativewebp"
	_ "github.com/ftrvxmtrx/tga"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// LoadBGR decodes an image file (PNG, JPEG, TGA, BMP or TIFF) and returns
// its dimensions plus a height*width*3 interleaved BGR buffer.
func LoadBGR(path string) (width, height int, data []byte, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, nil, fmt.Errorf("imageio: open %s: %w", path, err)
	}
	defer f.Close()

	// The tga package registers with an empty magic string and would claim
	// every file in image.Decode, so known extensions use their own decoder.
	var img image.Image
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		img, err = png.Decode(f)
	case ".jpg", ".jpeg":
		img, err = jpeg.Decode(f)
	case ".bmp":
		img, err = bmp.Decode(f)
	case ".tif", ".tiff":
		img, err = tiff.Decode(f)
	default:
		img, _, err = image.Decode(f)
	}
	if err != nil {
		return 0, 0, nil, fmt.Errorf("imageio: decode %s: %w", path, err)
	}

	b := img.Bounds()
	width = b.Dx()
	height = b.Dy()
	data = make([]byte, width*height*3)

	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			data[i] = byte(bl >> 8)
			data[i+1] = byte(g >> 8)
			data[i+2] = byte(r >> 8)
			i += 3
		}
	}
	return width, height, data, nil
}

// WritePNG saves img to path, creating parent directories.
func WritePNG(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("imageio: mkdir for %s: %w", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("imageio: create %s: %w", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("imageio: PNG encode %s: %w", path, err)
	}
	return nil
}

// WriteWebP saves img to path as lossless WebP, creating parent directories.
func WriteWebP(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("imageio: mkdir for %s: %w", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("imageio: create %s: %w", path, err)
	}
	defer f.Close()
	if err := nativewebp.Encode(f, img, nil); err != nil {
		return fmt.Errorf("imageio: WebP encode %s: %w", path, err)
	}
	return nil
}

// Write picks the encoder from the file extension (.png or .webp).
func Write(path string, img image.Image) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".webp":
		return WriteWebP(path, img)
	case ".png":
		return WritePNG(path, img)
	default:
		return fmt.Errorf("imageio: unsupported output extension: %s", path)
	}
}
