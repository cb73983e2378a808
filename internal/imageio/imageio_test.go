package imageio

import (
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadBGRRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pair.png")

	img := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	img.SetNRGBA(0, 0, color.NRGBA{R: 200, G: 100, B: 50, A: 255})
	img.SetNRGBA(2, 1, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	require.NoError(t, WritePNG(path, img))

	w, h, data, err := LoadBGR(path)
	require.NoError(t, err)
	require.Equal(t, 3, w)
	require.Equal(t, 2, h)
	require.Len(t, data, 3*2*3)

	// Interleaved B, G, R.
	require.Equal(t, []byte{50, 100, 200}, data[0:3])
	require.Equal(t, []byte{30, 20, 10}, data[(1*3+2)*3:(1*3+2)*3+3])
}

func TestLoadBGRMissingFile(t *testing.T) {
	_, _, _, err := LoadBGR(filepath.Join(t.TempDir(), "nope.png"))
	require.Error(t, err)
}

func TestWritePicksEncoder(t *testing.T) {
	dir := t.TempDir()
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))

	require.NoError(t, Write(filepath.Join(dir, "out.png"), img))
	require.NoError(t, Write(filepath.Join(dir, "out.webp"), img))
	require.Error(t, Write(filepath.Join(dir, "out.jpg"), img))
}

func TestWriteCreatesDirectories(t *testing.T) {
	dir := t.TempDir()
	img := image.NewGray(image.Rect(0, 0, 2, 2))
	require.NoError(t, WritePNG(filepath.Join(dir, "a", "b", "out.png"), img))
}
