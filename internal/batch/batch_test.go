package batch

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"adcensus-stereo/internal/imageio"
	"adcensus-stereo/internal/stereo"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func writeTestPair(t *testing.T, dir string) (string, string) {
	t.Helper()
	const w, h = 24, 16
	left := image.NewNRGBA(image.Rect(0, 0, w, h))
	right := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.NRGBA{
				R: uint8((x*71 + y*17) % 239),
				G: uint8((x*53 + y*29) % 241),
				B: uint8((x*37 + y*91) % 251),
				A: 255,
			}
			left.SetNRGBA(x, y, c)
			xr := x + 2
			if xr > w-1 {
				xr = w - 1
			}
			right.SetNRGBA(x, y, color.NRGBA{
				R: uint8((xr*71 + y*17) % 239),
				G: uint8((xr*53 + y*29) % 241),
				B: uint8((xr*37 + y*91) % 251),
				A: 255,
			})
		}
	}

	lp := filepath.Join(dir, "left.png")
	rp := filepath.Join(dir, "right.png")
	require.NoError(t, imageio.WritePNG(lp, left))
	require.NoError(t, imageio.WritePNG(rp, right))
	return lp, rp
}

func TestRunProcessesPairs(t *testing.T) {
	dir := t.TempDir()
	lp, rp := writeTestPair(t, dir)

	opt := stereo.DefaultOption()
	opt.MaxDisparity = 8

	log := logrus.New()
	log.SetOutput(os.Stderr)

	results := Run(Config{
		OutputDir:   filepath.Join(dir, "out"),
		Option:      opt,
		PreviewSize: 512,
		Workers:     2,
		Log:         log,
	}, []PairDef{
		{Name: "scene", Left: lp, Right: rp},
		{Name: "broken", Left: filepath.Join(dir, "missing.png"), Right: rp},
	})

	require.Len(t, results, 2)
	byName := map[string]Result{}
	for _, r := range results {
		byName[r.Name] = r
	}

	require.True(t, byName["scene"].Success)
	require.Greater(t, byName["scene"].ValidFraction, 0.0)
	require.FileExists(t, filepath.Join(dir, "out", "scene-disparity.png"))
	require.FileExists(t, filepath.Join(dir, "out", "scene-disparity-color.webp"))

	require.False(t, byName["broken"].Success)
	require.NotEmpty(t, byName["broken"].Error)
}

func TestManifestRoundTrip(t *testing.T) {
	dir := t.TempDir()
	pairsPath := filepath.Join(dir, "pairs.json")
	body := `[{"name": "a", "left": "l.png", "right": "r.png"}]`
	require.NoError(t, os.WriteFile(pairsPath, []byte(body), 0644))

	pairs, err := LoadPairs(pairsPath)
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	require.Equal(t, "a", pairs[0].Name)

	manifestPath := filepath.Join(dir, "manifest.json")
	results := []Result{
		{Name: "a", Success: true, ValidFraction: 0.9},
		{Name: "b", Success: false, Error: "boom"},
	}
	require.NoError(t, WriteManifest(manifestPath, results))

	data, err := os.ReadFile(manifestPath)
	require.NoError(t, err)
	require.Contains(t, string(data), `"a-disparity.png"`)
	require.NotContains(t, string(data), `"b-disparity.png"`)
}
