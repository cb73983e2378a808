package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveDefaults(t *testing.T) {
	var cfg Config
	cfg.Resolve(Flags{})

	require.Equal(t, "disparity-out", cfg.OutputDir)
	require.Equal(t, 1024, cfg.PreviewSize)
	require.Greater(t, cfg.Workers, 0)

	opt := cfg.Option()
	require.Equal(t, 0, opt.MinDisparity)
	require.Equal(t, 64, opt.MaxDisparity)
	require.True(t, opt.DoLRCheck)
	require.True(t, opt.DoFilling)
	require.False(t, opt.DoDiscontinuityAdjustment)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{
		"left_image": "l.png",
		"right_image": "r.png",
		"max_disparity": 128,
		"so_p1": 0.5,
		"no_lr_check": true,
		"workers": 3
	}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	cfg.Resolve(Flags{})

	require.Equal(t, "l.png", cfg.LeftImage)
	require.Equal(t, 3, cfg.Workers)

	opt := cfg.Option()
	require.Equal(t, 128, opt.MaxDisparity)
	require.Equal(t, float32(0.5), opt.P1)
	require.False(t, opt.DoLRCheck)
	// Untouched fields keep shipped defaults.
	require.Equal(t, 34, opt.CrossL1)
	require.Equal(t, float32(3.0), opt.P2)
}

func TestFlagsBeatConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"output_dir": "from-file", "max_disparity": 32}`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	cfg.Resolve(Flags{OutputDir: "from-flag", MaxDisparity: 96})

	require.Equal(t, "from-flag", cfg.OutputDir)
	require.Equal(t, 96, cfg.Option().MaxDisparity)
}

func TestLoadBadFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0644))
	_, err = Load(path)
	require.Error(t, err)
}
