package config

import (
	"encoding/json"
	"fmt"
	"os"
	"runtime"

	"adcensus-stereo/internal/stereo"
)

// Config holds all configurable paths and matcher settings.
type Config struct {
	// Paths
	LeftImage  string `json:"left_image"`
	RightImage string `json:"right_image"`
	PairList   string `json:"pair_list"`
	OutputDir  string `json:"output_dir"`

	// Matcher settings. Pointers distinguish "unset" from explicit zeros so
	// the shipped defaults survive a sparse config file.
	MinDisparity *int     `json:"min_disparity"`
	MaxDisparity *int     `json:"max_disparity"`
	LambdaAD     *float64 `json:"lambda_ad"`
	LambdaCensus *float64 `json:"lambda_census"`
	CrossL1      *int     `json:"cross_l1"`
	CrossL2      *int     `json:"cross_l2"`
	CrossT1      *int     `json:"cross_t1"`
	CrossT2      *int     `json:"cross_t2"`
	P1           *float64 `json:"so_p1"`
	P2           *float64 `json:"so_p2"`
	TSO          *int     `json:"so_tso"`
	IrvTS        *int     `json:"irv_ts"`
	IrvTH        *float64 `json:"irv_th"`
	LRCheckThres *float64 `json:"lrcheck_thres"`

	NoLRCheck               bool `json:"no_lr_check"`
	NoFilling               bool `json:"no_filling"`
	DiscontinuityAdjustment bool `json:"discontinuity_adjustment"`

	// Output settings
	PreviewSize int `json:"preview_size"`
	Workers     int `json:"workers"`
}

// Flags holds CLI flag values that override config file settings.
type Flags struct {
	Left         string
	Right        string
	PairList     string
	OutputDir    string
	MaxDisparity int
	Workers      int
}

// Load reads a JSON config file and returns Config.
// Fields not set in the file keep their zero values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return cfg, nil
}

// Resolve fills in any empty fields with defaults.
// CLI flags take priority when non-zero/non-empty.
func (c *Config) Resolve(flags Flags) {
	if flags.Left != "" {
		c.LeftImage = flags.Left
	}
	if flags.Right != "" {
		c.RightImage = flags.Right
	}
	if flags.PairList != "" {
		c.PairList = flags.PairList
	}
	if flags.OutputDir != "" {
		c.OutputDir = flags.OutputDir
	}
	if flags.MaxDisparity > 0 {
		c.MaxDisparity = &flags.MaxDisparity
	}
	if flags.Workers > 0 {
		c.Workers = flags.Workers
	}

	if c.OutputDir == "" {
		c.OutputDir = "disparity-out"
	}
	if c.PreviewSize <= 0 {
		c.PreviewSize = 1024
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
}

// Option builds the matcher option set: shipped defaults overlaid with
// whatever the config file or flags set.
func (c *Config) Option() stereo.Option {
	opt := stereo.DefaultOption()
	if c.MinDisparity != nil {
		opt.MinDisparity = *c.MinDisparity
	}
	if c.MaxDisparity != nil {
		opt.MaxDisparity = *c.MaxDisparity
	}
	if c.LambdaAD != nil {
		opt.LambdaAD = float32(*c.LambdaAD)
	}
	if c.LambdaCensus != nil {
		opt.LambdaCensus = float32(*c.LambdaCensus)
	}
	if c.CrossL1 != nil {
		opt.CrossL1 = *c.CrossL1
	}
	if c.CrossL2 != nil {
		opt.CrossL2 = *c.CrossL2
	}
	if c.CrossT1 != nil {
		opt.CrossT1 = *c.CrossT1
	}
	if c.CrossT2 != nil {
		opt.CrossT2 = *c.CrossT2
	}
	if c.P1 != nil {
		opt.P1 = float32(*c.P1)
	}
	if c.P2 != nil {
		opt.P2 = float32(*c.P2)
	}
	if c.TSO != nil {
		opt.TSO = *c.TSO
	}
	if c.IrvTS != nil {
		opt.IrvTS = *c.IrvTS
	}
	if c.IrvTH != nil {
		opt.IrvTH = float32(*c.IrvTH)
	}
	if c.LRCheckThres != nil {
		opt.LRCheckThres = float32(*c.LRCheckThres)
	}
	opt.DoLRCheck = !c.NoLRCheck
	opt.DoFilling = !c.NoFilling
	opt.DoDiscontinuityAdjustment = c.DiscontinuityAdjustment
	return opt
}
