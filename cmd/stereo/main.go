package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"adcensus-stereo/internal/config"
	"adcensus-stereo/internal/imageio"
	"adcensus-stereo/internal/stereo"
	"adcensus-stereo/internal/visual"

	"github.com/sirupsen/logrus"
)

func main() {
	// CLI flags
	configFile := flag.String("config", "", "Path to config.json file")
	left := flag.String("left", "", "Path to the left image")
	right := flag.String("right", "", "Path to the right image")
	outputDir := flag.String("output", "", "Output directory (default: disparity-out)")
	maxDisparity := flag.Int("maxdisp", 0, "Maximum disparity, exclusive (default: 64)")
	verbose := flag.Bool("v", false, "Log per-stage timing")

	flag.Parse()

	log := logrus.New()
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	// Load config
	var cfg config.Config
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}

	// CLI flags override config file
	cfg.Resolve(config.Flags{
		Left:         *left,
		Right:        *right,
		OutputDir:    *outputDir,
		MaxDisparity: *maxDisparity,
	})

	if cfg.LeftImage == "" || cfg.RightImage == "" {
		fmt.Fprintln(os.Stderr, "Error: both -left and -right images are required.")
		flag.Usage()
		os.Exit(1)
	}

	wl, hl, imgLeft, err := imageio.LoadBGR(cfg.LeftImage)
	if err != nil {
		log.Fatalf("load left: %v", err)
	}
	wr, hr, imgRight, err := imageio.LoadBGR(cfg.RightImage)
	if err != nil {
		log.Fatalf("load right: %v", err)
	}
	if wl != wr || hl != hr {
		log.Fatalf("stereo pair dimensions differ: %dx%d vs %dx%d", wl, hl, wr, hr)
	}

	opt := cfg.Option()
	log.WithFields(logrus.Fields{
		"size":  fmt.Sprintf("%dx%d", wl, hl),
		"range": fmt.Sprintf("[%d,%d)", opt.MinDisparity, opt.MaxDisparity),
	}).Info("matching")

	matcher := stereo.NewMatcher()
	matcher.SetLogger(log)
	if err := matcher.Initialize(wl, hl, opt); err != nil {
		log.Fatalf("initialize: %v", err)
	}

	disp := make([]float32, wl*hl)
	start := time.Now()
	if err := matcher.Match(imgLeft, imgRight, disp); err != nil {
		log.Fatalf("match: %v", err)
	}
	log.WithFields(logrus.Fields{
		"took":  time.Since(start),
		"valid": fmt.Sprintf("%.1f%%", 100*stereo.ValidFraction(disp)),
	}).Info("done")

	name := stem(cfg.LeftImage)
	grayPath := filepath.Join(cfg.OutputDir, name+"-disparity.png")
	if err := imageio.WritePNG(grayPath, visual.Gray(disp, wl, hl)); err != nil {
		log.Fatalf("write gray: %v", err)
	}
	colorPath := filepath.Join(cfg.OutputDir, name+"-disparity-color.webp")
	colorImg := visual.Downsample(visual.Jet(disp, wl, hl), cfg.PreviewSize)
	if err := imageio.WriteWebP(colorPath, colorImg); err != nil {
		log.Fatalf("write color: %v", err)
	}

	log.Infof("wrote %s, %s", grayPath, colorPath)
}

// stem strips the directory and extension from a path.
func stem(path string) string {
	base := filepath.Base(path)
	return base[:len(base)-len(filepath.Ext(base))]
}
