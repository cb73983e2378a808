package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"adcensus-stereo/internal/batch"
	"adcensus-stereo/internal/config"

	"github.com/sirupsen/logrus"
)

func main() {
	// CLI flags
	configFile := flag.String("config", "", "Path to config.json file")
	pairList := flag.String("pairs", "", "Path to the JSON pair list")
	outputDir := flag.String("output", "", "Output directory (default: disparity-out)")
	maxDisparity := flag.Int("maxdisp", 0, "Maximum disparity, exclusive (default: 64)")
	workers := flag.Int("workers", 0, "Number of worker goroutines (default: NumCPU)")
	testN := flag.Int("test", 0, "Match only the first N pairs for testing")

	flag.Parse()

	log := logrus.New()

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
		PairList:     *pairList,
		OutputDir:    *outputDir,
		MaxDisparity: *maxDisparity,
		Workers:      *workers,
	})

	if cfg.PairList == "" {
		fmt.Fprintln(os.Stderr, "Error: a pair list is required. Use -pairs or config.json.")
		flag.Usage()
		os.Exit(1)
	}

	pairs, err := batch.LoadPairs(cfg.PairList)
	if err != nil {
		log.Fatalf("load pairs: %v", err)
	}

	// Limit for testing
	if *testN > 0 && *testN < len(pairs) {
		pairs = pairs[:*testN]
	}

	if len(pairs) == 0 {
		log.Info("no pairs to match")
		return
	}

	log.Infof("matching %d pairs with %d workers", len(pairs), cfg.Workers)
	start := time.Now()

	results := batch.Run(batch.Config{
		OutputDir:   cfg.OutputDir,
		Option:      cfg.Option(),
		PreviewSize: cfg.PreviewSize,
		Workers:     cfg.Workers,
		Log:         log,
	}, pairs)

	succeeded := 0
	for _, r := range results {
		if r.Success {
			succeeded++
		} else {
			log.WithField("pair", r.Name).Warnf("failed: %s", r.Error)
		}
	}

	manifestPath := filepath.Join(cfg.OutputDir, "manifest.json")
	if err := batch.WriteManifest(manifestPath, results); err != nil {
		log.Fatalf("write manifest: %v", err)
	}

	log.Infof("done: %d/%d pairs in %s", succeeded, len(results), time.Since(start).Round(time.Millisecond))
}
