package batch

import (
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"adcensus-stereo/internal/imageio"
	"adcensus-stereo/internal/stereo"
	"adcensus-stereo/internal/visual"

	"github.com/sirupsen/logrus"
)

// Config holds all shared resources for a batch run.
type Config struct {
	OutputDir   string
	Option      stereo.Option
	PreviewSize int
	Workers     int
	Log         logrus.FieldLogger
}

// Result holds the outcome of processing one pair.
type Result struct {
	Name          string
	Success       bool
	ValidFraction float64
	Error         string
}

// Run processes all pairs using a worker pool. Each worker owns its own
// matcher; Match is re-entrant only across separate instances.
func Run(cfg Config, pairs []PairDef) []Result {
	total := len(pairs)
	results := make([]Result, total)
	var processed atomic.Int64

	start := time.Now()

	// Progress reporter
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				p := processed.Load()
				if p > 0 {
					elapsed := time.Since(start).Seconds()
					cfg.Log.Infof("[%d/%d] %.2f pairs/sec", p, total, float64(p)/elapsed)
				}
			}
		}
	}()

	// Worker pool
	pairChan := make(chan int, cfg.Workers*2)
	var wg sync.WaitGroup

	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			matcher := stereo.NewMatcher()
			for idx := range pairChan {
				results[idx] = processPair(cfg, matcher, pairs[idx])
				processed.Add(1)
			}
		}()
	}

	// Send work
	for i := range pairs {
		pairChan <- i
	}
	close(pairChan)

	wg.Wait()
	close(done)

	return results
}

func processPair(cfg Config, matcher *stereo.Matcher, pair PairDef) Result {
	fail := func(err error) Result {
		return Result{Name: pair.Name, Error: err.Error()}
	}

	wl, hl, left, err := imageio.LoadBGR(pair.Left)
	if err != nil {
		return fail(err)
	}
	wr, hr, right, err := imageio.LoadBGR(pair.Right)
	if err != nil {
		return fail(err)
	}
	if wl != wr || hl != hr {
		return fail(fmt.Errorf("batch: pair %s: dimensions differ, %dx%d vs %dx%d", pair.Name, wl, hl, wr, hr))
	}

	// Re-initialize only when the dimensions change between pairs.
	if w, h := matcher.Size(); w != wl || h != hl {
		if err := matcher.Reset(wl, hl, cfg.Option); err != nil {
			return fail(err)
		}
	}

	disp := make([]float32, wl*hl)
	if err := matcher.Match(left, right, disp); err != nil {
		return fail(err)
	}

	grayPath := filepath.Join(cfg.OutputDir, fmt.Sprintf("%s-disparity.png", pair.Name))
	if err := imageio.WritePNG(grayPath, visual.Gray(disp, wl, hl)); err != nil {
		return fail(err)
	}

	colorPath := filepath.Join(cfg.OutputDir, fmt.Sprintf("%s-disparity-color.webp", pair.Name))
	colorImg := visual.Downsample(visual.Jet(disp, wl, hl), cfg.PreviewSize)
	if err := imageio.WriteWebP(colorPath, colorImg); err != nil {
		return fail(err)
	}

	return Result{
		Name:          pair.Name,
		Success:       true,
		ValidFraction: stereo.ValidFraction(disp),
	}
}
