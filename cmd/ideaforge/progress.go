package main

import (
	"os"
	"sync"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"github.com/hoanghai1803/ideaforge/internal/pipeline"
)

// progress renders one bar step per finished search result on stderr.
type progress struct {
	mu      sync.Mutex
	bar     *progressbar.ProgressBar
	ideas   int
	skipped int
}

func newProgress(total int) *progress {
	return &progress{
		bar: progressbar.NewOptions(total,
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription(color.BlueString("Processing results")),
			progressbar.OptionSetItsString("results"),
			progressbar.OptionShowCount(),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "█",
				SaucerHead:    "█",
				SaucerPadding: "░",
				BarStart:      "[",
				BarEnd:        "]",
			}),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionSetRenderBlankState(true),
		),
	}
}

// SetTotal resizes the bar to the number of results the search returned,
// which may be fewer than requested. An empty search leaves the bar as is.
func (p *progress) SetTotal(n int) {
	if n < 1 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	p.bar.ChangeMax(n)
}

// Observe is a pipeline.Options.OnResult callback.
func (p *progress) Observe(ev pipeline.ResultEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.ideas += ev.Pairs
	if ev.Skipped != nil {
		p.skipped++
	}
	p.bar.Describe(color.BlueString("Processing results (%d ideas, %d skipped)", p.ideas, p.skipped))
	_ = p.bar.Add(1)
}

// Finish completes the bar and moves stderr to a fresh line.
func (p *progress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	_ = p.bar.Finish()
	_, _ = os.Stderr.WriteString("\n")
}
