// Package pipeline drives one ideation run: search, then for every result
// fetch the article, extract ideas and expand each idea into a paragraph.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/hoanghai1803/ideaforge/internal/ai"
	"github.com/hoanghai1803/ideaforge/internal/models"
	"github.com/hoanghai1803/ideaforge/internal/search"
	"golang.org/x/sync/errgroup"
)

// ErrSearch marks a failed search call. It ends the run with no output.
var ErrSearch = errors.New("search failed")

// Searcher returns the result pages for a query.
type Searcher interface {
	Search(ctx context.Context, query string, count int) ([]models.SearchResult, error)
}

// ArticleFetcher resolves a result URL to article text.
type ArticleFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Options tunes a Pipeline. Zero values run everything sequentially with
// no per-call deadlines.
type Options struct {
	// ResultConcurrency bounds how many results are processed at once.
	ResultConcurrency int
	// IdeaConcurrency bounds how many ideas of one result are expanded at
	// once.
	IdeaConcurrency int

	SearchTimeout time.Duration
	FetchTimeout  time.Duration
	// CallTimeout applies to each model call separately.
	CallTimeout time.Duration

	// OnSearch is called once with the number of results the search
	// returned, before any of them is processed.
	OnSearch func(results int)

	// OnResult is called once per finished result, done or skipped. It may
	// be called from several goroutines at once.
	OnResult func(ResultEvent)
}

// ResultEvent describes one finished search result.
type ResultEvent struct {
	Index   int
	Result  models.SearchResult
	Pairs   int
	Skipped *models.SkippedResult
}

// Report is the outcome of a run. Pairs are in result order, then idea
// order within a result.
type Report struct {
	Query   string                 `json:"query"`
	Results int                    `json:"results"`
	Pairs   []models.IdeaParagraph `json:"ideas"`
	Skipped []models.SkippedResult `json:"skipped"`
}

// Pipeline holds the collaborators of a run. It keeps no state between
// runs and is safe for concurrent use.
type Pipeline struct {
	searcher Searcher
	fetcher  ArticleFetcher
	provider ai.AIProvider
	prompt   *ai.PromptTemplate
	opts     Options
}

// New creates a Pipeline.
func New(searcher Searcher, fetcher ArticleFetcher, provider ai.AIProvider, prompt *ai.PromptTemplate, opts Options) *Pipeline {
	if opts.ResultConcurrency < 1 {
		opts.ResultConcurrency = 1
	}
	if opts.IdeaConcurrency < 1 {
		opts.IdeaConcurrency = 1
	}
	return &Pipeline{
		searcher: searcher,
		fetcher:  fetcher,
		provider: provider,
		prompt:   prompt,
		opts:     opts,
	}
}

// outcome is what one result contributes to the report.
type outcome struct {
	pairs   []models.IdeaParagraph
	skipped *models.SkippedResult
}

// Run executes one pass. Invalid input and a failed search are returned as
// errors without touching the other collaborators. Failures while
// processing a single result are logged and recorded in Report.Skipped.
func (p *Pipeline) Run(ctx context.Context, query string, count int) (*Report, error) {
	if err := search.Validate(query, count); err != nil {
		return nil, err
	}

	sctx, cancel := withTimeout(ctx, p.opts.SearchTimeout)
	results, err := p.searcher.Search(sctx, query, count)
	cancel()
	if err != nil {
		slog.Error("search failed", "query", query, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrSearch, err)
	}
	slog.Info("search complete", "query", query, "results", len(results))
	if p.opts.OnSearch != nil {
		p.opts.OnSearch(len(results))
	}

	// Each goroutine owns one slot, so results keep their order without
	// locking.
	slots := make([]outcome, len(results))

	var g errgroup.Group
	g.SetLimit(p.opts.ResultConcurrency)

	for i, r := range results {
		g.Go(func() error {
			slots[i] = p.processResult(ctx, i, r)
			if p.opts.OnResult != nil {
				p.opts.OnResult(ResultEvent{
					Index:   i,
					Result:  r,
					Pairs:   len(slots[i].pairs),
					Skipped: slots[i].skipped,
				})
			}
			return nil // never fail the group: results are isolated
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("run interrupted: %w", err)
	}

	report := &Report{
		Query:   query,
		Results: len(results),
		Pairs:   []models.IdeaParagraph{},
		Skipped: []models.SkippedResult{},
	}
	for _, o := range slots {
		report.Pairs = append(report.Pairs, o.pairs...)
		if o.skipped != nil {
			report.Skipped = append(report.Skipped, *o.skipped)
		}
	}

	slog.Info("run complete",
		"results", report.Results,
		"ideas", len(report.Pairs),
		"skipped", len(report.Skipped),
	)
	return report, nil
}

// processResult takes one result through fetch, extract and expand. Any
// error, including a panic, turns the result into a skip. Pairs expanded
// before a failed expansion are kept.
func (p *Pipeline) processResult(ctx context.Context, index int, r models.SearchResult) (out outcome) {
	stage := models.StageFetch
	skip := func(err error) outcome {
		slog.Warn("skipping search result",
			"index", index,
			"url", r.URL,
			"stage", stage,
			"error", err,
		)
		return outcome{skipped: &models.SkippedResult{
			URL:   r.URL,
			Title: r.Title,
			Stage: stage,
			Error: err.Error(),
		}}
	}

	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("panic while processing search result",
				"url", r.URL,
				"panic", rec,
				"stack", string(debug.Stack()),
			)
			out = skip(fmt.Errorf("panic: %v", rec))
		}
	}()

	fctx, cancel := withTimeout(ctx, p.opts.FetchTimeout)
	text, err := p.fetcher.Fetch(fctx, r.URL)
	cancel()
	if err != nil {
		return skip(err)
	}

	stage = models.StageExtract
	cctx, cancel := withTimeout(ctx, p.opts.CallTimeout)
	ideas, err := ai.ExtractIdeas(cctx, p.provider, p.prompt, text)
	cancel()
	if err != nil {
		return skip(err)
	}
	if len(ideas.Ideas) == 0 {
		slog.Info("no ideas extracted", "url", r.URL)
		return outcome{}
	}

	stage = models.StageExpand
	pairs, err := p.expandAll(ctx, ideas.Ideas)
	if err != nil {
		out = skip(err)
		out.pairs = pairs
		return out
	}

	slog.Info("processed search result", "index", index, "url", r.URL, "ideas", len(pairs))
	return outcome{pairs: pairs}
}

// expandAll expands every idea, keeping idea order. The first failure
// cancels the remaining expansions of this result only. On failure the
// pairs finished before the first failed idea are still returned.
func (p *Pipeline) expandAll(ctx context.Context, ideas []string) ([]models.IdeaParagraph, error) {
	pairs := make([]models.IdeaParagraph, len(ideas))
	done := make([]bool, len(ideas))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.IdeaConcurrency)

	for i, idea := range ideas {
		g.Go(func() (err error) {
			defer func() {
				if rec := recover(); rec != nil {
					err = fmt.Errorf("panic expanding idea %q: %v", idea, rec)
				}
			}()

			if err := gctx.Err(); err != nil {
				return err
			}

			cctx, cancel := withTimeout(gctx, p.opts.CallTimeout)
			defer cancel()

			paragraph, err := ai.ExpandIdea(cctx, p.provider, idea)
			if err != nil {
				return fmt.Errorf("expanding idea %q: %w", idea, err)
			}
			pairs[i] = models.IdeaParagraph{Idea: idea, Paragraph: paragraph}
			done[i] = true
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		n := 0
		for n < len(done) && done[n] {
			n++
		}
		return pairs[:n], err
	}
	return pairs, nil
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
