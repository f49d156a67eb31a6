package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/hoanghai1803/ideaforge/internal/ai"
	"github.com/hoanghai1803/ideaforge/internal/article"
	"github.com/hoanghai1803/ideaforge/internal/config"
	"github.com/hoanghai1803/ideaforge/internal/pipeline"
	"github.com/hoanghai1803/ideaforge/internal/render"
	"github.com/hoanghai1803/ideaforge/internal/search"
)

// runOptions are the flags of the run command. Empty or zero values fall
// back to the config.
type runOptions struct {
	query    string
	count    int
	format   string
	progress bool
}

var runOpts runOptions

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Search, extract ideas and expand them into paragraphs",
	Long: `run performs one pass: search for the query, fetch every result article,
extract content ideas from it and expand each idea into a paragraph.

Results that cannot be fetched or processed are skipped and listed on
stderr. The document on stdout holds only the idea/paragraph pairs.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIdeas(cmd, &runOpts)
	},
}

func init() {
	addRunFlags(runCmd, &runOpts)
	rootCmd.AddCommand(runCmd)
}

func addRunFlags(cmd *cobra.Command, opts *runOptions) {
	cmd.Flags().StringVarP(&opts.query, "query", "q", "", "search query (default from config)")
	cmd.Flags().IntVarP(&opts.count, "count", "n", 0, "number of search results to process (default from config)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "output format: json, yaml, markdown or html (default from config)")
	cmd.Flags().BoolVar(&opts.progress, "progress", false, "show a progress bar on stderr")
}

func runIdeas(cmd *cobra.Command, opts *runOptions) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := applyRunFlags(cmd, cfg, opts); err != nil {
		return err
	}
	if err := cfg.RequireCredentials(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var bar *progress
	var hooks pipelineHooks
	if opts.progress {
		bar = newProgress(cfg.Search.ResultCount)
		hooks = pipelineHooks{onSearch: bar.SetTotal, onResult: bar.Observe}
	}

	p, err := newPipeline(cfg, hooks)
	if err != nil {
		return err
	}

	report, err := p.Run(ctx, cfg.Search.Query, cfg.Search.ResultCount)
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		return err
	}

	if err := render.Write(os.Stdout, cfg.Output.Format, report.Pairs); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	printSummary(report)
	return nil
}

// applyRunFlags copies explicitly set flags over the config and re-checks
// the result.
func applyRunFlags(cmd *cobra.Command, cfg *config.Config, opts *runOptions) error {
	flags := cmd.Flags()
	if flags.Changed("query") {
		cfg.Search.Query = opts.query
	}
	if flags.Changed("count") {
		if opts.count < 1 {
			return fmt.Errorf("invalid --count %d: must be >= 1", opts.count)
		}
		cfg.Search.ResultCount = opts.count
	}
	if flags.Changed("format") {
		cfg.Output.Format = opts.format
	}
	return cfg.Validate()
}

// pipelineHooks are the optional progress callbacks of a run.
type pipelineHooks struct {
	onSearch func(int)
	onResult func(pipeline.ResultEvent)
}

// newPipeline builds the search, fetch and model collaborators from cfg.
func newPipeline(cfg *config.Config, hooks pipelineHooks) (*pipeline.Pipeline, error) {
	prompt, err := ai.NewPromptTemplate(cfg.AI.Extract.Template)
	if err != nil {
		return nil, fmt.Errorf("ai.extract.template: %w", err)
	}

	aiTimeout := time.Duration(cfg.AI.TimeoutSeconds) * time.Second
	provider, err := ai.NewProvider(ai.ProviderConfig{
		Provider: cfg.AI.Provider,
		APIKey:   cfg.AI.APIKey,
		BaseURL:  cfg.AI.BaseURL,
		Timeout:  aiTimeout,
		Extract:  callSettings(cfg.AI.Extract.Call()),
		Expand:   callSettings(cfg.AI.Expand),
	})
	if err != nil {
		return nil, fmt.Errorf("creating AI provider: %w", err)
	}

	searchTimeout := time.Duration(cfg.Search.TimeoutSeconds) * time.Second
	searcher, err := search.New(search.Config{
		Provider: cfg.Search.Provider,
		APIKey:   cfg.Search.APIKey,
		Timeout:  searchTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("creating search provider: %w", err)
	}

	fetchTimeout := time.Duration(cfg.Fetch.TimeoutSeconds) * time.Second
	fetcher := article.NewFetcher(article.Options{
		Timeout:           fetchTimeout,
		MaxWords:          cfg.Fetch.MaxWords,
		RequestsPerSecond: cfg.Fetch.RequestsPerSecond,
	})

	return pipeline.New(searcher, fetcher, provider, prompt, pipeline.Options{
		ResultConcurrency: cfg.Pipeline.ResultConcurrency,
		IdeaConcurrency:   cfg.Pipeline.IdeaConcurrency,
		SearchTimeout:     searchTimeout,
		FetchTimeout:      fetchTimeout,
		CallTimeout:       aiTimeout,
		OnSearch:          hooks.onSearch,
		OnResult:          hooks.onResult,
	}), nil
}

func callSettings(c config.CallConfig) ai.CallSettings {
	return ai.CallSettings{
		Model:           c.Model,
		MaxOutputTokens: c.MaxOutputTokens,
		Creativity:      c.Creativity,
	}
}

// printSummary reports the run totals and every skipped result on stderr.
func printSummary(report *pipeline.Report) {
	color.New(color.FgGreen).Fprintf(os.Stderr, "✓ %d ideas from %d results\n",
		len(report.Pairs), report.Results)

	if len(report.Skipped) == 0 {
		return
	}
	warn := color.New(color.FgYellow)
	warn.Fprintf(os.Stderr, "Skipped %d results:\n", len(report.Skipped))
	for _, s := range report.Skipped {
		fmt.Fprintf(os.Stderr, "  - [%s] %s: %s\n", s.Stage, s.URL, s.Error)
	}
}
