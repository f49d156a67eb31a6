// Package main is the entry point for the ideaforge CLI. It searches the
// web for a query, pulls content ideas out of every result article and
// expands each idea into a paragraph.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/subosito/gotenv"

	"github.com/hoanghai1803/ideaforge/internal/config"
)

// version is set at build time via ldflags.
var version = "dev"

// rootOptions are the persistent flags shared by every subcommand.
type rootOptions struct {
	configPath string
	envFile    string
	logLevel   string
}

var rootOpts rootOptions

// rootCmd is the base command. Without a subcommand it behaves like run.
var rootCmd = &cobra.Command{
	Use:   "ideaforge",
	Short: "Turn web search results into content ideas",
	Long: `ideaforge searches the web for a query, extracts content ideas from each
result article with a language model and expands every idea into a short
paragraph. The ordered idea/paragraph list is written to stdout.

Subcommands: run (the default), serve and init.`,
	Version:       version,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadEnvFile(rootOpts.envFile); err != nil {
			return err
		}
		return setupLogging(rootOpts.logLevel)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIdeas(cmd, &runOpts)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootOpts.configPath, "config", "config.toml", "path to config file")
	rootCmd.PersistentFlags().StringVar(&rootOpts.envFile, "env-file", ".env", "optional dotenv file loaded before the config")
	rootCmd.PersistentFlags().StringVar(&rootOpts.logLevel, "log-level", "", "log level: debug, info, warn or error (default from config)")

	// The bare command accepts the run flags too.
	addRunFlags(rootCmd, &runOpts)
}

// loadEnvFile loads path into the process environment. Variables that are
// already set win. A missing file is not an error.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := gotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading env file %s: %w", path, err)
	}
	slog.Debug("loaded env file", "path", path)
	return nil
}

// setupLogging installs a text slog handler on stderr. stdout is reserved
// for the output document.
func setupLogging(level string) error {
	var lvl slog.Level
	if level != "" {
		if err := lvl.UnmarshalText([]byte(level)); err != nil {
			return fmt.Errorf("invalid log level %q: %w", level, err)
		}
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
	return nil
}

// loadConfig reads the config file and applies the --log-level override
// or the configured level.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(rootOpts.configPath)
	if err != nil {
		return nil, err
	}
	if rootOpts.logLevel == "" {
		if err := setupLogging(cfg.Log.Level); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		color.New(color.FgRed, color.Bold).Fprint(os.Stderr, "error: ")
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
