// Command threadstat runs the Threads analysis pipeline from a terminal.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/vadim/threadstat/internal/config"
	"github.com/vadim/threadstat/internal/domain/analysis/entity"
	"github.com/vadim/threadstat/internal/presentation"
)

// rootOptions holds flags shared by every subcommand
type rootOptions struct {
	timeout time.Duration
	verbose bool
	jsonOut bool
}

func main() {
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		var shown renderedError
		if !errors.As(err, &shown) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "threadstat",
		Short: "Threads account analytics from the command line",
		Long: `threadstat fetches a Threads account's profile, posts, per-post insights
and conversations, then prints the aggregated dashboard.

Configuration is read from the environment (and a .env file when present),
using the same variables as the HTTP server.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 2*time.Minute, "Overall operation timeout")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log upstream calls to stderr")
	root.PersistentFlags().BoolVar(&opts.jsonOut, "json", false, "Print the raw JSON result instead of the dashboard")

	root.AddCommand(newAnalyzeCmd(opts))
	root.AddCommand(newMockCmd(opts))
	root.AddCommand(newFixtureCmd(opts))

	return root
}

// setup loads configuration and a stderr logger, and bounds ctx by the timeout flag
func (o *rootOptions) setup(ctx context.Context) (config.Config, *slog.Logger, context.Context, context.CancelFunc, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, nil, nil, nil, fmt.Errorf("loading config: %w", err)
	}

	level := slog.LevelWarn
	if o.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	return cfg, logger, ctx, cancel, nil
}

// printResult writes res as indented JSON or as the coloured dashboard
func (o *rootOptions) printResult(w io.Writer, res *entity.Result) error {
	if o.jsonOut {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	presentation.NewTerminal(w).Render(presentation.NewView(res))
	return nil
}

// renderedError marks a failure that was already printed as part of the dashboard
type renderedError struct {
	error
}

func (e renderedError) Unwrap() error { return e.error }

// printError renders err on the dashboard and returns it so the exit code is non-zero
func (o *rootOptions) printError(w io.Writer, err error) error {
	if o.jsonOut {
		return err
	}
	presentation.NewTerminal(w).RenderError(err)
	return renderedError{err}
}
