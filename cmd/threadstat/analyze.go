package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/vadim/threadstat/internal/app"
	"github.com/vadim/threadstat/internal/domain/analysis/policy"
)

const tokenEnv = "THREADS_ACCESS_TOKEN"

func newAnalyzeCmd(opts *rootOptions) *cobra.Command {
	var (
		token string
		basic bool
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze the account behind an access token",
		Long: `Run the full pipeline against the live Threads API.

The token is taken from --token, or from THREADS_ACCESS_TOKEN when the flag is empty.
With --basic, conversations are not fetched and commenter rankings stay empty.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, ctx, cancel, err := opts.setup(cmd.Context())
			if err != nil {
				return err
			}
			defer cancel()

			p, err := app.NewAnalysisPolicy(app.NewThreadsClient(cfg.Threads), cfg, logger)
			if err != nil {
				return err
			}

			tokens := policy.TokenChain{policy.StaticToken(token), policy.StaticToken(os.Getenv(tokenEnv))}

			run := p.Analyze
			if basic {
				run = p.AnalyzeBasic
			}

			res, err := run(ctx, tokens)
			if err != nil {
				return opts.printError(cmd.ErrOrStderr(), err)
			}

			return opts.printResult(cmd.OutOrStdout(), res)
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "Threads user access token")
	cmd.Flags().BoolVar(&basic, "basic", false, "Skip conversations")

	return cmd
}
