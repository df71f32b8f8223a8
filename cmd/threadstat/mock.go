package main

import (
	"github.com/spf13/cobra"

	"github.com/vadim/threadstat/internal/app"
)

func newMockCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mock",
		Short: "Print the demo dashboard",
		Long:  "Print the canned demo result, or the stored fixture when S3 fixtures are enabled.",
		Args:  cobra.NoArgs,
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

			res, err := p.Mock(ctx)
			if err != nil {
				return opts.printError(cmd.ErrOrStderr(), err)
			}

			return opts.printResult(cmd.OutOrStdout(), res)
		},
	}
}
