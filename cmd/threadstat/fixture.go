package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vadim/threadstat/internal/app"
	"github.com/vadim/threadstat/internal/domain/analysis/mock"
)

var errFixturesDisabled = errors.New("S3 fixtures are disabled, set S3_ENABLED=true")

func newFixtureCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fixture",
		Short: "Manage the stored demo fixture",
	}

	cmd.AddCommand(newFixturePushCmd(opts))
	cmd.AddCommand(newFixtureDeleteCmd(opts))

	return cmd
}

func newFixturePushCmd(opts *rootOptions) *cobra.Command {
	var key string

	cmd := &cobra.Command{
		Use:   "push <file>",
		Short: "Validate a result JSON file and upload it as the demo fixture",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading fixture: %w", err)
			}
			if _, err := mock.Decode(body); err != nil {
				return fmt.Errorf("invalid fixture: %w", err)
			}

			cfg, _, ctx, cancel, err := opts.setup(cmd.Context())
			if err != nil {
				return err
			}
			defer cancel()

			store, err := app.NewFixtureStorage(cfg.S3)
			if err != nil {
				return err
			}
			if store == nil {
				return errFixturesDisabled
			}

			if key == "" {
				key = cfg.S3.FixtureKey
			}

			out, err := store.Put(ctx, key, body, "application/json")
			if err != nil {
				return fmt.Errorf("uploading fixture: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "uploaded %s (%d bytes)\n", out.Key, out.Size)
			return nil
		},
	}

	cmd.Flags().StringVar(&key, "key", "", "Object key (defaults to S3_FIXTURE_KEY)")

	return cmd
}

func newFixtureDeleteCmd(opts *rootOptions) *cobra.Command {
	var key string

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Remove the stored demo fixture so the built-in one is served",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, ctx, cancel, err := opts.setup(cmd.Context())
			if err != nil {
				return err
			}
			defer cancel()

			store, err := app.NewFixtureStorage(cfg.S3)
			if err != nil {
				return err
			}
			if store == nil {
				return errFixturesDisabled
			}

			if key == "" {
				key = cfg.S3.FixtureKey
			}

			if err := store.Delete(ctx, key); err != nil {
				return fmt.Errorf("deleting fixture: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", key)
			return nil
		},
	}

	cmd.Flags().StringVar(&key, "key", "", "Object key (defaults to S3_FIXTURE_KEY)")

	return cmd
}
