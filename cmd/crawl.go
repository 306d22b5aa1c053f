// Package cmd defines and implements the CLI commands for the board-crawler executable.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// newCrawlCmd creates the 'crawl' subcommand, which performs one full run.
func newCrawlCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Runs one crawl and publishes the snapshot",
		Long: `Fetches the bootstrap payload, crawls the configured listing pages and
the matching threads, then writes the filtered snapshot to every configured
sink and posts a summary to the webhook. With --dry-run the snapshot is
printed to stdout instead.`,

		RunE: runCrawlCommand,
	}
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "print the snapshot instead of publishing it")
	return cmd
}

func runCrawlCommand(cmd *cobra.Command, _ []string) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}

	outcome, err := appInstance.Crawl(cmd.Context())
	if err != nil {
		return fmt.Errorf("run crawl: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(outcome.Published) == 0 {
		data, err := outcome.Snapshot.Marshal()
		if err != nil {
			return fmt.Errorf("encode snapshot: %w", err)
		}
		fmt.Fprintln(out, string(data))
	}
	for _, p := range outcome.Published {
		fmt.Fprintf(out, "%s\t%s\n", p.Sink, p.Location)
	}

	appInstance.Logger().Info("Crawl command finished.",
		zap.String("run_id", outcome.RunID),
		zap.Int("threads", len(outcome.Snapshot.Results)),
		zap.Int("failures", len(outcome.Report.Failures)),
	)
	return nil
}

// newThreadsCmd creates the 'threads' subcommand, which lists the threads a
// crawl would visit without fetching them.
func newThreadsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "threads",
		Short: "Lists the threads matching the search words",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			threads, failures, err := appInstance.Discover(cmd.Context())
			if err != nil {
				return fmt.Errorf("discover threads: %w", err)
			}
			out := cmd.OutOrStdout()
			for _, t := range threads {
				fmt.Fprintf(out, "%s\t%s\n", t.URL, t.Title)
			}
			for _, f := range failures {
				appInstance.Logger().Warn("listing page skipped", zap.String("label", f.Label), zap.Error(f.Err))
			}
			return nil
		},
	}
}
