package main

import (
	"fmt"

	"github.com/spf13/cobra"

	sourcesync "github.com/conorfennell/vocabdeck/internal/sync"
)

func newSyncCmd(a *app) *cobra.Command {
	var (
		watch bool
		opts  = sourcesync.DefaultWatchOptions()
	)

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Import every registered source into its deck",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := a.open()
			if err != nil {
				return err
			}
			defer a.close()

			syncer := sourcesync.NewSyncer(db, a.cfg.Sources.ReposDir)
			report, err := syncer.RunSync(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Synced %d files: %d new words, %d duplicates, %d malformed rows.\n",
				report.Files, report.Imported, report.Duplicates, report.Skipped)

			if !watch {
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Watching for changes, press Ctrl+C to stop.")
			return syncer.Watch(cmd.Context(), opts)
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Keep running and re-sync sources when they change")
	cmd.Flags().DurationVar(&opts.Debounce, "debounce", opts.Debounce, "Quiet period before a changed source is re-synced")
	cmd.Flags().DurationVar(&opts.GitPoll, "git-poll", opts.GitPoll, "How often git sources are pulled while watching (0 disables)")
	return cmd
}
