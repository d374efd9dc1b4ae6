package main

import (
	"fmt"

	"github.com/spf13/cobra"

	sourcesync "github.com/conorfennell/vocabdeck/internal/sync"
)

func newImportCmd(a *app) *cobra.Command {
	var deckName string

	cmd := &cobra.Command{
		Use:   "import <file>...",
		Short: "Import CSV or tab-separated vocabulary files into a shared deck",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.open()
			if err != nil {
				return err
			}
			defer a.close()

			var total sourcesync.Report
			for _, path := range args {
				report, err := sourcesync.ImportFile(cmd.Context(), db, path, deckName)
				if err != nil {
					return err
				}
				total.Files += report.Files
				total.Imported += report.Imported
				total.Duplicates += report.Duplicates
				total.Skipped += report.Skipped
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d words into %q (%d duplicates, %d malformed rows, %d files).\n",
				total.Imported, deckName, total.Duplicates, total.Skipped, total.Files)
			return nil
		},
	}

	cmd.Flags().StringVarP(&deckName, "deck", "d", "", "Shared deck to import into (created if missing)")
	_ = cmd.MarkFlagRequired("deck")
	return cmd
}
