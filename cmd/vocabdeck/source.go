package main

import (
	"fmt"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	sourcesync "github.com/conorfennell/vocabdeck/internal/sync"
)

func newSourceCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "source",
		Short: "Manage the directories and git repositories decks are synced from",
	}
	cmd.AddCommand(newSourceAddCmd(a))
	cmd.AddCommand(newSourceListCmd(a))
	cmd.AddCommand(newSourceRemoveCmd(a))
	return cmd
}

func newSourceAddCmd(a *app) *cobra.Command {
	var deckName string

	cmd := &cobra.Command{
		Use:   "add <path|git-url>",
		Short: "Register a source for a shared deck",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.open()
			if err != nil {
				return err
			}
			defer a.close()

			src, err := sourcesync.AddSource(cmd.Context(), db, args[0], deckName)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s source %d: %s -> %q\n", src.Type, src.ID, src.Path, src.DeckName)
			return nil
		},
	}

	cmd.Flags().StringVarP(&deckName, "deck", "d", "", "Shared deck the source feeds")
	_ = cmd.MarkFlagRequired("deck")
	return cmd
}

func newSourceListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered sources",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := a.open()
			if err != nil {
				return err
			}
			defer a.close()

			sources, err := db.GetAllSources(cmd.Context())
			if err != nil {
				return err
			}

			t := newTable(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"ID", "Type", "Deck", "Path", "Last scanned"})
			for _, src := range sources {
				t.AppendRow(table.Row{src.ID, src.Type, src.DeckName, src.Path, formatTime(src.LastScanned)})
			}
			t.Render()
			return nil
		},
	}
}

func newSourceRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Stop syncing a source; words already imported are kept",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid source id %q: %w", args[0], err)
			}

			db, err := a.open()
			if err != nil {
				return err
			}
			defer a.close()

			if err := db.DeleteSource(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed source %d\n", id)
			return nil
		},
	}
}
