package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newWordsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "words <deck>",
		Short: "List the words in a deck",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service()
			if err != nil {
				return err
			}
			defer a.close()

			ctx := cmd.Context()
			deck, err := svc.ResolveDeck(ctx, a.cfg.User, args[0])
			if err != nil {
				return err
			}
			items, err := svc.DeckWords(ctx, deck.ID)
			if err != nil {
				return err
			}

			t := newTable(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"Word", "POS", "Phonetic", "Meaning"})
			for _, item := range items {
				t.AppendRow(table.Row{item.Word, item.PartOfSpeech, item.Phonetic, truncate(item.Meaning, meaningWidth)})
			}
			t.AppendFooter(table.Row{"", "", "Total", len(items)})
			t.Render()
			return nil
		},
	}
}
