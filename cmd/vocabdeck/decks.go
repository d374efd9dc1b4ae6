package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newDecksCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "decks",
		Short: "List the decks available to the learner",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := a.service()
			if err != nil {
				return err
			}
			defer a.close()

			ctx := cmd.Context()
			decks, err := svc.ListDecks(ctx, a.cfg.User)
			if err != nil {
				return err
			}

			t := newTable(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"Name", "Kind", "Words", "Learning", "ID"})
			for _, d := range decks {
				learning, err := svc.LearningCount(ctx, a.cfg.User, d.Deck.ID)
				if err != nil {
					return err
				}
				t.AppendRow(table.Row{d.Deck.Name, d.Deck.Kind, d.Items, learning, d.Deck.ID})
			}
			t.Render()
			return nil
		},
	}
}
