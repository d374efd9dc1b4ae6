package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newDueCmd(a *app) *cobra.Command {
	var countOnly bool

	cmd := &cobra.Command{
		Use:   "due <deck>",
		Short: "Show today's study queue for a deck",
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

			if countOnly {
				n, err := svc.CountDue(ctx, a.cfg.User, deck.ID)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), n)
				return nil
			}

			cards, err := svc.DueCards(ctx, a.cfg.User, deck.ID)
			if err != nil {
				return err
			}
			if len(cards) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "Nothing to study in %q right now.\n", deck.Name)
				return nil
			}

			t := newTable(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"#", "Card", "Word", "POS", "Meaning", "State", "Due"})
			for i, c := range cards {
				t.AppendRow(table.Row{
					i + 1,
					c.Progress.ID,
					c.Item.Word,
					c.Item.PartOfSpeech,
					truncate(c.Item.Meaning, meaningWidth),
					c.Progress.Schedule.State,
					formatTime(c.Progress.Schedule.Due),
				})
			}
			t.Render()
			return nil
		},
	}

	cmd.Flags().BoolVarP(&countOnly, "count", "c", false, "Only print how many cards are queued today")
	return cmd
}
