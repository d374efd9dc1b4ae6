package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newProgressCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "progress <deck>",
		Short: "Show the learner's schedule for every card in a deck",
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
			cards, err := svc.DeckProgress(ctx, a.cfg.User, deck.ID)
			if err != nil {
				return err
			}
			if len(cards) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "Not enrolled in %q yet.\n", deck.Name)
				return nil
			}

			t := newTable(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"Card", "Word", "State", "Interval", "Ease", "Reviews", "Due"})
			for _, c := range cards {
				sched := c.Progress.Schedule
				t.AppendRow(table.Row{
					c.Progress.ID,
					c.Item.Word,
					sched.State,
					fmt.Sprintf("%.0fd", sched.Interval),
					fmt.Sprintf("%.2f", sched.EaseFactor),
					len(sched.History),
					formatTime(sched.Due),
				})
			}
			t.Render()
			return nil
		},
	}
}
