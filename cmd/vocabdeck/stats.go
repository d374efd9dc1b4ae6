package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show the learner's progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := a.service()
			if err != nil {
				return err
			}
			defer a.close()

			st, err := svc.Stats(cmd.Context(), a.cfg.User)
			if err != nil {
				return err
			}

			t := newTable(cmd.OutOrStdout())
			t.SetTitle("Progress for " + a.cfg.User)
			t.AppendRows([]table.Row{
				{"Words in shared decks", st.Total},
				{"Studied", st.Studied},
				{"Mastered (interval > 21d)", st.Mastered},
				{"Reviews due", st.DueToday},
				{"Learned today", st.LearnedToday},
				{"In learning", st.Learning},
			})
			t.Render()
			return nil
		},
	}
}
