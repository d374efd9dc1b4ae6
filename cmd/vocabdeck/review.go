package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newReviewCmd(a *app) *cobra.Command {
	var grade int

	cmd := &cobra.Command{
		Use:   "review <card>",
		Short: "Grade a card from 0 (blackout) to 5 (perfect recall)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service()
			if err != nil {
				return err
			}
			defer a.close()

			p, err := svc.Review(cmd.Context(), a.cfg.User, args[0], grade)
			if err != nil {
				return err
			}

			s := p.Schedule
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s, interval %.0fd, ease %.2f, next due %s\n",
				p.ID, s.State, s.Interval, s.EaseFactor, formatTime(s.Due))
			return nil
		},
	}

	cmd.Flags().IntVarP(&grade, "grade", "g", -1, "Recall grade 0-5")
	_ = cmd.MarkFlagRequired("grade")
	return cmd
}
