package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newEnrollCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "enroll <deck>",
		Short: "Start studying every word of a deck",
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
			n, err := svc.Enroll(ctx, a.cfg.User, deck.ID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Enrolled %s in %q: %d new cards.\n", a.cfg.User, deck.Name, n)
			return nil
		},
	}
}
