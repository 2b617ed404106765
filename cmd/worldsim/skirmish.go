package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/WestonVincze/utility-ai/internal/skirmish"
)

func newSkirmishCmd(a *app) *cobra.Command {
	var (
		rounds  int
		seed    int64
		explain bool
	)
	cmd := &cobra.Command{
		Use:   "skirmish",
		Short: "Play a tactical battle on the demo board",
		Long: `Play a battle between the blue and red factions on the demo board.
Every living unit acts once per round, choosing between fleeing, attacking
each enemy and helping each ally. Hit rolls are seeded, so the same seed
always plays out the same battle.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if rounds <= 0 {
				return fmt.Errorf("--rounds must be positive, got %d", rounds)
			}
			return playSkirmish(cmd.OutOrStdout(), a, rounds, seed, explain)
		},
	}
	cmd.Flags().IntVar(&rounds, "rounds", 20, "maximum rounds to play")
	cmd.Flags().Int64Var(&seed, "seed", 1, "seed for hit rolls")
	cmd.Flags().BoolVar(&explain, "explain", false, "print each unit's opening score breakdown")
	return cmd
}

func playSkirmish(w io.Writer, a *app, rounds int, seed int64, explain bool) error {
	board := skirmish.DemoBoard()
	bt, err := skirmish.NewBattle(board, a.cfg.Skirmish, seed, a.logger)
	if err != nil {
		return err
	}

	fmt.Fprintln(w, "Opening positions:")
	printUnits(w, board)

	if explain {
		for _, u := range board.Units() {
			d, err := bt.Explain(u.ID)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "\nUnit %d would choose %s\n", u.ID, d.Action)
			printCandidates(w, d.Candidates)
		}
	}

	turns, err := bt.Run(rounds)
	if err != nil {
		return err
	}

	round := 0
	for _, t := range turns {
		if t.Round != round {
			round = t.Round
			fmt.Fprintf(w, "\nRound %d\n", round)
		}
		fmt.Fprintf(w, "  unit %d: %s\n", t.Unit, t.Action)
		for _, e := range t.Events {
			fmt.Fprintf(w, "    %s\n", e)
		}
	}

	fmt.Fprintln(w)
	winner, over := bt.Winner()
	switch {
	case !over:
		fmt.Fprintf(w, "No winner after %d rounds.\n", bt.RoundsPlayed())
	case winner == "":
		fmt.Fprintf(w, "Everyone fell after %d rounds.\n", bt.RoundsPlayed())
	default:
		fmt.Fprintf(w, "%s wins after %d rounds.\n", winner, bt.RoundsPlayed())
	}
	printUnits(w, board)
	return nil
}

func printUnits(w io.Writer, b *skirmish.Board) {
	for _, u := range b.Units() {
		fmt.Fprintf(w, "  %-7s hp %2d/%-2d at %s\n", u, u.Health, u.MaxHealth, u.Position)
	}
}
