package main

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/WestonVincze/utility-ai/internal/agents"
	"github.com/WestonVincze/utility-ai/internal/config"
	"github.com/WestonVincze/utility-ai/internal/utility"
)

func newEvalCmd(a *app) *cobra.Command {
	var (
		reasonerPath string
		contextPath  string
		asJSON       bool
	)
	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Score a reasoner against one context",
		Long: `Score every consideration of a reasoner against a context and print the
breakdown: each appraisal's score, the reduced and weighted result, and the
action that wins.

Without --reasoner the built-in survival reasoner is used. Without --context
the default survival context is used. Reasoner files may use any appraisal
registered in the survival catalog.`,
		Example: `  worldsim eval --reasoner configs/survival.yaml --context configs/context.yaml
  worldsim eval --context hungry.json --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reasoner := agents.SurvivalReasoner(utility.WithLogger(a.logger))
			if reasonerPath != "" {
				r, err := config.SurvivalCatalog().LoadReasoner(reasonerPath, utility.WithLogger(a.logger))
				if err != nil {
					return err
				}
				reasoner = r
			}

			ctx := agents.DefaultSurvivalContext()
			if contextPath != "" {
				c, err := config.LoadContext(contextPath)
				if err != nil {
					return err
				}
				ctx = c
			}

			d := reasoner.Explain(ctx)
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(d)
			}
			printDecision(cmd.OutOrStdout(), ctx, d)
			return nil
		},
	}
	cmd.Flags().StringVar(&reasonerPath, "reasoner", "", "YAML reasoner definition")
	cmd.Flags().StringVar(&contextPath, "context", "", "YAML or JSON context")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the decision as JSON")
	return cmd
}

func printDecision(w io.Writer, ctx utility.Context, d utility.Decision) {
	fmt.Fprintln(w, "Context:")
	for _, k := range slices.Sorted(maps.Keys(ctx)) {
		fmt.Fprintf(w, "  %-16s %v\n", k, ctx[k])
	}

	fmt.Fprintln(w, "\nCandidates:")
	printCandidates(w, d.Candidates)

	fmt.Fprintln(w)
	if d.Fallback {
		fmt.Fprintf(w, "Nothing scored above zero; falling back to %s\n", d.Action)
		return
	}
	fmt.Fprintf(w, "Chosen: %s (score %s)\n", d.Action, humanize.FtoaWithDigits(d.Score, 4))
}

// printCandidates writes one line per consideration followed by its
// appraisal scores. Excluded appraisals scored zero and did not count.
func printCandidates(w io.Writer, cands []utility.ConsiderationScore) {
	for i, c := range cands {
		origin := ""
		if c.Dynamic {
			origin = " (dynamic)"
		}
		if c.Skipped {
			fmt.Fprintf(w, "  %d. %s%s skipped, weight %s\n", i+1, c.Action, origin, humanize.FtoaWithDigits(c.Weight, 4))
			continue
		}
		fmt.Fprintf(w, "  %d. %s%s score %s = %s x weight %s\n", i+1, c.Action, origin,
			humanize.FtoaWithDigits(c.Score, 4), humanize.FtoaWithDigits(c.Reduced, 4), humanize.FtoaWithDigits(c.Weight, 4))
		for _, ap := range c.Appraisals {
			note := ""
			if ap.Excluded {
				note = " (excluded)"
			}
			fmt.Fprintf(w, "       %-20s %s%s\n", ap.Name, humanize.FtoaWithDigits(ap.Score, 4), note)
		}
	}
}
