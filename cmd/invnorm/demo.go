package main

import (
	"fmt"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/baditaflorin/go_invariant_normalizer/internal/adapters/extractor"
	"github.com/baditaflorin/go_invariant_normalizer/internal/core/domain"
	"github.com/spf13/cobra"
)

func newDemoCommand(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Show five phrasings of the same requirements normalizing to one invariant set",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := o.build(nil)
			if err != nil {
				return err
			}
			defer closeApp(a)
			kw := extractor.NewKeyword(a.Logger)

			out := cmd.OutOrStdout()
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "PHRASING\tRAW EXPRESSION\tNORMALIZED\tUNIT")

			var sets [][]string
			for _, p := range extractor.Phrasings() {
				ext, err := kw.Extract(cmd.Context(), domain.Document{ID: p.Name, Content: p.Content})
				if err != nil {
					return err
				}
				raw := make([]string, len(ext.Invariants))
				for i, inv := range ext.Invariants {
					raw[i] = inv.FormalExpression
				}

				invs := a.Processor.ProcessAll(ext.Invariants)
				set := make([]string, len(invs))
				for i, inv := range invs {
					unit := ""
					if len(inv.Variables) > 0 {
						unit = inv.Variables[0].Unit
					}
					set[i] = inv.FormalExpression
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.Name, raw[i], inv.FormalExpression, unit)
				}
				sets = append(sets, set)
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			distinct := 0
			for i, s := range sets {
				if !slices.ContainsFunc(sets[:i], func(prev []string) bool { return slices.Equal(prev, s) }) {
					distinct++
				}
			}
			fmt.Fprintf(out, "\n%d phrasings, %d distinct normalized invariant sets\n", len(sets), distinct)
			if distinct == 1 {
				fmt.Fprintf(out, "canonical: %s\n", strings.Join(sets[0], "; "))
			}
			return nil
		},
	}
}
