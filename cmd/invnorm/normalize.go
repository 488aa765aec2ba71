package main

import (
	"bufio"
	"encoding/json"
	"fmt"

	"github.com/baditaflorin/go_invariant_normalizer/internal/core/domain"
	"github.com/spf13/cobra"
)

// Input formats accepted by normalize.
const (
	formatAuto   = "auto"
	formatJSON   = "json"
	formatNDJSON = "ndjson"
)

func newNormalizeCommand(o *rootOptions) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "normalize [file]",
		Short: "Normalize invariants read from a JSON array or NDJSON stream",
		Long: "Reads invariant records from a file or stdin and writes them in canonical form.\n" +
			"A JSON array is answered with a JSON array; NDJSON input is streamed back one record per line.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, _, err := openInput(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			defer in.Close()

			a, err := o.build(nil)
			if err != nil {
				return err
			}
			defer closeApp(a)

			br := bufio.NewReader(in)
			if format == formatAuto {
				c, err := firstByte(br)
				if err != nil {
					return err
				}
				format = formatNDJSON
				if c == '[' {
					format = formatJSON
				}
			}

			switch format {
			case formatJSON:
				var invs []domain.Invariant
				if err := json.NewDecoder(br).Decode(&invs); err != nil {
					return fmt.Errorf("decode invariants: %w", err)
				}
				invs, err := a.Service.Normalize(cmd.Context(), invs)
				if err != nil {
					return err
				}
				if invs == nil {
					invs = []domain.Invariant{}
				}
				return writeJSON(cmd.OutOrStdout(), invs)
			case formatNDJSON:
				_, err := a.Stream().ProcessStream(cmd.Context(), br, cmd.OutOrStdout())
				return err
			default:
				return fmt.Errorf("unknown format %q (want auto, json or ndjson)", format)
			}
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", formatAuto, "Input format: auto, json or ndjson")
	return cmd
}
