package main

import (
	"io"
	"path/filepath"

	"github.com/baditaflorin/go_invariant_normalizer/internal/config"
	"github.com/baditaflorin/go_invariant_normalizer/internal/core/domain"
	"github.com/spf13/cobra"
)

func newExtractCommand(o *rootOptions) *cobra.Command {
	var (
		backend   string
		id        string
		title     string
		source    string
		threshold float64
	)
	cmd := &cobra.Command{
		Use:   "extract [file]",
		Short: "Extract normalized invariants from a specification document",
		Long: "Extracts invariants from a text file or stdin and prints the extraction response.\n" +
			"The llm backend reads its settings from INVNORM_LLM_* environment variables.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, name, err := openInput(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			content, err := io.ReadAll(in)
			_ = in.Close()
			if err != nil {
				return err
			}

			a, err := o.build(func(c *config.Config) {
				if backend != "" {
					c.Extraction.Backend = backend
				}
			})
			if err != nil {
				return err
			}
			defer closeApp(a)

			if id == "" {
				id = filepath.Base(name)
			}
			resp, err := a.Service.Extract(cmd.Context(), domain.ExtractRequest{
				Document: domain.Document{
					ID:           id,
					Title:        title,
					SourceSystem: source,
					Content:      string(content),
				},
				ConfidenceThreshold: threshold,
			})
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), resp)
		},
	}
	cmd.Flags().StringVarP(&backend, "backend", "b", "", "Extraction backend: keyword or llm (default from INVNORM_EXTRACTION_BACKEND)")
	cmd.Flags().StringVar(&id, "id", "", "Document id (default: file name)")
	cmd.Flags().StringVar(&title, "title", "", "Document title")
	cmd.Flags().StringVar(&source, "source", "", "Source system of the document")
	cmd.Flags().Float64Var(&threshold, "threshold", 0, "Minimum confidence score (0 selects the configured default)")
	return cmd
}
