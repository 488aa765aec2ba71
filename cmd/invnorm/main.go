// Command invnorm normalizes invariant records and extracts them from
// specification text on the command line.
package main

import (
	"fmt"
	"os"

	"github.com/baditaflorin/go_invariant_normalizer/internal/adapters/cache"
	"github.com/baditaflorin/go_invariant_normalizer/internal/adapters/logger"
	"github.com/baditaflorin/go_invariant_normalizer/internal/app"
	"github.com/baditaflorin/go_invariant_normalizer/internal/config"
	"github.com/baditaflorin/go_invariant_normalizer/internal/ports"
	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags "-X main.Version=...".
var Version = "dev"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type rootOptions struct {
	rulesFile string
	quiet     bool
	jsonLogs  bool
}

func newRootCommand() *cobra.Command {
	o := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "invnorm",
		Short:         "Normalize extracted invariants into canonical form",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&o.rulesFile, "rules", "", "YAML file extending the built-in rule tables")
	cmd.PersistentFlags().BoolVarP(&o.quiet, "quiet", "q", false, "Disable logging")
	cmd.PersistentFlags().BoolVar(&o.jsonLogs, "log-json", false, "Write logs to stderr as JSON")

	cmd.AddCommand(newNormalizeCommand(o))
	cmd.AddCommand(newExtractCommand(o))
	cmd.AddCommand(newDemoCommand(o))
	return cmd
}

func (o *rootOptions) logger() (ports.Logger, error) {
	if o.quiet {
		return logger.NewNop(), nil
	}
	return logger.NewWithOptions(logger.Options{Output: os.Stderr, JSON: o.jsonLogs})
}

// build loads the environment configuration, applies the command-line
// overrides and wires the pipeline. The CLI never caches responses.
func (o *rootOptions) build(adjust func(*config.Config), opts ...app.Option) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if o.rulesFile != "" {
		cfg.Rules.File = o.rulesFile
	}
	cfg.Cache.Backend = cache.BackendNone
	if adjust != nil {
		adjust(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log, err := o.logger()
	if err != nil {
		return nil, err
	}
	a, err := app.Build(cfg, log, Version, opts...)
	if err != nil {
		_ = log.Close()
		return nil, err
	}
	return a, nil
}

func closeApp(a *app.App) {
	_ = a.Close()
	_ = a.Logger.Close()
}
