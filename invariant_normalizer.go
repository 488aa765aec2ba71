// Package invariantnormalizer rewrites invariant records extracted from
// specification text into a canonical form, so that the same requirement
// phrased differently ends up with identical variable names, unit labels and
// formal expressions.
//
// Three rewrites are applied to every invariant:
//
//	variable names  "User ID", "user identifier" -> user_id
//	units           "ms", "millisecond"          -> milliseconds
//	expressions     "Response Time ≤ 500"        -> response_time <= 500
//
// Normalization is idempotent: processing an already normalized invariant
// leaves it unchanged. Descriptions, natural language text, confidence
// scores, tags and priorities are never touched.
package invariantnormalizer

import (
	"context"
	"errors"

	"github.com/baditaflorin/go_invariant_normalizer/internal/adapters/logger"
	"github.com/baditaflorin/go_invariant_normalizer/internal/adapters/normalizer"
	"github.com/baditaflorin/go_invariant_normalizer/internal/core/domain"
	"github.com/baditaflorin/go_invariant_normalizer/internal/core/postprocess"
	"github.com/baditaflorin/go_invariant_normalizer/internal/ports"
	"github.com/baditaflorin/go_invariant_normalizer/pkg/rules"
	"github.com/baditaflorin/l"
)

// Record types shared with the internal pipeline.
type (
	Invariant          = domain.Invariant
	Variable           = domain.Variable
	Units              = domain.Units
	VariableType       = domain.VariableType
	Priority           = domain.Priority
	ExtractionMetadata = domain.ExtractionMetadata
)

// NewUnits builds an ordered units mapping from alternating key/value pairs.
func NewUnits(pairs ...string) Units {
	return domain.NewUnits(pairs...)
}

// UnnamedVariable is the name given to a variable whose name has no letters
// or digits.
const UnnamedVariable = normalizer.UnnamedVariable

// DefaultWorkers bounds ProcessConcurrently when WithWorkers is not given.
const DefaultWorkers = 4

// Config holds configuration options for a Normalizer.
type Config struct {
	Logger  l.Logger
	Rules   *rules.RuleSet
	Workers int
}

// Option defines a functional option for configuring a Normalizer.
type Option func(*Config)

// WithLogger sets a custom logger.
func WithLogger(logger l.Logger) Option {
	return func(cfg *Config) {
		cfg.Logger = logger
	}
}

// WithRuleSet replaces the built-in rule tables.
func WithRuleSet(rs *rules.RuleSet) Option {
	return func(cfg *Config) {
		cfg.Rules = rs
	}
}

// WithWorkers sets the goroutine limit of ProcessConcurrently.
func WithWorkers(n int) Option {
	return func(cfg *Config) {
		cfg.Workers = n
	}
}

// Normalizer is the post-processing pipeline. It is safe for concurrent use
// as long as callers do not share a single Invariant between goroutines.
type Normalizer struct {
	logger      ports.Logger
	names       ports.Normalizer
	units       ports.UnitStandardizer
	expressions ports.Normalizer
	processor   *postprocess.Processor
	workers     int
}

// New creates a Normalizer with the provided functional options.
// If no logger is provided, a default logger writing to stderr is created.
func New(opts ...Option) (*Normalizer, error) {
	cfg := Config{Workers: DefaultWorkers}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Workers < 1 {
		return nil, errors.New("workers must be at least 1")
	}
	if cfg.Logger == nil {
		lg, err := createDefaultLogger()
		if err != nil {
			return nil, err
		}
		cfg.Logger = lg
	}

	f := normalizer.NewNormalizerFactory(cfg.Rules)
	n := &Normalizer{
		logger:      logger.FromExisting(cfg.Logger),
		names:       f.CreateNormalizer(normalizer.NameNormalizerType),
		units:       f.CreateUnitStandardizer(),
		expressions: f.CreateNormalizer(normalizer.ExpressionNormalizerType),
		workers:     cfg.Workers,
	}

	proc, err := postprocess.NewProcessor(n.logger, n.names, n.units, n.expressions)
	if err != nil {
		return nil, err
	}
	n.processor = proc
	return n, nil
}

// Process normalizes inv in place and returns it. A nil invariant yields nil.
func (n *Normalizer) Process(inv *Invariant) *Invariant {
	return n.processor.Process(inv)
}

// ProcessAll normalizes every invariant in order and returns the same slice.
func (n *Normalizer) ProcessAll(invs []Invariant) []Invariant {
	return n.processor.ProcessAll(invs)
}

// ProcessConcurrently normalizes invs in place on a bounded set of goroutines.
func (n *Normalizer) ProcessConcurrently(ctx context.Context, invs []Invariant) error {
	return postprocess.ProcessConcurrently(ctx, n.processor, invs, n.workers)
}

// NormalizeName canonicalizes one variable name.
func (n *Normalizer) NormalizeName(name string) string {
	return n.names.Normalize(name)
}

// StandardizeUnit maps a unit spelling onto its canonical label. Unknown
// units are returned unchanged.
func (n *Normalizer) StandardizeUnit(unit string) string {
	return n.units.Standardize(unit)
}

// NormalizeExpression rewrites symbols and variable phrases in a formal
// expression.
func (n *Normalizer) NormalizeExpression(expr string) string {
	return n.expressions.Normalize(expr)
}

// Steps lists the post-processing step names recorded in invariant metadata.
func Steps() []string {
	return postprocess.Steps()
}

// Close flushes the logger.
func (n *Normalizer) Close() error {
	return n.logger.Close()
}
