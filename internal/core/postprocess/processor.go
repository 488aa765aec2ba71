// Package postprocess rewrites draft invariants into canonical form.
package postprocess

import (
	"context"
	"errors"

	"github.com/baditaflorin/go_invariant_normalizer/internal/core/domain"
	"github.com/baditaflorin/go_invariant_normalizer/internal/ports"
	"golang.org/x/sync/errgroup"
)

// Names of the steps applied to every invariant, in order.
const (
	StepVariableNames = "variable_name_normalization"
	StepUnits         = "unit_standardization"
	StepExpression    = "expression_normalization"
)

// Steps lists the post-processing steps in the order Process applies them.
func Steps() []string {
	return []string{StepVariableNames, StepUnits, StepExpression}
}

// Processor applies the name, unit and expression normalizers to the
// mutable fields of an invariant. It holds no per-call state and is safe for
// concurrent use on disjoint invariants.
type Processor struct {
	logger      ports.Logger
	names       ports.Normalizer
	units       ports.UnitStandardizer
	expressions ports.Normalizer
}

// NewProcessor creates a processor from its three normalizers.
func NewProcessor(logger ports.Logger, names ports.Normalizer, units ports.UnitStandardizer, expressions ports.Normalizer) (*Processor, error) {
	if logger == nil {
		return nil, errors.New("logger is required")
	}
	if names == nil || units == nil || expressions == nil {
		return nil, errors.New("name, unit and expression normalizers are required")
	}

	return &Processor{
		logger:      logger,
		names:       names,
		units:       units,
		expressions: expressions,
	}, nil
}

var _ ports.InvariantProcessor = (*Processor)(nil)

// Process normalizes variable names and units, re-keys the units mapping and
// rewrites the formal expression. Every other field is left as it is.
//
// When two units keys normalize to the same name, the pair visited later in
// insertion order wins; the key keeps the position of its first occurrence.
func (p *Processor) Process(inv *domain.Invariant) *domain.Invariant {
	if inv == nil {
		return nil
	}

	for i := range inv.Variables {
		v := &inv.Variables[i]
		v.Name = p.names.Normalize(v.Name)
		v.Unit = p.units.Standardize(v.Unit)
	}

	var units domain.Units
	inv.Units.Range(func(key, unit string) bool {
		units.Set(p.names.Normalize(key), p.units.Standardize(unit))
		return true
	})
	if units.Len() < inv.Units.Len() {
		p.logger.Debug("Units keys collided after normalization",
			"before", inv.Units.Len(),
			"after", units.Len(),
		)
	}
	inv.Units = units

	inv.FormalExpression = p.expressions.Normalize(inv.FormalExpression)

	p.logger.Debug("Normalized invariant",
		"variables", len(inv.Variables),
		"units", inv.Units.Len(),
		"formal_expression", inv.FormalExpression,
	)
	return inv
}

// ProcessAll processes every invariant in order and returns the same slice.
func (p *Processor) ProcessAll(invs []domain.Invariant) []domain.Invariant {
	for i := range invs {
		p.Process(&invs[i])
	}
	return invs
}

// ProcessConcurrently processes invs in place on at most workers goroutines.
// Each element is touched by exactly one goroutine, so order is preserved.
// It stops starting new elements once ctx is done and returns ctx's error.
func ProcessConcurrently(ctx context.Context, p ports.InvariantProcessor, invs []domain.Invariant, workers int) error {
	if workers < 1 {
		workers = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := range invs {
		if err := gctx.Err(); err != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			p.Process(&invs[i])
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
