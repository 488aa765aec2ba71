package normalizer

import (
	"github.com/baditaflorin/go_invariant_normalizer/internal/ports"
	"github.com/baditaflorin/go_invariant_normalizer/pkg/rules"
)

// NormalizerFactory creates normalizers that share one rule set.
type NormalizerFactory struct {
	rules *rules.RuleSet
}

// NewNormalizerFactory creates a factory over rs, or over the default rule
// set when rs is nil.
func NewNormalizerFactory(rs *rules.RuleSet) *NormalizerFactory {
	if rs == nil {
		rs = rules.Default()
	}
	return &NormalizerFactory{rules: rs}
}

// Type of normalizer to create
type NormalizerType int

const (
	// NameNormalizerType canonicalizes variable names
	NameNormalizerType NormalizerType = iota
	// ExpressionNormalizerType rewrites formal expressions
	ExpressionNormalizerType
)

// CreateNormalizer creates a normalizer of the specified type
func (f *NormalizerFactory) CreateNormalizer(normalizerType NormalizerType) ports.Normalizer {
	switch normalizerType {
	case ExpressionNormalizerType:
		return NewExpressionNormalizer(f.rules)
	default:
		return NewNameNormalizer(f.rules)
	}
}

// CreateUnitStandardizer creates a unit standardizer.
func (f *NormalizerFactory) CreateUnitStandardizer() ports.UnitStandardizer {
	return NewUnitStandardizer(f.rules)
}

// Rules returns the shared rule set.
func (f *NormalizerFactory) Rules() *rules.RuleSet {
	return f.rules
}
