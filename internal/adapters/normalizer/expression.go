package normalizer

import (
	"github.com/baditaflorin/go_invariant_normalizer/internal/ports"
	"github.com/baditaflorin/go_invariant_normalizer/pkg/rules"
)

// ExpressionNormalizer rewrites formal expressions to ASCII operators and
// canonical variable tokens.
type ExpressionNormalizer struct {
	rules *rules.RuleSet
}

// NewExpressionNormalizer creates an expression normalizer over the given rule set.
func NewExpressionNormalizer(rs *rules.RuleSet) *ExpressionNormalizer {
	return &ExpressionNormalizer{rules: rs}
}

var _ ports.Normalizer = (*ExpressionNormalizer)(nil)

// Normalize replaces mathematical symbols with ASCII tokens, then applies the
// name phrase rules. Unlike NameNormalizer it keeps spacing, case of
// unmatched text and punctuation as they are.
func (e *ExpressionNormalizer) Normalize(expr string) string {
	s := e.rules.ReplaceSymbols(expr)
	for i := 0; i < maxPasses; i++ {
		next := e.rules.ApplyNames(s)
		if next == s {
			break
		}
		s = next
	}
	return s
}
