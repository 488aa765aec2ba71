package normalizer

import (
	"strings"

	"github.com/baditaflorin/go_invariant_normalizer/internal/ports"
	"github.com/baditaflorin/go_invariant_normalizer/pkg/rules"
)

// UnitStandardizer maps unit synonyms onto canonical unit labels.
type UnitStandardizer struct {
	rules *rules.RuleSet
}

// NewUnitStandardizer creates a unit standardizer over the given rule set.
func NewUnitStandardizer(rs *rules.RuleSet) *UnitStandardizer {
	return &UnitStandardizer{rules: rs}
}

var _ ports.UnitStandardizer = (*UnitStandardizer)(nil)

// Standardize lower-cases and trims the unit and looks it up in the synonym
// table. Unknown units pass through in their lower-cased, trimmed form.
func (u *UnitStandardizer) Standardize(raw string) string {
	key := strings.TrimSpace(strings.ToLower(raw))
	if canonical, ok := u.rules.Unit(key); ok {
		return canonical
	}
	return key
}
