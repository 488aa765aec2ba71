package normalizer

import (
	"strings"

	"github.com/baditaflorin/go_invariant_normalizer/internal/pool"
	"github.com/baditaflorin/go_invariant_normalizer/internal/ports"
	"github.com/baditaflorin/go_invariant_normalizer/pkg/rules"
)

// UnnamedVariable is returned for names that normalize to nothing.
const UnnamedVariable = "unnamed_variable"

// maxPasses bounds the fixed-point loops for custom rule sets.
const maxPasses = 32

// NameNormalizer canonicalizes variable names into lower snake-case tokens.
type NameNormalizer struct {
	rules       *rules.RuleSet
	builderPool *pool.StringBuilderPool
}

// NewNameNormalizer creates a name normalizer over the given rule set.
func NewNameNormalizer(rs *rules.RuleSet) *NameNormalizer {
	return &NameNormalizer{
		rules:       rs,
		builderPool: pool.NewStringBuilderPool(),
	}
}

var _ ports.Normalizer = (*NameNormalizer)(nil)

// Normalize lower-cases the name, applies the phrase rules, replaces every
// byte outside [a-z0-9] with '_', collapses and trims underscores, and falls
// back to UnnamedVariable for an empty result.
//
// Overlapping phrases can leave a new phrase behind after one pass, so the
// rule and character steps repeat until the name stops changing.
func (n *NameNormalizer) Normalize(raw string) string {
	s := n.pass(strings.ToLower(raw))
	for i := 0; i < maxPasses; i++ {
		next := n.pass(s)
		if next == s {
			break
		}
		s = next
	}
	if s == "" {
		return UnnamedVariable
	}
	return s
}

func (n *NameNormalizer) pass(s string) string {
	s = n.rules.ApplyNames(s)

	sb := n.builderPool.Get()
	defer n.builderPool.Put(sb)
	sb.Grow(len(s))

	for i := 0; i < len(s); i++ {
		c := s[i]
		if ('a' <= c && c <= 'z') || ('0' <= c && c <= '9') {
			_ = sb.WriteByte(c)
			continue
		}
		// Multi-byte runes land here byte by byte and collapse into one '_'.
		if sb.Len() > 0 && sb.Last() != '_' {
			_ = sb.WriteByte('_')
		}
	}
	return strings.TrimSuffix(sb.String(), "_")
}
