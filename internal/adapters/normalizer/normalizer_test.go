package normalizer

import (
	"sync"
	"testing"

	"github.com/baditaflorin/go_invariant_normalizer/pkg/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNameNormalizer(t *testing.T) {
	n := NewNameNormalizer(rules.Default())

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"title case phrase", "User ID", "user_id"},
		{"already canonical", "user_id", "user_id"},
		{"upper with dash", "USER-ID", "user_id"},
		{"double space", "user  id", "user_id"},
		{"long form", "User Identifier", "user_id"},
		{"empty", "", UnnamedVariable},
		{"only punctuation", "!!!", UnnamedVariable},
		{"whitespace", "   ", UnnamedVariable},
		{"surrounding noise", "  Response   Time (ms) ", "response_time_ms"},
		{"several phrases", "CPU Usage / Memory Usage", "cpu_usage_memory_usage"},
		{"digits kept", "Retry 3 Count", "retry_3_count"},
		{"non ascii collapses", "système", "syst_me"},
		{"overlapping phrases", "system statusystemstatus", "system_statusystem_status"},
		{"sentinel is stable", UnnamedVariable, UnnamedVariable},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, n.Normalize(tc.in))
		})
	}
}

var idempotenceInputs = []string{
	"", " ", "User ID", "USER-ID", "user__id__", "__x__", "UID", "Password Length ≥ 8",
	"system statusystemstatus", "Response Time (ms)", "ERROR RATE %", "Ünïcödé näme",
	"user id user id", "useridentifier", "∀ x ∈ S: x ≥ 0", "MS", "Milliseconds", " KB ",
	"error_rate ≤ 0.01", "connection count\tper second",
}

func TestNormalizersAreIdempotent(t *testing.T) {
	f := NewNormalizerFactory(nil)
	name := f.CreateNormalizer(NameNormalizerType)
	expr := f.CreateNormalizer(ExpressionNormalizerType)
	unit := f.CreateUnitStandardizer()

	for _, s := range idempotenceInputs {
		once := name.Normalize(s)
		assert.Equal(t, once, name.Normalize(once), "name %q", s)

		once = expr.Normalize(s)
		assert.Equal(t, once, expr.Normalize(once), "expression %q", s)

		once = unit.Standardize(s)
		assert.Equal(t, once, unit.Standardize(once), "unit %q", s)
	}
}

func TestUnitStandardizer(t *testing.T) {
	u := NewUnitStandardizer(rules.Default())

	tests := []struct {
		in, want string
	}{
		{"ms", "milliseconds"},
		{"MS", "milliseconds"},
		{"Milliseconds", "milliseconds"},
		{"Percentage", "ratio"},
		{"%", "ratio"},
		{" KB ", "kilobytes"},
		{"GB", "gigabytes"},
		{"requests", "items"},
		{"characters", "items"},
		{"ratio", "ratio"},
		{"Furlongs ", "furlongs"},
		{"", ""},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, u.Standardize(tc.in))
		})
	}
}

func TestExpressionNormalizer(t *testing.T) {
	e := NewExpressionNormalizer(rules.Default())

	tests := []struct {
		in, want string
	}{
		{"user_id ≥ 0", "user_id >= 0"},
		{"error_rate ≤ 0.01", "error_rate <= 0.01"},
		{"Response Time ≤ 500", "response_time <= 500"},
		{"∀ u ∈ Users: User ID ≠ 0", "forall u in Users: user_id != 0"},
		{"¬(a ∧ b) ∨ c", "!(a && b) || c"},
		{"∃ x ∉ S", "exists x not_in S"},
		{"A ⊆ B ∧ C ⊂ D", "A subset B && C proper_subset D"},
		{"x > 0", "x > 0"},
		{"", ""},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, e.Normalize(tc.in))
		})
	}
}

func TestCustomRuleSet(t *testing.T) {
	rs, err := rules.New(rules.DefaultDefinition().Extend(rules.Definition{
		Names:   []rules.NameRule{{Pattern: `queue\s*depth`, Token: "queue_depth"}},
		Units:   map[string][]string{"microseconds": {"us", "µs"}},
		Symbols: []rules.SymbolRule{{Symbol: "⇒", Token: "=>"}},
	}))
	require.NoError(t, err)

	f := NewNormalizerFactory(rs)
	assert.Same(t, rs, f.Rules())
	assert.Equal(t, "queue_depth", f.CreateNormalizer(NameNormalizerType).Normalize("Queue Depth"))
	assert.Equal(t, "microseconds", f.CreateUnitStandardizer().Standardize("µs"))
	assert.Equal(t, "queue_depth => x", f.CreateNormalizer(ExpressionNormalizerType).Normalize("queue depth ⇒ x"))
}

func TestNameNormalizerConcurrent(t *testing.T) {
	n := NewNameNormalizer(rules.Default())
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 500; j++ {
				if got := n.Normalize("User ID"); got != "user_id" {
					t.Errorf("got %q", got)
					return
				}
			}
		}()
	}
	wg.Wait()
}
