package extractor

import (
	"context"
	"testing"

	"github.com/baditaflorin/go_invariant_normalizer/internal/adapters/logger"
	"github.com/baditaflorin/go_invariant_normalizer/internal/adapters/normalizer"
	"github.com/baditaflorin/go_invariant_normalizer/internal/core/domain"
	"github.com/baditaflorin/go_invariant_normalizer/internal/core/postprocess"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var phrasings = func() map[string]string {
	m := make(map[string]string)
	for _, p := range Phrasings() {
		m[p.Name] = p.Content
	}
	return m
}()

func newProcessor(t *testing.T) *postprocess.Processor {
	t.Helper()
	f := normalizer.NewNormalizerFactory(nil)
	p, err := postprocess.NewProcessor(
		logger.NewNop(),
		f.CreateNormalizer(normalizer.NameNormalizerType),
		f.CreateUnitStandardizer(),
		f.CreateNormalizer(normalizer.ExpressionNormalizerType),
	)
	require.NoError(t, err)
	return p
}

func TestKeywordDraftsKeepRawWording(t *testing.T) {
	k := NewKeyword(logger.NewNop())

	ext, err := k.Extract(context.Background(), domain.Document{ID: "jargon", Content: phrasings["technical-jargon"]})
	require.NoError(t, err)
	require.Len(t, ext.Invariants, 4)

	assert.Equal(t, KeywordModel, ext.Model)
	assert.Equal(t, "User ID > 0", ext.Invariants[0].FormalExpression)
	assert.Equal(t, "Password length ≥ 8", ext.Invariants[1].FormalExpression)
	assert.Equal(t, "chars", ext.Invariants[1].Variables[0].Unit)
	assert.Equal(t, "Response time < 500", ext.Invariants[2].FormalExpression)
	assert.Equal(t, "ms", ext.Invariants[2].Variables[0].Unit)
	assert.Equal(t, "Error rate < 0.01", ext.Invariants[3].FormalExpression)
	assert.Equal(t, domain.PriorityCritical, ext.Invariants[0].Priority)
	assert.Equal(t, 0.9, ext.Invariants[0].ConfidenceScore)
}

func TestKeywordSkipsHeadingsAndUnknownLines(t *testing.T) {
	k := NewKeyword(logger.NewNop())

	ext, err := k.Extract(context.Background(), domain.Document{Content: "# Response time\n\nThe sky is blue.\n"})
	require.NoError(t, err)
	assert.Empty(t, ext.Invariants)
}

func TestKeywordHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewKeyword(logger.NewNop()).Extract(ctx, domain.Document{Content: "User ID > 0"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPhrasingsNormalizeToSameInvariants(t *testing.T) {
	k := NewKeyword(logger.NewNop())
	p := newProcessor(t)

	want := []struct {
		name, unit, expr string
	}{
		{"user_id", "items", "user_id > 0"},
		{"password_length", "items", "password_length >= 8"},
		{"response_time", "milliseconds", "response_time < 500"},
		{"error_rate", "ratio", "error_rate < 0.01"},
	}

	for id, content := range phrasings {
		t.Run(id, func(t *testing.T) {
			ext, err := k.Extract(context.Background(), domain.Document{ID: id, Content: content})
			require.NoError(t, err)
			invs := p.ProcessAll(ext.Invariants)
			require.Len(t, invs, len(want))

			for i, w := range want {
				inv := invs[i]
				require.Len(t, inv.Variables, 1)
				assert.Equal(t, w.name, inv.Variables[0].Name)
				assert.Equal(t, w.unit, inv.Variables[0].Unit)
				assert.Equal(t, w.expr, inv.FormalExpression)
				assert.Equal(t, []string{w.name}, inv.Units.Keys())
				u, _ := inv.Units.Get(w.name)
				assert.Equal(t, w.unit, u)
			}
		})
	}
}

func TestUserIdentifierMatchesUID(t *testing.T) {
	k := NewKeyword(logger.NewNop())
	p := newProcessor(t)

	extract := func(text string) domain.Invariant {
		ext, err := k.Extract(context.Background(), domain.Document{Content: text})
		require.NoError(t, err)
		require.Len(t, ext.Invariants, 1)
		return *p.Process(&ext.Invariants[0])
	}

	a := extract("user identifier must be positive")
	b := extract("UID shall be > 0")

	assert.NotEqual(t, a.NaturalLanguage, b.NaturalLanguage)
	assert.Equal(t, "user_id", a.Variables[0].Name)
	assert.Equal(t, a.Variables[0].Name, b.Variables[0].Name)
	assert.Equal(t, a.FormalExpression, b.FormalExpression)
}
