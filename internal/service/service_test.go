package service

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/baditaflorin/go_invariant_normalizer/internal/adapters/cache"
	"github.com/baditaflorin/go_invariant_normalizer/internal/adapters/extractor"
	"github.com/baditaflorin/go_invariant_normalizer/internal/adapters/logger"
	"github.com/baditaflorin/go_invariant_normalizer/internal/adapters/normalizer"
	"github.com/baditaflorin/go_invariant_normalizer/internal/adapters/redactor"
	"github.com/baditaflorin/go_invariant_normalizer/internal/core/domain"
	"github.com/baditaflorin/go_invariant_normalizer/internal/core/postprocess"
	"github.com/baditaflorin/go_invariant_normalizer/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingExtractor records the documents it sees.
type countingExtractor struct {
	inner ports.Extractor
	calls int32
	last  atomic.Value
}

func (c *countingExtractor) Extract(ctx context.Context, doc domain.Document) (domain.Extraction, error) {
	atomic.AddInt32(&c.calls, 1)
	c.last.Store(doc.Content)
	return c.inner.Extract(ctx, doc)
}

type failingExtractor struct{}

func (failingExtractor) Extract(context.Context, domain.Document) (domain.Extraction, error) {
	return domain.Extraction{}, errors.New("upstream down")
}

type staticExtractor []domain.Invariant

func (s staticExtractor) Extract(context.Context, domain.Document) (domain.Extraction, error) {
	return domain.Extraction{Invariants: s, Model: "static", Retries: 1}, nil
}

func newService(t *testing.T, ext ports.Extractor) *Service {
	t.Helper()
	log := logger.NewNop()
	f := normalizer.NewNormalizerFactory(nil)
	proc, err := postprocess.NewProcessor(log,
		f.CreateNormalizer(normalizer.NameNormalizerType),
		f.CreateUnitStandardizer(),
		f.CreateNormalizer(normalizer.ExpressionNormalizerType),
	)
	require.NoError(t, err)

	svc, err := New(DefaultConfig(), Dependencies{
		Extractor: ext,
		Processor: proc,
		Redactor:  redactor.NewPII(true),
		Cache:     cache.NewMemory(16, time.Hour),
		Rules:     f.Rules(),
		Logger:    log,
	})
	require.NoError(t, err)
	return svc
}

const authDoc = `
# User Authentication System

Owner: Jane Doe (jane.doe@example.com)

1. User ID must be a positive integer
2. Password length must be at least 8 characters
3. Response time must be under 500 milliseconds
4. Error rate must be less than 1%
`

func TestExtractPipeline(t *testing.T) {
	ext := &countingExtractor{inner: extractor.NewKeyword(logger.NewNop())}
	svc := newService(t, ext)

	req := domain.ExtractRequest{Document: domain.Document{ID: "auth", Title: "Auth", SourceSystem: "jira", Content: authDoc}}
	resp, err := svc.Extract(context.Background(), req)
	require.NoError(t, err)

	require.Len(t, resp.Invariants, 4)
	assert.Equal(t, "user_id > 0", resp.Invariants[0].FormalExpression)
	assert.Equal(t, "error_rate < 0.01", resp.Invariants[3].FormalExpression)
	assert.Equal(t, extractor.KeywordModel, resp.Metadata.ModelUsed)
	assert.False(t, resp.Metadata.Cached)
	assert.Equal(t, CacheKey(req.Document), resp.Metadata.CacheKey)
	assert.True(t, strings.HasPrefix(resp.Metadata.CacheKey, CacheKeyPrefix))

	seen := ext.last.Load().(string)
	assert.NotContains(t, seen, "jane.doe@example.com")
	assert.NotContains(t, seen, "Jane Doe")

	md := resp.Invariants[0].Metadata
	require.NotNil(t, md)
	assert.True(t, md.PIIDetected)
	assert.Equal(t, []string{"email", "name"}, md.RedactedFields)
	assert.Equal(t, append(postprocess.Steps(), StepConfidenceFiltering), md.PostProcessingRules)
	assert.Equal(t, "1.0.0", md.PromptVersion)
}

func TestExtractServesFromCache(t *testing.T) {
	ext := &countingExtractor{inner: extractor.NewKeyword(logger.NewNop())}
	svc := newService(t, ext)
	req := domain.ExtractRequest{Document: domain.Document{ID: "auth", Content: authDoc}}

	first, err := svc.Extract(context.Background(), req)
	require.NoError(t, err)
	second, err := svc.Extract(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, int32(1), atomic.LoadInt32(&ext.calls))
	assert.True(t, second.Metadata.Cached)
	assert.Equal(t, first.Metadata.CacheKey, second.Metadata.CacheKey)
	assert.Equal(t, first.Invariants[1].FormalExpression, second.Invariants[1].FormalExpression)

	req.Title = "changed"
	_, err = svc.Extract(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&ext.calls))
}

func TestExtractFiltersByConfidence(t *testing.T) {
	svc := newService(t, staticExtractor{
		{FormalExpression: "User ID ≥ 1", ConfidenceScore: 0.95},
		{FormalExpression: "Error Rate ≤ 1", ConfidenceScore: 0.4},
		{FormalExpression: "CPU Usage ≤ 80", ConfidenceScore: 0.7},
	})

	resp, err := svc.Extract(context.Background(), domain.ExtractRequest{
		Document:            domain.Document{ID: "d", Content: "anything"},
		ConfidenceThreshold: 0.8,
	})
	require.NoError(t, err)
	require.Len(t, resp.Invariants, 1)
	assert.Equal(t, "user_id >= 1", resp.Invariants[0].FormalExpression)
	assert.Equal(t, 1, resp.Invariants[0].Metadata.RetryCount)

	resp, err = svc.Extract(context.Background(), domain.ExtractRequest{
		Document: domain.Document{ID: "d2", Content: "anything"},
	})
	require.NoError(t, err)
	assert.Len(t, resp.Invariants, 2, "default threshold is 0.5")
}

func TestExtractAppliesThresholdToCachedResponse(t *testing.T) {
	ext := &countingExtractor{inner: staticExtractor{
		{FormalExpression: "User ID ≥ 1", ConfidenceScore: 0.6},
	}}
	svc := newService(t, ext)
	doc := domain.Document{ID: "d", Content: "anything"}

	strict, err := svc.Extract(context.Background(), domain.ExtractRequest{Document: doc, ConfidenceThreshold: 0.9})
	require.NoError(t, err)
	assert.Empty(t, strict.Invariants)

	loose, err := svc.Extract(context.Background(), domain.ExtractRequest{Document: doc, ConfidenceThreshold: 0.1})
	require.NoError(t, err)
	assert.True(t, loose.Metadata.Cached)
	require.Len(t, loose.Invariants, 1)
	assert.Equal(t, "user_id >= 1", loose.Invariants[0].FormalExpression)

	again, err := svc.Extract(context.Background(), domain.ExtractRequest{Document: doc, ConfidenceThreshold: 0.9})
	require.NoError(t, err)
	assert.Empty(t, again.Invariants)
	assert.Equal(t, int32(1), atomic.LoadInt32(&ext.calls))
}

func TestExtractValidatesRequest(t *testing.T) {
	svc := newService(t, failingExtractor{})

	tests := map[string]domain.ExtractRequest{
		"missing id":         {Document: domain.Document{Content: "x"}},
		"missing content":    {Document: domain.Document{ID: "x"}},
		"threshold too high": {Document: domain.Document{ID: "x", Content: "x"}, ConfidenceThreshold: 1.5},
	}
	for name, req := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Extract(context.Background(), req)
			assert.ErrorIs(t, err, ErrInvalidRequest)
		})
	}
}

func TestExtractPropagatesExtractorErrors(t *testing.T) {
	svc := newService(t, failingExtractor{})

	_, err := svc.Extract(context.Background(), domain.ExtractRequest{Document: domain.Document{ID: "x", Content: "x"}})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidRequest)
	assert.Contains(t, err.Error(), "upstream down")
}

func TestNormalize(t *testing.T) {
	svc := newService(t, failingExtractor{})

	invs, err := svc.Normalize(context.Background(), []domain.Invariant{
		{Variables: []domain.Variable{{Name: "USER-ID", Unit: "Count"}}, Units: domain.NewUnits("User ID", "count")},
		{Variables: []domain.Variable{{Name: "???", Unit: "furlongs"}}},
	})
	require.NoError(t, err)
	assert.Equal(t, "user_id", invs[0].Variables[0].Name)
	assert.Equal(t, "items", invs[0].Variables[0].Unit)
	assert.Equal(t, normalizer.UnnamedVariable, invs[1].Variables[0].Name)
}

func TestHealth(t *testing.T) {
	svc := newService(t, failingExtractor{})
	h := svc.Health()
	assert.Equal(t, "healthy", h.Status)
	assert.Equal(t, "dev", h.Version)
	assert.False(t, h.Timestamp.IsZero())
}

func TestNewValidates(t *testing.T) {
	_, err := New(Config{ConfidenceThreshold: 2, Workers: 1}, Dependencies{})
	assert.Error(t, err)
	_, err = New(DefaultConfig(), Dependencies{Logger: logger.NewNop()})
	assert.Error(t, err)
}

func TestCacheKeyIsStable(t *testing.T) {
	doc := domain.Document{ID: "a", Content: "b", Title: "c", SourceSystem: "d"}
	assert.Equal(t, CacheKey(doc), CacheKey(doc))
	assert.Len(t, CacheKey(doc), len(CacheKeyPrefix)+64)
	doc.SourceSystem = "e"
	assert.NotEqual(t, CacheKey(domain.Document{ID: "a", Content: "b", Title: "c", SourceSystem: "d"}), CacheKey(doc))
}
