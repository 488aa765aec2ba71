// Package service runs the extraction pipeline: validation, caching, PII
// redaction, extraction, normalization and confidence filtering.
package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/baditaflorin/go_invariant_normalizer/internal/adapters/normalizer"
	"github.com/baditaflorin/go_invariant_normalizer/internal/core/domain"
	"github.com/baditaflorin/go_invariant_normalizer/internal/core/postprocess"
	"github.com/baditaflorin/go_invariant_normalizer/internal/metrics"
	"github.com/baditaflorin/go_invariant_normalizer/internal/ports"
	"github.com/baditaflorin/go_invariant_normalizer/pkg/rules"
	"github.com/go-playground/validator/v10"
)

// ErrInvalidRequest wraps request validation failures.
var ErrInvalidRequest = errors.New("invalid request")

// CacheKeyPrefix prefixes every response cache key.
const CacheKeyPrefix = "invariant_extraction:"

// StepConfidenceFiltering names the filtering step in extraction metadata.
const StepConfidenceFiltering = "confidence_filtering"

// Config holds the service settings.
type Config struct {
	ConfidenceThreshold float64
	Workers             int
	PromptVersion       string
	Version             string
}

// DefaultConfig returns a default configuration.
func DefaultConfig() Config {
	return Config{
		ConfidenceThreshold: 0.5,
		Workers:             4,
		PromptVersion:       "1.0.0",
		Version:             "dev",
	}
}

// Validate checks if the configuration is valid.
func (c Config) Validate() error {
	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1 {
		return errors.New("confidence threshold must be between 0 and 1")
	}
	if c.Workers < 1 {
		return errors.New("workers must be at least 1")
	}
	return nil
}

// Dependencies are the collaborators of a Service. Redactor and Cache are
// optional.
type Dependencies struct {
	Extractor ports.Extractor
	Processor ports.InvariantProcessor
	Redactor  ports.Redactor
	Cache     ports.ResponseCache
	Rules     *rules.RuleSet
	Logger    ports.Logger
}

// Service extracts and normalizes invariants from documents.
type Service struct {
	config    Config
	extractor ports.Extractor
	processor ports.InvariantProcessor
	redactor  ports.Redactor
	cache     ports.ResponseCache
	rules     *rules.RuleSet
	logger    ports.Logger
	validate  *validator.Validate
	now       func() time.Time
}

// New creates a service.
func New(config Config, deps Dependencies) (*Service, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if deps.Extractor == nil || deps.Processor == nil || deps.Logger == nil {
		return nil, errors.New("extractor, processor and logger are required")
	}
	if deps.Rules == nil {
		deps.Rules = rules.Default()
	}

	return &Service{
		config:    config,
		extractor: deps.Extractor,
		processor: deps.Processor,
		redactor:  deps.Redactor,
		cache:     deps.Cache,
		rules:     deps.Rules,
		logger:    deps.Logger,
		validate:  validator.New(),
		now:       time.Now,
	}, nil
}

// CacheKey fingerprints a document for the response cache.
func CacheKey(doc domain.Document) string {
	sum := sha256.Sum256([]byte(doc.ID + ":" + doc.Content + ":" + doc.Title + ":" + doc.SourceSystem))
	return CacheKeyPrefix + hex.EncodeToString(sum[:])
}

// Extract runs the full pipeline for one document. A zero
// ConfidenceThreshold selects the configured default.
func (s *Service) Extract(ctx context.Context, req domain.ExtractRequest) (*domain.ExtractResponse, error) {
	start := s.now()

	if err := s.validate.Struct(req); err != nil {
		metrics.RecordRequest(metrics.OutcomeInvalid, time.Since(start).Seconds())
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	threshold := req.ConfidenceThreshold
	if threshold == 0 {
		threshold = s.config.ConfidenceThreshold
	}

	key := CacheKey(req.Document)
	resp, cached := s.cached(ctx, key)
	if cached {
		resp.Metadata.Cached = true
		resp.Metadata.CacheKey = key
		metrics.RecordRequest(metrics.OutcomeCached, time.Since(start).Seconds())
		s.logger.Info("Serving invariant extraction from cache", "document_id", req.ID, "cache_key", key)
	} else {
		var err error
		if resp, err = s.extract(ctx, req.Document, key); err != nil {
			metrics.RecordRequest(metrics.OutcomeError, time.Since(start).Seconds())
			return nil, err
		}
		metrics.RecordRequest(metrics.OutcomeSuccess, time.Since(start).Seconds())
	}

	resp.Invariants = filterByConfidence(resp.Invariants, threshold)
	resp.Metadata.ProcessedAt = s.now()
	resp.Metadata.DurationMS = time.Since(start).Milliseconds()
	return resp, nil
}

// extract produces the unfiltered response for doc and caches it, so one
// cache entry serves every confidence threshold.
func (s *Service) extract(ctx context.Context, doc domain.Document, key string) (*domain.ExtractResponse, error) {
	var redaction domain.Redaction
	if s.redactor != nil {
		redaction = s.redactor.Redact(doc.Content)
		doc.Content = redaction.Text
		for _, f := range redaction.Fields {
			metrics.PIIRedactionsTotal.WithLabelValues(f).Inc()
		}
	}

	ext, err := s.extractor.Extract(ctx, doc)
	if err != nil {
		s.logger.Error("Failed to extract invariants", "document_id", doc.ID, "error", err)
		return nil, fmt.Errorf("extract invariants: %w", err)
	}

	invs, err := s.normalize(ctx, ext.Invariants, "extract")
	if err != nil {
		return nil, err
	}

	steps := append(postprocess.Steps(), StepConfidenceFiltering)
	for i := range invs {
		invs[i].Metadata = &domain.ExtractionMetadata{
			PromptVersion:       s.config.PromptVersion,
			PostProcessingRules: steps,
			RetryCount:          ext.Retries,
			PIIDetected:         redaction.Detected,
			RedactedFields:      redaction.Fields,
		}
	}

	resp := &domain.ExtractResponse{
		Invariants: invs,
		Usage:      ext.Usage,
		Metadata: domain.ProcessingMetadata{
			ModelUsed: ext.Model,
			CacheKey:  key,
		},
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, resp); err != nil {
			s.logger.Warn("Failed to cache extraction", "cache_key", key, "error", err)
		}
	}

	metrics.RecordTokens(ext.Usage.InputTokens, ext.Usage.OutputTokens)
	s.logger.Info("Extracted invariants",
		"document_id", doc.ID,
		"extracted", len(invs),
		"model", ext.Model,
		"pii_detected", redaction.Detected,
	)
	return resp, nil
}

// filterByConfidence drops invariants scored below threshold. It returns a
// new slice and leaves invs untouched.
func filterByConfidence(invs []domain.Invariant, threshold float64) []domain.Invariant {
	kept := make([]domain.Invariant, 0, len(invs))
	for _, inv := range invs {
		if inv.ConfidenceScore < threshold {
			metrics.InvariantsFilteredTotal.Inc()
			continue
		}
		kept = append(kept, inv)
	}
	return kept
}

func (s *Service) cached(ctx context.Context, key string) (*domain.ExtractResponse, bool) {
	if s.cache == nil {
		return nil, false
	}
	resp, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("Cache lookup failed", "cache_key", key, "error", err)
		return nil, false
	}
	return resp, ok
}

// Normalize canonicalizes invariants supplied by the caller.
func (s *Service) Normalize(ctx context.Context, invs []domain.Invariant) ([]domain.Invariant, error) {
	return s.normalize(ctx, invs, "normalize")
}

func (s *Service) normalize(ctx context.Context, invs []domain.Invariant, source string) ([]domain.Invariant, error) {
	if err := postprocess.ProcessConcurrently(ctx, s.processor, invs, s.config.Workers); err != nil {
		return nil, fmt.Errorf("normalize invariants: %w", err)
	}
	metrics.InvariantsProcessedTotal.WithLabelValues(source).Add(float64(len(invs)))
	s.recordFallbacks(invs)
	return invs, nil
}

func (s *Service) recordFallbacks(invs []domain.Invariant) {
	for _, inv := range invs {
		for _, v := range inv.Variables {
			if v.Name == normalizer.UnnamedVariable {
				metrics.NormalizationFallbackTotal.WithLabelValues(metrics.FallbackUnnamedVariable).Inc()
			}
			if v.Unit != "" && !s.rules.IsCanonicalUnit(v.Unit) {
				metrics.NormalizationFallbackTotal.WithLabelValues(metrics.FallbackUnknownUnit).Inc()
			}
		}
	}
}

// Health describes the service state.
type Health struct {
	Status    string    `json:"status"`
	Version   string    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

// Health reports the service as healthy.
func (s *Service) Health() Health {
	return Health{
		Status:    "healthy",
		Version:   s.config.Version,
		Timestamp: s.now(),
	}
}
