// Package streaming normalizes newline-delimited JSON invariant streams,
// one record per line, without holding the whole input in memory.
package streaming

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/baditaflorin/go_invariant_normalizer/internal/adapters/logger"
	"github.com/baditaflorin/go_invariant_normalizer/internal/adapters/normalizer"
	"github.com/baditaflorin/go_invariant_normalizer/internal/adapters/stream"
	"github.com/baditaflorin/go_invariant_normalizer/internal/core/postprocess"
	"github.com/baditaflorin/go_invariant_normalizer/internal/ports"
	"github.com/baditaflorin/go_invariant_normalizer/pkg/rules"
	"github.com/baditaflorin/l"
)

// ErrMalformedLine is returned when an input line is not a JSON invariant.
var ErrMalformedLine = stream.ErrMalformedLine

// StreamResult summarizes one streaming run.
type StreamResult struct {
	Lines          int
	Invariants     int
	BytesProcessed int64
	ProcessingTime string // Duration as string for easy display
}

// StreamingNormalizer normalizes invariant streams.
type StreamingNormalizer struct {
	processor *stream.Processor
	logger    ports.Logger
}

// StreamingOption defines a functional option for configuring StreamingNormalizer
type StreamingOption func(*streamingConfig)

type streamingConfig struct {
	BatchSize int
	Workers   int
	Rules     *rules.RuleSet
	Logger    ports.Logger
}

// WithBatchSize sets how many records are normalized together.
func WithBatchSize(size int) StreamingOption {
	return func(cfg *streamingConfig) {
		cfg.BatchSize = size
	}
}

// WithWorkers sets the goroutine limit per batch.
func WithWorkers(n int) StreamingOption {
	return func(cfg *streamingConfig) {
		cfg.Workers = n
	}
}

// WithRuleSet replaces the built-in rule tables.
func WithRuleSet(rs *rules.RuleSet) StreamingOption {
	return func(cfg *streamingConfig) {
		cfg.Rules = rs
	}
}

// WithStreamingLogger sets a custom logger
func WithStreamingLogger(l l.Logger) StreamingOption {
	return func(cfg *streamingConfig) {
		cfg.Logger = logger.FromExisting(l)
	}
}

// NewStreamingNormalizer creates a new StreamingNormalizer instance
func NewStreamingNormalizer(opts ...StreamingOption) (*StreamingNormalizer, error) {
	def := stream.DefaultConfig()
	config := &streamingConfig{
		BatchSize: def.BatchSize,
		Workers:   def.Workers,
	}
	for _, opt := range opts {
		opt(config)
	}

	if config.Logger == nil {
		var err error
		config.Logger, err = logger.NewWithOptions(logger.Options{AsyncWrite: true})
		if err != nil {
			return nil, err
		}
	}

	f := normalizer.NewNormalizerFactory(config.Rules)
	proc, err := postprocess.NewProcessor(
		config.Logger,
		f.CreateNormalizer(normalizer.NameNormalizerType),
		f.CreateUnitStandardizer(),
		f.CreateNormalizer(normalizer.ExpressionNormalizerType),
	)
	if err != nil {
		return nil, err
	}

	return &StreamingNormalizer{
		processor: stream.NewProcessor(config.Logger, proc, stream.Config{
			BatchSize: config.BatchSize,
			Workers:   config.Workers,
		}),
		logger: config.Logger,
	}, nil
}

// NormalizeStream reads invariants from r and writes their normalized form to w.
func (sn *StreamingNormalizer) NormalizeStream(ctx context.Context, r io.Reader, w io.Writer) (StreamResult, error) {
	start := time.Now()
	stats, err := sn.processor.ProcessStream(ctx, r, w)
	return StreamResult{
		Lines:          stats.Lines,
		Invariants:     stats.Invariants,
		BytesProcessed: stats.Bytes,
		ProcessingTime: time.Since(start).String(),
	}, err
}

// NormalizeString is a convenience wrapper around NormalizeStream that
// returns the normalized lines.
func (sn *StreamingNormalizer) NormalizeString(ctx context.Context, ndjson string) (string, StreamResult, error) {
	var out strings.Builder
	res, err := sn.NormalizeStream(ctx, strings.NewReader(ndjson), &out)
	return out.String(), res, err
}

// Close flushes the logger.
func (sn *StreamingNormalizer) Close() error {
	return sn.logger.Close()
}
