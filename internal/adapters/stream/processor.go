// Package stream normalizes newline-delimited JSON streams of invariants.
package stream

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"runtime"

	"github.com/baditaflorin/go_invariant_normalizer/internal/core/domain"
	"github.com/baditaflorin/go_invariant_normalizer/internal/core/postprocess"
	"github.com/baditaflorin/go_invariant_normalizer/internal/pool"
	"github.com/baditaflorin/go_invariant_normalizer/internal/ports"
)

const (
	// DefaultChunkSize is the initial capacity of pooled encode buffers.
	DefaultChunkSize = 8192 // 8KB

	// MaxScannerBufferSize bounds one input line.
	MaxScannerBufferSize = 1024 * 1024 // 1MB

	// DefaultBatchSize is the number of records decoded before a batch is
	// normalized and written.
	DefaultBatchSize = 256
)

// ErrMalformedLine is returned when an input line is not a JSON invariant.
var ErrMalformedLine = errors.New("stream: malformed invariant line")

// Config tunes a Processor.
type Config struct {
	BatchSize int
	Workers   int
}

// DefaultConfig returns batch and worker settings sized to the machine.
func DefaultConfig() Config {
	return Config{
		BatchSize: DefaultBatchSize,
		Workers:   runtime.NumCPU(),
	}
}

// Stats summarizes one ProcessStream call.
type Stats struct {
	Lines      int
	Invariants int
	Bytes      int64
}

// Processor reads one invariant per line, normalizes them in batches and
// writes them back one per line in input order.
type Processor struct {
	logger     ports.Logger
	processor  ports.InvariantProcessor
	bufferPool *pool.BufferPool
	batchSize  int
	workers    int
}

// NewProcessor creates a stream processor. Zero config values fall back to
// DefaultConfig.
func NewProcessor(logger ports.Logger, processor ports.InvariantProcessor, cfg Config) *Processor {
	def := DefaultConfig()
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}

	return &Processor{
		logger:     logger,
		processor:  processor,
		bufferPool: pool.NewBufferPool(DefaultChunkSize),
		batchSize:  cfg.BatchSize,
		workers:    cfg.Workers,
	}
}

// ProcessStream normalizes every record read from r and writes the results
// to w. Blank lines are skipped. When a later line fails to decode or the
// input cannot be read, records from earlier lines are written before the
// error is returned. On cancellation only records already normalized are
// written.
func (p *Processor) ProcessStream(ctx context.Context, r io.Reader, w io.Writer) (Stats, error) {
	var stats Stats

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, DefaultChunkSize), MaxScannerBufferSize)

	out := bufio.NewWriter(w)
	batch := make([]domain.Invariant, 0, p.batchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := postprocess.ProcessConcurrently(ctx, p.processor, batch, p.workers); err != nil {
			return err
		}
		for i := range batch {
			if err := p.encode(out, &batch[i]); err != nil {
				return err
			}
		}
		stats.Invariants += len(batch)
		batch = batch[:0]
		return nil
	}

	// drain writes pending records before returning cause.
	drain := func(cause error) error {
		if err := flush(); err != nil {
			return err
		}
		if err := out.Flush(); err != nil {
			p.logger.Error("Error writing to output", "error", err)
			return err
		}
		return cause
	}

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			p.logger.Warn("Processing cancelled by context", "error", err)
			if ferr := out.Flush(); ferr != nil {
				p.logger.Error("Error writing to output", "error", ferr)
			}
			return stats, err
		}

		line := scanner.Bytes()
		stats.Lines++
		stats.Bytes += int64(len(line) + 1)

		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		var inv domain.Invariant
		if err := json.Unmarshal(line, &inv); err != nil {
			p.logger.Warn("Skipping stream after malformed line", "line", stats.Lines, "error", err)
			return stats, drain(fmt.Errorf("%w: line %d: %v", ErrMalformedLine, stats.Lines, err))
		}
		batch = append(batch, inv)

		if len(batch) >= p.batchSize {
			if err := flush(); err != nil {
				return stats, err
			}
		}
	}

	if err := scanner.Err(); err != nil {
		p.logger.Warn("Error scanning input", "line", stats.Lines+1, "error", err)
		return stats, drain(fmt.Errorf("stream: line %d: %w", stats.Lines+1, err))
	}
	if err := drain(nil); err != nil {
		return stats, err
	}

	p.logger.Debug("Processed invariant stream",
		"lines", stats.Lines,
		"invariants", stats.Invariants,
		"bytes", stats.Bytes,
	)
	return stats, nil
}

func (p *Processor) encode(w io.Writer, inv *domain.Invariant) error {
	buffer := p.bufferPool.Get()
	defer p.bufferPool.Put(buffer)

	buf := bytes.NewBuffer(*buffer)
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(inv); err != nil {
		return fmt.Errorf("stream: encode: %w", err)
	}
	*buffer = buf.Bytes()

	if _, err := w.Write(*buffer); err != nil {
		p.logger.Error("Error writing to output", "error", err)
		return err
	}
	return nil
}
