package ports

import (
	"context"

	"github.com/baditaflorin/go_invariant_normalizer/internal/core/domain"
)

// Extractor turns a specification document into draft invariants with raw,
// unnormalized names, units and expressions.
type Extractor interface {
	Extract(ctx context.Context, doc domain.Document) (domain.Extraction, error)
}

// Redactor scrubs personal data from text before it leaves the process.
type Redactor interface {
	Redact(text string) domain.Redaction
}

// ResponseCache stores extraction responses by request fingerprint.
type ResponseCache interface {
	Get(ctx context.Context, key string) (*domain.ExtractResponse, bool, error)
	Set(ctx context.Context, key string, resp *domain.ExtractResponse) error
}
