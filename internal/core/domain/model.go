package domain

import (
	"strings"
	"time"
)

// VariableType is the closed set of value types a variable can carry.
type VariableType string

const (
	TypeInteger VariableType = "integer"
	TypeFloat   VariableType = "float"
	TypeString  VariableType = "string"
	TypeBoolean VariableType = "boolean"
)

// Priority is the extraction-assigned severity tag of an invariant.
type Priority string

const (
	PriorityUnspecified Priority = "UNSPECIFIED"
	PriorityLow         Priority = "LOW"
	PriorityMedium      Priority = "MEDIUM"
	PriorityHigh        Priority = "HIGH"
	PriorityCritical    Priority = "CRITICAL"
)

// ParsePriority maps a free-form severity tag onto Priority.
// Unknown tags map to PriorityUnspecified.
func ParsePriority(s string) Priority {
	switch Priority(strings.ToUpper(strings.TrimSpace(s))) {
	case PriorityCritical:
		return PriorityCritical
	case PriorityHigh:
		return PriorityHigh
	case PriorityMedium:
		return PriorityMedium
	case PriorityLow:
		return PriorityLow
	default:
		return PriorityUnspecified
	}
}

// Variable is one variable referenced by an invariant.
type Variable struct {
	Name        string       `json:"name"`
	Type        VariableType `json:"type"`
	Description string       `json:"description,omitempty"`
	Unit        string       `json:"unit"`
	Constraints []string     `json:"constraints,omitempty"`
}

// Invariant is one requirement record, either as drafted by an extractor or
// after normalization.
type Invariant struct {
	Description      string              `json:"description"`
	FormalExpression string              `json:"formal_expression"`
	NaturalLanguage  string              `json:"natural_language"`
	Variables        []Variable          `json:"variables"`
	Units            Units               `json:"units"`
	ConfidenceScore  float64             `json:"confidence_score"`
	Tags             []string            `json:"tags,omitempty"`
	Priority         Priority            `json:"priority"`
	Metadata         *ExtractionMetadata `json:"extraction_metadata,omitempty"`
}

// ExtractionMetadata describes how a single invariant was produced.
type ExtractionMetadata struct {
	PromptVersion       string   `json:"prompt_version"`
	PostProcessingRules []string `json:"post_processing_rules"`
	RetryCount          int      `json:"retry_count"`
	PIIDetected         bool     `json:"pii_detected"`
	RedactedFields      []string `json:"redacted_fields,omitempty"`
}

// Document is a specification text handed to an extractor.
type Document struct {
	ID           string `json:"document_id" validate:"required"`
	Title        string `json:"title"`
	SourceSystem string `json:"source_system"`
	Content      string `json:"content" validate:"required"`
}

// TokenUsage reports the model tokens spent on an extraction.
type TokenUsage struct {
	InputTokens      int     `json:"input_tokens"`
	OutputTokens     int     `json:"output_tokens"`
	TotalTokens      int     `json:"total_tokens"`
	EstimatedCostUSD float64 `json:"estimated_cost_usd"`
}

// Extraction is the raw output of an extractor: draft invariants and usage.
type Extraction struct {
	Invariants []Invariant
	Usage      TokenUsage
	Model      string
	Retries    int
}

// ExtractRequest asks the extraction service to process one document.
type ExtractRequest struct {
	Document
	ConfidenceThreshold float64 `json:"confidence_threshold" validate:"gte=0,lte=1"`
}

// ProcessingMetadata describes one service response.
type ProcessingMetadata struct {
	ProcessedAt time.Time `json:"processed_at"`
	ModelUsed   string    `json:"model_used"`
	DurationMS  int64     `json:"duration_ms"`
	Cached      bool      `json:"cached"`
	CacheKey    string    `json:"cache_key"`
}

// ExtractResponse is the service answer for one document.
type ExtractResponse struct {
	Invariants []Invariant        `json:"invariants"`
	Usage      TokenUsage         `json:"token_usage"`
	Metadata   ProcessingMetadata `json:"metadata"`
}

// Redaction is the outcome of scrubbing personal data from a text.
type Redaction struct {
	Text     string
	Detected bool
	Fields   []string
}
