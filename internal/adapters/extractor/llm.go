// Package extractor provides the Extractor implementations that draft
// invariants from specification text: a deterministic keyword matcher and a
// client for a hosted language model.
package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/baditaflorin/go_invariant_normalizer/internal/core/domain"
	"github.com/baditaflorin/go_invariant_normalizer/internal/ports"
	"github.com/sethvargo/go-retry"
	"github.com/tidwall/gjson"
	"github.com/valyala/fasthttp"
)

var (
	// ErrEmptyCompletion is returned when the model answers without text.
	ErrEmptyCompletion = errors.New("extractor: empty completion")
	// ErrUpstreamStatus is returned for non-2xx answers from the model endpoint.
	ErrUpstreamStatus = errors.New("extractor: upstream returned an error status")
	// ErrMalformedCompletion is returned when the completion is not the expected JSON.
	ErrMalformedCompletion = errors.New("extractor: malformed completion")
)

// LLMConfig configures the language model extractor.
type LLMConfig struct {
	APIKey           string
	Model            string
	Endpoint         string
	AnthropicVersion string
	MaxTokens        int
	Temperature      float64
	Timeout          time.Duration
	MaxRetries       uint64
	RetryDelay       time.Duration
	CostPer1KTokens  float64
}

// DefaultLLMConfig returns a default configuration without an API key.
func DefaultLLMConfig() LLMConfig {
	return LLMConfig{
		Model:            "claude-3-opus-20240229",
		Endpoint:         "https://api.anthropic.com/v1/messages",
		AnthropicVersion: "2023-06-01",
		MaxTokens:        4000,
		Temperature:      0,
		Timeout:          60 * time.Second,
		MaxRetries:       3,
		RetryDelay:       time.Second,
		CostPer1KTokens:  0.015,
	}
}

// Validate checks if the configuration is valid.
func (c LLMConfig) Validate() error {
	if c.APIKey == "" {
		return errors.New("api key is required")
	}
	if c.Endpoint == "" || c.Model == "" {
		return errors.New("endpoint and model are required")
	}
	if c.MaxTokens <= 0 {
		return errors.New("maxTokens must be greater than 0")
	}
	if c.Temperature < 0 || c.Temperature > 1 {
		return errors.New("temperature must be between 0 and 1")
	}
	if c.Timeout <= 0 || c.RetryDelay <= 0 {
		return errors.New("timeout and retryDelay must be greater than 0")
	}
	if c.CostPer1KTokens < 0 {
		return errors.New("costPer1KTokens must not be negative")
	}
	return nil
}

// StatusError carries a non-2xx answer from the model endpoint.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %d %s", ErrUpstreamStatus, e.Code, e.Body)
}

func (e *StatusError) Unwrap() error { return ErrUpstreamStatus }

// Retryable reports whether the status is worth another attempt.
func (e *StatusError) Retryable() bool {
	return e.Code == fasthttp.StatusTooManyRequests || e.Code >= 500
}

// LLMOption configures an LLM extractor.
type LLMOption func(*LLM)

// WithHTTPClient replaces the fasthttp client.
func WithHTTPClient(c *fasthttp.Client) LLMOption {
	return func(l *LLM) {
		l.client = c
	}
}

// LLM drafts invariants by prompting a hosted language model over its
// messages API.
type LLM struct {
	config LLMConfig
	prompt *Prompt
	logger ports.Logger
	client *fasthttp.Client
}

// NewLLM creates a language model extractor. A nil prompt selects the
// built-in one.
func NewLLM(config LLMConfig, prompt *Prompt, logger ports.Logger, opts ...LLMOption) (*LLM, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if prompt == nil {
		prompt = DefaultPrompt()
	}

	l := &LLM{
		config: config,
		prompt: prompt,
		logger: logger,
		client: &fasthttp.Client{
			Name:         "go_invariant_normalizer",
			ReadTimeout:  config.Timeout,
			WriteTimeout: config.Timeout,
		},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

var _ ports.Extractor = (*LLM)(nil)

// PromptVersion reports the version of the prompt in use.
func (l *LLM) PromptVersion() string {
	return l.prompt.Version()
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesRequest struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
	Messages    []message `json:"messages"`
}

// Extract renders the prompt for doc, calls the model with retries and
// decodes the draft invariants from the completion.
func (l *LLM) Extract(ctx context.Context, doc domain.Document) (domain.Extraction, error) {
	prompt, err := l.prompt.Render(doc)
	if err != nil {
		return domain.Extraction{}, err
	}
	body, err := json.Marshal(messagesRequest{
		Model:       l.config.Model,
		MaxTokens:   l.config.MaxTokens,
		Temperature: l.config.Temperature,
		Messages:    []message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return domain.Extraction{}, fmt.Errorf("encode request: %w", err)
	}

	attempts := 0
	var raw []byte
	backoff := retry.WithMaxRetries(l.config.MaxRetries, retry.NewExponential(l.config.RetryDelay))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempts++
		out, callErr := l.call(ctx, body)
		if callErr != nil {
			var statusErr *StatusError
			if errors.As(callErr, &statusErr) && !statusErr.Retryable() {
				return callErr
			}
			l.logger.Warn("Model call failed",
				"attempt", attempts,
				"max_retries", l.config.MaxRetries,
				"error", callErr,
			)
			return retry.RetryableError(callErr)
		}
		raw = out
		return nil
	})
	if err != nil {
		return domain.Extraction{Retries: attempts - 1}, err
	}

	extraction, err := l.decode(raw)
	if err != nil {
		return domain.Extraction{Retries: attempts - 1}, err
	}
	extraction.Retries = attempts - 1

	l.logger.Info("Model call succeeded",
		"document_id", doc.ID,
		"input_tokens", extraction.Usage.InputTokens,
		"output_tokens", extraction.Usage.OutputTokens,
		"invariants", len(extraction.Invariants),
	)
	return extraction, nil
}

func (l *LLM) call(ctx context.Context, body []byte) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(l.config.Endpoint)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.Header.Set("x-api-key", l.config.APIKey)
	req.Header.Set("anthropic-version", l.config.AnthropicVersion)
	req.SetBody(body)

	var err error
	if deadline, ok := ctx.Deadline(); ok {
		err = l.client.DoDeadline(req, resp, deadline)
	} else {
		err = l.client.DoTimeout(req, resp, l.config.Timeout)
	}
	if err != nil {
		return nil, fmt.Errorf("call model: %w", err)
	}

	if code := resp.StatusCode(); code < 200 || code >= 300 {
		return nil, &StatusError{Code: code, Body: string(resp.Body())}
	}
	return append([]byte(nil), resp.Body()...), nil
}

type completionInvariant struct {
	Description      string            `json:"description"`
	FormalExpression string            `json:"formal_expression"`
	NaturalLanguage  string            `json:"natural_language"`
	Variables        []domain.Variable `json:"variables"`
	Units            domain.Units      `json:"units"`
	ConfidenceScore  float64           `json:"confidence_score"`
	Tags             []string          `json:"tags"`
	Priority         string            `json:"priority"`
}

func (l *LLM) decode(raw []byte) (domain.Extraction, error) {
	text := gjson.GetBytes(raw, "content.0.text").String()
	if strings.TrimSpace(text) == "" {
		return domain.Extraction{}, ErrEmptyCompletion
	}

	in := gjson.GetBytes(raw, "usage.input_tokens").Int()
	out := gjson.GetBytes(raw, "usage.output_tokens").Int()

	drafts, err := parseCompletion(text)
	if err != nil {
		return domain.Extraction{}, err
	}

	invs := make([]domain.Invariant, 0, len(drafts))
	for _, d := range drafts {
		for i := range d.Variables {
			d.Variables[i].Type = domain.VariableType(strings.ToLower(string(d.Variables[i].Type)))
		}
		invs = append(invs, domain.Invariant{
			Description:      d.Description,
			FormalExpression: d.FormalExpression,
			NaturalLanguage:  d.NaturalLanguage,
			Variables:        d.Variables,
			Units:            d.Units,
			ConfidenceScore:  clampConfidence(d.ConfidenceScore),
			Tags:             d.Tags,
			Priority:         domain.ParsePriority(d.Priority),
		})
	}

	model := gjson.GetBytes(raw, "model").String()
	if model == "" {
		model = l.config.Model
	}

	return domain.Extraction{
		Invariants: invs,
		Usage: domain.TokenUsage{
			InputTokens:      int(in),
			OutputTokens:     int(out),
			TotalTokens:      int(in + out),
			EstimatedCostUSD: EstimateCost(int(in), int(out), l.config.CostPer1KTokens),
		},
		Model: model,
	}, nil
}

// clampConfidence pins a model-reported score to [0,1].
func clampConfidence(score float64) float64 {
	switch {
	case score < 0:
		return 0
	case score > 1:
		return 1
	}
	return score
}

// parseCompletion decodes the model's JSON answer. It accepts an object with
// an "invariants" array or a bare array, optionally inside a Markdown code fence.
func parseCompletion(text string) ([]completionInvariant, error) {
	text = stripFence(text)

	var drafts []completionInvariant
	if strings.HasPrefix(text, "[") {
		if err := json.Unmarshal([]byte(text), &drafts); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedCompletion, err)
		}
		return drafts, nil
	}

	var envelope struct {
		Invariants []completionInvariant `json:"invariants"`
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(text)))
	if err := dec.Decode(&envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCompletion, err)
	}
	return envelope.Invariants, nil
}

func stripFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if nl := strings.IndexByte(text, '\n'); nl >= 0 {
		text = text[nl+1:]
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}

// EstimateCost prices a call at a flat rate per thousand tokens.
func EstimateCost(inputTokens, outputTokens int, costPer1K float64) float64 {
	return float64(inputTokens+outputTokens) / 1000 * costPer1K
}
