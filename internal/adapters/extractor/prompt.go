package extractor

import (
	"bytes"
	"fmt"
	"os"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/baditaflorin/go_invariant_normalizer/internal/core/domain"
	"github.com/baditaflorin/go_invariant_normalizer/internal/ports"
)

// DefaultPromptVersion identifies the built-in prompt template.
const DefaultPromptVersion = "1.0.0"

const defaultPromptText = `You are an expert software engineer and formal verification specialist. Your task is to extract formal invariants from software specification documents.

## Document

- Source system: {{ .SourceSystem | default "unknown" }}
- Title: {{ .Title | default "untitled" }}
- Document ID: {{ .DocumentID }}

## Instructions

1. Analyze the specification content and identify potential invariants.
2. Extract a formal mathematical expression for each invariant.
3. Name variables consistently.
4. Identify units for all variables where applicable.
5. Assign confidence scores between 0 and 1 based on clarity and completeness.
6. Categorize by priority (LOW, MEDIUM, HIGH, CRITICAL).

## Output Format

Return a JSON object with the following structure:

{
  "invariants": [
    {
      "description": "Human-readable description of the invariant",
      "formal_expression": "Mathematical expression using standard notation",
      "natural_language": "Natural language description",
      "variables": [
        {
          "name": "variable_name",
          "type": "integer | float | string | boolean",
          "description": "Variable description",
          "unit": "unit_if_applicable",
          "constraints": ["constraint1", "constraint2"]
        }
      ],
      "units": {
        "variable_name": "unit"
      },
      "confidence_score": 0.95,
      "tags": ["safety", "data_integrity"],
      "priority": "HIGH"
    }
  ]
}

## Content to Analyze

{{ .Content | trim }}

## Response

Provide only the JSON response with no additional text or explanation.
`

// promptData is what a prompt template can reference.
type promptData struct {
	DocumentID   string
	Title        string
	SourceSystem string
	Content      string
}

// Prompt renders the extraction request sent to a language model.
// Templates use text/template syntax with the sprig function library.
type Prompt struct {
	version string
	tmpl    *template.Template
}

// NewPrompt parses a prompt template.
func NewPrompt(text, version string) (*Prompt, error) {
	tmpl, err := template.New("invariant_extraction").
		Option("missingkey=error").
		Funcs(sprig.TxtFuncMap()).
		Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse prompt template: %w", err)
	}
	return &Prompt{version: version, tmpl: tmpl}, nil
}

// DefaultPrompt returns the built-in prompt.
func DefaultPrompt() *Prompt {
	p, err := NewPrompt(defaultPromptText, DefaultPromptVersion)
	if err != nil {
		panic(err)
	}
	return p
}

// LoadPrompt reads a template file. An empty path or an unreadable file
// falls back to the built-in prompt; a file that does not parse is an error.
func LoadPrompt(path, version string, logger ports.Logger) (*Prompt, error) {
	if path == "" {
		return DefaultPrompt(), nil
	}
	text, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("Failed to load prompt template, using default", "path", path, "error", err)
		return DefaultPrompt(), nil
	}
	if version == "" {
		version = DefaultPromptVersion
	}
	return NewPrompt(string(text), version)
}

// Version identifies the template for extraction metadata.
func (p *Prompt) Version() string {
	return p.version
}

// Render fills the template for doc.
func (p *Prompt) Render(doc domain.Document) (string, error) {
	var buf bytes.Buffer
	err := p.tmpl.Execute(&buf, promptData{
		DocumentID:   doc.ID,
		Title:        doc.Title,
		SourceSystem: doc.SourceSystem,
		Content:      doc.Content,
	})
	if err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return buf.String(), nil
}
