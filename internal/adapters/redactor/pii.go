// Package redactor scrubs personal data from specification text before it
// is sent to an extraction backend.
package redactor

import (
	"regexp"
	"sort"

	"github.com/baditaflorin/go_invariant_normalizer/internal/core/domain"
	"github.com/baditaflorin/go_invariant_normalizer/internal/ports"
)

// Field kinds reported in domain.Redaction.Fields.
const (
	FieldEmail      = "email"
	FieldURL        = "url"
	FieldCreditCard = "credit_card"
	FieldSSN        = "ssn"
	FieldPhone      = "phone"
	FieldIPAddress  = "ip_address"
	FieldPassport   = "passport"
	FieldDate       = "date"
	FieldName       = "name"
)

type pattern struct {
	field       string
	re          *regexp.Regexp
	replacement string
}

// Patterns run in this order; earlier ones consume text that later, looser
// ones would otherwise split.
var patterns = []pattern{
	{FieldURL, regexp.MustCompile(`https?://\S+`), "[URL_REDACTED]"},
	{FieldEmail, regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`), "[EMAIL_REDACTED]"},
	{FieldPassport, regexp.MustCompile(`\b[A-Z]{2}\d{2}\s?\d{4}\s?\d{4}\s?\d{4}\s?\d{2}\b`), "[PASSPORT_REDACTED]"},
	{FieldCreditCard, regexp.MustCompile(`\b\d{4}[-.\s]?\d{4}[-.\s]?\d{4}[-.\s]?\d{4}\b`), "[CREDIT_CARD_REDACTED]"},
	{FieldSSN, regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`), "[SSN_REDACTED]"},
	{FieldIPAddress, regexp.MustCompile(`\b\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}\b`), "[IP_REDACTED]"},
	{FieldPhone, regexp.MustCompile(`(?:\+\d{1,3}[-.\s]?)?(?:\(\d{3}\)|\b\d{3})[-.\s]?\d{3}[-.\s]?\d{4}\b`), "[PHONE_REDACTED]"},
	{FieldDate, regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{2,4}\b`), "[DATE_REDACTED]"},
}

var namePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b[A-Z][a-z]+ [A-Z]\. [A-Z][a-z]+\b`),
	regexp.MustCompile(`\b[A-Z][a-z]+ [A-Z][a-z]+\b`),
}

// PII replaces e-mail addresses, URLs, card numbers, SSNs, IP addresses,
// phone numbers, passport numbers, dates and optionally personal names with
// fixed markers.
type PII struct {
	names bool
}

// NewPII creates a redactor. When names is set, capitalized "First Last"
// word pairs are treated as personal names.
func NewPII(names bool) *PII {
	return &PII{names: names}
}

var _ ports.Redactor = (*PII)(nil)

// Redact returns the scrubbed text and the sorted kinds of data it removed.
func (p *PII) Redact(text string) domain.Redaction {
	found := make(map[string]struct{})

	for _, pt := range patterns {
		if pt.re.MatchString(text) {
			text = pt.re.ReplaceAllLiteralString(text, pt.replacement)
			found[pt.field] = struct{}{}
		}
	}
	if p.names {
		for _, re := range namePatterns {
			if re.MatchString(text) {
				text = re.ReplaceAllLiteralString(text, "[NAME_REDACTED]")
				found[FieldName] = struct{}{}
			}
		}
	}

	fields := make([]string, 0, len(found))
	for f := range found {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	return domain.Redaction{
		Text:     text,
		Detected: len(fields) > 0,
		Fields:   fields,
	}
}
