package extractor

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/baditaflorin/go_invariant_normalizer/internal/core/domain"
	"github.com/baditaflorin/go_invariant_normalizer/internal/ports"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// KeywordModel is reported as the model of keyword extractions.
const KeywordModel = "keyword-matcher"

const keywordConfidence = 0.9

// concept is one requirement shape the keyword matcher recognizes.
type concept struct {
	key string
	// label is the raw name used when the text only implies the variable
	// or names it by abbreviation.
	label      string
	trigger    *regexp.Regexp // matched against case-folded text
	phrase     *regexp.Regexp // surface spelling of the variable
	varType    domain.VariableType
	unit       *regexp.Regexp
	rawUnit    string
	value      string
	fixedValue bool
	operator   string
	percent    bool
	priority   domain.Priority
}

var concepts = []concept{
	{
		key:        "user_id",
		label:      "User ID",
		trigger:    regexp.MustCompile(`\buser\s*(?:identifi|id\b)|\buid\b`),
		phrase:     regexp.MustCompile(`(?i)\buser\s*(?:identifi(?:er|cation)(?:\s*numbers?)?|id\b)`),
		varType:    domain.TypeInteger,
		rawUnit:    "count",
		value:      "0",
		fixedValue: true,
		operator:   ">",
		priority:   domain.PriorityCritical,
	},
	{
		key:      "password_length",
		label:    "Password length",
		trigger:  regexp.MustCompile(`\bpasswords?\b|\bpwd\b`),
		phrase:   regexp.MustCompile(`(?i)\bpassword\s*length`),
		varType:  domain.TypeInteger,
		unit:     regexp.MustCompile(`^(?:characters?|chars?)$`),
		rawUnit:  "characters",
		value:    "8",
		operator: "≥",
		priority: domain.PriorityHigh,
	},
	{
		key:      "response_time",
		label:    "Response time",
		trigger:  regexp.MustCompile(`\bresponse\s*times?\b|\brt\b`),
		phrase:   regexp.MustCompile(`(?i)\bresponse\s*time`),
		varType:  domain.TypeFloat,
		unit:     regexp.MustCompile(`^(?:ms|milliseconds?|s|secs?|seconds?)$`),
		rawUnit:  "ms",
		value:    "0",
		operator: "<",
		priority: domain.PriorityMedium,
	},
	{
		key:      "error_rate",
		label:    "Error rate",
		trigger:  regexp.MustCompile(`\berror\s*rates?\b|\ber\b`),
		phrase:   regexp.MustCompile(`(?i)\berror\s*rate`),
		varType:  domain.TypeFloat,
		unit:     regexp.MustCompile(`^(?:%|percent(?:age)?)$`),
		rawUnit:  "%",
		value:    "0",
		operator: "<",
		percent:  true,
		priority: domain.PriorityHigh,
	},
}

var (
	listMarker = regexp.MustCompile(`^\s*(?:[-*•]|\d+[.)])\s+`)
	quantity   = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(%|[a-z]+)?`)
)

// Keyword is a deterministic, table-driven extractor. It recognizes a small
// set of requirement shapes line by line and drafts one invariant per
// matching line, keeping the document's own wording for names and units.
type Keyword struct {
	logger ports.Logger
}

// NewKeyword creates a keyword extractor.
func NewKeyword(logger ports.Logger) *Keyword {
	return &Keyword{logger: logger}
}

var _ ports.Extractor = (*Keyword)(nil)

// Extract drafts invariants from doc.Content.
func (k *Keyword) Extract(ctx context.Context, doc domain.Document) (domain.Extraction, error) {
	if err := ctx.Err(); err != nil {
		return domain.Extraction{}, err
	}

	fold := cases.Fold()
	var invs []domain.Invariant
	for _, line := range strings.Split(doc.Content, "\n") {
		line = strings.TrimSpace(norm.NFKC.String(line))
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = listMarker.ReplaceAllString(line, "")
		folded := fold.String(line)

		for _, c := range concepts {
			if !c.trigger.MatchString(folded) {
				continue
			}
			invs = append(invs, c.draft(line, folded))
			break
		}
	}

	k.logger.Debug("Keyword extraction finished",
		"document_id", doc.ID,
		"invariants", len(invs),
	)
	return domain.Extraction{Invariants: invs, Model: KeywordModel}, nil
}

func (c concept) draft(line, folded string) domain.Invariant {
	name := c.label
	if m := c.phrase.FindString(line); m != "" {
		name = m
	}

	value, unit := c.value, c.rawUnit
	if m := quantity.FindStringSubmatch(folded); m != nil && !c.fixedValue {
		value = m[1]
		if c.unit != nil && c.unit.MatchString(m[2]) {
			unit = m[2]
		}
	}
	if c.percent && (unit == "%" || strings.HasPrefix(unit, "percent")) {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			value = strconv.FormatFloat(f/100, 'f', -1, 64)
		}
	}

	return domain.Invariant{
		Description:      line,
		FormalExpression: name + " " + c.operator + " " + value,
		NaturalLanguage:  line,
		Variables: []domain.Variable{{
			Name: name,
			Type: c.varType,
			Unit: unit,
		}},
		Units:           domain.NewUnits(name, unit),
		ConfidenceScore: keywordConfidence,
		Tags:            []string{"keyword", c.key},
		Priority:        c.priority,
	}
}
