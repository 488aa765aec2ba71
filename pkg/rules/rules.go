// Package rules holds the immutable rule tables that drive invariant
// normalization: phrase-to-token name rules, unit synonyms and the
// mathematical symbol table.
//
// A RuleSet is built once from a Definition, validated, and then only read.
// It is safe for concurrent use by any number of goroutines.
package rules

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

var (
	// ErrInvalidToken is returned when a name rule token is not a canonical identifier.
	ErrInvalidToken = errors.New("rules: token must match [a-z0-9]+(_[a-z0-9]+)*")
	// ErrUnstableToken is returned when the name rules rewrite one of their own tokens.
	ErrUnstableToken = errors.New("rules: token is rewritten by the name rules")
	// ErrOverlappingSymbols is returned when one symbol contains another.
	ErrOverlappingSymbols = errors.New("rules: symbols overlap")
	// ErrConflictingUnit is returned when a synonym maps to two canonical units.
	ErrConflictingUnit = errors.New("rules: unit synonym maps to more than one canonical unit")
)

var tokenPattern = regexp.MustCompile(`^[a-z0-9]+(_[a-z0-9]+)*$`)

// NameRule rewrites a phrase into a canonical variable token.
// Pattern is a regular expression matched case-insensitively.
type NameRule struct {
	Pattern string `yaml:"pattern" json:"pattern"`
	Token   string `yaml:"token" json:"token"`
}

// SymbolRule rewrites one mathematical symbol into an ASCII operator token.
type SymbolRule struct {
	Symbol string `yaml:"symbol" json:"symbol"`
	Token  string `yaml:"token" json:"token"`
}

// Definition is the declarative form of a RuleSet.
// Units maps each canonical unit to its synonyms.
type Definition struct {
	Names   []NameRule          `yaml:"names" json:"names"`
	Units   map[string][]string `yaml:"units" json:"units"`
	Symbols []SymbolRule        `yaml:"symbols" json:"symbols"`
}

// Extend returns a copy of d with other's rules appended. Name and symbol
// rules from other run after d's; unit synonyms are merged.
func (d Definition) Extend(other Definition) Definition {
	out := Definition{
		Names:   append(append([]NameRule{}, d.Names...), other.Names...),
		Units:   make(map[string][]string, len(d.Units)+len(other.Units)),
		Symbols: append(append([]SymbolRule{}, d.Symbols...), other.Symbols...),
	}
	for canonical, syn := range d.Units {
		out.Units[canonical] = append([]string{}, syn...)
	}
	for canonical, syn := range other.Units {
		out.Units[canonical] = append(out.Units[canonical], syn...)
	}
	return out
}

type compiledName struct {
	re    *regexp.Regexp
	token string
}

// RuleSet is the compiled, validated and immutable form of a Definition.
type RuleSet struct {
	def       Definition
	names     []compiledName
	units     map[string]string
	canonical map[string]struct{}
	replacer  *strings.Replacer
}

// New compiles and validates a Definition.
func New(def Definition) (*RuleSet, error) {
	rs := &RuleSet{
		def:       def.Extend(Definition{}),
		units:     make(map[string]string),
		canonical: make(map[string]struct{}),
	}

	for _, r := range def.Names {
		if !tokenPattern.MatchString(r.Token) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidToken, r.Token)
		}
		re, err := regexp.Compile("(?i)" + r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("rules: name pattern %q: %w", r.Pattern, err)
		}
		rs.names = append(rs.names, compiledName{re: re, token: r.Token})
	}
	for _, r := range def.Names {
		if got := rs.ApplyNames(r.Token); got != r.Token {
			return nil, fmt.Errorf("%w: %q becomes %q", ErrUnstableToken, r.Token, got)
		}
	}

	if err := rs.buildUnits(def.Units); err != nil {
		return nil, err
	}

	pairs := make([]string, 0, 2*len(def.Symbols))
	for i, a := range def.Symbols {
		if a.Symbol == "" {
			return nil, fmt.Errorf("rules: empty symbol for token %q", a.Token)
		}
		for j, b := range def.Symbols {
			if i == j {
				continue
			}
			if strings.Contains(b.Symbol, a.Symbol) || strings.Contains(b.Token, a.Symbol) {
				return nil, fmt.Errorf("%w: %q and %q", ErrOverlappingSymbols, a.Symbol, b.Symbol)
			}
		}
		if strings.Contains(a.Token, a.Symbol) {
			return nil, fmt.Errorf("%w: %q reappears in its token", ErrOverlappingSymbols, a.Symbol)
		}
		pairs = append(pairs, a.Symbol, a.Token)
	}
	rs.replacer = strings.NewReplacer(pairs...)

	return rs, nil
}

func (rs *RuleSet) buildUnits(units map[string][]string) error {
	canonicals := make([]string, 0, len(units))
	for c := range units {
		canonicals = append(canonicals, c)
	}
	sort.Strings(canonicals)

	claim := func(synonym, canonical string) error {
		key := strings.ToLower(strings.TrimSpace(synonym))
		if prev, ok := rs.units[key]; ok && prev != canonical {
			return fmt.Errorf("%w: %q -> %q and %q", ErrConflictingUnit, key, prev, canonical)
		}
		rs.units[key] = canonical
		return nil
	}

	for _, c := range canonicals {
		canonical := strings.ToLower(strings.TrimSpace(c))
		rs.canonical[canonical] = struct{}{}
		if err := claim(canonical, canonical); err != nil {
			return err
		}
		for _, syn := range units[c] {
			if err := claim(syn, canonical); err != nil {
				return err
			}
		}
	}
	return nil
}

// MustNew is like New but panics on an invalid Definition.
func MustNew(def Definition) *RuleSet {
	rs, err := New(def)
	if err != nil {
		panic(err)
	}
	return rs
}

// ApplyNames runs every name rule once, in order, as a global substitution.
func (rs *RuleSet) ApplyNames(s string) string {
	for _, r := range rs.names {
		s = r.re.ReplaceAllLiteralString(s, r.token)
	}
	return s
}

// ReplaceSymbols rewrites mathematical symbols into ASCII operator tokens.
func (rs *RuleSet) ReplaceSymbols(s string) string {
	return rs.replacer.Replace(s)
}

// Unit looks up a lower-cased, trimmed unit spelling.
func (rs *RuleSet) Unit(key string) (string, bool) {
	u, ok := rs.units[key]
	return u, ok
}

// IsCanonicalUnit reports whether u is one of the canonical unit labels.
func (rs *RuleSet) IsCanonicalUnit(u string) bool {
	_, ok := rs.canonical[u]
	return ok
}

// Tokens lists the canonical variable tokens in rule order, without duplicates.
func (rs *RuleSet) Tokens() []string {
	seen := make(map[string]struct{}, len(rs.names))
	out := make([]string, 0, len(rs.names))
	for _, r := range rs.names {
		if _, ok := seen[r.token]; ok {
			continue
		}
		seen[r.token] = struct{}{}
		out = append(out, r.token)
	}
	return out
}

// Definition returns a copy of the Definition the set was built from.
func (rs *RuleSet) Definition() Definition {
	return rs.def.Extend(Definition{})
}
