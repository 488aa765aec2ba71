package rules

import "sync"

// DefaultDefinition returns the built-in rule tables.
func DefaultDefinition() Definition {
	return Definition{
		Names: []NameRule{
			{Pattern: `user\s*identifi(?:er|cation)(?:\s*numbers?)?`, Token: "user_id"},
			{Pattern: `user\s*id`, Token: "user_id"},
			{Pattern: `system\s*status`, Token: "system_status"},
			{Pattern: `request\s*count`, Token: "request_count"},
			{Pattern: `response\s*time`, Token: "response_time"},
			{Pattern: `error\s*rate`, Token: "error_rate"},
			{Pattern: `memory\s*usage`, Token: "memory_usage"},
			{Pattern: `cpu\s*usage`, Token: "cpu_usage"},
			{Pattern: `connection\s*count`, Token: "connection_count"},
			{Pattern: `password\s*length`, Token: "password_length"},
		},
		Units: map[string][]string{
			"milliseconds": {"ms", "millisecond"},
			"seconds":      {"s", "sec", "second"},
			"minutes":      {"min", "minute"},
			"bytes":        {"b", "byte"},
			"kilobytes":    {"kb", "kilobyte"},
			"megabytes":    {"mb", "megabyte"},
			"gigabytes":    {"gb", "gigabyte"},
			"items":        {"count", "requests", "connections", "characters", "chars"},
			"ratio":        {"%", "percent", "percentage"},
		},
		Symbols: []SymbolRule{
			{Symbol: "≤", Token: "<="},
			{Symbol: "≥", Token: ">="},
			{Symbol: "≠", Token: "!="},
			{Symbol: "∧", Token: "&&"},
			{Symbol: "∨", Token: "||"},
			{Symbol: "¬", Token: "!"},
			{Symbol: "∀", Token: "forall"},
			{Symbol: "∃", Token: "exists"},
			{Symbol: "∈", Token: "in"},
			{Symbol: "∉", Token: "not_in"},
			{Symbol: "⊆", Token: "subset"},
			{Symbol: "⊂", Token: "proper_subset"},
		},
	}
}

var defaultSet = sync.OnceValue(func() *RuleSet {
	return MustNew(DefaultDefinition())
})

// Default returns the shared RuleSet built from DefaultDefinition.
func Default() *RuleSet {
	return defaultSet()
}
