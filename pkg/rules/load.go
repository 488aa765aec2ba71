package rules

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Load decodes a YAML Definition. Unknown keys are rejected.
//
//	names:
//	  - pattern: 'queue\s*depth'
//	    token: queue_depth
//	units:
//	  microseconds: [us, µs]
//	symbols:
//	  - symbol: "⇒"
//	    token: "=>"
func Load(r io.Reader) (Definition, error) {
	var def Definition
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&def); err != nil && !errors.Is(err, io.EOF) {
		return Definition{}, fmt.Errorf("rules: decode: %w", err)
	}
	return def, nil
}

// LoadFile reads a YAML rule file and returns a RuleSet built from the
// default tables extended by the file's rules.
func LoadFile(path string) (*RuleSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("rules: open %s: %w", path, err)
	}
	defer f.Close()

	def, err := Load(f)
	if err != nil {
		return nil, err
	}
	return New(DefaultDefinition().Extend(def))
}

// Dump writes the Definition of rs as YAML.
func Dump(w io.Writer, rs *RuleSet) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(rs.Definition()); err != nil {
		return fmt.Errorf("rules: encode: %w", err)
	}
	return enc.Close()
}
