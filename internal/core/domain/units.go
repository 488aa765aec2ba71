package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Units maps variable names to unit labels and remembers insertion order.
// The zero value is an empty mapping ready for use.
type Units struct {
	keys   []string
	values map[string]string
}

// NewUnits builds a mapping from alternating key/value pairs.
func NewUnits(pairs ...string) Units {
	var u Units
	for i := 0; i+1 < len(pairs); i += 2 {
		u.Set(pairs[i], pairs[i+1])
	}
	return u
}

// Set inserts or replaces a value. A replaced key keeps its first position.
func (u *Units) Set(key, value string) {
	if u.values == nil {
		u.values = make(map[string]string)
	}
	if _, ok := u.values[key]; !ok {
		u.keys = append(u.keys, key)
	}
	u.values[key] = value
}

// Get returns the unit recorded for key.
func (u Units) Get(key string) (string, bool) {
	v, ok := u.values[key]
	return v, ok
}

// Len reports the number of keys.
func (u Units) Len() int {
	return len(u.keys)
}

// Keys returns the keys in insertion order.
func (u Units) Keys() []string {
	out := make([]string, len(u.keys))
	copy(out, u.keys)
	return out
}

// Range calls fn for every pair in insertion order until fn returns false.
func (u Units) Range(fn func(key, value string) bool) {
	for _, k := range u.keys {
		if !fn(k, u.values[k]) {
			return
		}
	}
}

// Map returns an unordered copy.
func (u Units) Map() map[string]string {
	out := make(map[string]string, len(u.keys))
	for k, v := range u.values {
		out[k] = v
	}
	return out
}

// MarshalJSON writes a JSON object whose members follow insertion order.
func (u Units) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range u.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(u.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object keeping member order. A null value
// leaves the mapping empty.
func (u *Units) UnmarshalJSON(data []byte) error {
	*u = Units{}
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("units: expected object, got %v", tok)
	}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("units: expected string key, got %v", keyTok)
		}
		var value string
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("units: value for %q: %w", key, err)
		}
		u.Set(key, value)
	}
	_, err = dec.Token()
	return err
}
