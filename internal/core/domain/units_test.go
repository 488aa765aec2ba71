package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnitsKeepInsertionOrder(t *testing.T) {
	u := NewUnits("b", "1", "a", "2", "c", "3")
	u.Set("a", "4")

	assert.Equal(t, []string{"b", "a", "c"}, u.Keys())
	v, ok := u.Get("a")
	require.True(t, ok)
	assert.Equal(t, "4", v)
	assert.Equal(t, 3, u.Len())
}

func TestUnitsJSONRoundTripPreservesOrder(t *testing.T) {
	raw := `{"User ID":"items","user-id":"count","Error Rate":"%"}`

	var u Units
	require.NoError(t, json.Unmarshal([]byte(raw), &u))
	assert.Equal(t, []string{"User ID", "user-id", "Error Rate"}, u.Keys())

	out, err := json.Marshal(u)
	require.NoError(t, err)
	assert.Equal(t, raw, string(out))
}

func TestUnitsUnmarshalNullAndErrors(t *testing.T) {
	var u Units
	require.NoError(t, json.Unmarshal([]byte(`null`), &u))
	assert.Equal(t, 0, u.Len())

	assert.Error(t, json.Unmarshal([]byte(`["ms"]`), &u))
	assert.Error(t, json.Unmarshal([]byte(`{"a":1}`), &u))
}

func TestZeroUnitsMarshalsEmptyObject(t *testing.T) {
	out, err := json.Marshal(Invariant{})
	require.NoError(t, err)
	assert.Contains(t, string(out), `"units":{}`)
}

func TestParsePriority(t *testing.T) {
	tests := map[string]Priority{
		"CRITICAL": PriorityCritical,
		"high":     PriorityHigh,
		" Medium ": PriorityMedium,
		"low":      PriorityLow,
		"urgent":   PriorityUnspecified,
		"":         PriorityUnspecified,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParsePriority(in), "ParsePriority(%q)", in)
	}
}
