package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStdLoggerWritesToOutput(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewWithOptions(Options{Output: &buf})
	require.NoError(t, err)

	log.Error("normalized invariant", "variables", 2)
	require.NoError(t, log.Close())

	assert.Contains(t, buf.String(), "normalized invariant")
}

func TestNopLogger(t *testing.T) {
	log := NewNop()
	log.Debug("ignored", "k", "v")
	log.Error("ignored")
	assert.NoError(t, log.Close())
}
