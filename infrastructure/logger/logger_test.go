package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithOutput(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithOutput("api", "warn", &buf)

	log.Info("dropped")
	assert.Zero(t, buf.Len())

	log.WithField("note_id", "n1").Warn("kept")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "kept", line["message"])
	assert.Equal(t, "warning", line["level"])
	assert.Equal(t, "api", line["service"])
	assert.Equal(t, "n1", line["note_id"])
	assert.Contains(t, line, "timestamp")
}

func TestNew_UnknownLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithOutput("api", "loud", &buf)

	log.Info("visible")
	assert.NotZero(t, buf.Len())
}
