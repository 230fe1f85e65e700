package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docstamp/internal/platform/config"
)

func TestJSONHandlerByDefault(t *testing.T) {
	var buf bytes.Buffer
	log := newWithWriter(&buf, config.Log{Level: "info"})
	log.Info("document generated", "actor", "admin")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "document generated", line["msg"])
	assert.Equal(t, "admin", line["actor"])
	assert.Equal(t, "docstamp", line["service"])
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := newWithWriter(&buf, config.Log{Level: "warn", Format: "text"})
	log.Info("dropped")
	assert.Empty(t, buf.String())
	log.Warn("kept")
	assert.Contains(t, buf.String(), "kept")
}
