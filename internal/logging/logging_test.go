package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWithWriter(&buf, "info", "json")
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("collection pass finished", "repo", "opentelemetry-java-instrumentation", "processed", 3)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1, "debug records are filtered at info level")

	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, "collection pass finished", rec["msg"])
	assert.Equal(t, "opentelemetry-java-instrumentation", rec["repo"])
	assert.Equal(t, float64(3), rec["processed"])
}

func TestNewWithWriter_DebugLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWithWriter(&buf, "DEBUG", "text")
	require.NoError(t, err)

	logger.Debug("github api call", "endpoint", "runs")

	assert.Contains(t, buf.String(), "github api call")
	assert.Contains(t, buf.String(), "endpoint=runs")
}

func TestNewWithWriter_Invalid(t *testing.T) {
	_, err := NewWithWriter(&bytes.Buffer{}, "loud", "text")
	require.Error(t, err)

	_, err = NewWithWriter(&bytes.Buffer{}, "info", "xml")
	require.Error(t, err)
}
