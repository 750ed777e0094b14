package logger_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperdrift-io/whats-that-again/internal/logger"
)

func TestNewPrettyLogger(t *testing.T) {
	var buf bytes.Buffer
	l := logger.New(logger.WithWriter(&buf))
	l.Info("hello", "key", "value")

	output := buf.String()
	assert.Contains(t, output, "hello")
	assert.Contains(t, output, "key")
	assert.Contains(t, output, "value")
}

func TestNewFiltersDebugByDefault(t *testing.T) {
	var buf bytes.Buffer
	l := logger.New(logger.WithWriter(&buf))
	l.Debug("hidden")

	assert.Empty(t, buf.String())
}

func TestWithDebugEnablesDebug(t *testing.T) {
	var buf bytes.Buffer
	l := logger.New(logger.WithWriter(&buf), logger.WithDebug(true))
	l.Debug("debug msg")

	assert.Contains(t, buf.String(), "debug msg")
}

func TestWithLevelName(t *testing.T) {
	var buf bytes.Buffer
	l := logger.New(logger.WithWriter(&buf), logger.WithJSON(true), logger.WithLevelName("warn"))
	l.Info("dropped")
	assert.Empty(t, buf.String())

	l.Warn("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestWithLevelNameIgnoresUnknown(t *testing.T) {
	var buf bytes.Buffer
	l := logger.New(logger.WithWriter(&buf), logger.WithJSON(true), logger.WithLevelName("loud"))
	l.Info("still info")

	assert.Contains(t, buf.String(), "still info")
}

func TestNewJSONLogger(t *testing.T) {
	var buf bytes.Buffer
	l := logger.New(logger.WithWriter(&buf), logger.WithJSON(true))
	l.Info("structured", "count", 42)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &parsed))
	assert.Equal(t, "structured", parsed["msg"])
	assert.EqualValues(t, 42, parsed["count"])
}

func TestWithSourceAddsCallSite(t *testing.T) {
	var buf bytes.Buffer
	l := logger.New(logger.WithWriter(&buf), logger.WithJSON(true), logger.WithSource(true))
	l.Info("located")

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &parsed))
	source, ok := parsed["source"].(map[string]any)
	require.True(t, ok, "expected source object in %s", buf.String())
	assert.Contains(t, source["file"], "logger_test.go")
}
