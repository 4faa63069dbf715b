package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_TextFoldsErrorKey(t *testing.T) {
	var buf bytes.Buffer
	logger := New(slog.LevelInfo, WithWriter(&buf))

	logger.Info("save failed", "error", errors.New("disk full"))
	logger.Debug("hidden")

	assert.Contains(t, buf.String(), `err="disk full"`)
	assert.NotContains(t, buf.String(), "hidden")
}

func TestNew_JSONRendersWrappedErrors(t *testing.T) {
	var buf bytes.Buffer
	logger := New(slog.LevelDebug, WithWriter(&buf), WithFormat(FormatJSON))

	logger.Debug("session reset", "session", "s-1", "error", fmt.Errorf("persist: %w", errors.New("disk full")))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "session reset", line["msg"])
	assert.Equal(t, "s-1", line["session"])
	assert.Equal(t, "persist: disk full", line["err"])
	assert.NotContains(t, line, "error")
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatText, f)

	f, err = ParseFormat("json")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	_, err = ParseFormat("xml")
	assert.ErrorContains(t, err, `unknown log format "xml"`)
}
