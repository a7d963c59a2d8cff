package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureOutput redirects logger output to a buffer for testing.
// Returns the buffer and a cleanup function to restore original output.
func captureOutput() (*bytes.Buffer, func()) {
	buf := new(bytes.Buffer)

	mu.Lock()
	originalOutput := output
	originalColor := useColor
	output = buf
	useColor = false // Disable colors for easier testing
	mu.Unlock()

	reconfigure()

	cleanup := func() {
		mu.Lock()
		output = originalOutput
		useColor = originalColor
		mu.Unlock()
		reconfigure()
	}

	return buf, cleanup
}

func TestLevelFiltering(t *testing.T) {
	t.Run("DebugLevelShowsAllMessages", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		SetLevel("DEBUG")

		Debug("debug message")
		Info("info message")
		Warn("warn message")
		Error("error message")

		output := buf.String()
		assert.Contains(t, output, "debug message")
		assert.Contains(t, output, "info message")
		assert.Contains(t, output, "warn message")
		assert.Contains(t, output, "error message")
	})

	t.Run("InfoLevelFiltersDebug", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		SetLevel("INFO")

		Debug("debug message")
		Info("info message")

		output := buf.String()
		assert.NotContains(t, output, "debug message")
		assert.Contains(t, output, "info message")
	})

	t.Run("ErrorAlwaysLogged", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		SetLevel("ERROR")

		Warn("warn message")
		Error("error message")

		output := buf.String()
		assert.NotContains(t, output, "warn message")
		assert.Contains(t, output, "error message")
	})
}

func TestSetLevel(t *testing.T) {
	defer SetLevel("INFO")

	t.Run("CaseInsensitive", func(t *testing.T) {
		SetLevel("debug")
		assert.Equal(t, LevelDebug, GetLevel())

		SetLevel("WaRn")
		assert.Equal(t, LevelWarn, GetLevel())
	})

	t.Run("InvalidLevelIgnored", func(t *testing.T) {
		SetLevel("ERROR")
		SetLevel("VERBOSE")
		assert.Equal(t, LevelError, GetLevel())
	})
}

func TestJSONFormat(t *testing.T) {
	buf, cleanup := captureOutput()
	defer cleanup()
	defer SetFormat("text")

	SetLevel("INFO")
	SetFormat("json")

	Info("structured message", "step", "database", "index", 3)

	line := strings.TrimSpace(buf.String())
	require.NotEmpty(t, line)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &entry))
	assert.Equal(t, "structured message", entry["msg"])
	assert.Equal(t, "database", entry["step"])
	assert.Equal(t, float64(3), entry["index"])
}

func TestSetFormat_InvalidIgnored(t *testing.T) {
	defer SetFormat("text")

	SetFormat("json")
	SetFormat("xml")

	format, _ := currentFormat.Load().(string)
	assert.Equal(t, "json", format)
}

func TestInitWithWriter(t *testing.T) {
	buf := new(bytes.Buffer)
	InitWithWriter(buf, "WARN", "text", false)
	defer func() {
		InitWithWriter(new(bytes.Buffer), "INFO", "text", false)
	}()

	Info("filtered out")
	Warn("kept", "key", "value")

	output := buf.String()
	assert.NotContains(t, output, "filtered out")
	assert.Contains(t, output, "kept")
	assert.Contains(t, output, "key")
	assert.Contains(t, output, "value")
}

func TestWith_BindsAttributes(t *testing.T) {
	buf, cleanup := captureOutput()
	defer cleanup()

	SetLevel("INFO")

	l := With("component", "orchestrator")
	l.Info("bound message")

	output := buf.String()
	assert.Contains(t, output, "bound message")
	assert.Contains(t, output, "orchestrator")
}
