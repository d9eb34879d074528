package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewConsole(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{}, zapcore.AddSync(&buf))
	require.NoError(t, err)

	logger.Error("Found 2 type errors!")
	logger.Debug("hidden")
	require.NoError(t, logger.Sync())

	out := buf.String()
	assert.Equal(t, "ERROR Found 2 type errors!\n", out)
}

func TestNewLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "DEBUG"}, zapcore.AddSync(&buf))
	require.NoError(t, err)

	logger.Debug("directories", zap.Strings("dirs", []string{"src"}))
	assert.Contains(t, buf.String(), "DEBUG directories")
	assert.Contains(t, buf.String(), `"dirs": ["src"]`)
}

func TestNewInvalidLevel(t *testing.T) {
	_, err := New(Options{Level: "loud"}, zapcore.AddSync(&bytes.Buffer{}))
	assert.Error(t, err)
}

func TestNewFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "typereport.log")
	logger, err := New(Options{File: path}, zapcore.AddSync(&bytes.Buffer{}))
	require.NoError(t, err)

	logger.Info("No type errors found")
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	line := strings.TrimSpace(string(data))
	assert.Contains(t, line, `"msg":"No type errors found"`)
	assert.Contains(t, line, `"level":"info"`)
}

func TestHighlightOnlyOnConsole(t *testing.T) {
	path := filepath.Join(t.TempDir(), "typereport.log")
	var buf bytes.Buffer
	logger, err := New(Options{
		File: path,
		Highlight: func(ent zapcore.Entry) string {
			if ent.LoggerName != "summary" {
				return ent.Message
			}
			return "\x1b[31m" + ent.Message + "\x1b[0m"
		},
	}, zapcore.AddSync(&buf))
	require.NoError(t, err)

	logger.Named("summary").Error("Found 2 type errors!")
	logger.Info("errors logged")
	require.NoError(t, logger.Sync())

	assert.Equal(t, "ERROR \x1b[31mFound 2 type errors!\x1b[0m\nINFO errors logged\n", buf.String())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"Found 2 type errors!"`)
	assert.NotContains(t, string(data), "\x1b[")
	assert.NotContains(t, string(data), `\u001b`)
}
