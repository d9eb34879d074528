package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOutputFormat(t *testing.T) {
	for input, want := range map[string]OutputFormat{
		"text":   Text,
		"json":   JSON,
		" JSON ": JSON,
	} {
		got, err := ParseOutputFormat(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got)
	}
}

func TestParseOutputFormatRejectsUnknown(t *testing.T) {
	_, err := ParseOutputFormat("sarif")

	var unknown *UnknownFormatError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "sarif", unknown.Value)
	assert.Contains(t, err.Error(), "unsupported output format: sarif")
	assert.Contains(t, err.Error(), "text, json")
}

func TestParseOutputFormatSuggests(t *testing.T) {
	_, err := ParseOutputFormat("jsn")

	var unknown *UnknownFormatError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, JSON, unknown.Suggestion)
	assert.Contains(t, err.Error(), `did you mean "json"?`)
}

func TestOutputFormatFlagValue(t *testing.T) {
	var f OutputFormat
	require.NoError(t, f.Set("json"))
	assert.Equal(t, JSON, f)
	assert.Equal(t, "json", f.String())
	assert.Equal(t, "format", f.Type())
	assert.Error(t, f.Set("xml"))
	assert.Equal(t, JSON, f)
}
