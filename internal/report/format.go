package report

import (
	"fmt"
	"strings"

	"github.com/sajari/fuzzy"
)

// OutputFormat selects how the rendered errors are serialized.
type OutputFormat string

const (
	Text OutputFormat = "text"
	JSON OutputFormat = "json"
)

// Formats lists every supported output format.
var Formats = []OutputFormat{Text, JSON}

// UnknownFormatError is returned by ParseOutputFormat for unsupported values.
type UnknownFormatError struct {
	Value      string
	Suggestion OutputFormat
}

func (e *UnknownFormatError) Error() string {
	msg := fmt.Sprintf("unsupported output format: %s (supported: %s)", e.Value, formatList())
	if e.Suggestion != "" {
		msg += fmt.Sprintf("; did you mean %q?", e.Suggestion)
	}
	return msg
}

// ParseOutputFormat validates a format name. Matching is case-insensitive.
func ParseOutputFormat(value string) (OutputFormat, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, f := range Formats {
		if string(f) == normalized {
			return f, nil
		}
	}
	return "", &UnknownFormatError{Value: value, Suggestion: suggestFormat(normalized)}
}

func (f OutputFormat) String() string {
	return string(f)
}

// Set and Type let OutputFormat be used directly as a command-line flag.
func (f *OutputFormat) Set(value string) error {
	parsed, err := ParseOutputFormat(value)
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

func (f *OutputFormat) Type() string {
	return "format"
}

func suggestFormat(value string) OutputFormat {
	if value == "" {
		return ""
	}
	model := fuzzy.NewModel()
	model.SetDepth(2)
	for _, f := range Formats {
		model.SetCount(string(f), 1, true)
	}
	if s := model.SpellCheck(value); s != "" {
		return OutputFormat(s)
	}
	return ""
}

func formatList() string {
	names := make([]string, len(Formats))
	for i, f := range Formats {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}
