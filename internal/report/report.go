// Package report filters, orders and serializes normalized error records.
package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"typereport/internal/types"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// Configuration controls what Render keeps and how it serializes it. It is
// built once per run and only read afterwards.
type Configuration struct {
	Verbose bool
	Output  OutputFormat

	IgnoreAllErrorsPaths []string
	CurrentDirectory     string
	AnalysisRoot         string
}

// Output is the result of a render: a summary line for the status channel and
// a body for the primary output.
type Output struct {
	Summary string
	Body    string
	Count   int
	Records []types.ErrorRecord
}

// Failed reports whether any type error survived filtering.
func (o Output) Failed() bool {
	return o.Count > 0
}

// WriteTo writes the body to w. Nothing is written for an empty text body.
func (o Output) WriteTo(w io.Writer) (int64, error) {
	if o.Body == "" {
		return 0, nil
	}
	n, err := io.WriteString(w, o.Body)
	return int64(n), err
}

// RenderSet renders every record of set.
func RenderSet(set *types.RecordSet, cfg Configuration) Output {
	return Render(set.Records(), cfg)
}

// Render filters and sorts records and serializes them in cfg.Output. It does
// not modify records.
func Render(records []types.ErrorRecord, cfg Configuration) Output {
	visible := Filter(records, cfg.Verbose)
	Sort(visible)

	out := Output{
		Summary: Summary(len(visible)),
		Count:   len(visible),
		Records: visible,
	}
	if cfg.Output == JSON {
		out.Body = renderJSON(visible)
	} else {
		out.Body = renderText(visible)
	}
	return out
}

// Filter drops ignored records, and records outside the current directory
// unless verbose is set. The result is a new slice.
func Filter(records []types.ErrorRecord, verbose bool) []types.ErrorRecord {
	kept := make([]types.ErrorRecord, 0, len(records))
	for _, r := range records {
		if r.IsIgnored {
			continue
		}
		if r.IsExternalToGlobalRoot && !verbose {
			continue
		}
		kept = append(kept, r)
	}
	return kept
}

// Sort orders records by path, line and column in place.
func Sort(records []types.ErrorRecord) {
	sort.Slice(records, func(i, j int) bool {
		return types.Less(records[i], records[j])
	})
}

// Summary returns the status line for count surviving errors.
func Summary(count int) string {
	switch count {
	case 0:
		return "No type errors found"
	case 1:
		return "Found 1 type error!"
	default:
		return fmt.Sprintf("Found %d type errors!", count)
	}
}

func renderText(records []types.ErrorRecord) string {
	lines := make([]string, len(records))
	for i, r := range records {
		lines[i] = r.String()
	}
	return strings.Join(lines, "\n")
}

func renderJSON(records []types.ErrorRecord) string {
	body, err := jsonAPI.MarshalToString(records)
	if err != nil {
		// Records only hold values decoded from JSON, which always encode.
		panic(fmt.Sprintf("report: encoding records: %v", err))
	}
	return body
}
