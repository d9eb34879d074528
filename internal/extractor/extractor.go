// Package extractor turns the raw JSON output of the analysis process into a
// set of normalized error records.
package extractor

import (
	"encoding/json"
	"fmt"
	"math"
	"path/filepath"

	jsoniter "github.com/json-iterator/go"

	"typereport/internal/types"
)

var payloadAPI = jsoniter.Config{
	UseNumber:   true,
	SortMapKeys: true,
	EscapeHTML:  true,
}.Froze()

// Extractor normalizes analysis payloads for one invocation of the client.
type Extractor struct {
	analysisRoot     string
	currentDirectory string
	ignorePrefixes   []string
}

// New returns an Extractor. Both directories are canonicalized once here so
// that every path comparison is made between canonical forms.
func New(analysisRoot, currentDirectory string, ignorePrefixes []string) *Extractor {
	return &Extractor{
		analysisRoot:     Canonical(analysisRoot),
		currentDirectory: Canonical(currentDirectory),
		ignorePrefixes:   append([]string(nil), ignorePrefixes...),
	}
}

// Normalize is a shorthand for New(...).Normalize(rawPayload).
func Normalize(rawPayload, analysisRoot, currentDirectory string, ignorePrefixes []string) (*types.RecordSet, error) {
	return New(analysisRoot, currentDirectory, ignorePrefixes).Normalize(rawPayload)
}

// Normalize decodes rawPayload, rewrites each entry's path relative to the
// current directory, tags it and collects the results into a set.
// Any decoding problem is reported as *types.MalformedResultError.
func (e *Extractor) Normalize(rawPayload string) (*types.RecordSet, error) {
	var decoded any
	if err := payloadAPI.UnmarshalFromString(rawPayload, &decoded); err != nil {
		return nil, malformed(rawPayload, err)
	}
	entries, ok := decoded.([]any)
	if !ok {
		return nil, malformed(rawPayload, fmt.Errorf("expected a list of errors, got %T", decoded))
	}

	records := types.NewRecordSet()
	for i, entry := range entries {
		object, ok := entry.(map[string]any)
		if !ok {
			return nil, malformed(rawPayload, fmt.Errorf("entry %d: expected an object, got %T", i, entry))
		}
		record, err := e.record(object)
		if err != nil {
			return nil, malformed(rawPayload, fmt.Errorf("entry %d: %w", i, err))
		}
		records.Add(record)
	}
	return records, nil
}

func (e *Extractor) record(entry map[string]any) (types.ErrorRecord, error) {
	rawPath, ok := entry[types.FieldPath].(string)
	if !ok {
		return types.ErrorRecord{}, fmt.Errorf("missing or non-string %q", types.FieldPath)
	}
	line, err := intField(entry, types.FieldLine)
	if err != nil {
		return types.ErrorRecord{}, err
	}
	column, err := intField(entry, types.FieldColumn)
	if err != nil {
		return types.ErrorRecord{}, err
	}

	fullPath := e.resolve(rawPath)

	fields := make(map[string]any, len(entry))
	for k, v := range entry {
		switch k {
		case types.FieldPath, types.FieldLine, types.FieldColumn:
		default:
			fields[k] = v
		}
	}

	return types.NewErrorRecord(
		e.relative(fullPath),
		line,
		column,
		fields,
		e.ignored(fullPath),
		!Within(fullPath, e.currentDirectory),
	), nil
}

// resolve joins a reported path with the analysis root and resolves symlinks.
// The join is not cleaned: ".." after a symlink must be resolved against the
// link's target.
func (e *Extractor) resolve(path string) string {
	if !filepath.IsAbs(path) {
		path = e.analysisRoot + string(filepath.Separator) + path
	}
	return Canonical(path)
}

func (e *Extractor) relative(fullPath string) string {
	rel, err := filepath.Rel(e.currentDirectory, fullPath)
	if err != nil {
		// Only possible across volumes; the absolute path is the best we have.
		return fullPath
	}
	return rel
}

func (e *Extractor) ignored(fullPath string) bool {
	for _, prefix := range e.ignorePrefixes {
		if MatchesIgnorePrefix(fullPath, prefix) {
			return true
		}
	}
	return false
}

func intField(entry map[string]any, key string) (int, error) {
	switch v := entry[key].(type) {
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n), nil
		}
		// 1.0 and 1e0 are integers too.
		f, err := v.Float64()
		if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
			return 0, fmt.Errorf("%q is not an integer: %s", key, v)
		}
		return int(f), nil
	case nil:
		return 0, fmt.Errorf("missing %q", key)
	default:
		return 0, fmt.Errorf("%q is not an integer: %v", key, v)
	}
}

func malformed(payload string, err error) error {
	return &types.MalformedResultError{Payload: payload, Err: err}
}
