package types

import (
	"fmt"
	"sort"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// Keys the analyzer payload uses for the fields ErrorRecord models directly.
const (
	FieldPath   = "path"
	FieldLine   = "line"
	FieldColumn = "column"

	FieldIsIgnored              = "is_ignored"
	FieldIsExternalToGlobalRoot = "is_external_to_global_root"
)

// ErrorRecord is one diagnostic reported by the analysis process, after its
// path has been rewritten relative to the caller's working directory.
//
// Records are values: build them with NewErrorRecord and do not modify them
// afterwards. Fields is shared, not copied, by value assignment.
type ErrorRecord struct {
	Path   string
	Line   int
	Column int

	// Fields holds every other key of the raw entry (code, name,
	// description, ...), untouched.
	Fields map[string]any

	IsIgnored              bool
	IsExternalToGlobalRoot bool

	key RecordKey
}

// RecordKey is the structural identity of an ErrorRecord. It is comparable
// and can key a map.
type RecordKey struct {
	Path                   string
	Line                   int
	Column                 int
	IsIgnored              bool
	IsExternalToGlobalRoot bool
	Fields                 string
}

// NewErrorRecord builds a record and computes its identity. fields must not
// contain the path, line or column keys.
func NewErrorRecord(path string, line, column int, fields map[string]any, ignored, external bool) ErrorRecord {
	if fields == nil {
		fields = map[string]any{}
	}
	r := ErrorRecord{
		Path:                   path,
		Line:                   line,
		Column:                 column,
		Fields:                 fields,
		IsIgnored:              ignored,
		IsExternalToGlobalRoot: external,
	}
	r.key = RecordKey{
		Path:                   path,
		Line:                   line,
		Column:                 column,
		IsIgnored:              ignored,
		IsExternalToGlobalRoot: external,
		Fields:                 canonicalFields(fields),
	}
	return r
}

// Key returns the identity used for deduplication.
func (r ErrorRecord) Key() RecordKey {
	return r.key
}

// Equal reports whether both records have the same fields and flags.
func (r ErrorRecord) Equal(other ErrorRecord) bool {
	return r.key == other.key
}

// Description returns the human readable message of the record, if any.
func (r ErrorRecord) Description() string {
	for _, k := range []string{"description", "message", "name"} {
		if s, ok := r.Fields[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// Code returns the rule code of the record as text, or "" when absent.
func (r ErrorRecord) Code() string {
	v, ok := r.Fields["code"]
	if !ok || v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

// String renders the record as a single "path:line:column description" line.
func (r ErrorRecord) String() string {
	loc := fmt.Sprintf("%s:%d:%d", r.Path, r.Line, r.Column)
	if d := r.Description(); d != "" {
		return loc + " " + strings.ReplaceAll(d, "\n", " ")
	}
	return loc
}

// Flatten returns every field of the record, derived flags included, as one map.
func (r ErrorRecord) Flatten() map[string]any {
	out := make(map[string]any, len(r.Fields)+5)
	for k, v := range r.Fields {
		out[k] = v
	}
	out[FieldPath] = r.Path
	out[FieldLine] = r.Line
	out[FieldColumn] = r.Column
	out[FieldIsIgnored] = r.IsIgnored
	out[FieldIsExternalToGlobalRoot] = r.IsExternalToGlobalRoot
	return out
}

// MarshalJSON encodes the record as a flat object with sorted keys.
func (r ErrorRecord) MarshalJSON() ([]byte, error) {
	return jsonAPI.Marshal(r.Flatten())
}

// Less orders records by path, line and column. Remaining ties fall back to
// the rest of the identity so that sorting is total.
func Less(a, b ErrorRecord) bool {
	if a.Path != b.Path {
		return a.Path < b.Path
	}
	if a.Line != b.Line {
		return a.Line < b.Line
	}
	if a.Column != b.Column {
		return a.Column < b.Column
	}
	if a.key.Fields != b.key.Fields {
		return a.key.Fields < b.key.Fields
	}
	if a.IsExternalToGlobalRoot != b.IsExternalToGlobalRoot {
		return !a.IsExternalToGlobalRoot
	}
	return !a.IsIgnored && b.IsIgnored
}

// canonicalFields encodes fields with sorted keys at every level, so equal
// payloads produce equal strings regardless of the raw formatting.
func canonicalFields(fields map[string]any) string {
	if len(fields) == 0 {
		return "{}"
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		kb, _ := jsonAPI.Marshal(k)
		b.Write(kb)
		b.WriteByte(':')
		vb, err := jsonAPI.Marshal(fields[k])
		if err != nil {
			// Values decoded from JSON always re-encode; anything else is
			// still given a stable identity.
			vb = []byte(fmt.Sprintf("%q", fmt.Sprintf("%#v", fields[k])))
		}
		b.Write(vb)
	}
	b.WriteByte('}')
	return b.String()
}
