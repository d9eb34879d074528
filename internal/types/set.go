package types

// RecordSet is an unordered set of ErrorRecords keyed on their structural
// identity. The zero value is not usable; call NewRecordSet.
type RecordSet struct {
	records map[RecordKey]ErrorRecord
}

func NewRecordSet() *RecordSet {
	return &RecordSet{records: make(map[RecordKey]ErrorRecord)}
}

// Add inserts r and reports whether it was not already present.
func (s *RecordSet) Add(r ErrorRecord) bool {
	k := r.Key()
	if _, ok := s.records[k]; ok {
		return false
	}
	s.records[k] = r
	return true
}

func (s *RecordSet) Contains(r ErrorRecord) bool {
	_, ok := s.records[r.Key()]
	return ok
}

func (s *RecordSet) Len() int {
	return len(s.records)
}

// Records returns the members in no particular order.
func (s *RecordSet) Records() []ErrorRecord {
	out := make([]ErrorRecord, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, r)
	}
	return out
}

// Equal reports whether both sets hold the same records.
func (s *RecordSet) Equal(other *RecordSet) bool {
	if s.Len() != other.Len() {
		return false
	}
	for k := range s.records {
		if _, ok := other.records[k]; !ok {
			return false
		}
	}
	return true
}
