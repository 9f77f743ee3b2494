package model

import (
	"encoding/json"
	"slices"
	"time"
)

// MaxStoredRunIDs bounds the dedup state. When more runs have been seen, the
// numerically largest IDs are kept as a proxy for the most recent ones.
const MaxStoredRunIDs = 2000

// RunIDSet is a set of workflow run IDs already accounted for.
type RunIDSet map[int64]struct{}

// NewRunIDSet builds a set from the given IDs.
func NewRunIDSet(ids ...int64) RunIDSet {
	s := make(RunIDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Has reports whether id is in the set.
func (s RunIDSet) Has(id int64) bool {
	_, ok := s[id]
	return ok
}

// Add inserts id into the set.
func (s RunIDSet) Add(id int64) {
	s[id] = struct{}{}
}

// Len returns the number of IDs in the set.
func (s RunIDSet) Len() int {
	return len(s)
}

// Clone returns an independent copy of the set.
func (s RunIDSet) Clone() RunIDSet {
	out := make(RunIDSet, len(s))
	for id := range s {
		out[id] = struct{}{}
	}
	return out
}

// Union returns a new set containing the IDs of s and other.
func (s RunIDSet) Union(other RunIDSet) RunIDSet {
	out := make(RunIDSet, len(s)+len(other))
	for id := range s {
		out[id] = struct{}{}
	}
	for id := range other {
		out[id] = struct{}{}
	}
	return out
}

// Newest returns at most limit IDs, largest first. A limit <= 0 returns all IDs.
func (s RunIDSet) Newest(limit int) []int64 {
	ids := make([]int64, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b int64) int {
		switch {
		case a > b:
			return -1
		case a < b:
			return 1
		default:
			return 0
		}
	})
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids
}

// ProcessedRunState is the persisted form of the dedup set.
type ProcessedRunState struct {
	RunIDs      []int64   `json:"run_ids"`      // Sorted descending, at most MaxStoredRunIDs.
	LastUpdated time.Time `json:"last_updated"` // Time of the save that produced this document.
	Count       int       `json:"count"`
}

// NewProcessedRunState trims ids to MaxStoredRunIDs and stamps the document with now.
func NewProcessedRunState(ids RunIDSet, now time.Time) ProcessedRunState {
	kept := ids.Newest(MaxStoredRunIDs)
	return ProcessedRunState{
		RunIDs:      kept,
		LastUpdated: now.UTC(),
		Count:       len(kept),
	}
}

// stateTimeLayouts are tried in order when reading last_updated. Documents
// written by earlier collectors carry a naive local timestamp with no offset,
// which is read as UTC.
var stateTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// UnmarshalJSON reads the document, accepting last_updated with or without a
// zone offset. A missing or unparsable last_updated leaves LastUpdated zero;
// it never invalidates the run IDs.
func (p *ProcessedRunState) UnmarshalJSON(data []byte) error {
	type plain ProcessedRunState
	var doc struct {
		plain
		LastUpdated json.RawMessage `json:"last_updated"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}

	*p = ProcessedRunState(doc.plain)
	p.LastUpdated = time.Time{}

	var raw string
	if err := json.Unmarshal(doc.LastUpdated, &raw); err != nil {
		return nil
	}
	for _, layout := range stateTimeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			p.LastUpdated = t.UTC()
			break
		}
	}
	return nil
}

// IDSet returns the stored IDs as a set.
func (p ProcessedRunState) IDSet() RunIDSet {
	return NewRunIDSet(p.RunIDs...)
}

// Trimmed reports whether saving ids would drop some of them.
func Trimmed(ids RunIDSet) bool {
	return ids.Len() > MaxStoredRunIDs
}
