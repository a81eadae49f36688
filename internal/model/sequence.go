package model

import "time"

// EntitySequence is aspectflow's output type: the ordered category transitions
// observed for one entity.
type EntitySequence struct {
	EntityID    string         `json:"entity"`
	Sequence    []string       `json:"sequence"`
	Counts      map[string]int `json:"counts,omitempty"`  // occurrences per category over all tag sets
	Records     int            `json:"records,omitempty"` // records considered for this entity
	Tagged      int            `json:"tagged,omitempty"`  // records that matched at least one category
	RunID       string         `json:"run_id,omitempty"`
	GeneratedAt time.Time      `json:"generated_at,omitzero"`
	Detail      []TaggedRecord `json:"detail,omitempty"` // per-record tags, full verbosity only
}
