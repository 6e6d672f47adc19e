package models

import "time"

// SelectionState maps every file of a DetectionResult to its "marked for deletion" flag
type SelectionState map[FileID]bool

// Clone returns an independent copy
func (s SelectionState) Clone() SelectionState {
	out := make(SelectionState, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// SessionSnapshot is the unit of persistence
type SessionSnapshot struct {
	Version   int              `json:"version" yaml:"version"`
	Timestamp time.Time        `json:"timestamp" yaml:"timestamp"`
	Result    *DetectionResult `json:"result" yaml:"result"`
	Selection SelectionState   `json:"selection" yaml:"selection"`
}
