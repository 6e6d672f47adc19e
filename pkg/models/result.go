package models

import (
	"fmt"
	"time"
)

// DuplicateGroup is a set of two or more files sharing the same content hash
type DuplicateGroup struct {
	ID          int           `json:"group_id" yaml:"group_id"`
	Hash        string        `json:"hash" yaml:"hash"`
	Size        int64         `json:"size" yaml:"size"`
	Priority    *FileRecord   `json:"priority_file" yaml:"priority_file"`
	Duplicates  []*FileRecord `json:"duplicate_files" yaml:"duplicate_files"`
	WastedBytes int64         `json:"wasted_bytes" yaml:"wasted_bytes"`
}

// Members returns the priority file followed by the duplicates
func (g *DuplicateGroup) Members() []*FileRecord {
	members := make([]*FileRecord, 0, len(g.Duplicates)+1)
	if g.Priority != nil {
		members = append(members, g.Priority)
	}
	return append(members, g.Duplicates...)
}

// Count returns the number of files in the group
func (g *DuplicateGroup) Count() int {
	return len(g.Duplicates) + 1
}

// IsPriority reports whether id belongs to the group's retained file
func (g *DuplicateGroup) IsPriority(id FileID) bool {
	return g.Priority != nil && g.Priority.ID == id
}

// ScanStats contains counters collected while producing a DetectionResult
type ScanStats struct {
	EntriesSeen     int           `json:"entries_seen" yaml:"entries_seen"`
	Candidates      int           `json:"candidates" yaml:"candidates"`
	SkippedSmall    int           `json:"skipped_small" yaml:"skipped_small"`
	Symlinks        int           `json:"symlinks" yaml:"symlinks"`
	Unreadable      int           `json:"unreadable" yaml:"unreadable"`
	HashTimeouts    int           `json:"hash_timeouts" yaml:"hash_timeouts"`
	FilesHashed     int           `json:"files_hashed" yaml:"files_hashed"`
	HashedBytes     int64         `json:"hashed_bytes" yaml:"hashed_bytes"`
	Duration        time.Duration `json:"duration" yaml:"duration"`
	WorkersUsed     int           `json:"workers_used" yaml:"workers_used"`
	UnreadablePaths []string      `json:"unreadable_paths,omitempty" yaml:"unreadable_paths,omitempty"`
}

// DetectionResult is the ordered list of duplicate groups plus aggregates
type DetectionResult struct {
	Root             string            `json:"root" yaml:"root"`
	MinSize          int64             `json:"min_size" yaml:"min_size"`
	Algorithm        string            `json:"algorithm" yaml:"algorithm"`
	Policy           string            `json:"policy" yaml:"policy"`
	Groups           []*DuplicateGroup `json:"groups" yaml:"groups"`
	TotalGroups      int               `json:"total_groups" yaml:"total_groups"`
	TotalWastedBytes int64             `json:"total_wasted_bytes" yaml:"total_wasted_bytes"`
	Symlinks         []SymlinkRecord   `json:"symlinks,omitempty" yaml:"symlinks,omitempty"`
	Stats            ScanStats         `json:"statistics" yaml:"statistics"`
}

// Recompute refreshes TotalGroups and TotalWastedBytes from the groups
func (r *DetectionResult) Recompute() {
	r.TotalGroups = len(r.Groups)
	r.TotalWastedBytes = 0
	for _, g := range r.Groups {
		r.TotalWastedBytes += g.WastedBytes
	}
}

// TotalFiles returns the number of files across all groups
func (r *DetectionResult) TotalFiles() int {
	n := 0
	for _, g := range r.Groups {
		n += g.Count()
	}
	return n
}

// Lookup finds a file and its group by ID
func (r *DetectionResult) Lookup(id FileID) (*FileRecord, *DuplicateGroup, bool) {
	for _, g := range r.Groups {
		for _, f := range g.Members() {
			if f.ID == id {
				return f, g, true
			}
		}
	}
	return nil, nil, false
}

// Index maps every FileID to its record
func (r *DetectionResult) Index() map[FileID]*FileRecord {
	idx := make(map[FileID]*FileRecord, r.TotalFiles())
	for _, g := range r.Groups {
		for _, f := range g.Members() {
			idx[f.ID] = f
		}
	}
	return idx
}

// Validate checks the structural invariants of a result
func (r *DetectionResult) Validate() error {
	seen := make(map[FileID]bool)
	var wasted int64
	for _, g := range r.Groups {
		if g == nil || g.Priority == nil {
			return fmt.Errorf("group without priority file")
		}
		if len(g.Duplicates) == 0 {
			return fmt.Errorf("group %d has fewer than two files", g.ID)
		}
		for _, f := range g.Members() {
			if f == nil || f.ID == "" {
				return fmt.Errorf("group %d has a file without id", g.ID)
			}
			if seen[f.ID] {
				return fmt.Errorf("file %s appears twice", f.ID)
			}
			seen[f.ID] = true
			if f.Hash != g.Hash {
				return fmt.Errorf("file %s hash does not match group %d", f.Path, g.ID)
			}
		}
		if g.WastedBytes != g.Size*int64(len(g.Duplicates)) {
			return fmt.Errorf("group %d wasted bytes mismatch", g.ID)
		}
		wasted += g.WastedBytes
	}
	if r.TotalGroups != len(r.Groups) || r.TotalWastedBytes != wasted {
		return fmt.Errorf("aggregate totals do not match groups")
	}
	return nil
}
