package selection

import (
	"fmt"
	"sync"

	"github.com/IvanShishkin/dupehound/pkg/models"
)

// Summary is the selection overview shown to the operator
type Summary struct {
	Selected      int   `json:"selected"`
	Total         int   `json:"total"`
	SelectedBytes int64 `json:"selected_bytes"`
}

// Store holds the deletion marks for every file of one DetectionResult.
// Writes are serialized so a UI may drive it from several goroutines.
type Store struct {
	result *models.DetectionResult
	index  map[models.FileID]*models.FileRecord
	state  models.SelectionState
	mu     sync.RWMutex
}

// Initialize creates a store with the default marks: every priority file
// unmarked, every duplicate marked.
func Initialize(result *models.DetectionResult) *Store {
	state := make(models.SelectionState, result.TotalFiles())
	for _, g := range result.Groups {
		state[g.Priority.ID] = false
		for _, f := range g.Duplicates {
			state[f.ID] = true
		}
	}
	return &Store{result: result, index: result.Index(), state: state}
}

// FromState restores a store from a saved state. The state must cover
// exactly the files of result.
func FromState(result *models.DetectionResult, state models.SelectionState) (*Store, error) {
	index := result.Index()
	for id := range state {
		if _, ok := index[id]; !ok {
			return nil, fmt.Errorf("%w: %s", models.ErrInvalidReference, id)
		}
	}
	for id := range index {
		if _, ok := state[id]; !ok {
			return nil, fmt.Errorf("%w: %s has no selection entry", models.ErrInvalidReference, id)
		}
	}
	return &Store{result: result, index: index, state: state.Clone()}, nil
}

// Result returns the detection result the marks refer to
func (s *Store) Result() *models.DetectionResult {
	return s.result
}

// Get returns the mark of a file
func (s *Store) Get(id models.FileID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.index[id]; !ok {
		return false, fmt.Errorf("%w: %s", models.ErrInvalidReference, id)
	}
	return s.state[id], nil
}

// Set marks or unmarks a file
func (s *Store) Set(id models.FileID, selected bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.index[id]; !ok {
		return fmt.Errorf("%w: %s", models.ErrInvalidReference, id)
	}
	s.state[id] = selected
	return nil
}

// SetAll marks or unmarks every file
func (s *Store) SetAll(selected bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id := range s.state {
		s.state[id] = selected
	}
}

// ToggleAll selects everything when at most half the files are selected,
// otherwise deselects everything. It returns the value applied.
func (s *Store) ToggleAll() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	selected := 0
	for _, v := range s.state {
		if v {
			selected++
		}
	}

	target := selected*2 <= len(s.state)
	for id := range s.state {
		s.state[id] = target
	}
	return target
}

// Selected returns the marked files in group order, priority first within a group
func (s *Store) Selected() []*models.FileRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var files []*models.FileRecord
	for _, g := range s.result.Groups {
		for _, f := range g.Members() {
			if s.state[f.ID] {
				files = append(files, f)
			}
		}
	}
	return files
}

// SelectedIDs returns the set of marked file ids
func (s *Store) SelectedIDs() map[models.FileID]bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make(map[models.FileID]bool)
	for id, v := range s.state {
		if v {
			ids[id] = true
		}
	}
	return ids
}

// SelectedBytes returns the total size of the marked files
func (s *Store) SelectedBytes() int64 {
	return s.Summary().SelectedBytes
}

// Summary counts marked files and bytes
func (s *Store) Summary() Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sum := Summary{Total: len(s.state)}
	for id, v := range s.state {
		if v {
			sum.Selected++
			sum.SelectedBytes += s.index[id].Size
		}
	}
	return sum
}

// State returns a copy of the marks, for persistence
func (s *Store) State() models.SelectionState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.state.Clone()
}
