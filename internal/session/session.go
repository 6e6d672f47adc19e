package session

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IvanShishkin/dupehound/internal/selection"
	"github.com/IvanShishkin/dupehound/pkg/models"
	"gopkg.in/yaml.v3"
)

// Version is the snapshot layout written by Save
const Version = 1

// Format is a snapshot encoding
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat resolves a format name; empty means JSON
func ParseFormat(name string) (Format, error) {
	switch name {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown session format: %s", name)
	}
}

// Save encodes a result and its selection as a snapshot taken at now
func Save(result *models.DetectionResult, state models.SelectionState, now time.Time, format Format) ([]byte, error) {
	snapshot := &models.SessionSnapshot{
		Version:   Version,
		Timestamp: now,
		Result:    result,
		Selection: state,
	}

	switch format {
	case FormatJSON, "":
		return json.MarshalIndent(snapshot, "", "  ")
	case FormatYAML:
		return yaml.Marshal(snapshot)
	default:
		return nil, fmt.Errorf("unknown session format: %s", format)
	}
}

// Load decodes a snapshot in either format and rebuilds its selection store.
// Any decoding or consistency failure is reported as ErrCorrupt and nothing
// is returned.
func Load(data []byte) (*selection.Store, *models.SessionSnapshot, error) {
	var snapshot models.SessionSnapshot

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil, fmt.Errorf("%w: empty input", models.ErrCorrupt)
	}

	if trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, &snapshot); err != nil {
			return nil, nil, fmt.Errorf("%w: %v", models.ErrCorrupt, err)
		}
	} else {
		if err := yaml.Unmarshal(trimmed, &snapshot); err != nil {
			return nil, nil, fmt.Errorf("%w: %v", models.ErrCorrupt, err)
		}
	}

	if snapshot.Version < 1 || snapshot.Version > Version {
		return nil, nil, fmt.Errorf("%w: unsupported version %d", models.ErrCorrupt, snapshot.Version)
	}
	if snapshot.Result == nil {
		return nil, nil, fmt.Errorf("%w: missing result", models.ErrCorrupt)
	}
	if err := snapshot.Result.Validate(); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", models.ErrCorrupt, err)
	}

	store, err := selection.FromState(snapshot.Result, snapshot.Selection)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", models.ErrCorrupt, err)
	}

	return store, &snapshot, nil
}
