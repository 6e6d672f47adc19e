package models

import (
	"errors"
	"fmt"
	"io/fs"
)

var (
	// ErrInvalidDirectory - scan root missing or not a directory
	ErrInvalidDirectory = errors.New("invalid directory")
	// ErrUnreadable - per-file stat/open/read failure
	ErrUnreadable = errors.New("unreadable file")
	// ErrHashTimeout - per-file hash exceeded its deadline
	ErrHashTimeout = errors.New("hash timeout")
	// ErrCorrupt - session blob could not be decoded or failed validation
	ErrCorrupt = errors.New("corrupt session")
	// ErrInvalidReference - a FileID that is not part of the DetectionResult
	ErrInvalidReference = errors.New("invalid file reference")
	// ErrCancelled - the scan was cancelled and produced no result
	ErrCancelled = errors.New("scan cancelled")
)

// ActionKind classifies a per-file action failure
type ActionKind string

const (
	ActionNotFound         ActionKind = "not_found"
	ActionPermissionDenied ActionKind = "permission_denied"
	ActionIsDirectory      ActionKind = "is_directory"
	ActionUnknown          ActionKind = "unknown"
)

// ActionError is a per-file failure during delete or symlink.
// It is recorded in the batch report and never aborts the batch.
type ActionError struct {
	Kind ActionKind
	Path string
	Err  error
}

func (e *ActionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Path)
}

func (e *ActionError) Unwrap() error {
	return e.Err
}

// ClassifyActionError maps a filesystem error onto an ActionError
func ClassifyActionError(path string, err error) *ActionError {
	kind := ActionUnknown
	switch {
	case errors.Is(err, fs.ErrNotExist):
		kind = ActionNotFound
	case errors.Is(err, fs.ErrPermission):
		kind = ActionPermissionDenied
	}
	return &ActionError{Kind: kind, Path: path, Err: err}
}
