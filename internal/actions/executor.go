package actions

import (
	"errors"
	"fmt"
	"os"

	"github.com/IvanShishkin/dupehound/internal/metrics"
	"github.com/IvanShishkin/dupehound/internal/selection"
	"github.com/IvanShishkin/dupehound/pkg/models"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// DefaultErrorLines is how many per-file errors ErrorLines shows by default
const DefaultErrorLines = 5

// Mode is the action applied to selected files
type Mode string

const (
	ModeDelete  Mode = "delete"
	ModeSymlink Mode = "symlink"
)

// ParseMode validates an action mode name
func ParseMode(name string) (Mode, error) {
	switch Mode(name) {
	case ModeDelete, ModeSymlink:
		return Mode(name), nil
	default:
		return "", fmt.Errorf("invalid mode: %s (valid: delete, symlink)", name)
	}
}

// Report is the outcome of one batch. Per-file failures are collected in
// Errors and never stop the batch.
type Report struct {
	Mode       Mode                  `json:"mode"`
	Attempted  int                   `json:"attempted"`
	Deleted    int                   `json:"deleted"`
	Created    int                   `json:"created"`
	FreedBytes int64                 `json:"freed_bytes"`
	Errors     []*models.ActionError `json:"-"`
}

// ErrorLines returns at most limit error messages plus a "+N more" line
func (r *Report) ErrorLines(limit int) []string {
	if limit <= 0 {
		limit = DefaultErrorLines
	}

	var lines []string
	for i, err := range r.Errors {
		if i == limit {
			break
		}
		lines = append(lines, err.Error())
	}
	if extra := len(r.Errors) - limit; extra > 0 {
		lines = append(lines, fmt.Sprintf("+%d more", extra))
	}
	return lines
}

// Executor applies selections to the filesystem
type Executor struct {
	fs     afero.Fs
	logger *zap.Logger
}

// NewExecutor creates an executor working on fs
func NewExecutor(fs afero.Fs, logger *zap.Logger) *Executor {
	return &Executor{fs: fs, logger: logger}
}

// Delete removes every selected file and clears the mark of each one removed
func (e *Executor) Delete(store *selection.Store) (*Report, error) {
	if err := checkReferences(store); err != nil {
		return nil, err
	}
	e.warnWholeGroups(store)

	report := &Report{Mode: ModeDelete}
	for _, f := range store.Selected() {
		report.Attempted++

		if err := e.remove(f.Path); err != nil {
			e.fail(report, err)
			continue
		}

		report.Deleted++
		report.FreedBytes += f.Size
		metrics.RecordAction(string(ModeDelete), true, f.Size)
		e.logger.Debug("Deleted file", zap.String("path", f.Path))
		if err := store.Set(f.ID, false); err != nil {
			return nil, err
		}
	}

	e.logger.Info("Delete batch finished",
		zap.Int("attempted", report.Attempted),
		zap.Int("deleted", report.Deleted),
		zap.Int("errors", len(report.Errors)))

	return report, nil
}

// Symlink replaces every selected duplicate with a symbolic link to its
// group's priority file. Selected priority files are left alone.
func (e *Executor) Symlink(store *selection.Store) (*Report, error) {
	if err := checkReferences(store); err != nil {
		return nil, err
	}

	linker, ok := e.fs.(afero.Linker)
	if !ok {
		return nil, fmt.Errorf("filesystem %s does not support symlinks", e.fs.Name())
	}

	selected := store.SelectedIDs()
	report := &Report{Mode: ModeSymlink}
	for _, g := range store.Result().Groups {
		for _, f := range g.Duplicates {
			if !selected[f.ID] {
				continue
			}
			report.Attempted++

			if err := e.replaceWithLink(linker, g.Priority.Path, f.Path); err != nil {
				e.fail(report, err)
				continue
			}

			report.Created++
			report.FreedBytes += f.Size
			metrics.RecordAction(string(ModeSymlink), true, f.Size)
			e.logger.Debug("Replaced duplicate with symlink",
				zap.String("path", f.Path),
				zap.String("target", g.Priority.Path))
			if err := store.Set(f.ID, false); err != nil {
				return nil, err
			}
		}
	}

	e.logger.Info("Symlink batch finished",
		zap.Int("attempted", report.Attempted),
		zap.Int("created", report.Created),
		zap.Int("errors", len(report.Errors)))

	return report, nil
}

// remove deletes a regular file or symlink, never a directory
func (e *Executor) remove(path string) *models.ActionError {
	info, err := e.lstat(path)
	if err != nil {
		return models.ClassifyActionError(path, err)
	}
	if info.IsDir() {
		return &models.ActionError{Kind: models.ActionIsDirectory, Path: path}
	}
	if err := e.fs.Remove(path); err != nil {
		return models.ClassifyActionError(path, err)
	}
	return nil
}

// replaceWithLink unlinks path and links it to target
func (e *Executor) replaceWithLink(linker afero.Linker, target, path string) *models.ActionError {
	info, err := e.fs.Stat(target)
	if err != nil {
		return models.ClassifyActionError(target, err)
	}
	if !info.Mode().IsRegular() {
		return &models.ActionError{Kind: models.ActionUnknown, Path: target, Err: errors.New("priority file is not a regular file")}
	}

	if _, err := e.lstat(path); err == nil {
		if actionErr := e.remove(path); actionErr != nil {
			return actionErr
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return models.ClassifyActionError(path, err)
	}

	if err := linker.SymlinkIfPossible(target, path); err != nil {
		return models.ClassifyActionError(path, err)
	}
	return nil
}

// lstat stats path without following a final symlink when fs allows it
func (e *Executor) lstat(path string) (os.FileInfo, error) {
	if lstater, ok := e.fs.(afero.Lstater); ok {
		info, _, err := lstater.LstatIfPossible(path)
		return info, err
	}
	return e.fs.Stat(path)
}

// fail records a per-file error
func (e *Executor) fail(report *Report, err *models.ActionError) {
	report.Errors = append(report.Errors, err)
	metrics.RecordAction(string(report.Mode), false, 0)
	e.logger.Warn("Action failed",
		zap.String("mode", string(report.Mode)),
		zap.String("kind", string(err.Kind)),
		zap.String("path", err.Path),
		zap.Error(err.Err))
}

// warnWholeGroups logs groups whose every copy is selected for deletion
func (e *Executor) warnWholeGroups(store *selection.Store) {
	selected := store.SelectedIDs()
	for _, g := range store.Result().Groups {
		all := true
		for _, f := range g.Members() {
			if !selected[f.ID] {
				all = false
				break
			}
		}
		if all {
			e.logger.Warn("Every copy of a group is selected for deletion",
				zap.Int("group", g.ID),
				zap.String("hash", g.Hash))
		}
	}
}

// checkReferences fails when a selected id is absent from the result
func checkReferences(store *selection.Store) error {
	index := store.Result().Index()
	for id := range store.SelectedIDs() {
		if _, ok := index[id]; !ok {
			return fmt.Errorf("%w: %s", models.ErrInvalidReference, id)
		}
	}
	return nil
}
