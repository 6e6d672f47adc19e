package filesystem

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/IvanShishkin/dupehound/pkg/models"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// WalkStats counts what a walk saw besides the records it emitted
type WalkStats struct {
	Entries         int
	Candidates      int
	SkippedSmall    int
	Unreadable      int
	UnreadablePaths []string
	Symlinks        []models.SymlinkRecord
}

// EntryFunc is called every progressEvery entries with the running count
type EntryFunc func(processed int, path string)

// Walker walks the filesystem and yields candidate files
type Walker struct {
	fs            afero.Fs
	logger        *zap.Logger
	exclude       map[string]bool
	progressEvery int
	onEntry       EntryFunc
}

// NewWalker creates a new filesystem walker
func NewWalker(fs afero.Fs, exclude []string, logger *zap.Logger) *Walker {
	// Build exclude map for fast lookup
	excludeMap := make(map[string]bool)
	for _, dir := range exclude {
		excludeMap[dir] = true
	}

	return &Walker{
		fs:            fs,
		logger:        logger,
		exclude:       excludeMap,
		progressEvery: 100,
	}
}

// SetProgressFunc registers fn to be called every `every` entries
func (w *Walker) SetProgressFunc(every int, fn EntryFunc) {
	if every > 0 {
		w.progressEvery = every
	}
	w.onEntry = fn
}

// ValidateRoot fails with ErrInvalidDirectory unless root is an existing directory
func (w *Walker) ValidateRoot(root string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", models.ErrInvalidDirectory, root, err)
	}
	info, err := w.fs.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", models.ErrInvalidDirectory, root, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s is not a directory", models.ErrInvalidDirectory, root)
	}
	return abs, nil
}

// Count counts the non-directory entries under root.
// It is a full pre-pass so later progress can report an exact total.
func (w *Walker) Count(ctx context.Context, root string) (int, error) {
	count := 0
	err := afero.Walk(w.fs, root, func(path string, info os.FileInfo, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil || info == nil {
			return nil
		}
		if info.IsDir() {
			if path != root && w.shouldExclude(info.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		count++
		return nil
	})
	if err != nil {
		return 0, w.walkError(err)
	}
	return count, nil
}

// Walk recursively walks root and calls callback for every regular file of at
// least minSize bytes and for every symbolic link. Symlinks are tagged and never
// followed. Per-entry failures are skipped; only cancellation aborts the walk.
func (w *Walker) Walk(ctx context.Context, root string, minSize int64, callback func(*models.FileRecord) error) (*WalkStats, error) {
	root, err := w.ValidateRoot(root)
	if err != nil {
		return nil, err
	}

	stats := &WalkStats{}
	walkErr := afero.Walk(w.fs, root, func(path string, info os.FileInfo, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if err != nil {
			w.logger.Warn("Error accessing path", zap.String("path", path), zap.Error(err))
			stats.Unreadable++
			stats.UnreadablePaths = append(stats.UnreadablePaths, path)
			return nil // Continue walking
		}

		// Skip excluded directories
		if info.IsDir() {
			if path != root && w.shouldExclude(info.Name()) {
				w.logger.Debug("Skipping excluded directory", zap.String("path", path))
				return filepath.SkipDir
			}
			return nil
		}

		stats.Entries++
		if w.onEntry != nil && stats.Entries%w.progressEvery == 0 {
			w.onEntry(stats.Entries, path)
		}

		if info.Mode()&os.ModeSymlink != 0 {
			link := w.inspectSymlink(path)
			stats.Symlinks = append(stats.Symlinks, link)
			return callback(models.NewFileRecord(path, info.Size(), info.ModTime(), true))
		}

		if !info.Mode().IsRegular() {
			return nil
		}

		if info.Size() < minSize {
			stats.SkippedSmall++
			return nil
		}

		stats.Candidates++
		return callback(models.NewFileRecord(path, info.Size(), info.ModTime(), false))
	})

	if walkErr != nil {
		return nil, w.walkError(walkErr)
	}

	if w.onEntry != nil {
		w.onEntry(stats.Entries, "")
	}

	return stats, nil
}

// inspectSymlink resolves the link target without following it for recursion
func (w *Walker) inspectSymlink(path string) models.SymlinkRecord {
	link := models.SymlinkRecord{Path: path}
	if reader, ok := w.fs.(afero.LinkReader); ok {
		if target, err := reader.ReadlinkIfPossible(path); err == nil {
			link.Target = target
		}
	}
	if _, err := w.fs.Stat(path); err != nil {
		link.Dangling = true
	}
	return link
}

// walkError maps context errors to ErrCancelled
func (w *Walker) walkError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", models.ErrCancelled, err)
	}
	return err
}

// shouldExclude checks if a directory should be excluded
func (w *Walker) shouldExclude(name string) bool {
	return w.exclude[name]
}

