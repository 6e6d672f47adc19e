package actions

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/IvanShishkin/dupehound/internal/selection"
	"github.com/IvanShishkin/dupehound/pkg/models"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// newDiskGroup writes the files and returns a group with paths[0] as priority
func newDiskGroup(t *testing.T, id int, dir, content string, names ...string) *models.DuplicateGroup {
	t.Helper()
	g := &models.DuplicateGroup{ID: id, Hash: "hash-" + content, Size: int64(len(content))}
	for i, name := range names {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write %s: %v", path, err)
		}
		f := models.NewFileRecord(path, g.Size, time.Unix(int64(1000-i), 0), false)
		f.SetHash(g.Hash)
		if i == 0 {
			g.Priority = f
		} else {
			g.Duplicates = append(g.Duplicates, f)
		}
	}
	g.WastedBytes = g.Size * int64(len(g.Duplicates))
	return g
}

func newResult(groups ...*models.DuplicateGroup) *models.DetectionResult {
	r := &models.DetectionResult{Groups: groups}
	r.Recompute()
	return r
}

func newExecutor() *Executor {
	logger, _ := zap.NewDevelopment()
	return NewExecutor(afero.NewOsFs(), logger)
}

func requireSymlinks(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	if err := os.Symlink(filepath.Join(dir, "x"), filepath.Join(dir, "link")); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}
}

func TestExecutor_Delete(t *testing.T) {
	dir := t.TempDir()
	result := newResult(newDiskGroup(t, 1, dir, "same content", "keep.txt", "dup1.txt", "dup2.txt"))
	store := selection.Initialize(result)

	report, err := newExecutor().Delete(store)
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if report.Deleted != 2 || len(report.Errors) != 0 {
		t.Errorf("Delete() = %d deleted, %d errors, want 2 and 0", report.Deleted, len(report.Errors))
	}
	if report.FreedBytes != 2*int64(len("same content")) {
		t.Errorf("FreedBytes = %d, want %d", report.FreedBytes, 2*len("same content"))
	}
	for _, name := range []string{"dup1.txt", "dup2.txt"} {
		if _, err := os.Stat(filepath.Join(dir, name)); !os.IsNotExist(err) {
			t.Errorf("%s still exists", name)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "keep.txt")); err != nil {
		t.Errorf("priority file removed: %v", err)
	}
	if got := store.Summary().Selected; got != 0 {
		t.Errorf("Selected after delete = %d, want 0", got)
	}
}

func TestExecutor_DeleteAlreadyGone(t *testing.T) {
	dir := t.TempDir()
	group := newDiskGroup(t, 1, dir, "payload", "keep.bin", "gone.bin", "dup.bin")
	result := newResult(group)
	store := selection.Initialize(result)

	gone := group.Duplicates[0]
	if err := os.Remove(gone.Path); err != nil {
		t.Fatal(err)
	}

	report, err := newExecutor().Delete(store)
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if report.Deleted != 1 {
		t.Errorf("Deleted = %d, want 1", report.Deleted)
	}
	if len(report.Errors) != 1 {
		t.Fatalf("Errors = %d, want 1", len(report.Errors))
	}
	if report.Errors[0].Kind != models.ActionNotFound || report.Errors[0].Path != gone.Path {
		t.Errorf("error = %v, want not_found for %s", report.Errors[0], gone.Path)
	}
	if v, _ := store.Get(gone.ID); !v {
		t.Error("failed file must stay selected")
	}
}

func TestExecutor_DeleteRefusesDirectory(t *testing.T) {
	dir := t.TempDir()
	group := newDiskGroup(t, 1, dir, "payload", "keep.bin", "dup.bin")
	store := selection.Initialize(newResult(group))

	dup := group.Duplicates[0].Path
	if err := os.Remove(dup); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(dup, 0755); err != nil {
		t.Fatal(err)
	}

	report, err := newExecutor().Delete(store)
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if len(report.Errors) != 1 || report.Errors[0].Kind != models.ActionIsDirectory {
		t.Fatalf("Errors = %v, want one is_directory", report.Errors)
	}
	if info, err := os.Stat(dup); err != nil || !info.IsDir() {
		t.Error("directory must not be removed")
	}
}

func TestExecutor_SymlinkReplacesStaleLink(t *testing.T) {
	requireSymlinks(t)

	dir := t.TempDir()
	group := newDiskGroup(t, 1, dir, "payload", "keep.bin", "dup.bin")
	store := selection.Initialize(newResult(group))

	dup := group.Duplicates[0].Path
	if err := os.Remove(dup); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(filepath.Join(dir, "moved-away.bin"), dup); err != nil {
		t.Fatal(err)
	}

	report, err := newExecutor().Symlink(store)
	if err != nil {
		t.Fatalf("Symlink() error = %v", err)
	}
	if report.Created != 1 || len(report.Errors) != 0 {
		t.Fatalf("Symlink() = %d created, errors %v", report.Created, report.Errors)
	}

	target, err := os.Readlink(dup)
	if err != nil {
		t.Fatalf("Readlink() error = %v", err)
	}
	if target != group.Priority.Path {
		t.Errorf("Readlink() = %s, want %s", target, group.Priority.Path)
	}
	if v, _ := store.Get(group.Duplicates[0].ID); v {
		t.Error("linked file must be unselected")
	}
}

func TestExecutor_SymlinkReplacesRegularFile(t *testing.T) {
	requireSymlinks(t)

	dir := t.TempDir()
	group := newDiskGroup(t, 1, dir, "payload", "keep.bin", "dup.bin")
	store := selection.Initialize(newResult(group))

	report, err := newExecutor().Symlink(store)
	if err != nil {
		t.Fatalf("Symlink() error = %v", err)
	}
	if report.Created != 1 {
		t.Fatalf("Created = %d, want 1", report.Created)
	}

	data, err := os.ReadFile(group.Duplicates[0].Path)
	if err != nil || string(data) != "payload" {
		t.Errorf("reading through link = %q, %v", data, err)
	}
}

func TestExecutor_SymlinkMissingPriority(t *testing.T) {
	requireSymlinks(t)

	dir := t.TempDir()
	group := newDiskGroup(t, 1, dir, "payload", "keep.bin", "dup.bin")
	store := selection.Initialize(newResult(group))

	if err := os.Remove(group.Priority.Path); err != nil {
		t.Fatal(err)
	}

	report, err := newExecutor().Symlink(store)
	if err != nil {
		t.Fatalf("Symlink() error = %v", err)
	}
	if len(report.Errors) != 1 || report.Errors[0].Kind != models.ActionNotFound {
		t.Fatalf("Errors = %v, want one not_found", report.Errors)
	}
	if data, err := os.ReadFile(group.Duplicates[0].Path); err != nil || string(data) != "payload" {
		t.Error("duplicate must be untouched when its priority file is missing")
	}
}

func TestExecutor_SymlinkSkipsPriority(t *testing.T) {
	requireSymlinks(t)

	dir := t.TempDir()
	group := newDiskGroup(t, 1, dir, "payload", "keep.bin", "dup.bin")
	store := selection.Initialize(newResult(group))
	store.SetAll(true)

	report, err := newExecutor().Symlink(store)
	if err != nil {
		t.Fatalf("Symlink() error = %v", err)
	}
	if report.Attempted != 1 {
		t.Errorf("Attempted = %d, want 1", report.Attempted)
	}
	if info, err := os.Lstat(group.Priority.Path); err != nil || info.Mode()&os.ModeSymlink != 0 {
		t.Error("priority file must stay a regular file")
	}
}

func TestExecutor_SymlinkUnsupportedFs(t *testing.T) {
	fs := afero.NewMemMapFs()
	logger, _ := zap.NewDevelopment()
	group := &models.DuplicateGroup{ID: 1, Hash: "h", Size: 1}
	group.Priority = &models.FileRecord{Path: "/a", Size: 1}
	group.Priority.SetHash("h")
	dup := &models.FileRecord{Path: "/b", Size: 1}
	dup.SetHash("h")
	group.Duplicates = []*models.FileRecord{dup}
	group.WastedBytes = 1

	_, err := NewExecutor(fs, logger).Symlink(selection.Initialize(newResult(group)))
	if err == nil {
		t.Error("Symlink() on a filesystem without links should fail")
	}
}

func TestReport_ErrorLines(t *testing.T) {
	report := &Report{}
	for i := 0; i < 7; i++ {
		report.Errors = append(report.Errors, &models.ActionError{
			Kind: models.ActionNotFound,
			Path: filepath.Join("/x", string(rune('a'+i))),
			Err:  errors.New("gone"),
		})
	}

	tests := []struct {
		name  string
		limit int
		lines int
		last  string
	}{
		{"Default limit", 0, 6, "+2 more"},
		{"Explicit limit", 3, 4, "+4 more"},
		{"Limit above count", 10, 7, "not_found: /x/g: gone"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines := report.ErrorLines(tt.limit)
			if len(lines) != tt.lines {
				t.Fatalf("ErrorLines(%d) = %d lines, want %d", tt.limit, len(lines), tt.lines)
			}
			if lines[len(lines)-1] != tt.last {
				t.Errorf("last line = %q, want %q", lines[len(lines)-1], tt.last)
			}
		})
	}

	if lines := (&Report{}).ErrorLines(5); len(lines) != 0 {
		t.Errorf("ErrorLines() on empty report = %v", lines)
	}
}

func TestParseMode(t *testing.T) {
	for _, name := range []string{"delete", "symlink"} {
		if _, err := ParseMode(name); err != nil {
			t.Errorf("ParseMode(%s) error = %v", name, err)
		}
	}
	if _, err := ParseMode("move"); err == nil || !strings.Contains(err.Error(), "invalid mode") {
		t.Errorf("ParseMode(move) error = %v", err)
	}
}
