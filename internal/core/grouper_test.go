package core

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/IvanShishkin/dupehound/internal/filesystem"
	"github.com/IvanShishkin/dupehound/internal/priority"
	"github.com/IvanShishkin/dupehound/pkg/models"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// fakeHash returns the content registered for a path as its digest
func fakeHash(contents map[string]string) hashFunc {
	return func(ctx context.Context, path string) (string, int64, error) {
		content, ok := contents[path]
		if !ok {
			return "", 0, fmt.Errorf("%w: %s", models.ErrUnreadable, path)
		}
		return "h-" + content, int64(len(content)), nil
	}
}

func newTestGrouper(t *testing.T, fn hashFunc, timeout time.Duration) *Grouper {
	t.Helper()
	logger, _ := zap.NewDevelopment()
	hasher, err := filesystem.NewHasher(afero.NewMemMapFs(), "sha256", 0)
	if err != nil {
		t.Fatalf("NewHasher() error = %v", err)
	}
	g := NewGrouper(hasher, &priority.NewestPolicy{}, 3, timeout, logger)
	g.hash = fn
	return g
}

func rec(path string, size, mtime int64) *models.FileRecord {
	return &models.FileRecord{Path: path, Size: size, ModifiedAt: mtime}
}

func TestGrouper_SameBytesSameGroup(t *testing.T) {
	contents := map[string]string{
		"/a": "xx", "/b": "xx", "/c": "yy", "/d": "yy", "/e": "zz",
	}
	records := []*models.FileRecord{
		rec("/a", 2, 1), rec("/b", 2, 2), rec("/c", 2, 3), rec("/d", 2, 4), rec("/e", 2, 5),
	}
	g := newTestGrouper(t, fakeHash(contents), 0)

	var stats models.ScanStats
	result, err := g.Group(context.Background(), records, &stats)
	if err != nil {
		t.Fatalf("Group() error = %v", err)
	}

	if result.TotalGroups != 2 {
		t.Fatalf("Group() groups = %d, want 2", result.TotalGroups)
	}
	for _, group := range result.Groups {
		for _, f := range group.Members() {
			if "h-"+contents[f.Path] != group.Hash {
				t.Errorf("file %s with content %q in group %s", f.Path, contents[f.Path], group.Hash)
			}
		}
		if group.WastedBytes != group.Size*int64(group.Count()-1) {
			t.Errorf("group %d wasted = %d, want %d", group.ID, group.WastedBytes, group.Size*int64(group.Count()-1))
		}
	}
	if stats.FilesHashed != 5 {
		t.Errorf("files hashed = %d, want 5", stats.FilesHashed)
	}
}

func TestGrouper_UniqueSizeNotHashed(t *testing.T) {
	hashed := make(map[string]bool)
	fn := func(ctx context.Context, path string) (string, int64, error) {
		hashed[path] = true
		return "same", 1, nil
	}
	records := []*models.FileRecord{rec("/a", 10, 1), rec("/b", 10, 2), rec("/lonely", 99, 3)}

	g := newTestGrouper(t, fn, 0)
	g.workers = 1

	var stats models.ScanStats
	if _, err := g.Group(context.Background(), records, &stats); err != nil {
		t.Fatalf("Group() error = %v", err)
	}
	if hashed["/lonely"] {
		t.Error("file with a unique size was hashed")
	}
	if len(hashed) != 2 {
		t.Errorf("hashed %d files, want 2", len(hashed))
	}
}

func TestGrouper_DeterministicOrder(t *testing.T) {
	contents := map[string]string{
		"/s1": "small", "/s2": "small",
		"/b1": "big-b", "/b2": "big-b", "/b3": "big-a", "/b4": "big-a",
	}
	records := []*models.FileRecord{
		rec("/s1", 5, 1), rec("/s2", 5, 2),
		rec("/b1", 50, 1), rec("/b2", 50, 2), rec("/b3", 50, 3), rec("/b4", 50, 4),
	}

	g := newTestGrouper(t, fakeHash(contents), 0)
	var stats models.ScanStats
	result, err := g.Group(context.Background(), records, &stats)
	if err != nil {
		t.Fatalf("Group() error = %v", err)
	}

	expected := []struct {
		id       int
		hash     string
		priority string
	}{
		{1, "h-big-a", "/b4"},
		{2, "h-big-b", "/b2"},
		{3, "h-small", "/s2"},
	}
	if len(result.Groups) != len(expected) {
		t.Fatalf("Group() groups = %d, want %d", len(result.Groups), len(expected))
	}
	for i, want := range expected {
		got := result.Groups[i]
		if got.ID != want.id || got.Hash != want.hash || got.Priority.Path != want.priority {
			t.Errorf("group[%d] = {%d %s %s}, want {%d %s %s}",
				i, got.ID, got.Hash, got.Priority.Path, want.id, want.hash, want.priority)
		}
	}
}

func TestGrouper_HashTimeoutSkipsFile(t *testing.T) {
	fn := func(ctx context.Context, path string) (string, int64, error) {
		if path == "/stuck" {
			<-ctx.Done()
			return "", 0, fmt.Errorf("%w: %s", models.ErrHashTimeout, path)
		}
		return "same", 4, nil
	}
	records := []*models.FileRecord{rec("/a", 4, 1), rec("/b", 4, 2), rec("/stuck", 4, 3)}

	g := newTestGrouper(t, fn, 50*time.Millisecond)
	var stats models.ScanStats
	result, err := g.Group(context.Background(), records, &stats)
	if err != nil {
		t.Fatalf("Group() error = %v", err)
	}

	if stats.HashTimeouts != 1 {
		t.Errorf("hash timeouts = %d, want 1", stats.HashTimeouts)
	}
	if result.TotalGroups != 1 || result.Groups[0].Count() != 2 {
		t.Fatalf("Group() = %d groups, want one group of 2", result.TotalGroups)
	}
	for _, f := range result.Groups[0].Members() {
		if f.Path == "/stuck" {
			t.Error("timed out file must not be grouped")
		}
	}
}

func TestGrouper_UnreadableSkipsFile(t *testing.T) {
	contents := map[string]string{"/a": "data", "/b": "data"}
	records := []*models.FileRecord{rec("/a", 4, 1), rec("/b", 4, 2), rec("/gone", 4, 3)}

	g := newTestGrouper(t, fakeHash(contents), 0)
	var stats models.ScanStats
	result, err := g.Group(context.Background(), records, &stats)
	if err != nil {
		t.Fatalf("Group() error = %v", err)
	}

	if stats.Unreadable != 1 || len(stats.UnreadablePaths) != 1 || stats.UnreadablePaths[0] != "/gone" {
		t.Errorf("unreadable = %d %v, want 1 [/gone]", stats.Unreadable, stats.UnreadablePaths)
	}
	if result.TotalGroups != 1 {
		t.Errorf("Group() groups = %d, want 1", result.TotalGroups)
	}
}

func TestGrouper_SymlinksNeverHashed(t *testing.T) {
	fn := func(ctx context.Context, path string) (string, int64, error) {
		if path == "/link" {
			t.Error("symlink was hashed")
		}
		return "same", 4, nil
	}
	link := rec("/link", 4, 9)
	link.IsSymlink = true
	records := []*models.FileRecord{rec("/a", 4, 1), rec("/b", 4, 2), link}

	g := newTestGrouper(t, fn, 0)
	var stats models.ScanStats
	result, err := g.Group(context.Background(), records, &stats)
	if err != nil {
		t.Fatalf("Group() error = %v", err)
	}
	if result.TotalGroups != 1 || result.Groups[0].Count() != 2 {
		t.Errorf("Group() = %d groups, want one group of 2", result.TotalGroups)
	}
}

func TestGrouper_Cancelled(t *testing.T) {
	contents := map[string]string{"/a": "data", "/b": "data"}
	records := []*models.FileRecord{rec("/a", 4, 1), rec("/b", 4, 2)}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	g := newTestGrouper(t, fakeHash(contents), 0)
	var stats models.ScanStats
	result, err := g.Group(ctx, records, &stats)
	if !errors.Is(err, models.ErrCancelled) {
		t.Errorf("Group() error = %v, want ErrCancelled", err)
	}
	if result != nil {
		t.Error("cancelled Group() must not return a result")
	}
}

func TestGrouper_IDsAreContentDerived(t *testing.T) {
	contents := map[string]string{"/a": "data", "/b": "data"}
	records := []*models.FileRecord{rec("/a", 4, 1), rec("/b", 4, 2)}

	g := newTestGrouper(t, fakeHash(contents), 0)
	var stats models.ScanStats
	result, err := g.Group(context.Background(), records, &stats)
	if err != nil {
		t.Fatalf("Group() error = %v", err)
	}

	for _, f := range result.Groups[0].Members() {
		if f.ID != models.NewFileID(f.Hash, f.Path) {
			t.Errorf("file %s id = %s, want %s", f.Path, f.ID, models.NewFileID(f.Hash, f.Path))
		}
	}
}
