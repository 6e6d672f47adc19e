package actions

import "github.com/IvanShishkin/dupehound/internal/selection"

// PreviewSummary describes what a batch would touch, for confirmation prompts
type PreviewSummary struct {
	Count int
	Bytes int64
	Paths []string // first paths, at most the requested limit
	More  int      // selected paths not listed
}

// Preview lists up to limit selected paths with totals
func Preview(store *selection.Store, limit int) PreviewSummary {
	files := store.Selected()
	summary := PreviewSummary{Count: len(files)}
	for i, f := range files {
		summary.Bytes += f.Size
		if limit <= 0 || i < limit {
			summary.Paths = append(summary.Paths, f.Path)
		}
	}
	summary.More = summary.Count - len(summary.Paths)
	return summary
}
