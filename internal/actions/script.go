package actions

import (
	"fmt"
	"strings"
	"time"

	"github.com/IvanShishkin/dupehound/internal/filesystem"
	"github.com/IvanShishkin/dupehound/internal/selection"
)

// scriptStep is one guarded command in an exported script
type scriptStep struct {
	label   string
	command string
	path    string
}

// ExportScript renders the selection as a POSIX shell script. Every step is
// guarded so a failure is counted and the script moves on. The output depends
// only on the selection, the mode and now.
func ExportScript(store *selection.Store, mode Mode, now time.Time) (string, error) {
	var steps []scriptStep
	var total int64

	switch mode {
	case ModeDelete:
		for _, f := range store.Selected() {
			steps = append(steps, scriptStep{
				label:   "Deleting " + f.Path,
				command: "rm -f -- " + shellQuote(f.Path),
				path:    f.Path,
			})
			total += f.Size
		}
	case ModeSymlink:
		selected := store.SelectedIDs()
		for _, g := range store.Result().Groups {
			for _, f := range g.Duplicates {
				if !selected[f.ID] {
					continue
				}
				// the kept file must still be a regular file before its duplicate goes
				keep := shellQuote(g.Priority.Path)
				command := fmt.Sprintf("[ -f %s ] && [ ! -L %s ] && rm -f -- %s && ln -s -- %s %s",
					keep, keep, shellQuote(f.Path), keep, shellQuote(f.Path))
				steps = append(steps, scriptStep{
					label:   "Linking " + f.Path + " -> " + g.Priority.Path,
					command: command,
					path:    f.Path,
				})
				total += f.Size
			}
		}
	default:
		return "", fmt.Errorf("invalid mode: %s (valid: delete, symlink)", mode)
	}

	var sb strings.Builder
	sb.WriteString("#!/bin/sh\n")
	fmt.Fprintf(&sb, "# dupehound %s script\n", mode)
	fmt.Fprintf(&sb, "# Generated: %s\n", now.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&sb, "# Mode: %s\n", mode)
	fmt.Fprintf(&sb, "# Files: %d\n", len(steps))
	fmt.Fprintf(&sb, "# Total size: %s\n", filesystem.FormatSize(total))
	sb.WriteString("#\n")
	sb.WriteString("# Review before running. A failed step does not stop the script.\n\n")
	sb.WriteString("ok=0\nfailed=0\n\n")

	for _, step := range steps {
		fmt.Fprintf(&sb, "echo %s\n", shellQuote(step.label))
		fmt.Fprintf(&sb, "if %s; then ok=$((ok+1)); else failed=$((failed+1)); echo %s >&2; fi\n",
			step.command, shellQuote("Failed: "+step.path))
	}

	sb.WriteString("\necho \"Done: $ok succeeded, $failed failed\"\n")
	return sb.String(), nil
}

// shellQuote wraps s in single quotes for /bin/sh
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
