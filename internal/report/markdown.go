package report

import (
	"fmt"
	"strings"

	"github.com/IvanShishkin/dupehound/internal/filesystem"
	"github.com/IvanShishkin/dupehound/pkg/models"
)

// renderMarkdown renders a Markdown report
func renderMarkdown(result *models.DetectionResult) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Dupehound Duplicate File Report\n\n")

	// Summary
	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Parameter | Value |\n")
	sb.WriteString("|-----------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Scan Path | `%s` |\n", result.Root))
	sb.WriteString(fmt.Sprintf("| Algorithm | %s |\n", result.Algorithm))
	sb.WriteString(fmt.Sprintf("| Priority Policy | %s |\n", result.Policy))
	sb.WriteString(fmt.Sprintf("| Duration | %s |\n", FormatDuration(result.Stats.Duration)))
	sb.WriteString(fmt.Sprintf("| Files Hashed | %d |\n", result.Stats.FilesHashed))
	sb.WriteString(fmt.Sprintf("| Unreadable | %d |\n", result.Stats.Unreadable))
	sb.WriteString(fmt.Sprintf("| **Duplicate Groups** | **%d** |\n", result.TotalGroups))
	sb.WriteString(fmt.Sprintf("| **Reclaimable** | **%s** |\n", filesystem.FormatSize(result.TotalWastedBytes)))
	sb.WriteString("\n")

	if result.TotalGroups == 0 {
		sb.WriteString("> ✅ **No duplicate files found**\n")
		return sb.String()
	}

	sb.WriteString("## Duplicate Groups\n\n")
	for _, g := range result.Groups {
		sb.WriteString(fmt.Sprintf("### Group %d: %d files, %s reclaimable\n\n",
			g.ID, g.Count(), filesystem.FormatSize(g.WastedBytes)))
		sb.WriteString(fmt.Sprintf("Hash `%s`, %s per file\n\n", g.Hash, filesystem.FormatSize(g.Size)))
		sb.WriteString("| Role | Path | Modified |\n")
		sb.WriteString("|------|------|----------|\n")
		sb.WriteString(fmt.Sprintf("| 🔒 keep | `%s` | %s |\n", escapeTable(g.Priority.Path), g.Priority.ModifiedText))
		for _, f := range g.Duplicates {
			sb.WriteString(fmt.Sprintf("| duplicate | `%s` | %s |\n", escapeTable(f.Path), f.ModifiedText))
		}
		sb.WriteString("\n")
	}

	if len(result.Stats.UnreadablePaths) > 0 {
		sb.WriteString("## Unreadable Files\n\n")
		for _, p := range result.Stats.UnreadablePaths {
			sb.WriteString(fmt.Sprintf("- `%s`\n", p))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// escapeTable keeps pipes in paths from breaking table rows
func escapeTable(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
