package report

import (
	"fmt"
	"strings"

	"github.com/IvanShishkin/dupehound/internal/filesystem"
	"github.com/IvanShishkin/dupehound/pkg/models"
)

// renderText renders a plain text report
func renderText(result *models.DetectionResult) string {
	var sb strings.Builder

	// Header
	sb.WriteString("=" + strings.Repeat("=", 78) + "\n")
	sb.WriteString("  DUPEHOUND DUPLICATE FILE REPORT\n")
	sb.WriteString("=" + strings.Repeat("=", 78) + "\n\n")

	// Summary
	sb.WriteString("SUMMARY\n")
	sb.WriteString(strings.Repeat("-", 79) + "\n")
	sb.WriteString(fmt.Sprintf("Scan Path:        %s\n", result.Root))
	sb.WriteString(fmt.Sprintf("Algorithm:        %s\n", result.Algorithm))
	sb.WriteString(fmt.Sprintf("Priority Policy:  %s\n", result.Policy))
	sb.WriteString(fmt.Sprintf("Minimum Size:     %s\n", filesystem.FormatSize(result.MinSize)))
	sb.WriteString(fmt.Sprintf("Duration:         %s\n", FormatDuration(result.Stats.Duration)))
	sb.WriteString(fmt.Sprintf("Files Seen:       %d\n", result.Stats.EntriesSeen))
	sb.WriteString(fmt.Sprintf("Files Hashed:     %d\n", result.Stats.FilesHashed))
	sb.WriteString(fmt.Sprintf("Unreadable:       %d\n", result.Stats.Unreadable))
	sb.WriteString(fmt.Sprintf("Hash Timeouts:    %d\n", result.Stats.HashTimeouts))
	sb.WriteString(fmt.Sprintf("DUPLICATE GROUPS: %d\n", result.TotalGroups))
	sb.WriteString(fmt.Sprintf("RECLAIMABLE:      %s\n", filesystem.FormatSize(result.TotalWastedBytes)))
	sb.WriteString("\n")

	if result.TotalGroups == 0 {
		sb.WriteString("No duplicate files found.\n")
		return sb.String()
	}

	sb.WriteString("DUPLICATE GROUPS\n")
	sb.WriteString(strings.Repeat("-", 79) + "\n\n")

	for _, g := range result.Groups {
		sb.WriteString(fmt.Sprintf("[Group %d] %d files, %s each, %s reclaimable\n",
			g.ID, g.Count(), filesystem.FormatSize(g.Size), filesystem.FormatSize(g.WastedBytes)))
		sb.WriteString(fmt.Sprintf("  Hash: %s\n", g.Hash))
		sb.WriteString(fmt.Sprintf("  KEEP  %s  (%s)\n", g.Priority.Path, g.Priority.ModifiedText))
		for _, f := range g.Duplicates {
			sb.WriteString(fmt.Sprintf("  DUP   %s  (%s)\n", f.Path, f.ModifiedText))
		}
		sb.WriteString("\n")
	}

	if len(result.Stats.UnreadablePaths) > 0 {
		sb.WriteString("UNREADABLE FILES\n")
		sb.WriteString(strings.Repeat("-", 79) + "\n")
		for _, p := range result.Stats.UnreadablePaths {
			sb.WriteString(fmt.Sprintf("  %s\n", p))
		}
		sb.WriteString("\n")
	}

	// Footer
	sb.WriteString("=" + strings.Repeat("=", 78) + "\n")
	sb.WriteString("  End of Report\n")
	sb.WriteString("=" + strings.Repeat("=", 78) + "\n")

	return sb.String()
}
