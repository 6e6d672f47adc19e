package report

import (
	"fmt"
	"strings"

	"github.com/IvanShishkin/dupehound/internal/filesystem"
	"github.com/IvanShishkin/dupehound/pkg/models"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Width(18)
	keepStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	dupStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	groupStyle = lipgloss.NewStyle().Bold(true)
)

// printConsole writes a colored summary and group listing to the generator output
func (g *Generator) printConsole(result *models.DetectionResult) {
	fmt.Fprintln(g.out, renderConsole(result))
}

func renderConsole(result *models.DetectionResult) string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("Scan Results") + "\n")
	sb.WriteString(strings.Repeat("─", 60) + "\n")

	row := func(label, value string) {
		sb.WriteString(labelStyle.Render(label) + value + "\n")
	}
	row("Path:", result.Root)
	row("Algorithm:", result.Algorithm)
	row("Policy:", result.Policy)
	row("Files hashed:", fmt.Sprintf("%d", result.Stats.FilesHashed))
	row("Duration:", FormatDuration(result.Stats.Duration))
	row("Duplicate groups:", fmt.Sprintf("%d", result.TotalGroups))
	row("Reclaimable:", filesystem.FormatSize(result.TotalWastedBytes))
	if result.Stats.Unreadable > 0 {
		row("Unreadable:", warnStyle.Render(fmt.Sprintf("%d", result.Stats.Unreadable)))
	}
	if result.Stats.HashTimeouts > 0 {
		row("Hash timeouts:", warnStyle.Render(fmt.Sprintf("%d", result.Stats.HashTimeouts)))
	}

	if result.TotalGroups == 0 {
		sb.WriteString("\n" + keepStyle.Render("No duplicate files found") + "\n")
		return sb.String()
	}

	for _, grp := range result.Groups {
		sb.WriteString("\n")
		sb.WriteString(groupStyle.Render(fmt.Sprintf("Group %d", grp.ID)))
		sb.WriteString(fmt.Sprintf(" %d files, %s each, %s reclaimable\n",
			grp.Count(), filesystem.FormatSize(grp.Size), filesystem.FormatSize(grp.WastedBytes)))
		sb.WriteString("  " + keepStyle.Render("keep ") + " " + grp.Priority.Path + "\n")
		for _, f := range grp.Duplicates {
			sb.WriteString("  " + dupStyle.Render("dup  ") + " " + f.Path + "\n")
		}
	}

	return sb.String()
}
