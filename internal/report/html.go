package report

import (
	"fmt"
	"html"
	"strings"

	"github.com/IvanShishkin/dupehound/internal/filesystem"
	"github.com/IvanShishkin/dupehound/pkg/models"
)

// renderHTML renders a standalone HTML report
func renderHTML(result *models.DetectionResult) string {
	var sb strings.Builder

	sb.WriteString(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Dupehound Duplicate File Report</title>
    <style>
        :root {
            --bg-primary: #0C0C0C;
            --bg-card: #1A1A1A;
            --text-primary: #F5F5F5;
            --text-muted: #9A9A9A;
            --accent: #D97757;
            --keep: #6BBF59;
            --border: #2A2A2A;
        }
        body { background: var(--bg-primary); color: var(--text-primary); font-family: Inter, sans-serif; margin: 0; padding: 32px; }
        h1 { color: var(--accent); }
        .summary { display: grid; grid-template-columns: repeat(auto-fill, minmax(180px, 1fr)); gap: 12px; margin-bottom: 32px; }
        .stat { background: var(--bg-card); border: 1px solid var(--border); border-radius: 8px; padding: 12px 16px; }
        .stat .label { color: var(--text-muted); font-size: 12px; text-transform: uppercase; }
        .stat .value { font-size: 20px; font-weight: 600; }
        .group { background: var(--bg-card); border: 1px solid var(--border); border-radius: 8px; margin-bottom: 16px; padding: 16px; }
        .group h2 { font-size: 16px; margin: 0 0 8px 0; }
        .hash { color: var(--text-muted); font-family: "JetBrains Mono", monospace; font-size: 12px; }
        table { width: 100%; border-collapse: collapse; margin-top: 8px; }
        td { border-top: 1px solid var(--border); padding: 6px 4px; font-family: "JetBrains Mono", monospace; font-size: 13px; }
        td.keep { color: var(--keep); font-weight: 600; }
        td.dup { color: var(--accent); }
    </style>
</head>
<body>
`)

	sb.WriteString("<h1>Dupehound Duplicate File Report</h1>\n")
	sb.WriteString(`<div class="summary">` + "\n")
	writeStat(&sb, "Scan Path", result.Root)
	writeStat(&sb, "Algorithm", result.Algorithm)
	writeStat(&sb, "Policy", result.Policy)
	writeStat(&sb, "Duration", FormatDuration(result.Stats.Duration))
	writeStat(&sb, "Files Hashed", fmt.Sprintf("%d", result.Stats.FilesHashed))
	writeStat(&sb, "Unreadable", fmt.Sprintf("%d", result.Stats.Unreadable))
	writeStat(&sb, "Duplicate Groups", fmt.Sprintf("%d", result.TotalGroups))
	writeStat(&sb, "Reclaimable", filesystem.FormatSize(result.TotalWastedBytes))
	sb.WriteString("</div>\n")

	if result.TotalGroups == 0 {
		sb.WriteString("<p>No duplicate files found.</p>\n")
	}

	for _, g := range result.Groups {
		sb.WriteString(`<div class="group">` + "\n")
		sb.WriteString(fmt.Sprintf("<h2>Group %d &middot; %d files &middot; %s reclaimable</h2>\n",
			g.ID, g.Count(), filesystem.FormatSize(g.WastedBytes)))
		sb.WriteString(fmt.Sprintf(`<div class="hash">%s &middot; %s per file</div>`+"\n",
			html.EscapeString(g.Hash), filesystem.FormatSize(g.Size)))
		sb.WriteString("<table>\n")
		sb.WriteString(fmt.Sprintf(`<tr><td class="keep">keep</td><td>%s</td><td>%s</td></tr>`+"\n",
			html.EscapeString(g.Priority.Path), html.EscapeString(g.Priority.ModifiedText)))
		for _, f := range g.Duplicates {
			sb.WriteString(fmt.Sprintf(`<tr><td class="dup">duplicate</td><td>%s</td><td>%s</td></tr>`+"\n",
				html.EscapeString(f.Path), html.EscapeString(f.ModifiedText)))
		}
		sb.WriteString("</table>\n</div>\n")
	}

	sb.WriteString("</body>\n</html>\n")
	return sb.String()
}

func writeStat(sb *strings.Builder, label, value string) {
	sb.WriteString(fmt.Sprintf(`<div class="stat"><div class="label">%s</div><div class="value">%s</div></div>`+"\n",
		html.EscapeString(label), html.EscapeString(value)))
}
