package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/IvanShishkin/dupehound/internal/config"
	"github.com/IvanShishkin/dupehound/pkg/models"
	"go.uber.org/zap"
)

// Formats lists the accepted --report values
var Formats = []string{"text", "txt", "json", "md", "markdown", "html"}

// FormatDuration formats duration to a human-readable string with max 2 decimal places
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		// Milliseconds
		return fmt.Sprintf("%.2fms", float64(d.Nanoseconds())/1e6)
	} else if d < time.Minute {
		// Seconds
		return fmt.Sprintf("%.2fs", d.Seconds())
	} else if d < time.Hour {
		// Minutes and seconds
		mins := int(d.Minutes())
		secs := d.Seconds() - float64(mins*60)
		return fmt.Sprintf("%dm%.2fs", mins, secs)
	}
	// Hours, minutes and seconds
	hours := int(d.Hours())
	mins := int(d.Minutes()) - hours*60
	secs := d.Seconds() - float64(hours*3600) - float64(mins*60)
	return fmt.Sprintf("%dh%dm%.2fs", hours, mins, secs)
}

// Generator generates duplicate reports in various formats
type Generator struct {
	config *config.Config
	logger *zap.Logger
	out    io.Writer
}

// NewGenerator creates a new report generator
func NewGenerator(cfg *config.Config, logger *zap.Logger) *Generator {
	return &Generator{
		config: cfg,
		logger: logger,
		out:    os.Stdout,
	}
}

// SetOutput redirects console output
func (g *Generator) SetOutput(w io.Writer) {
	g.out = w
}

// DefaultFilename returns the report name used when no output file is given
func DefaultFilename(format string, now time.Time) (string, error) {
	timestamp := now.Format("20060102-150405")
	switch format {
	case "json":
		return fmt.Sprintf("DUPEHOUND-REPORT-%s.json", timestamp), nil
	case "txt", "text":
		return fmt.Sprintf("DUPEHOUND-REPORT-%s.txt", timestamp), nil
	case "md", "markdown":
		return fmt.Sprintf("DUPEHOUND-REPORT-%s.md", timestamp), nil
	case "html":
		return fmt.Sprintf("DUPEHOUND-REPORT-%s.html", timestamp), nil
	default:
		return "", fmt.Errorf("unknown report format: %s", format)
	}
}

// Generate writes a report for result. With no format configured the report
// is printed to the console and the returned path is empty.
func (g *Generator) Generate(result *models.DetectionResult) (string, error) {
	format := g.config.ReportFormat
	outputFile := g.config.OutputFile

	// If no format specified, print to console
	if format == "" {
		g.printConsole(result)
		return "", nil
	}

	// Generate default filename if not specified
	if outputFile == "" {
		name, err := DefaultFilename(format, time.Now())
		if err != nil {
			return "", err
		}
		outputFile = name
	}

	g.logger.Info("Generating report",
		zap.String("format", format),
		zap.String("output", outputFile))

	var content string
	switch format {
	case "json":
		data, err := renderJSON(result)
		if err != nil {
			return "", fmt.Errorf("failed to generate %s report: %w", format, err)
		}
		content = string(data)
	case "txt", "text":
		content = renderText(result)
	case "md", "markdown":
		content = renderMarkdown(result)
	case "html":
		content = renderHTML(result)
	default:
		return "", fmt.Errorf("unknown report format: %s", format)
	}

	if err := os.WriteFile(outputFile, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("failed to generate %s report: %w", format, err)
	}

	// Get absolute path
	absPath, _ := filepath.Abs(outputFile)
	return absPath, nil
}
