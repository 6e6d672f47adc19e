package report

import (
	"encoding/json"

	"github.com/IvanShishkin/dupehound/pkg/models"
)

// JSONReport wraps a detection result with report metadata
type JSONReport struct {
	*models.DetectionResult
	FileCount int    `json:"total_files"`
	Duration  string `json:"duration_human"`
}

// renderJSON renders the result as indented JSON
func renderJSON(result *models.DetectionResult) ([]byte, error) {
	report := &JSONReport{
		DetectionResult: result,
		FileCount:       result.TotalFiles(),
		Duration:        FormatDuration(result.Stats.Duration),
	}

	return json.MarshalIndent(report, "", "  ")
}
