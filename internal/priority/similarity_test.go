package priority

import (
	"math"
	"testing"
)

func TestRatio(t *testing.T) {
	tests := []struct {
		a, b     string
		expected float64
	}{
		{"", "", 1},
		{"abc", "abc", 1},
		{"abc", "xyz", 0},
		{"abcd", "bcde", 0.75},
		{"report", "report (1)", 0.75},
		{"photo", "photos", 2 * 5.0 / 11.0},
	}

	for _, tt := range tests {
		t.Run(tt.a+"|"+tt.b, func(t *testing.T) {
			got := Ratio(tt.a, tt.b)
			if math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("Ratio(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.expected)
			}
		})
	}
}

func TestStem(t *testing.T) {
	tests := []struct {
		path     string
		expected string
	}{
		{"/path/to/Report.PDF", "report"},
		{"/path/to/archive.tar.gz", "archive.tar"},
		{"/path/to/noext", "noext"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := Stem(tt.path); got != tt.expected {
				t.Errorf("Stem(%q) = %q, want %q", tt.path, got, tt.expected)
			}
		})
	}
}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"report", "report"},
		{"report (1)", "report"},
		{"report - copy", "report"},
		{"report_copy 2", "report"},
		{"report copy (3)", "report"},
		{"Copy of report", "report"},
		{"photo~1", "photo"},
		{"copy", "copy"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := NormalizeName(tt.input); got != tt.expected {
				t.Errorf("NormalizeName(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
