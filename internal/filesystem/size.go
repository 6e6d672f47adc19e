package filesystem

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseSize parses size string (e.g., "650K", "1M", "10MB") to bytes.
// Units are binary. Fractional, negative and unparsable sizes are rejected;
// an empty string is zero.
func ParseSize(sizeStr string) (int64, error) {
	s := strings.TrimSpace(sizeStr)
	if s == "" {
		return 0, nil
	}

	var multiplier int64 = 1
	lower := strings.ToLower(s)
	for _, unit := range sizeUnits {
		if strings.HasSuffix(lower, unit.suffix) {
			multiplier = unit.multiplier
			s = s[:len(s)-len(unit.suffix)]
			break
		}
	}

	// Parse number
	size, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q", sizeStr)
	}
	if size < 0 {
		return 0, fmt.Errorf("invalid size %q: must not be negative", sizeStr)
	}
	if size > math.MaxInt64/multiplier {
		return 0, fmt.Errorf("invalid size %q: too large", sizeStr)
	}

	return size * multiplier, nil
}

// sizeUnits are matched in order, so two-letter suffixes come first
var sizeUnits = []struct {
	suffix     string
	multiplier int64
}{
	{"kb", 1024},
	{"mb", 1024 * 1024},
	{"gb", 1024 * 1024 * 1024},
	{"k", 1024},
	{"m", 1024 * 1024},
	{"g", 1024 * 1024 * 1024},
	{"b", 1},
}

// FormatSize renders a byte count with binary units, e.g. "1.50 MB"
func FormatSize(size int64) string {
	if size <= 0 {
		return "0 B"
	}

	units := []string{"B", "KB", "MB", "GB", "TB"}
	if size < 1024 {
		return fmt.Sprintf("%d B", size)
	}

	i := 0
	div := int64(1)
	for i < len(units)-1 && size >= div*1024 {
		div *= 1024
		i++
	}

	value := float64(size) / float64(div)
	return fmt.Sprintf("%.2f %s", value, units[i])
}
