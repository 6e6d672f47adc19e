package priority

import (
	"path/filepath"
	"regexp"
	"strings"
)

// Ratio returns the Ratcliff/Obershelp similarity of a and b in [0, 1]:
// twice the number of matching characters divided by the total length.
func Ratio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 1
	}
	return 2 * float64(matching(ra, rb)) / float64(total)
}

// matching counts characters in common blocks, recursing around the longest block
func matching(a, b []rune) int {
	i, j, size := longestBlock(a, b)
	if size == 0 {
		return 0
	}
	return size + matching(a[:i], b[:j]) + matching(a[i+size:], b[j+size:])
}

// longestBlock finds the longest common substring, earliest in a on ties
func longestBlock(a, b []rune) (int, int, int) {
	bestI, bestJ, bestSize := 0, 0, 0
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				cur[j] = prev[j-1] + 1
				if cur[j] > bestSize {
					bestSize = cur[j]
					bestI = i - cur[j]
					bestJ = j - cur[j]
				}
			} else {
				cur[j] = 0
			}
		}
		prev, cur = cur, prev
	}
	return bestI, bestJ, bestSize
}

var (
	copyPrefix = regexp.MustCompile(`^copy of\s+`)
	copySuffix = regexp.MustCompile(`(?:\s*\(\d+\)|\s*[-_ ]\s*copy(?:\s*\d+)?|~\d*)$`)
)

// Stem returns the lower-cased base name without extension
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.ToLower(strings.TrimSuffix(base, filepath.Ext(base)))
}

// NormalizeName strips copy markers such as "(1)", " - copy" and "copy of "
// from a stem so "report (1)" and "report" share a reference name.
func NormalizeName(stem string) string {
	name := copyPrefix.ReplaceAllString(strings.ToLower(strings.TrimSpace(stem)), "")
	for {
		trimmed := copySuffix.ReplaceAllString(name, "")
		if trimmed == name || trimmed == "" {
			return name
		}
		name = trimmed
	}
}
