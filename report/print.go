// Package report provides reporting utilities.
package report

import (
	"sort"
	"strconv"
	"strings"
	"unicode"
)

// PeekBody takes head of a response body for printing.
func PeekBody(body string, l int) string {
	tooLong := false
	if len(body) > l {
		tooLong = true
		body = body[0:l]
	}

	if !IsASCIIPrintable(body) {
		return "<non-printable-binary-data>"
	}

	if tooLong {
		return body + "..."
	}

	return body
}

// IsASCIIPrintable checks if s is ascii.
func IsASCIIPrintable(s string) bool {
	for _, r := range s {
		if r > unicode.MaxASCII {
			return false
		}
	}

	return true
}

// Bytes.
const (
	BYTE = 1 << (10 * iota)
	KILOBYTE
	MEGABYTE
	GIGABYTE
	TERABYTE
	PETABYTE
	EXABYTE
)

// ByteSize returns a human-readable byte string of the form 10MB, 12.5KB, and so forth.
func ByteSize(bytes int64) string {
	var (
		unit  string
		value = float64(bytes)
	)

	switch {
	case bytes >= EXABYTE:
		unit = "EB"
		value /= EXABYTE
	case bytes >= PETABYTE:
		unit = "PB"
		value /= PETABYTE
	case bytes >= TERABYTE:
		unit = "TB"
		value /= TERABYTE
	case bytes >= GIGABYTE:
		unit = "GB"
		value /= GIGABYTE
	case bytes >= MEGABYTE:
		unit = "MB"
		value /= MEGABYTE
	case bytes >= KILOBYTE:
		unit = "KB"
		value /= KILOBYTE
	default:
		unit = "B"
	}

	result := strconv.FormatFloat(value, 'f', 1, 64)
	result = strings.TrimSuffix(result, ".0")

	return result + unit
}

// Percent formats n of total as percentage with one decimal.
func Percent(n, total int) string {
	if total <= 0 {
		return "100.0%"
	}

	return strconv.FormatFloat(100*float64(n)/float64(total), 'f', 1, 64) + "%"
}

// StatusCounts formats request counts by status as "[200] 10" lines ordered by status.
func StatusCounts(counts map[string]int) string {
	statuses := make([]string, 0, len(counts))
	for s := range counts {
		statuses = append(statuses, s)
	}

	sort.Strings(statuses)

	lines := make([]string, 0, len(statuses))
	for _, s := range statuses {
		lines = append(lines, "["+s+"] "+strconv.Itoa(counts[s]))
	}

	return strings.Join(lines, "\n")
}
