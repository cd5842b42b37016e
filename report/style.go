package report

import (
	"math"
	"regexp"
	"strconv"

	"github.com/fatih/color"
)

// Styles used in terminal output, disabled automatically on non-terminal stdout.
var (
	Yellow  = color.New(color.Bold, color.FgYellow).SprintFunc()
	Blue    = color.New(color.Bold, color.FgBlue).SprintFunc()
	Green   = color.New(color.Bold, color.FgGreen).SprintFunc()
	Red     = color.New(color.Bold, color.FgRed).SprintFunc()
	Magenta = color.New(color.FgMagenta).SprintFunc()
	Cyan    = color.New(color.FgCyan).SprintFunc()
	Bold    = color.New(color.Bold).SprintFunc()
)

var ansi = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// StripANSI removes color escape sequences.
func StripANSI(s string) string {
	return ansi.ReplaceAllString(s, "")
}

// RoundSignificant formats v rounded to the given number of significant digits.
func RoundSignificant(v float64, digits int) string {
	if v == 0 || math.IsNaN(v) || math.IsInf(v, 0) || digits <= 0 {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}

	magnitude := int(math.Floor(math.Log10(math.Abs(v)))) + 1
	shift := math.Pow(10, float64(digits-magnitude))
	rounded := math.Round(v*shift) / shift

	decimals := digits - magnitude
	if decimals < 0 {
		decimals = 0
	}

	return strconv.FormatFloat(rounded, 'f', decimals, 64)
}
