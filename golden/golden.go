// Package golden compares run results with reference records and writes them.
package golden

import (
	"bytes"
	"strings"
)

// Record sentinels.
const (
	Empty     = "[EMPTY]"
	Multiline = "[MULTILINE]"
)

// Kind describes encoding of a record.
type Kind int

// Record kinds.
const (
	SingleLine Kind = iota
	EmptyBody
	MultiLineBody
)

// Encode converts a result body into a single-line golden record.
func Encode(body string) (string, Kind) {
	if body == "" {
		return Empty, EmptyBody
	}

	lines := strings.Split(body, "\n")
	if len(lines) == 1 {
		return body, SingleLine
	}

	return Multiline + strings.Join(lines, `\n`), MultiLineBody
}

// Summary counts special records that were written.
type Summary struct {
	Records   int
	Empty     int
	Multiline int
}

// HasEmpty reports whether any empty body was encoded.
func (s Summary) HasEmpty() bool {
	return s.Empty > 0
}

// HasMultiline reports whether any multi-line body was encoded.
func (s Summary) HasMultiline() bool {
	return s.Multiline > 0
}

// Marshal serializes results one record per line.
func Marshal(results []string) ([]byte, Summary) {
	var (
		buf bytes.Buffer
		s   Summary
	)

	for _, r := range results {
		rec, kind := Encode(r)

		switch kind {
		case EmptyBody:
			s.Empty++
		case MultiLineBody:
			s.Multiline++
		case SingleLine:
		}

		s.Records++

		buf.WriteString(rec)
		buf.WriteByte('\n')
	}

	return buf.Bytes(), s
}

// Comparison is an outcome of golden check.
type Comparison struct {
	Goldens    int
	Results    int
	Compared   int
	Mismatches int

	// Lines has first 1-based line numbers of mismatches.
	Lines []int
}

// LengthMismatch is true when goldens and results have different counts.
func (c Comparison) LengthMismatch() bool {
	return c.Goldens != c.Results
}

// Passed is true when compared records match.
func (c Comparison) Passed() bool {
	return c.Mismatches == 0
}

// Compare checks results against goldens on the overlapping prefix.
//
// Both sides are trimmed, results are compared in their encoded form, so
// files produced by Marshal match the results they were made of.
// Plain trimmed equality differs only for empty results: an empty result matches
// an "[EMPTY]" golden line and does not match a whitespace-only one.
func Compare(goldens, results []string, maxErrors int) Comparison {
	c := Comparison{
		Goldens:  len(goldens),
		Results:  len(results),
		Compared: min(len(goldens), len(results)),
	}

	for i := 0; i < c.Compared; i++ {
		rec, _ := Encode(strings.TrimSpace(results[i]))

		if strings.TrimSpace(goldens[i]) == rec {
			continue
		}

		c.Mismatches++

		if len(c.Lines) < maxErrors {
			c.Lines = append(c.Lines, i+1)
		}
	}

	return c
}
