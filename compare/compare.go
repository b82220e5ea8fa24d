// Package compare computes similarity ratios and line-level diffs between
// two text documents.
package compare

import (
	"math"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Difference is one mismatched line position between the two documents.
// LineNumber is 1-based; a line missing on either side appears as "".
type Difference struct {
	LineNumber int    `json:"line_number"`
	Text1      string `json:"text1"`
	Text2      string `json:"text2"`
}

// Result is the outcome of comparing two documents.
type Result struct {
	SimilarityPercentage float64      `json:"similarity_percentage"`
	Differences          []Difference `json:"differences"`
}

// Compare computes a sequence-alignment similarity ratio between the raw
// strings, scaled to 0.00–100.00, plus the per-line differences. Identical
// inputs yield exactly 100.00 and no differences.
func Compare(text1, text2 string) Result {
	return Result{
		SimilarityPercentage: similarity(text1, text2),
		Differences:          lineDiffs(text1, text2),
	}
}

// similarity is 2*M/T over the character alignment (M matched runes, T total
// runes in both inputs), the classic sequence-matcher ratio, rounded to two
// decimals.
func similarity(text1, text2 string) float64 {
	if text1 == text2 {
		return 100.0
	}
	if len(text1) == 0 || len(text2) == 0 {
		return 0.0
	}

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(text1, text2, false)

	matched := 0
	for _, d := range diffs {
		if d.Type == diffmatchpatch.DiffEqual {
			matched += len([]rune(d.Text))
		}
	}
	total := len([]rune(text1)) + len([]rune(text2))

	ratio := 2.0 * float64(matched) / float64(total)
	return math.Round(ratio*10000) / 100
}

// lineDiffs walks line positions 0..max(len1,len2)-1 and reports every index
// where the two sides differ, treating a missing line as the empty string.
func lineDiffs(text1, text2 string) []Difference {
	lines1 := splitLines(text1)
	lines2 := splitLines(text2)

	n := len(lines1)
	if len(lines2) > n {
		n = len(lines2)
	}

	var diffs []Difference
	for i := 0; i < n; i++ {
		var a, b string
		if i < len(lines1) {
			a = lines1[i]
		}
		if i < len(lines2) {
			b = lines2[i]
		}
		if a != b {
			diffs = append(diffs, Difference{
				LineNumber: i + 1,
				Text1:      a,
				Text2:      b,
			})
		}
	}
	return diffs
}

func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.Split(text, "\n")
}
