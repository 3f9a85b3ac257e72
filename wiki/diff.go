package wiki

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// DiffType classifies a single row of a line diff.
type DiffType string

const (
	DiffSame    DiffType = "same"
	DiffAdded   DiffType = "added"
	DiffRemoved DiffType = "removed"
	DiffChanged DiffType = "changed"
)

// DiffRow is one output row of BuildLineDiff. Line numbers are 1-based;
// zero means the side is absent.
type DiffRow struct {
	Type      DiffType `json:"type"`
	OldNumber int      `json:"oldNumber,omitempty"`
	NewNumber int      `json:"newNumber,omitempty"`
	OldLine   string   `json:"oldLine,omitempty"`
	NewLine   string   `json:"newLine,omitempty"`
}

// BuildLineDiff compares two texts line by line, positionally. Both texts
// are split on "\n" with no further normalization; index i of the old text
// is compared with index i of the new text and classified as same, added
// (old side absent), removed (new side absent) or changed.
//
// This is an O(n) positional diff, not a minimal-edit-distance diff: an
// insertion or deletion in the middle of a document shifts every following
// line and they all show as changed pairs. That trade-off is intentional;
// blame and compare rendering assume positional alignment, so do not swap
// this for a Myers-style diff.
func BuildLineDiff(oldText, newText string) []DiffRow {
	oldLines := strings.Split(oldText, "\n")
	newLines := strings.Split(newText, "\n")

	n := len(oldLines)
	if len(newLines) > n {
		n = len(newLines)
	}

	rows := make([]DiffRow, 0, n)
	for i := 0; i < n; i++ {
		switch {
		case i >= len(oldLines):
			rows = append(rows, DiffRow{
				Type:      DiffAdded,
				NewNumber: i + 1,
				NewLine:   newLines[i],
			})
		case i >= len(newLines):
			rows = append(rows, DiffRow{
				Type:      DiffRemoved,
				OldNumber: i + 1,
				OldLine:   oldLines[i],
			})
		case oldLines[i] == newLines[i]:
			rows = append(rows, DiffRow{
				Type:      DiffSame,
				OldNumber: i + 1,
				NewNumber: i + 1,
				OldLine:   oldLines[i],
				NewLine:   newLines[i],
			})
		default:
			rows = append(rows, DiffRow{
				Type:      DiffChanged,
				OldNumber: i + 1,
				NewNumber: i + 1,
				OldLine:   oldLines[i],
				NewLine:   newLines[i],
			})
		}
	}
	return rows
}

// LineSplit is the three-way split of a changed line pair: the shared
// prefix and suffix plus the differing interior of each side.
type LineSplit struct {
	Prefix     string `json:"prefix"`
	OldChanged string `json:"oldChanged"`
	NewChanged string `json:"newChanged"`
	Suffix     string `json:"suffix"`
}

// SplitChangedLine finds the longest common prefix and suffix of a changed
// line pair so a renderer can highlight only the interior differing span.
// The suffix scan stops at the prefix boundary so the two never overlap.
// Fully disjoint lines yield empty prefix and suffix with the whole lines
// as changed spans.
func SplitChangedLine(oldLine, newLine string) LineSplit {
	dmp := diffmatchpatch.New()

	prefixLen := dmp.DiffCommonPrefix(oldLine, newLine)
	oldRunes := []rune(oldLine)
	newRunes := []rune(newLine)

	suffixLen := dmp.DiffCommonSuffix(string(oldRunes[prefixLen:]), string(newRunes[prefixLen:]))

	return LineSplit{
		Prefix:     string(oldRunes[:prefixLen]),
		OldChanged: string(oldRunes[prefixLen : len(oldRunes)-suffixLen]),
		NewChanged: string(newRunes[prefixLen : len(newRunes)-suffixLen]),
		Suffix:     string(oldRunes[len(oldRunes)-suffixLen:]),
	}
}

// DiffCounts tallies added and removed lines across diff rows. A changed
// row counts as one added and one removed.
func DiffCounts(rows []DiffRow) (added, removed int) {
	for _, row := range rows {
		switch row.Type {
		case DiffAdded:
			added++
		case DiffRemoved:
			removed++
		case DiffChanged:
			added++
			removed++
		}
	}
	return added, removed
}
