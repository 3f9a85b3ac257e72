package wiki

import "strings"

// BlameLine attributes one line of a revision to the revision that last
// changed it.
type BlameLine struct {
	LineNumber           int    `json:"lineNumber"`
	Line                 string `json:"line"`
	SourceRevisionNumber int    `json:"sourceRevisionNumber"`
	SourceAuthorName     string `json:"sourceAuthorName"`
}

// BuildBlame reconstructs per-line authorship for the last revision in
// chain. The chain must be every revision the viewer may see, ascending by
// revision number, up to and including the target; callers filter it
// through CanView first so a line is never credited to an invisible
// revision.
//
// For each line the scan walks backward comparing the same line index
// across adjacent revisions; the most recent revision at which the line
// differs from its predecessor is credited. If the line never changes all
// the way back, the earliest revision in the window is credited. When
// history is windowed this floor misattributes lines older than the window
// to the oldest retained revision rather than the true origin; acceptable
// for bounded history, but not safe under archival truncation.
//
// Complexity is O(lines x revisions), fine for windows up to
// HistoryWindowSize.
func BuildBlame(chain []*Revision) []BlameLine {
	if len(chain) == 0 {
		return nil
	}

	target := chain[len(chain)-1]
	lines := strings.Split(target.Content, "\n")
	split := make([][]string, len(chain))
	for i, rev := range chain {
		split[i] = strings.Split(rev.Content, "\n")
	}

	blame := make([]BlameLine, 0, len(lines))
	for i, line := range lines {
		source := chain[0]
		for j := len(chain) - 1; j >= 1; j-- {
			if lineChangedAt(split, j, i) {
				source = chain[j]
				break
			}
		}
		blame = append(blame, BlameLine{
			LineNumber:           i + 1,
			Line:                 line,
			SourceRevisionNumber: source.RevisionNumber,
			SourceAuthorName:     source.AuthorName,
		})
	}
	return blame
}

// lineChangedAt reports whether line index i differs between revision j
// and revision j-1. A line that does not exist in the older revision
// counts as changed.
func lineChangedAt(split [][]string, j, i int) bool {
	cur := split[j]
	prev := split[j-1]
	if i >= len(cur) {
		return i < len(prev)
	}
	if i >= len(prev) {
		return true
	}
	return cur[i] != prev[i]
}
