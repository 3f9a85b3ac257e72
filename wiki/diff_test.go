package wiki

import "testing"

func TestBuildLineDiff(t *testing.T) {
	t.Run("identical texts yield only same rows", func(t *testing.T) {
		rows := BuildLineDiff("A\nB\nC", "A\nB\nC")
		if len(rows) != 3 {
			t.Fatalf("expected 3 rows, got %d", len(rows))
		}
		for i, row := range rows {
			if row.Type != DiffSame {
				t.Errorf("row %d: expected same, got %s", i, row.Type)
			}
			if row.OldNumber != i+1 || row.NewNumber != i+1 {
				t.Errorf("row %d: expected line numbers %d/%d, got %d/%d", i, i+1, i+1, row.OldNumber, row.NewNumber)
			}
		}
	})

	t.Run("middle line change", func(t *testing.T) {
		rows := BuildLineDiff("A\nB\nC", "A\nX\nC")
		want := []DiffType{DiffSame, DiffChanged, DiffSame}
		for i, row := range rows {
			if row.Type != want[i] {
				t.Errorf("row %d: expected %s, got %s", i, want[i], row.Type)
			}
		}
		if rows[1].OldLine != "B" || rows[1].NewLine != "X" {
			t.Errorf("expected changed pair B/X, got %q/%q", rows[1].OldLine, rows[1].NewLine)
		}
	})

	t.Run("trailing additions and removals", func(t *testing.T) {
		rows := BuildLineDiff("A", "A\nB\nC")
		if rows[1].Type != DiffAdded || rows[2].Type != DiffAdded {
			t.Errorf("expected added rows, got %s, %s", rows[1].Type, rows[2].Type)
		}
		if rows[1].OldNumber != 0 {
			t.Errorf("added row should have no old line number, got %d", rows[1].OldNumber)
		}

		rows = BuildLineDiff("A\nB\nC", "A")
		if rows[1].Type != DiffRemoved || rows[2].Type != DiffRemoved {
			t.Errorf("expected removed rows, got %s, %s", rows[1].Type, rows[2].Type)
		}
	})

	t.Run("positional alignment cascades on insertion", func(t *testing.T) {
		// An insertion in the middle shifts every later line into a
		// changed pair. That is the documented behavior, not a bug.
		rows := BuildLineDiff("A\nB", "A\nNEW\nB")
		want := []DiffType{DiffSame, DiffChanged, DiffAdded}
		for i, row := range rows {
			if row.Type != want[i] {
				t.Errorf("row %d: expected %s, got %s", i, want[i], row.Type)
			}
		}
	})

	t.Run("swapping inputs swaps added and removed", func(t *testing.T) {
		forward := BuildLineDiff("A\nB\nC", "A\nX")
		backward := BuildLineDiff("A\nX", "A\nB\nC")
		if len(forward) != len(backward) {
			t.Fatalf("row count mismatch: %d vs %d", len(forward), len(backward))
		}
		for i := range forward {
			f, b := forward[i], backward[i]
			switch f.Type {
			case DiffAdded:
				if b.Type != DiffRemoved {
					t.Errorf("row %d: expected removed, got %s", i, b.Type)
				}
			case DiffRemoved:
				if b.Type != DiffAdded {
					t.Errorf("row %d: expected added, got %s", i, b.Type)
				}
			case DiffChanged:
				if b.Type != DiffChanged || b.OldLine != f.NewLine || b.NewLine != f.OldLine {
					t.Errorf("row %d: changed pair not mirrored: %+v vs %+v", i, f, b)
				}
			default:
				if b.Type != f.Type {
					t.Errorf("row %d: expected %s, got %s", i, f.Type, b.Type)
				}
			}
		}
	})
}

func TestDiffCounts(t *testing.T) {
	rows := BuildLineDiff("A\nB\nC", "A\nX\nC\nD")
	added, removed := DiffCounts(rows)
	if added != 2 || removed != 1 {
		t.Errorf("expected 2 added / 1 removed, got %d/%d", added, removed)
	}
}

func TestSplitChangedLine(t *testing.T) {
	cases := []struct {
		name               string
		oldLine, newLine   string
		prefix, suffix     string
		oldSpan, newSpan   string
	}{
		{"interior change", "the quick fox", "the slow fox", "the ", " fox", "quick", "slow"},
		{"disjoint lines", "abc", "xyz", "", "", "abc", "xyz"},
		{"identical-prefix extension", "abc", "abcdef", "abc", "", "", "def"},
		{"suffix only", "xxend", "yyend", "", "end", "xx", "yy"},
		{"suffix stops at prefix boundary", "aa", "aaa", "aa", "", "", "a"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := SplitChangedLine(tc.oldLine, tc.newLine)
			if got.Prefix != tc.prefix {
				t.Errorf("prefix: expected %q, got %q", tc.prefix, got.Prefix)
			}
			if got.Suffix != tc.suffix {
				t.Errorf("suffix: expected %q, got %q", tc.suffix, got.Suffix)
			}
			if got.OldChanged != tc.oldSpan {
				t.Errorf("old span: expected %q, got %q", tc.oldSpan, got.OldChanged)
			}
			if got.NewChanged != tc.newSpan {
				t.Errorf("new span: expected %q, got %q", tc.newSpan, got.NewChanged)
			}
		})
	}
}
