package wiki

import "testing"

func rev(number int, author, content string) *Revision {
	return &Revision{
		RevisionNumber: number,
		AuthorName:     author,
		Content:        content,
		Status:         StatusActive,
	}
}

func TestBuildBlame(t *testing.T) {
	t.Run("credits most recent change per line", func(t *testing.T) {
		chain := []*Revision{
			rev(1, "alice", "A\nB\nC"),
			rev(2, "bob", "A\nX\nC"),
			rev(3, "carol", "A\nX\nY"),
		}

		blame := BuildBlame(chain)
		if len(blame) != 3 {
			t.Fatalf("expected 3 lines, got %d", len(blame))
		}

		expect := []struct {
			number int
			author string
		}{
			{1, "alice"}, // A untouched since r1
			{2, "bob"},   // B -> X at r2
			{3, "carol"}, // C -> Y at r3
		}
		for i, want := range expect {
			if blame[i].SourceRevisionNumber != want.number {
				t.Errorf("line %d: expected r%d, got r%d", i+1, want.number, blame[i].SourceRevisionNumber)
			}
			if blame[i].SourceAuthorName != want.author {
				t.Errorf("line %d: expected author %s, got %s", i+1, want.author, blame[i].SourceAuthorName)
			}
		}
	})

	t.Run("line appended later is credited to the appender", func(t *testing.T) {
		chain := []*Revision{
			rev(1, "alice", "A"),
			rev(2, "bob", "A\nB"),
		}
		blame := BuildBlame(chain)
		if blame[1].SourceRevisionNumber != 2 {
			t.Errorf("expected appended line credited to r2, got r%d", blame[1].SourceRevisionNumber)
		}
	})

	t.Run("unchanged lines fall back to earliest revision in window", func(t *testing.T) {
		// Window starts at r5: lines older than the window are credited
		// to the oldest retained revision.
		chain := []*Revision{
			rev(5, "dave", "A\nB"),
			rev(6, "erin", "A\nZ"),
		}
		blame := BuildBlame(chain)
		if blame[0].SourceRevisionNumber != 5 {
			t.Errorf("expected fallback to r5, got r%d", blame[0].SourceRevisionNumber)
		}
		if blame[1].SourceRevisionNumber != 6 {
			t.Errorf("expected r6, got r%d", blame[1].SourceRevisionNumber)
		}
	})

	t.Run("single revision credits itself", func(t *testing.T) {
		blame := BuildBlame([]*Revision{rev(1, "alice", "only\nlines")})
		for _, line := range blame {
			if line.SourceRevisionNumber != 1 || line.SourceAuthorName != "alice" {
				t.Errorf("expected all lines credited to r1/alice, got %+v", line)
			}
		}
	})

	t.Run("empty chain", func(t *testing.T) {
		if got := BuildBlame(nil); got != nil {
			t.Errorf("expected nil, got %v", got)
		}
	})
}
