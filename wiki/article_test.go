package wiki

import (
	"errors"
	"strings"
	"testing"
)

func validDraft() Draft {
	return Draft{
		Title:         "Naver Map",
		Category:      CategoryGuide,
		Summary:       "How to get around with Naver Map.",
		Content:       "A\nB\nC",
		ContentFormat: FormatMarkdown,
	}
}

func TestDraftValidate(t *testing.T) {
	t.Run("valid draft passes", func(t *testing.T) {
		d := validDraft()
		if err := d.Validate(); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	})

	t.Run("field violations", func(t *testing.T) {
		cases := []struct {
			name   string
			mutate func(*Draft)
			field  string
		}{
			{"empty title", func(d *Draft) { d.Title = "  " }, "title"},
			{"long title", func(d *Draft) { d.Title = strings.Repeat("x", MaxTitleLen+1) }, "title"},
			{"bad category", func(d *Draft) { d.Category = "opinion" }, "category"},
			{"empty summary", func(d *Draft) { d.Summary = "" }, "summary"},
			{"long summary", func(d *Draft) { d.Summary = strings.Repeat("s", MaxSummaryLen+1) }, "summary"},
			{"empty content", func(d *Draft) { d.Content = "\n " }, "content"},
			{"long content", func(d *Draft) { d.Content = strings.Repeat("c", MaxContentLen+1) }, "content"},
			{"bad format", func(d *Draft) { d.ContentFormat = "rtf" }, "content_format"},
			{"unsluggable title", func(d *Draft) { d.Title = "???" }, "title"},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				d := validDraft()
				tc.mutate(&d)
				err := d.Validate()
				if err == nil {
					t.Fatal("expected validation error")
				}
				if !errors.Is(err, ErrValidation) {
					t.Errorf("expected ErrValidation, got %v", err)
				}
				var verr *ValidationError
				if !errors.As(err, &verr) || verr.Field != tc.field {
					t.Errorf("expected field %q, got %+v", tc.field, err)
				}
			})
		}
	})

	t.Run("limits count characters, not bytes", func(t *testing.T) {
		// Each é is two bytes; 80 of them must still fit the 120
		// character title limit.
		d := validDraft()
		d.Title = strings.Repeat("é", 80)
		d.Summary = strings.Repeat("서", MaxSummaryLen)
		if err := d.Validate(); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		d = validDraft()
		d.Title = strings.Repeat("é", MaxTitleLen+1)
		var verr *ValidationError
		if err := d.Validate(); !errors.As(err, &verr) || verr.Field != "title" {
			t.Errorf("expected title validation error, got %v", err)
		}
	})

	t.Run("tags deduped preserving insertion order", func(t *testing.T) {
		d := validDraft()
		d.Tags = []string{" maps ", "transit", "maps", "", "transit"}
		if err := d.Validate(); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(d.Tags) != 2 || d.Tags[0] != "maps" || d.Tags[1] != "transit" {
			t.Errorf("expected [maps transit], got %v", d.Tags)
		}
	})

	t.Run("too many tags after dedupe", func(t *testing.T) {
		d := validDraft()
		for i := 0; i < MaxTags+1; i++ {
			d.Tags = append(d.Tags, strings.Repeat("t", i+1))
		}
		if err := d.Validate(); !errors.Is(err, ErrValidation) {
			t.Errorf("expected ErrValidation, got %v", err)
		}
	})

	t.Run("duplicate tags beyond limit are fine once deduped", func(t *testing.T) {
		d := validDraft()
		for i := 0; i < MaxTags*2; i++ {
			d.Tags = append(d.Tags, "same")
		}
		if err := d.Validate(); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(d.Tags) != 1 {
			t.Errorf("expected single tag, got %v", d.Tags)
		}
	})
}

func TestHashContent(t *testing.T) {
	a := HashContent("A\nB\nC")
	b := HashContent("A\nB\nC")
	c := HashContent("A\nX\nC")
	if a != b {
		t.Error("hash must be deterministic")
	}
	if a == c {
		t.Error("different content must hash differently")
	}
	if a == "" {
		t.Error("hash must be non-empty")
	}
}
