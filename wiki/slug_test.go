package wiki

import "testing"

func TestSlugify(t *testing.T) {
	cases := []struct {
		name  string
		title string
		want  string
	}{
		{"simple", "Naver Map", "naver-map"},
		{"punctuation stripped", "What's new, in 2024?", "whats-new-in-2024"},
		{"whitespace collapsed", "  too   many   spaces  ", "too-many-spaces"},
		{"accents folded", "Café Déjà Vu", "cafe-deja-vu"},
		{"hyphens kept and trimmed", "-pre-existing - hyphens-", "pre-existing-hyphens"},
		{"only symbols", "!!! ???", ""},
		{"non-latin only", "서울", ""},
		{"mixed script keeps latin", "Seoul 서울 Guide", "seoul-guide"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Slugify(tc.title); got != tc.want {
				t.Errorf("Slugify(%q) = %q, want %q", tc.title, got, tc.want)
			}
		})
	}
}
