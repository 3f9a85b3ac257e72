package wiki

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Category is the fixed set of article categories.
type Category string

const (
	CategoryGuide     Category = "guide"
	CategoryHowTo     Category = "howto"
	CategoryReference Category = "reference"
	CategoryGlossary  Category = "glossary"
	CategoryNews      Category = "news"
	CategoryMisc      Category = "misc"
)

// Categories lists every valid category, in display order.
var Categories = []Category{
	CategoryGuide,
	CategoryHowTo,
	CategoryReference,
	CategoryGlossary,
	CategoryNews,
	CategoryMisc,
}

// Valid reports whether c is a member of the fixed category set.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// ContentFormat is the source format of an article body.
type ContentFormat string

const (
	FormatMarkdown ContentFormat = "markdown"
	FormatHTML     ContentFormat = "html"
)

// Valid reports whether f is a known content format.
func (f ContentFormat) Valid() bool {
	return f == FormatMarkdown || f == FormatHTML
}

// Article is the canonical, currently-published document. Its mutable
// fields always equal the content and metadata of its latest active
// revision; it is only ever mutated as a side effect of a revision
// becoming active.
type Article struct {
	ID              int64         `db:"id"`
	Slug            string        `db:"slug"`
	Title           string        `db:"title"`
	Category        Category      `db:"category"`
	Summary         string        `db:"summary"`
	Content         string        `db:"content"`
	ContentFormat   ContentFormat `db:"content_format"`
	Tags            []string
	RelatedArticles []string
	LastUpdated     time.Time `db:"last_updated"`
}

func (a *Article) String() string {
	return fmt.Sprintf("%s (%s)", a.Slug, a.Category)
}

// Draft is a full set of submitted article fields, as supplied on create
// and edit. Every field of a draft is "proposed": the active path applies
// all of them, the pending path stores them on the revision for a later
// approve to resolve.
type Draft struct {
	Title           string
	Category        Category
	Summary         string
	Content         string
	ContentFormat   ContentFormat
	Tags            []string
	RelatedArticles []string
}

// Submission field limits. Text limits count characters, not bytes.
const (
	MaxTitleLen       = 120
	MaxSummaryLen     = 300
	MaxContentLen     = 40000
	MaxTags           = 20
	MaxRelated        = 30
	HistoryWindowSize = 400
)

// Validate checks every field of the draft, returning a ValidationError on
// the first violation. Runs before any write so a rejected draft has no
// partial effects. Tags and related article lists are trimmed and
// deduplicated in place, preserving insertion order.
func (d *Draft) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return NewValidationError("title", "must not be empty")
	}
	if utf8.RuneCountInString(d.Title) > MaxTitleLen {
		return NewValidationError("title", fmt.Sprintf("must be at most %d characters", MaxTitleLen))
	}
	if !d.Category.Valid() {
		return NewValidationError("category", fmt.Sprintf("unknown category %q", d.Category))
	}
	if strings.TrimSpace(d.Summary) == "" {
		return NewValidationError("summary", "must not be empty")
	}
	if utf8.RuneCountInString(d.Summary) > MaxSummaryLen {
		return NewValidationError("summary", fmt.Sprintf("must be at most %d characters", MaxSummaryLen))
	}
	if strings.TrimSpace(d.Content) == "" {
		return NewValidationError("content", "must not be empty")
	}
	if utf8.RuneCountInString(d.Content) > MaxContentLen {
		return NewValidationError("content", fmt.Sprintf("must be at most %d characters", MaxContentLen))
	}
	if !d.ContentFormat.Valid() {
		return NewValidationError("content_format", fmt.Sprintf("unknown format %q", d.ContentFormat))
	}

	d.Tags = dedupeStrings(d.Tags)
	if len(d.Tags) > MaxTags {
		return NewValidationError("tags", fmt.Sprintf("at most %d tags allowed", MaxTags))
	}
	d.RelatedArticles = dedupeStrings(d.RelatedArticles)
	if len(d.RelatedArticles) > MaxRelated {
		return NewValidationError("related_articles", fmt.Sprintf("at most %d related articles allowed", MaxRelated))
	}

	if Slugify(d.Title) == "" {
		return NewValidationError("title", "no usable slug can be derived from this title")
	}
	return nil
}

// dedupeStrings trims each entry and drops empties and duplicates, keeping
// first-seen order.
func dedupeStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
