package wiki

import "time"

// SubmitResult reports the outcome of a create, edit or revert
// submission.
type SubmitResult struct {
	Slug           string `json:"slug"`
	RevisionID     int64  `json:"revisionId"`
	RevisionNumber int    `json:"revisionNumber"`
	Status         Status `json:"status"`
}

// ModerationResult reports the outcome of a moderation action.
type ModerationResult struct {
	RevisionID     int64  `json:"revisionId"`
	RevisionNumber int    `json:"revisionNumber"`
	Status         Status `json:"status"`
	ArticleSlug    string `json:"articleSlug,omitempty"`
}

// HistoryEntry is one row of an article's history listing, filtered by
// the access policy. Deltas are counted against the previous revision the
// same viewer can see, never the unfiltered chain.
type HistoryEntry struct {
	RevisionID     int64     `json:"revisionId"`
	RevisionNumber int       `json:"revisionNumber"`
	Status         Status    `json:"status"`
	AuthorName     string    `json:"authorName"`
	Summary        string    `json:"summary"`
	ContentHash    string    `json:"contentHash"`
	Created        time.Time `json:"createdAt"`
	DeltaAdded     int       `json:"deltaAdded"`
	DeltaRemoved   int       `json:"deltaRemoved"`
}

// FieldChange is one metadata difference between two revisions' resolved
// article fields in a compare view.
type FieldChange struct {
	Field string `json:"field"`
	Old   string `json:"old"`
	New   string `json:"new"`
}

// Comparison is the full compare view between two visible revisions.
// Changed rows carry their intraline split alongside.
type Comparison struct {
	Slug              string            `json:"slug"`
	OldRevisionNumber int               `json:"oldRevisionNumber"`
	NewRevisionNumber int               `json:"newRevisionNumber"`
	Rows              []DiffRow         `json:"rows"`
	Intraline         map[int]LineSplit `json:"intraline,omitempty"`
	FieldChanges      []FieldChange     `json:"fieldChanges,omitempty"`
}

// PendingRevision is a pending revision enriched with its parent
// article's slug and title for the moderation worklist.
type PendingRevision struct {
	Revision     *Revision `json:"revision"`
	ArticleSlug  string    `json:"articleSlug"`
	ArticleTitle string    `json:"articleTitle"`
}

// ReportEntry is an open report enriched with a human label and, when the
// target type is resolvable, a navigable link.
type ReportEntry struct {
	Report *Report `json:"report"`
	Label  string  `json:"label"`
	Link   string  `json:"link,omitempty"`
}

// ModerationQueue is the staff review worklist: pending revisions and
// open reports, both oldest-first.
type ModerationQueue struct {
	PendingRevisions []*PendingRevision `json:"pendingRevisions"`
	OpenReports      []*ReportEntry     `json:"openReports"`
}

// ArticleView is the canonical read view of an article: the published
// fields plus the body rendered to sanitized HTML.
type ArticleView struct {
	Article               *Article `json:"article"`
	RenderedHTML          string   `json:"renderedHtml"`
	CurrentRevisionNumber int      `json:"currentRevisionNumber"`
}

// BlameView is the per-line attribution for one revision.
type BlameView struct {
	Slug           string      `json:"slug"`
	RevisionNumber int         `json:"revisionNumber"`
	Lines          []BlameLine `json:"lines"`
}
