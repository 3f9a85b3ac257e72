// Package repository defines the persistence and collaborator interfaces
// the wiki services are written against. The concrete object store lives
// in internal/storage; tests substitute in-memory sqlite via testutil.
package repository

import (
	"time"

	"github.com/emberwiki/emberwiki/wiki"
)

// ArticleUpdate carries the full set of mutable article fields written
// when a revision becomes active.
type ArticleUpdate struct {
	Slug            string
	Title           string
	Category        wiki.Category
	Summary         string
	Content         string
	ContentFormat   wiki.ContentFormat
	Tags            []string
	RelatedArticles []string
	LastUpdated     time.Time
}

// RevisionListOptions narrows a revision listing. A nil StatusFilter
// means all statuses; MaxRevisionNumber of zero means no upper bound.
type RevisionListOptions struct {
	StatusFilter      []wiki.Status
	MaxRevisionNumber int
	Limit             int
	Descending        bool
}

// ArticleRepository persists canonical article rows. Implementations must
// enforce slug uniqueness and surface violations as wiki.ErrSlugTaken.
type ArticleRepository interface {
	// SelectArticleBySlug retrieves an article by its slug.
	SelectArticleBySlug(slug string) (*wiki.Article, error)

	// SelectArticleByID retrieves an article by its surrogate key.
	SelectArticleByID(id int64) (*wiki.Article, error)

	// InsertArticle creates a new article row, setting its ID.
	InsertArticle(article *wiki.Article) error

	// UpdateArticle overwrites the mutable fields of an article.
	UpdateArticle(id int64, fields ArticleUpdate) error
}

// RevisionRepository persists revision rows. Implementations must enforce
// (article_id, revision_number) uniqueness and surface violations as
// wiki.ErrRevisionExists, so a lost optimistic-concurrency race degrades
// to a detectable error instead of silent corruption.
type RevisionRepository interface {
	// InsertRevision creates a revision row, setting its ID.
	InsertRevision(rev *wiki.Revision) error

	// SelectRevision retrieves a revision by its surrogate key.
	SelectRevision(id int64) (*wiki.Revision, error)

	// SelectRevisionByNumber retrieves one revision of an article.
	SelectRevisionByNumber(articleID int64, number int) (*wiki.Revision, error)

	// SelectLatestRevisionNumber returns the highest revision number for
	// an article, zero if it has none.
	SelectLatestRevisionNumber(articleID int64) (int, error)

	// SelectRevisions lists an article's revisions ascending by revision
	// number unless opts.Descending is set.
	SelectRevisions(articleID int64, opts RevisionListOptions) ([]*wiki.Revision, error)

	// UpdateRevisionStatus sets the status of a revision.
	UpdateRevisionStatus(id int64, status wiki.Status) error

	// SelectPendingRevisions lists all pending revisions oldest-first,
	// each joined with its article's slug and title.
	SelectPendingRevisions() ([]*wiki.PendingRevision, error)
}

// ReportRepository persists report rows. Reports are never deleted.
type ReportRepository interface {
	// InsertReport creates a report row, setting its ID.
	InsertReport(report *wiki.Report) error

	// SelectReport retrieves a report by id.
	SelectReport(id int64) (*wiki.Report, error)

	// SelectOpenReports lists open reports oldest-first.
	SelectOpenReports() ([]*wiki.Report, error)

	// ResolveReport transitions a report out of open, recording who
	// resolved it and when, and appending an optional detail note.
	ResolveReport(id int64, status wiki.ReportStatus, resolvedBy string, resolvedAt time.Time, detail string) error
}

// ProfileRepository persists identity profiles for the built-in identity
// provider. A hosted deployment swaps the whole IdentityProvider instead.
type ProfileRepository interface {
	SelectProfile(actorID string) (*wiki.Profile, error)
	SelectProfileByEmail(email string) (*wiki.Profile, error)
	SelectProfileByUsername(username string) (*wiki.Profile, error)
	InsertProfile(profile *wiki.Profile) error
	UpdateProfileRole(actorID string, role string) error
	UpdateProfileTrust(actorID string, trustScore int) error
}

// Store aggregates every persistence interface the object store provides.
type Store interface {
	ArticleRepository
	RevisionRepository
	ReportRepository
	ProfileRepository
}
