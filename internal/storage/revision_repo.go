package storage

import (
	"database/sql"
	"time"

	"github.com/emberwiki/emberwiki/wiki"
	"github.com/emberwiki/emberwiki/wiki/repository"
	"github.com/pkg/errors"
)

// revisionRow is the scan target for revision queries. Proposed list
// fields are nullable JSON text; NULL means the submission carried no
// change for that field.
type revisionRow struct {
	ID             int64          `db:"id"`
	ArticleID      int64          `db:"article_id"`
	RevisionNumber int            `db:"revision_number"`
	Content        string         `db:"content"`
	ContentFormat  string         `db:"content_format"`
	ContentHash    string         `db:"content_hash"`
	Summary        string         `db:"summary"`
	ProposedTitle  sql.NullString `db:"proposed_title"`
	ProposedCat    sql.NullString `db:"proposed_category"`
	ProposedSum    sql.NullString `db:"proposed_summary"`
	ProposedTags   sql.NullString `db:"proposed_tags"`
	ProposedRel    sql.NullString `db:"proposed_related"`
	AuthorID       string         `db:"author_id"`
	AuthorName     string         `db:"author_name"`
	Status         string         `db:"status"`
	Created        time.Time      `db:"created"`
}

func (r *revisionRow) toRevision() (*wiki.Revision, error) {
	rev := &wiki.Revision{
		ID:             r.ID,
		ArticleID:      r.ArticleID,
		RevisionNumber: r.RevisionNumber,
		Content:        r.Content,
		ContentFormat:  wiki.ContentFormat(r.ContentFormat),
		ContentHash:    r.ContentHash,
		Summary:        r.Summary,
		AuthorID:       r.AuthorID,
		AuthorName:     r.AuthorName,
		Status:         wiki.Status(r.Status),
		Created:        r.Created,
	}
	if r.ProposedTitle.Valid {
		rev.ProposedTitle = &r.ProposedTitle.String
	}
	if r.ProposedCat.Valid {
		cat := wiki.Category(r.ProposedCat.String)
		rev.ProposedCategory = &cat
	}
	if r.ProposedSum.Valid {
		rev.ProposedSummary = &r.ProposedSum.String
	}
	if r.ProposedTags.Valid {
		tags, err := decodeStringList(r.ProposedTags.String)
		if err != nil {
			return nil, errors.Wrap(err, "decode proposed tags")
		}
		if tags == nil {
			tags = []string{}
		}
		rev.ProposedTags = tags
	}
	if r.ProposedRel.Valid {
		related, err := decodeStringList(r.ProposedRel.String)
		if err != nil {
			return nil, errors.Wrap(err, "decode proposed related")
		}
		if related == nil {
			related = []string{}
		}
		rev.ProposedRelated = related
	}
	return rev, nil
}

// nullString wraps a *string for binding; nil maps to NULL.
func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

// nullList JSON-encodes a proposed list for binding; nil maps to NULL,
// an empty non-nil list to "[]" (an explicit clear).
func nullList(list []string) (any, error) {
	if list == nil {
		return nil, nil
	}
	raw, err := encodeStringList(list)
	if err != nil {
		return nil, err
	}
	return raw, nil
}

func (db *sqliteDb) InsertRevision(rev *wiki.Revision) error {
	var proposedCategory any
	if rev.ProposedCategory != nil {
		proposedCategory = string(*rev.ProposedCategory)
	}
	proposedTags, err := nullList(rev.ProposedTags)
	if err != nil {
		return errors.Wrap(err, "encode proposed tags")
	}
	proposedRelated, err := nullList(rev.ProposedRelated)
	if err != nil {
		return errors.Wrap(err, "encode proposed related")
	}

	result, err := db.conn.Exec(`
		INSERT INTO Revision (article_id, revision_number, content, content_format, content_hash, summary,
			proposed_title, proposed_category, proposed_summary, proposed_tags, proposed_related,
			author_id, author_name, status, created)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rev.ArticleID,
		rev.RevisionNumber,
		rev.Content,
		string(rev.ContentFormat),
		rev.ContentHash,
		rev.Summary,
		nullString(rev.ProposedTitle),
		proposedCategory,
		nullString(rev.ProposedSummary),
		proposedTags,
		proposedRelated,
		rev.AuthorID,
		rev.AuthorName,
		string(rev.Status),
		rev.Created,
	)
	if err != nil {
		if isUniqueViolation(err, "Revision.article_id") {
			return wiki.ErrRevisionExists
		}
		return errors.Wrap(err, "insert revision")
	}

	rev.ID, err = result.LastInsertId()
	return errors.Wrap(err, "revision insert id")
}

func (db *sqliteDb) SelectRevision(id int64) (*wiki.Revision, error) {
	row := &revisionRow{}
	err := db.SelectRevisionStmt.Get(row, id)
	if err == sql.ErrNoRows {
		return nil, wiki.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.toRevision()
}

func (db *sqliteDb) SelectRevisionByNumber(articleID int64, number int) (*wiki.Revision, error) {
	row := &revisionRow{}
	err := db.SelectRevisionByNumberStmt.Get(row, articleID, number)
	if err == sql.ErrNoRows {
		return nil, wiki.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.toRevision()
}

func (db *sqliteDb) SelectLatestRevisionNumber(articleID int64) (int, error) {
	var latest int
	err := db.SelectLatestRevisionNumStmt.Get(&latest, articleID)
	if err != nil {
		return 0, errors.Wrap(err, "select latest revision number")
	}
	return latest, nil
}

func (db *sqliteDb) SelectRevisions(articleID int64, opts repository.RevisionListOptions) ([]*wiki.Revision, error) {
	query := `SELECT ` + revisionColumns + ` FROM Revision WHERE article_id = ?`
	args := []any{articleID}

	if len(opts.StatusFilter) > 0 {
		query += ` AND status IN (?` + repeatPlaceholder(len(opts.StatusFilter)-1) + `)`
		for _, s := range opts.StatusFilter {
			args = append(args, string(s))
		}
	}
	if opts.MaxRevisionNumber > 0 {
		query += ` AND revision_number <= ?`
		args = append(args, opts.MaxRevisionNumber)
	}
	if opts.Descending {
		query += ` ORDER BY revision_number DESC`
	} else {
		query += ` ORDER BY revision_number ASC`
	}
	if opts.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, opts.Limit)
	}

	rows := []*revisionRow{}
	if err := db.conn.Select(&rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "select revisions")
	}

	revisions := make([]*wiki.Revision, 0, len(rows))
	for _, row := range rows {
		rev, err := row.toRevision()
		if err != nil {
			return nil, err
		}
		revisions = append(revisions, rev)
	}
	return revisions, nil
}

func (db *sqliteDb) UpdateRevisionStatus(id int64, status wiki.Status) error {
	result, err := db.conn.Exec(`UPDATE Revision SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return errors.Wrap(err, "update revision status")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "update revision status rows affected")
	}
	if affected == 0 {
		return wiki.ErrNotFound
	}
	return nil
}

// pendingRow joins a pending revision with its article's display fields.
type pendingRow struct {
	revisionRow
	ArticleSlug  string `db:"article_slug"`
	ArticleTitle string `db:"article_title"`
}

func (db *sqliteDb) SelectPendingRevisions() ([]*wiki.PendingRevision, error) {
	rows := []*pendingRow{}
	err := db.conn.Select(&rows, `
		SELECT r.id, r.article_id, r.revision_number, r.content, r.content_format, r.content_hash, r.summary,
			r.proposed_title, r.proposed_category, r.proposed_summary, r.proposed_tags, r.proposed_related,
			r.author_id, r.author_name, r.status, r.created,
			a.slug AS article_slug, a.title AS article_title
		FROM Revision r
		JOIN Article a ON a.id = r.article_id
		WHERE r.status = ?
		ORDER BY r.created ASC, r.id ASC`,
		string(wiki.StatusPending),
	)
	if err != nil {
		return nil, errors.Wrap(err, "select pending revisions")
	}

	pending := make([]*wiki.PendingRevision, 0, len(rows))
	for _, row := range rows {
		rev, err := row.toRevision()
		if err != nil {
			return nil, err
		}
		pending = append(pending, &wiki.PendingRevision{
			Revision:     rev,
			ArticleSlug:  row.ArticleSlug,
			ArticleTitle: row.ArticleTitle,
		})
	}
	return pending, nil
}

// repeatPlaceholder returns n copies of ", ?" for IN clauses.
func repeatPlaceholder(n int) string {
	out := ""
	for i := 0; i < n; i++ {
		out += ", ?"
	}
	return out
}
