// Package storage implements the wiki repository interfaces over sqlite.
// Methods are split across files by concern:
//   - article_repo.go: canonical article rows
//   - revision_repo.go: revision chains and moderation status
//   - report_repo.go: user reports
//   - profile_repo.go: identity profiles
package storage

import (
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

// PreparedStatements holds the prepared SQL statements used for the hot
// lookup paths. Exported to allow reuse in test utilities.
type PreparedStatements struct {
	SelectArticleBySlugStmt     *sqlx.Stmt
	SelectArticleByIDStmt       *sqlx.Stmt
	SelectRevisionStmt          *sqlx.Stmt
	SelectRevisionByNumberStmt  *sqlx.Stmt
	SelectLatestRevisionNumStmt *sqlx.Stmt
	SelectProfileStmt           *sqlx.Stmt
}

const articleColumns = `id, slug, title, category, summary, content, content_format, tags, related_articles, last_updated`

const revisionColumns = `id, article_id, revision_number, content, content_format, content_hash, summary,
	proposed_title, proposed_category, proposed_summary, proposed_tags, proposed_related,
	author_id, author_name, status, created`

const profileColumns = `actor_id, username, COALESCE(email, '') AS email, password_hash, trust_score, role`

// InitializeStatements prepares the hot-path statements. Exported to
// allow reuse in test utilities.
func InitializeStatements(conn *sqlx.DB) (*PreparedStatements, error) {
	stmts := &PreparedStatements{}
	var err error

	stmts.SelectArticleBySlugStmt, err = conn.Preparex(
		`SELECT ` + articleColumns + ` FROM Article WHERE slug = ?`)
	if err != nil {
		return nil, errors.Wrap(err, "prepare select article by slug")
	}

	stmts.SelectArticleByIDStmt, err = conn.Preparex(
		`SELECT ` + articleColumns + ` FROM Article WHERE id = ?`)
	if err != nil {
		return nil, errors.Wrap(err, "prepare select article by id")
	}

	stmts.SelectRevisionStmt, err = conn.Preparex(
		`SELECT ` + revisionColumns + ` FROM Revision WHERE id = ?`)
	if err != nil {
		return nil, errors.Wrap(err, "prepare select revision")
	}

	stmts.SelectRevisionByNumberStmt, err = conn.Preparex(
		`SELECT ` + revisionColumns + ` FROM Revision WHERE article_id = ? AND revision_number = ?`)
	if err != nil {
		return nil, errors.Wrap(err, "prepare select revision by number")
	}

	stmts.SelectLatestRevisionNumStmt, err = conn.Preparex(
		`SELECT COALESCE(MAX(revision_number), 0) FROM Revision WHERE article_id = ?`)
	if err != nil {
		return nil, errors.Wrap(err, "prepare select latest revision number")
	}

	stmts.SelectProfileStmt, err = conn.Preparex(
		`SELECT ` + profileColumns + ` FROM Profile WHERE actor_id = ?`)
	if err != nil {
		return nil, errors.Wrap(err, "prepare select profile")
	}

	return stmts, nil
}

// sqliteDb implements repository.Store.
type sqliteDb struct {
	*PreparedStatements
	conn *sqlx.DB
}

// Init initializes the storage layer over an existing connection. The
// connection should already have migrations applied via RunMigrations.
func Init(db *sqlx.DB) (*sqliteDb, error) {
	stmts, err := InitializeStatements(db)
	if err != nil {
		return nil, err
	}
	return &sqliteDb{PreparedStatements: stmts, conn: db}, nil
}

// Open opens (or creates) the database file and applies migrations.
func Open(path string) (*sqlx.DB, error) {
	conn, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}
	// sqlite allows one writer; serialize access at the pool level so
	// concurrent writes queue instead of failing with SQLITE_BUSY.
	conn.SetMaxOpenConns(1)
	if err := RunMigrations(conn); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

// isUniqueViolation reports whether err is a sqlite UNIQUE constraint
// failure on the named constraint target (e.g. "Article.slug").
func isUniqueViolation(err error, target string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") && strings.Contains(msg, target)
}
