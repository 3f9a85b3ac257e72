package storage

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/emberwiki/emberwiki/wiki"
	"github.com/emberwiki/emberwiki/wiki/repository"
	"github.com/pkg/errors"
)

// articleRow is the scan target for article queries; list-valued fields
// are stored as JSON text.
type articleRow struct {
	ID            int64     `db:"id"`
	Slug          string    `db:"slug"`
	Title         string    `db:"title"`
	Category      string    `db:"category"`
	Summary       string    `db:"summary"`
	Content       string    `db:"content"`
	ContentFormat string    `db:"content_format"`
	Tags          string    `db:"tags"`
	Related       string    `db:"related_articles"`
	LastUpdated   time.Time `db:"last_updated"`
}

func (r *articleRow) toArticle() (*wiki.Article, error) {
	tags, err := decodeStringList(r.Tags)
	if err != nil {
		return nil, errors.Wrap(err, "decode tags")
	}
	related, err := decodeStringList(r.Related)
	if err != nil {
		return nil, errors.Wrap(err, "decode related articles")
	}
	return &wiki.Article{
		ID:              r.ID,
		Slug:            r.Slug,
		Title:           r.Title,
		Category:        wiki.Category(r.Category),
		Summary:         r.Summary,
		Content:         r.Content,
		ContentFormat:   wiki.ContentFormat(r.ContentFormat),
		Tags:            tags,
		RelatedArticles: related,
		LastUpdated:     r.LastUpdated,
	}, nil
}

func (db *sqliteDb) SelectArticleBySlug(slug string) (*wiki.Article, error) {
	row := &articleRow{}
	err := db.SelectArticleBySlugStmt.Get(row, slug)
	if err == sql.ErrNoRows {
		return nil, wiki.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.toArticle()
}

func (db *sqliteDb) SelectArticleByID(id int64) (*wiki.Article, error) {
	row := &articleRow{}
	err := db.SelectArticleByIDStmt.Get(row, id)
	if err == sql.ErrNoRows {
		return nil, wiki.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.toArticle()
}

func (db *sqliteDb) InsertArticle(article *wiki.Article) error {
	tags, err := encodeStringList(article.Tags)
	if err != nil {
		return errors.Wrap(err, "encode tags")
	}
	related, err := encodeStringList(article.RelatedArticles)
	if err != nil {
		return errors.Wrap(err, "encode related articles")
	}

	result, err := db.conn.Exec(`
		INSERT INTO Article (slug, title, category, summary, content, content_format, tags, related_articles, last_updated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		article.Slug,
		article.Title,
		string(article.Category),
		article.Summary,
		article.Content,
		string(article.ContentFormat),
		tags,
		related,
		article.LastUpdated,
	)
	if err != nil {
		if isUniqueViolation(err, "Article.slug") {
			return wiki.ErrSlugTaken
		}
		return errors.Wrap(err, "insert article")
	}

	article.ID, err = result.LastInsertId()
	return errors.Wrap(err, "article insert id")
}

func (db *sqliteDb) UpdateArticle(id int64, fields repository.ArticleUpdate) error {
	tags, err := encodeStringList(fields.Tags)
	if err != nil {
		return errors.Wrap(err, "encode tags")
	}
	related, err := encodeStringList(fields.RelatedArticles)
	if err != nil {
		return errors.Wrap(err, "encode related articles")
	}

	result, err := db.conn.Exec(`
		UPDATE Article
		SET slug = ?, title = ?, category = ?, summary = ?, content = ?,
		    content_format = ?, tags = ?, related_articles = ?, last_updated = ?
		WHERE id = ?`,
		fields.Slug,
		fields.Title,
		string(fields.Category),
		fields.Summary,
		fields.Content,
		string(fields.ContentFormat),
		tags,
		related,
		fields.LastUpdated,
		id,
	)
	if err != nil {
		if isUniqueViolation(err, "Article.slug") {
			return wiki.ErrSlugTaken
		}
		return errors.Wrap(err, "update article")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "update article rows affected")
	}
	if affected == 0 {
		return wiki.ErrNotFound
	}
	return nil
}

// decodeStringList parses a JSON array column, treating empty text as an
// empty list.
func decodeStringList(raw string) ([]string, error) {
	if raw == "" || raw == "[]" {
		return nil, nil
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func encodeStringList(list []string) (string, error) {
	if len(list) == 0 {
		return "[]", nil
	}
	raw, err := json.Marshal(list)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
