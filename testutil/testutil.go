// Package testutil provides shared fixtures for service and storage
// tests: an in-memory database with migrations applied and the full
// service stack wired over it.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/microcosm-cc/bluemonday"
	_ "modernc.org/sqlite"

	"github.com/emberwiki/emberwiki/internal/storage"
	"github.com/emberwiki/emberwiki/wiki"
	"github.com/emberwiki/emberwiki/wiki/repository"
	"github.com/emberwiki/emberwiki/wiki/service"
)

// TestApp wraps the full service stack for tests.
type TestApp struct {
	Articles  service.ArticleService
	Revisions service.RevisionService
	History   service.HistoryService
	Queue     service.QueueService
	Identity  service.IdentityService
	Viewers   service.ViewerService
	Store     repository.Store
	Limiter   *StubLimiter
}

// StubLimiter is a rate limiter that records calls and denies only when
// told to, so tests can drive the throttled path deterministically.
type StubLimiter struct {
	Calls []string
	Deny  bool
}

func (l *StubLimiter) Check(_ context.Context, table, actorID string, _ time.Duration, _ int) error {
	l.Calls = append(l.Calls, table+":"+actorID)
	if l.Deny {
		return &wiki.RateLimitError{Table: table, RetryAfter: time.Minute}
	}
	return nil
}

// SetupTestStore creates an in-memory database with migrations applied.
func SetupTestStore(t *testing.T) (repository.Store, func()) {
	t.Helper()

	conn, err := sqlx.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}
	conn.SetMaxOpenConns(1)

	if err := storage.RunMigrations(conn); err != nil {
		conn.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	store, err := storage.Init(conn)
	if err != nil {
		conn.Close()
		t.Fatalf("failed to initialize storage: %v", err)
	}

	return store, func() { conn.Close() }
}

// SetupTestApp creates the full service stack over an in-memory store.
func SetupTestApp(t *testing.T) (*TestApp, func()) {
	t.Helper()

	store, cleanup := SetupTestStore(t)
	limiter := &StubLimiter{}
	limits := service.DefaultRateLimits()

	bm := bluemonday.UGCPolicy()
	bm.AllowAttrs("class").Globally()

	rendering := service.NewRenderingService(bm)
	identity := service.NewIdentityService(store)

	app := &TestApp{
		Articles:  service.NewArticleService(store, rendering),
		Revisions: service.NewRevisionService(store, limiter, limits),
		History:   service.NewHistoryService(store),
		Queue:     service.NewQueueService(store, limiter, limits),
		Identity:  identity,
		Viewers:   service.NewViewerService(identity),
		Store:     store,
		Limiter:   limiter,
	}

	return app, cleanup
}

// Viewer fabricates an authenticated viewer without a backing profile.
// Fine for service tests, which consume the viewer directly.
func Viewer(name string, trust int) *wiki.Viewer {
	return &wiki.Viewer{ActorID: "actor-" + name, Name: name, TrustScore: trust}
}

// StaffViewer fabricates a moderator viewer.
func StaffViewer(name string) *wiki.Viewer {
	return &wiki.Viewer{ActorID: "actor-" + name, Name: name, Staff: true}
}

// Draft builds a minimal valid draft with the given title and content.
func Draft(title, content string) wiki.Draft {
	return wiki.Draft{
		Title:         title,
		Category:      wiki.CategoryMisc,
		Summary:       "A test article.",
		Content:       content,
		ContentFormat: wiki.FormatMarkdown,
	}
}

// MustCreateArticle creates an article as the given viewer and fails the
// test on error.
func MustCreateArticle(t *testing.T, app *TestApp, viewer *wiki.Viewer, draft wiki.Draft) *wiki.SubmitResult {
	t.Helper()

	result, err := app.Revisions.CreateArticle(context.Background(), viewer, draft, "initial version")
	if err != nil {
		t.Fatalf("failed to create article %q: %v", draft.Title, err)
	}
	return result
}

// MustSubmitEdit submits an edit and fails the test on error.
func MustSubmitEdit(t *testing.T, app *TestApp, viewer *wiki.Viewer, slug string, draft wiki.Draft, summary string, base int) *wiki.SubmitResult {
	t.Helper()

	result, err := app.Revisions.SubmitEdit(context.Background(), viewer, slug, draft, summary, base)
	if err != nil {
		t.Fatalf("failed to submit edit to %q: %v", slug, err)
	}
	return result
}
