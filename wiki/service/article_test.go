package service_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/emberwiki/emberwiki/testutil"
	"github.com/emberwiki/emberwiki/wiki"
)

func TestGetArticle(t *testing.T) {
	t.Run("renders markdown to sanitized html", func(t *testing.T) {
		app, cleanup := testutil.SetupTestApp(t)
		defer cleanup()

		author := testutil.Viewer("alice", wiki.AutoApproveTrust)
		draft := testutil.Draft("Naver Map", "# Heading\n\n<script>alert(1)</script>plain text")
		testutil.MustCreateArticle(t, app, author, draft)

		view, err := app.Articles.GetArticle(wiki.Anonymous(), "naver-map")
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(view.RenderedHTML, "<h1") {
			t.Errorf("expected rendered heading, got %q", view.RenderedHTML)
		}
		if strings.Contains(view.RenderedHTML, "<script") {
			t.Errorf("script tag survived sanitization: %q", view.RenderedHTML)
		}
		if view.CurrentRevisionNumber != 1 {
			t.Errorf("current revision = %d", view.CurrentRevisionNumber)
		}
	})

	t.Run("an unapproved new article is invisible to strangers", func(t *testing.T) {
		app, cleanup := testutil.SetupTestApp(t)
		defer cleanup()

		newcomer := testutil.Viewer("bob", 0)
		testutil.MustCreateArticle(t, app, newcomer, testutil.Draft("Naver Map", "A"))

		if _, err := app.Articles.GetArticle(wiki.Anonymous(), "naver-map"); !errors.Is(err, wiki.ErrNotFound) {
			t.Errorf("anonymous: expected ErrNotFound, got %v", err)
		}
		if _, err := app.Articles.GetArticle(newcomer, "naver-map"); err != nil {
			t.Errorf("author should see their own draft: %v", err)
		}
		if _, err := app.Articles.GetArticle(testutil.StaffViewer("mod"), "naver-map"); err != nil {
			t.Errorf("staff should see everything: %v", err)
		}
	})

	t.Run("becomes public once approved", func(t *testing.T) {
		app, cleanup := testutil.SetupTestApp(t)
		defer cleanup()

		newcomer := testutil.Viewer("bob", 0)
		result := testutil.MustCreateArticle(t, app, newcomer, testutil.Draft("Naver Map", "A"))

		if _, err := app.Revisions.ModerateRevision(testutil.StaffViewer("mod"), result.RevisionID, wiki.ActionApprove); err != nil {
			t.Fatal(err)
		}
		if _, err := app.Articles.GetArticle(wiki.Anonymous(), "naver-map"); err != nil {
			t.Errorf("approved article should be public: %v", err)
		}
	})

	t.Run("unknown slug is not found", func(t *testing.T) {
		app, cleanup := testutil.SetupTestApp(t)
		defer cleanup()

		_, err := app.Articles.GetArticle(wiki.Anonymous(), "nope")
		if !errors.Is(err, wiki.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}
