package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/emberwiki/emberwiki/testutil"
	"github.com/emberwiki/emberwiki/wiki"
)

func TestCreateArticle(t *testing.T) {
	ctx := context.Background()

	t.Run("trusted author publishes immediately", func(t *testing.T) {
		app, cleanup := testutil.SetupTestApp(t)
		defer cleanup()

		result := testutil.MustCreateArticle(t, app, testutil.Viewer("alice", wiki.AutoApproveTrust), testutil.Draft("Naver Map", "A\nB\nC"))
		if result.Status != wiki.StatusActive {
			t.Errorf("expected active, got %s", result.Status)
		}
		if result.Slug != "naver-map" {
			t.Errorf("expected slug naver-map, got %q", result.Slug)
		}
		if result.RevisionNumber != 1 {
			t.Errorf("expected revision 1, got %d", result.RevisionNumber)
		}

		article, err := app.Store.SelectArticleBySlug("naver-map")
		if err != nil {
			t.Fatalf("article not stored: %v", err)
		}
		if article.Content != "A\nB\nC" {
			t.Errorf("article content = %q", article.Content)
		}
	})

	t.Run("newcomer submission is pending", func(t *testing.T) {
		app, cleanup := testutil.SetupTestApp(t)
		defer cleanup()

		result := testutil.MustCreateArticle(t, app, testutil.Viewer("bob", 0), testutil.Draft("Naver Map", "A\nB\nC"))
		if result.Status != wiki.StatusPending {
			t.Errorf("expected pending, got %s", result.Status)
		}
	})

	t.Run("staff bypasses moderation regardless of trust", func(t *testing.T) {
		app, cleanup := testutil.SetupTestApp(t)
		defer cleanup()

		result := testutil.MustCreateArticle(t, app, testutil.StaffViewer("mod"), testutil.Draft("Naver Map", "A\nB\nC"))
		if result.Status != wiki.StatusActive {
			t.Errorf("expected active, got %s", result.Status)
		}
	})

	t.Run("anonymous is rejected", func(t *testing.T) {
		app, cleanup := testutil.SetupTestApp(t)
		defer cleanup()

		_, err := app.Revisions.CreateArticle(ctx, wiki.Anonymous(), testutil.Draft("Naver Map", "A"), "")
		if !errors.Is(err, wiki.ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("duplicate slug conflicts", func(t *testing.T) {
		app, cleanup := testutil.SetupTestApp(t)
		defer cleanup()

		author := testutil.Viewer("alice", wiki.AutoApproveTrust)
		testutil.MustCreateArticle(t, app, author, testutil.Draft("Naver Map", "A"))

		_, err := app.Revisions.CreateArticle(ctx, author, testutil.Draft("Naver   Map", "B"), "")
		if !errors.Is(err, wiki.ErrConflict) {
			t.Fatalf("expected conflict, got %v", err)
		}
		var conflict *wiki.ConflictError
		if !errors.As(err, &conflict) || conflict.Slug != "naver-map" {
			t.Errorf("expected conflict on naver-map, got %+v", conflict)
		}
	})

	t.Run("invalid draft is rejected before any write", func(t *testing.T) {
		app, cleanup := testutil.SetupTestApp(t)
		defer cleanup()

		draft := testutil.Draft("", "A")
		_, err := app.Revisions.CreateArticle(ctx, testutil.Viewer("alice", wiki.AutoApproveTrust), draft, "")
		if !errors.Is(err, wiki.ErrValidation) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})

	t.Run("rate limited", func(t *testing.T) {
		app, cleanup := testutil.SetupTestApp(t)
		defer cleanup()

		app.Limiter.Deny = true
		_, err := app.Revisions.CreateArticle(ctx, testutil.Viewer("alice", wiki.AutoApproveTrust), testutil.Draft("Naver Map", "A"), "")
		if !errors.Is(err, wiki.ErrRateLimited) {
			t.Fatalf("expected rate limit error, got %v", err)
		}
	})
}

func TestSubmitEdit(t *testing.T) {
	ctx := context.Background()

	t.Run("trusted edit updates the article", func(t *testing.T) {
		app, cleanup := testutil.SetupTestApp(t)
		defer cleanup()

		author := testutil.Viewer("alice", wiki.AutoApproveTrust)
		testutil.MustCreateArticle(t, app, author, testutil.Draft("Naver Map", "A\nB\nC"))

		result := testutil.MustSubmitEdit(t, app, author, "naver-map", testutil.Draft("Naver Map", "A\nX\nC"), "fix middle line", 1)
		if result.Status != wiki.StatusActive {
			t.Errorf("expected active, got %s", result.Status)
		}
		if result.RevisionNumber != 2 {
			t.Errorf("expected revision 2, got %d", result.RevisionNumber)
		}

		article, err := app.Store.SelectArticleBySlug("naver-map")
		if err != nil {
			t.Fatal(err)
		}
		if article.Content != "A\nX\nC" {
			t.Errorf("article content = %q, want updated", article.Content)
		}
	})

	t.Run("pending edit leaves the article untouched", func(t *testing.T) {
		app, cleanup := testutil.SetupTestApp(t)
		defer cleanup()

		author := testutil.Viewer("alice", wiki.AutoApproveTrust)
		testutil.MustCreateArticle(t, app, author, testutil.Draft("Naver Map", "A\nB\nC"))

		newcomer := testutil.Viewer("bob", 0)
		result := testutil.MustSubmitEdit(t, app, newcomer, "naver-map", testutil.Draft("Naver Map", "A\nX\nC"), "fix middle line", 1)
		if result.Status != wiki.StatusPending {
			t.Errorf("expected pending, got %s", result.Status)
		}

		article, err := app.Store.SelectArticleBySlug("naver-map")
		if err != nil {
			t.Fatal(err)
		}
		if article.Content != "A\nB\nC" {
			t.Errorf("article content = %q, want unchanged", article.Content)
		}
	})

	t.Run("stale base revision conflicts with the current number", func(t *testing.T) {
		app, cleanup := testutil.SetupTestApp(t)
		defer cleanup()

		author := testutil.Viewer("alice", wiki.AutoApproveTrust)
		testutil.MustCreateArticle(t, app, author, testutil.Draft("Naver Map", "A"))
		testutil.MustSubmitEdit(t, app, author, "naver-map", testutil.Draft("Naver Map", "B"), "second", 1)

		// A second writer still holding base 1 must be told about 2.
		_, err := app.Revisions.SubmitEdit(ctx, author, "naver-map", testutil.Draft("Naver Map", "C"), "third", 1)
		var conflict *wiki.ConflictError
		if !errors.As(err, &conflict) {
			t.Fatalf("expected ConflictError, got %v", err)
		}
		if conflict.CurrentRevisionNumber != 2 {
			t.Errorf("expected current revision 2, got %d", conflict.CurrentRevisionNumber)
		}
	})

	t.Run("pending edit records only changed metadata as proposed", func(t *testing.T) {
		app, cleanup := testutil.SetupTestApp(t)
		defer cleanup()

		author := testutil.Viewer("alice", wiki.AutoApproveTrust)
		testutil.MustCreateArticle(t, app, author, testutil.Draft("Naver Map", "A"))

		draft := testutil.Draft("Naver Map", "B")
		draft.Summary = "A better summary."
		result := testutil.MustSubmitEdit(t, app, testutil.Viewer("bob", 0), "naver-map", draft, "", 1)

		rev, err := app.Store.SelectRevision(result.RevisionID)
		if err != nil {
			t.Fatal(err)
		}
		if rev.ProposedTitle != nil {
			t.Errorf("title unchanged, ProposedTitle should be nil, got %q", *rev.ProposedTitle)
		}
		if rev.ProposedSummary == nil || *rev.ProposedSummary != "A better summary." {
			t.Errorf("ProposedSummary = %v, want the new summary", rev.ProposedSummary)
		}
	})

	t.Run("edit summary is tag-stripped", func(t *testing.T) {
		app, cleanup := testutil.SetupTestApp(t)
		defer cleanup()

		author := testutil.Viewer("alice", wiki.AutoApproveTrust)
		testutil.MustCreateArticle(t, app, author, testutil.Draft("Naver Map", "A"))

		result := testutil.MustSubmitEdit(t, app, author, "naver-map", testutil.Draft("Naver Map", "B"),
			`<script>alert(1)</script>typo fix`, 1)
		rev, err := app.Store.SelectRevision(result.RevisionID)
		if err != nil {
			t.Fatal(err)
		}
		if rev.Summary != "typo fix" {
			t.Errorf("summary = %q, want scripts stripped", rev.Summary)
		}
	})

	t.Run("unknown slug is not found", func(t *testing.T) {
		app, cleanup := testutil.SetupTestApp(t)
		defer cleanup()

		_, err := app.Revisions.SubmitEdit(ctx, testutil.Viewer("alice", wiki.AutoApproveTrust), "nope", testutil.Draft("Nope", "A"), "", 0)
		if !errors.Is(err, wiki.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestRevertRevision(t *testing.T) {
	ctx := context.Background()

	t.Run("revert copies content and autogenerates the summary", func(t *testing.T) {
		app, cleanup := testutil.SetupTestApp(t)
		defer cleanup()

		author := testutil.Viewer("alice", wiki.AutoApproveTrust)
		first := testutil.MustCreateArticle(t, app, author, testutil.Draft("Naver Map", "A\nB\nC"))
		testutil.MustSubmitEdit(t, app, author, "naver-map", testutil.Draft("Naver Map", "vandalized"), "", 1)

		result, err := app.Revisions.RevertRevision(ctx, author, first.RevisionID)
		if err != nil {
			t.Fatal(err)
		}
		if result.RevisionNumber != 3 {
			t.Errorf("expected revision 3, got %d", result.RevisionNumber)
		}

		rev, err := app.Store.SelectRevision(result.RevisionID)
		if err != nil {
			t.Fatal(err)
		}
		if rev.Content != "A\nB\nC" {
			t.Errorf("content = %q, want restored", rev.Content)
		}
		if rev.Summary != "Revert to r1" {
			t.Errorf("summary = %q, want autogenerated revert summary", rev.Summary)
		}

		article, err := app.Store.SelectArticleBySlug("naver-map")
		if err != nil {
			t.Fatal(err)
		}
		if article.Content != "A\nB\nC" {
			t.Errorf("article content = %q, want restored", article.Content)
		}
	})

	t.Run("revert by a newcomer queues as pending", func(t *testing.T) {
		app, cleanup := testutil.SetupTestApp(t)
		defer cleanup()

		author := testutil.Viewer("alice", wiki.AutoApproveTrust)
		first := testutil.MustCreateArticle(t, app, author, testutil.Draft("Naver Map", "A"))
		testutil.MustSubmitEdit(t, app, author, "naver-map", testutil.Draft("Naver Map", "B"), "", 1)

		result, err := app.Revisions.RevertRevision(ctx, testutil.Viewer("bob", 0), first.RevisionID)
		if err != nil {
			t.Fatal(err)
		}
		if result.Status != wiki.StatusPending {
			t.Errorf("expected pending, got %s", result.Status)
		}

		article, _ := app.Store.SelectArticleBySlug("naver-map")
		if article.Content != "B" {
			t.Errorf("article content = %q, want unchanged until approval", article.Content)
		}
	})

	t.Run("reverting to a hidden revision is rejected", func(t *testing.T) {
		app, cleanup := testutil.SetupTestApp(t)
		defer cleanup()

		author := testutil.Viewer("alice", wiki.AutoApproveTrust)
		first := testutil.MustCreateArticle(t, app, author, testutil.Draft("Naver Map", "A"))
		testutil.MustSubmitEdit(t, app, author, "naver-map", testutil.Draft("Naver Map", "B"), "", 1)

		mod := testutil.StaffViewer("mod")
		if _, err := app.Revisions.ModerateRevision(mod, first.RevisionID, wiki.ActionHide); err != nil {
			t.Fatal(err)
		}

		_, err := app.Revisions.RevertRevision(ctx, author, first.RevisionID)
		if !errors.Is(err, wiki.ErrValidation) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})
}

func TestModerateRevision(t *testing.T) {
	t.Run("non-staff cannot moderate", func(t *testing.T) {
		app, cleanup := testutil.SetupTestApp(t)
		defer cleanup()

		author := testutil.Viewer("alice", wiki.AutoApproveTrust)
		result := testutil.MustCreateArticle(t, app, author, testutil.Draft("Naver Map", "A"))

		_, err := app.Revisions.ModerateRevision(testutil.Viewer("bob", 50), result.RevisionID, wiki.ActionHide)
		if !errors.Is(err, wiki.ErrStaffRequired) {
			t.Fatalf("expected ErrStaffRequired, got %v", err)
		}
	})

	t.Run("approve publishes a pending edit", func(t *testing.T) {
		app, cleanup := testutil.SetupTestApp(t)
		defer cleanup()

		author := testutil.Viewer("alice", wiki.AutoApproveTrust)
		testutil.MustCreateArticle(t, app, author, testutil.Draft("Naver Map", "A\nB\nC"))
		pending := testutil.MustSubmitEdit(t, app, testutil.Viewer("bob", 0), "naver-map", testutil.Draft("Naver Map", "A\nX\nC"), "", 1)

		result, err := app.Revisions.ModerateRevision(testutil.StaffViewer("mod"), pending.RevisionID, wiki.ActionApprove)
		if err != nil {
			t.Fatal(err)
		}
		if result.Status != wiki.StatusActive {
			t.Errorf("expected active, got %s", result.Status)
		}

		article, err := app.Store.SelectArticleBySlug("naver-map")
		if err != nil {
			t.Fatal(err)
		}
		if article.Content != "A\nX\nC" {
			t.Errorf("article content = %q, want approved content", article.Content)
		}
	})

	t.Run("approve resolves proposed metadata and reslugs", func(t *testing.T) {
		app, cleanup := testutil.SetupTestApp(t)
		defer cleanup()

		author := testutil.Viewer("alice", wiki.AutoApproveTrust)
		testutil.MustCreateArticle(t, app, author, testutil.Draft("Naver Map", "A"))

		draft := testutil.Draft("Kakao Map", "A")
		pending := testutil.MustSubmitEdit(t, app, testutil.Viewer("bob", 0), "naver-map", draft, "rename", 1)

		result, err := app.Revisions.ModerateRevision(testutil.StaffViewer("mod"), pending.RevisionID, wiki.ActionApprove)
		if err != nil {
			t.Fatal(err)
		}
		if result.ArticleSlug != "kakao-map" {
			t.Errorf("expected slug kakao-map, got %q", result.ArticleSlug)
		}

		article, err := app.Store.SelectArticleBySlug("kakao-map")
		if err != nil {
			t.Fatalf("renamed article not found: %v", err)
		}
		if article.Title != "Kakao Map" {
			t.Errorf("title = %q", article.Title)
		}
	})

	t.Run("reject deletes, hide hides", func(t *testing.T) {
		app, cleanup := testutil.SetupTestApp(t)
		defer cleanup()

		author := testutil.Viewer("alice", wiki.AutoApproveTrust)
		testutil.MustCreateArticle(t, app, author, testutil.Draft("Naver Map", "A"))
		mod := testutil.StaffViewer("mod")

		r2 := testutil.MustSubmitEdit(t, app, testutil.Viewer("bob", 0), "naver-map", testutil.Draft("Naver Map", "B"), "", 1)
		r3 := testutil.MustSubmitEdit(t, app, testutil.Viewer("bob", 0), "naver-map", testutil.Draft("Naver Map", "C"), "", 2)

		if result, err := app.Revisions.ModerateRevision(mod, r2.RevisionID, wiki.ActionReject); err != nil || result.Status != wiki.StatusDeleted {
			t.Fatalf("reject: status=%v err=%v", result, err)
		}
		if result, err := app.Revisions.ModerateRevision(mod, r3.RevisionID, wiki.ActionHide); err != nil || result.Status != wiki.StatusHidden {
			t.Fatalf("hide: status=%v err=%v", result, err)
		}
	})

	t.Run("hold on pending is an idempotent no-op", func(t *testing.T) {
		app, cleanup := testutil.SetupTestApp(t)
		defer cleanup()

		author := testutil.Viewer("alice", wiki.AutoApproveTrust)
		testutil.MustCreateArticle(t, app, author, testutil.Draft("Naver Map", "A"))
		pending := testutil.MustSubmitEdit(t, app, testutil.Viewer("bob", 0), "naver-map", testutil.Draft("Naver Map", "B"), "", 1)

		result, err := app.Revisions.ModerateRevision(testutil.StaffViewer("mod"), pending.RevisionID, wiki.ActionHold)
		if err != nil {
			t.Fatal(err)
		}
		if result.Status != wiki.StatusPending {
			t.Errorf("expected still pending, got %s", result.Status)
		}
	})

	t.Run("deleted revisions are terminal", func(t *testing.T) {
		app, cleanup := testutil.SetupTestApp(t)
		defer cleanup()

		author := testutil.Viewer("alice", wiki.AutoApproveTrust)
		testutil.MustCreateArticle(t, app, author, testutil.Draft("Naver Map", "A"))
		pending := testutil.MustSubmitEdit(t, app, testutil.Viewer("bob", 0), "naver-map", testutil.Draft("Naver Map", "B"), "", 1)
		mod := testutil.StaffViewer("mod")

		if _, err := app.Revisions.ModerateRevision(mod, pending.RevisionID, wiki.ActionReject); err != nil {
			t.Fatal(err)
		}
		_, err := app.Revisions.ModerateRevision(mod, pending.RevisionID, wiki.ActionApprove)
		if !errors.Is(err, wiki.ErrValidation) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})

	t.Run("approve restores a hidden revision", func(t *testing.T) {
		app, cleanup := testutil.SetupTestApp(t)
		defer cleanup()

		author := testutil.Viewer("alice", wiki.AutoApproveTrust)
		testutil.MustCreateArticle(t, app, author, testutil.Draft("Naver Map", "A"))
		r2 := testutil.MustSubmitEdit(t, app, author, "naver-map", testutil.Draft("Naver Map", "B"), "", 1)
		mod := testutil.StaffViewer("mod")

		if _, err := app.Revisions.ModerateRevision(mod, r2.RevisionID, wiki.ActionHide); err != nil {
			t.Fatal(err)
		}
		result, err := app.Revisions.ModerateRevision(mod, r2.RevisionID, wiki.ActionApprove)
		if err != nil {
			t.Fatal(err)
		}
		if result.Status != wiki.StatusActive {
			t.Errorf("expected active, got %s", result.Status)
		}
	})
}
