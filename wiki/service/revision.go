package service

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/emberwiki/emberwiki/wiki"
	"github.com/emberwiki/emberwiki/wiki/repository"
	"github.com/microcosm-cc/bluemonday"
)

// RevisionService is the revision state machine: it governs how a
// submission becomes a pending or active revision, how moderators move
// revisions between states, and how the canonical article is derived from
// its active revision.
type RevisionService interface {
	// CreateArticle submits a brand-new article. Always produces
	// revision #1; its status follows the trust rule.
	CreateArticle(ctx context.Context, viewer *wiki.Viewer, draft wiki.Draft, editSummary string) (*wiki.SubmitResult, error)

	// SubmitEdit submits revision N+1 of an existing article under the
	// optimistic-concurrency protocol: baseRevisionNumber must equal the
	// article's current highest revision number or the edit fails with a
	// ConflictError carrying the current number.
	SubmitEdit(ctx context.Context, viewer *wiki.Viewer, slug string, draft wiki.Draft, editSummary string, baseRevisionNumber int) (*wiki.SubmitResult, error)

	// RevertRevision submits a new revision whose content and format are
	// copied verbatim from a historical revision. Reverting to a hidden
	// or deleted revision is rejected.
	RevertRevision(ctx context.Context, viewer *wiki.Viewer, revisionID int64) (*wiki.SubmitResult, error)

	// ModerateRevision applies a staff decision to a revision.
	ModerateRevision(viewer *wiki.Viewer, revisionID int64, action wiki.ModerationAction) (*wiki.ModerationResult, error)
}

// RateLimits configures the write throttles consumed from the external
// rate limiter.
type RateLimits struct {
	EditWindow   time.Duration
	EditMax      int
	ReportWindow time.Duration
	ReportMax    int
}

// DefaultRateLimits returns the stock write throttles.
func DefaultRateLimits() RateLimits {
	return RateLimits{
		EditWindow:   time.Minute,
		EditMax:      6,
		ReportWindow: time.Hour,
		ReportMax:    10,
	}
}

type revisionService struct {
	store   repository.Store
	limiter repository.RateLimiter
	limits  RateLimits
	strip   *bluemonday.Policy
	now     func() time.Time
}

// NewRevisionService creates a RevisionService over the given store and
// rate limiter.
func NewRevisionService(store repository.Store, limiter repository.RateLimiter, limits RateLimits) RevisionService {
	return &revisionService{
		store:   store,
		limiter: limiter,
		limits:  limits,
		strip:   bluemonday.StrictPolicy(),
		now:     time.Now,
	}
}

// CreateArticle submits a brand-new article.
func (s *revisionService) CreateArticle(ctx context.Context, viewer *wiki.Viewer, draft wiki.Draft, editSummary string) (*wiki.SubmitResult, error) {
	if viewer.IsAnonymous() {
		return nil, wiki.ErrUnauthorized
	}
	if err := s.limiter.Check(ctx, "revisions", viewer.ActorID, s.limits.EditWindow, s.limits.EditMax); err != nil {
		return nil, err
	}
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	slug := wiki.Slugify(draft.Title)
	if existing, err := s.store.SelectArticleBySlug(slug); err == nil && existing != nil {
		return nil, &wiki.ConflictError{Slug: slug}
	} else if err != nil && !errors.Is(err, wiki.ErrNotFound) {
		return nil, &wiki.UpstreamError{Op: "select article", Err: err}
	}

	today := s.now()
	article := &wiki.Article{
		Slug:            slug,
		Title:           draft.Title,
		Category:        draft.Category,
		Summary:         draft.Summary,
		Content:         draft.Content,
		ContentFormat:   draft.ContentFormat,
		Tags:            draft.Tags,
		RelatedArticles: draft.RelatedArticles,
		LastUpdated:     today,
	}
	if err := s.store.InsertArticle(article); err != nil {
		if errors.Is(err, wiki.ErrSlugTaken) {
			return nil, &wiki.ConflictError{Slug: slug}
		}
		return nil, &wiki.UpstreamError{Op: "insert article", Err: err}
	}

	status := initialStatus(viewer)
	rev := &wiki.Revision{
		ArticleID:      article.ID,
		RevisionNumber: 1,
		Content:        draft.Content,
		ContentFormat:  draft.ContentFormat,
		ContentHash:    wiki.HashContent(draft.Content),
		Summary:        s.strip.Sanitize(editSummary),
		AuthorID:       viewer.ActorID,
		AuthorName:     viewer.Name,
		Status:         status,
		Created:        today,
	}
	if err := s.store.InsertRevision(rev); err != nil {
		return nil, &wiki.UpstreamError{Op: "insert revision", Err: err}
	}

	return &wiki.SubmitResult{
		Slug:           slug,
		RevisionID:     rev.ID,
		RevisionNumber: 1,
		Status:         status,
	}, nil
}

// SubmitEdit submits revision N+1 of an existing article.
func (s *revisionService) SubmitEdit(ctx context.Context, viewer *wiki.Viewer, slug string, draft wiki.Draft, editSummary string, baseRevisionNumber int) (*wiki.SubmitResult, error) {
	if viewer.IsAnonymous() {
		return nil, wiki.ErrUnauthorized
	}
	if err := s.limiter.Check(ctx, "revisions", viewer.ActorID, s.limits.EditWindow, s.limits.EditMax); err != nil {
		return nil, err
	}
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	article, err := s.store.SelectArticleBySlug(slug)
	if err != nil {
		return nil, translateLookup("select article", err)
	}

	current, err := s.store.SelectLatestRevisionNumber(article.ID)
	if err != nil {
		return nil, &wiki.UpstreamError{Op: "select latest revision number", Err: err}
	}
	if baseRevisionNumber != current {
		return nil, &wiki.ConflictError{CurrentRevisionNumber: current}
	}

	status := initialStatus(viewer)

	newSlug := wiki.Slugify(draft.Title)
	if status == wiki.StatusActive && newSlug != article.Slug {
		if err := s.checkSlugFree(newSlug, article.ID); err != nil {
			return nil, err
		}
	}

	rev := &wiki.Revision{
		ArticleID:        article.ID,
		RevisionNumber:   current + 1,
		Content:          draft.Content,
		ContentFormat:    draft.ContentFormat,
		ContentHash:      wiki.HashContent(draft.Content),
		Summary:          s.strip.Sanitize(editSummary),
		ProposedTitle:    proposedString(draft.Title, article.Title),
		ProposedCategory: proposedCategory(draft.Category, article.Category),
		ProposedSummary:  proposedString(draft.Summary, article.Summary),
		ProposedTags:     proposedList(draft.Tags, article.Tags),
		ProposedRelated:  proposedList(draft.RelatedArticles, article.RelatedArticles),
		AuthorID:         viewer.ActorID,
		AuthorName:       viewer.Name,
		Status:           status,
		Created:          s.now(),
	}
	if err := s.store.InsertRevision(rev); err != nil {
		if errors.Is(err, wiki.ErrRevisionExists) {
			// Lost the race between reading the latest number and
			// inserting; re-read so the conflict carries the number the
			// caller must rebase onto.
			latest, lerr := s.store.SelectLatestRevisionNumber(article.ID)
			if lerr != nil {
				latest = current + 1
			}
			return nil, &wiki.ConflictError{CurrentRevisionNumber: latest}
		}
		return nil, &wiki.UpstreamError{Op: "insert revision", Err: err}
	}

	if status == wiki.StatusActive {
		// Active path: every draft field is "proposed", so the article
		// takes all of them.
		update := repository.ArticleUpdate{
			Slug:            newSlug,
			Title:           draft.Title,
			Category:        draft.Category,
			Summary:         draft.Summary,
			Content:         draft.Content,
			ContentFormat:   draft.ContentFormat,
			Tags:            draft.Tags,
			RelatedArticles: draft.RelatedArticles,
			LastUpdated:     s.now(),
		}
		if err := s.applyUpdate(article.ID, update); err != nil {
			return nil, err
		}
		return &wiki.SubmitResult{
			Slug:           newSlug,
			RevisionID:     rev.ID,
			RevisionNumber: rev.RevisionNumber,
			Status:         status,
		}, nil
	}

	return &wiki.SubmitResult{
		Slug:           article.Slug,
		RevisionID:     rev.ID,
		RevisionNumber: rev.RevisionNumber,
		Status:         status,
	}, nil
}

// RevertRevision submits a new revision restoring a historical one.
func (s *revisionService) RevertRevision(ctx context.Context, viewer *wiki.Viewer, revisionID int64) (*wiki.SubmitResult, error) {
	if viewer.IsAnonymous() {
		return nil, wiki.ErrUnauthorized
	}
	if err := s.limiter.Check(ctx, "revisions", viewer.ActorID, s.limits.EditWindow, s.limits.EditMax); err != nil {
		return nil, err
	}

	target, err := s.store.SelectRevision(revisionID)
	if err != nil {
		return nil, translateLookup("select revision", err)
	}
	if target.Status == wiki.StatusHidden || target.Status == wiki.StatusDeleted {
		return nil, wiki.NewValidationError("revisionId", "cannot revert to a hidden or deleted revision")
	}

	article, err := s.store.SelectArticleByID(target.ArticleID)
	if err != nil {
		return nil, translateLookup("select article", err)
	}

	current, err := s.store.SelectLatestRevisionNumber(article.ID)
	if err != nil {
		return nil, &wiki.UpstreamError{Op: "select latest revision number", Err: err}
	}

	status := initialStatus(viewer)
	rev := &wiki.Revision{
		ArticleID:      article.ID,
		RevisionNumber: current + 1,
		Content:        target.Content,
		ContentFormat:  target.ContentFormat,
		ContentHash:    wiki.HashContent(target.Content),
		Summary:        wiki.RevertSummary(target.RevisionNumber),
		AuthorID:       viewer.ActorID,
		AuthorName:     viewer.Name,
		Status:         status,
		Created:        s.now(),
	}
	if err := s.store.InsertRevision(rev); err != nil {
		if errors.Is(err, wiki.ErrRevisionExists) {
			latest, lerr := s.store.SelectLatestRevisionNumber(article.ID)
			if lerr != nil {
				latest = current + 1
			}
			return nil, &wiki.ConflictError{CurrentRevisionNumber: latest}
		}
		return nil, &wiki.UpstreamError{Op: "insert revision", Err: err}
	}

	if status == wiki.StatusActive {
		update := repository.ArticleUpdate{
			Slug:            article.Slug,
			Title:           article.Title,
			Category:        article.Category,
			Summary:         article.Summary,
			Content:         target.Content,
			ContentFormat:   target.ContentFormat,
			Tags:            article.Tags,
			RelatedArticles: article.RelatedArticles,
			LastUpdated:     s.now(),
		}
		if err := s.applyUpdate(article.ID, update); err != nil {
			return nil, err
		}
	}

	return &wiki.SubmitResult{
		Slug:           article.Slug,
		RevisionID:     rev.ID,
		RevisionNumber: rev.RevisionNumber,
		Status:         status,
	}, nil
}

// ModerateRevision applies a staff decision to a revision.
func (s *revisionService) ModerateRevision(viewer *wiki.Viewer, revisionID int64, action wiki.ModerationAction) (*wiki.ModerationResult, error) {
	if viewer.IsAnonymous() {
		return nil, wiki.ErrUnauthorized
	}
	if !viewer.Staff {
		return nil, wiki.ErrStaffRequired
	}
	if !action.Valid() {
		return nil, wiki.NewValidationError("action", "unknown moderation action")
	}

	rev, err := s.store.SelectRevision(revisionID)
	if err != nil {
		return nil, translateLookup("select revision", err)
	}

	// hold on an already-pending revision is an explicit "defer" and
	// changes nothing.
	if action == wiki.ActionHold && rev.Status == wiki.StatusPending {
		return s.moderationResult(rev, rev.Status)
	}

	if !wiki.CanTransition(action, rev.Status) {
		return nil, wiki.NewValidationError("action",
			"cannot "+string(action)+" a revision that is "+string(rev.Status))
	}

	if action == wiki.ActionApprove {
		return s.approve(rev)
	}

	next := action.Result()
	if err := s.store.UpdateRevisionStatus(rev.ID, next); err != nil {
		return nil, &wiki.UpstreamError{Op: "update revision status", Err: err}
	}
	return s.moderationResult(rev, next)
}

// approve flips the revision active and overwrites the article with the
// revision's content and resolved metadata.
func (s *revisionService) approve(rev *wiki.Revision) (*wiki.ModerationResult, error) {
	article, err := s.store.SelectArticleByID(rev.ArticleID)
	if err != nil {
		// The article vanished between lookup and update.
		return nil, translateLookup("select article", err)
	}

	title := resolve(rev.ProposedTitle, article.Title)
	slug := wiki.Slugify(title)
	if slug != article.Slug {
		if err := s.checkSlugFree(slug, article.ID); err != nil {
			return nil, err
		}
	}

	if err := s.store.UpdateRevisionStatus(rev.ID, wiki.StatusActive); err != nil {
		return nil, &wiki.UpstreamError{Op: "update revision status", Err: err}
	}

	update := repository.ArticleUpdate{
		Slug:            slug,
		Title:           title,
		Category:        resolve(rev.ProposedCategory, article.Category),
		Summary:         resolve(rev.ProposedSummary, article.Summary),
		Content:         rev.Content,
		ContentFormat:   rev.ContentFormat,
		Tags:            resolveList(rev.ProposedTags, article.Tags),
		RelatedArticles: resolveList(rev.ProposedRelated, article.RelatedArticles),
		LastUpdated:     s.now(),
	}
	if err := s.applyUpdate(article.ID, update); err != nil {
		return nil, err
	}

	return &wiki.ModerationResult{
		RevisionID:     rev.ID,
		RevisionNumber: rev.RevisionNumber,
		Status:         wiki.StatusActive,
		ArticleSlug:    slug,
	}, nil
}

func (s *revisionService) moderationResult(rev *wiki.Revision, status wiki.Status) (*wiki.ModerationResult, error) {
	result := &wiki.ModerationResult{
		RevisionID:     rev.ID,
		RevisionNumber: rev.RevisionNumber,
		Status:         status,
	}
	if article, err := s.store.SelectArticleByID(rev.ArticleID); err == nil {
		result.ArticleSlug = article.Slug
	}
	return result, nil
}

// checkSlugFree rejects a slug already claimed by a different article.
// The store's unique constraint remains the backstop for races.
func (s *revisionService) checkSlugFree(slug string, articleID int64) error {
	existing, err := s.store.SelectArticleBySlug(slug)
	if errors.Is(err, wiki.ErrNotFound) {
		return nil
	}
	if err != nil {
		return &wiki.UpstreamError{Op: "select article", Err: err}
	}
	if existing.ID != articleID {
		return &wiki.ConflictError{Slug: slug}
	}
	return nil
}

func (s *revisionService) applyUpdate(articleID int64, update repository.ArticleUpdate) error {
	err := s.store.UpdateArticle(articleID, update)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, wiki.ErrSlugTaken):
		return &wiki.ConflictError{Slug: update.Slug}
	case errors.Is(err, wiki.ErrNotFound):
		return wiki.ErrNotFound
	default:
		return &wiki.UpstreamError{Op: "update article", Err: err}
	}
}

// initialStatus applies the trust gate: staff and trusted submitters
// bypass moderation, everyone else queues as pending. Evaluated
// identically for create, edit and revert.
func initialStatus(viewer *wiki.Viewer) wiki.Status {
	if viewer.AutoApproved() {
		return wiki.StatusActive
	}
	return wiki.StatusPending
}

// translateLookup maps a store lookup failure to the service error
// taxonomy: missing rows become ErrNotFound, everything else is upstream.
func translateLookup(op string, err error) error {
	if errors.Is(err, wiki.ErrNotFound) {
		return wiki.ErrNotFound
	}
	return &wiki.UpstreamError{Op: op, Err: err}
}

// resolve implements the "proposed override or fall back to current"
// merge used at every approve site: nil means "no change".
func resolve[T any](proposed *T, current T) T {
	if proposed == nil {
		return current
	}
	return *proposed
}

// resolveList is resolve for list-valued fields, where a nil slice means
// "no change" and an empty non-nil slice means "clear".
func resolveList(proposed, current []string) []string {
	if proposed == nil {
		return current
	}
	return proposed
}

// proposedString derives the stored override for a pending revision: nil
// when the submitted value matches the article's current value.
func proposedString[T comparable](submitted, current T) *T {
	if submitted == current {
		return nil
	}
	return &submitted
}

// proposedCategory is proposedString for the category enum.
func proposedCategory(submitted, current wiki.Category) *wiki.Category {
	return proposedString(submitted, current)
}

// proposedList derives the stored override for a list field.
func proposedList(submitted, current []string) []string {
	if slices.Equal(submitted, current) {
		return nil
	}
	if submitted == nil {
		return []string{}
	}
	return submitted
}
