package service

import (
	"github.com/emberwiki/emberwiki/wiki"
	"github.com/emberwiki/emberwiki/wiki/repository"
)

// ArticleService serves the canonical read view of an article.
type ArticleService interface {
	// GetArticle returns the current article with its body rendered to
	// sanitized HTML. An article with no revision the viewer may see is
	// absent from their point of view.
	GetArticle(viewer *wiki.Viewer, slug string) (*wiki.ArticleView, error)
}

type articleService struct {
	store     repository.Store
	rendering RenderingService
}

// NewArticleService creates an ArticleService over the given store and
// renderer.
func NewArticleService(store repository.Store, rendering RenderingService) ArticleService {
	return &articleService{store: store, rendering: rendering}
}

func (s *articleService) GetArticle(viewer *wiki.Viewer, slug string) (*wiki.ArticleView, error) {
	article, err := s.store.SelectArticleBySlug(slug)
	if err != nil {
		return nil, translateLookup("select article", err)
	}

	latest, err := s.store.SelectRevisions(article.ID, repository.RevisionListOptions{
		Descending: true,
		Limit:      1,
	})
	if err != nil {
		return nil, &wiki.UpstreamError{Op: "select revisions", Err: err}
	}
	if len(latest) == 0 {
		return nil, wiki.ErrNotFound
	}

	// An article whose only revisions are invisible to this viewer does
	// not exist for them. The common case is a brand-new article still
	// awaiting moderation.
	head := latest[0]
	if head.Status != wiki.StatusActive && !wiki.CanView(head.Status, head.AuthorID, viewer) {
		active, err := s.store.SelectRevisions(article.ID, repository.RevisionListOptions{
			StatusFilter: []wiki.Status{wiki.StatusActive},
			Descending:   true,
			Limit:        1,
		})
		if err != nil {
			return nil, &wiki.UpstreamError{Op: "select revisions", Err: err}
		}
		if len(active) == 0 {
			return nil, wiki.ErrNotFound
		}
	}

	rendered, err := s.rendering.Render(article.Content, article.ContentFormat)
	if err != nil {
		return nil, err
	}

	return &wiki.ArticleView{
		Article:               article,
		RenderedHTML:          rendered,
		CurrentRevisionNumber: head.RevisionNumber,
	}, nil
}
