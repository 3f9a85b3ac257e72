package service

import (
	"strings"

	"github.com/emberwiki/emberwiki/wiki"
	"github.com/emberwiki/emberwiki/wiki/repository"
)

// HistoryService assembles the read views over a revision chain: the
// history listing, raw content, blame and compare. Every revision in
// every view passes the access policy individually; an invisible revision
// is indistinguishable from an absent one.
type HistoryService interface {
	// GetHistory lists the revisions of an article the viewer may see,
	// newest first, with line deltas computed against the previous
	// *visible* revision.
	GetHistory(viewer *wiki.Viewer, slug string) ([]*wiki.HistoryEntry, error)

	// GetRaw returns a single revision's stored content.
	GetRaw(viewer *wiki.Viewer, slug string, revisionNumber int) (*wiki.Revision, error)

	// GetBlame returns per-line attribution for one revision.
	GetBlame(viewer *wiki.Viewer, slug string, revisionNumber int) (*wiki.BlameView, error)

	// GetCompare diffs two visible revisions of an article.
	GetCompare(viewer *wiki.Viewer, slug string, oldNumber, newNumber int) (*wiki.Comparison, error)
}

type historyService struct {
	store repository.Store
}

// NewHistoryService creates a HistoryService over the given store.
func NewHistoryService(store repository.Store) HistoryService {
	return &historyService{store: store}
}

// GetHistory lists visible revisions newest first.
func (s *historyService) GetHistory(viewer *wiki.Viewer, slug string) ([]*wiki.HistoryEntry, error) {
	article, err := s.store.SelectArticleBySlug(slug)
	if err != nil {
		return nil, translateLookup("select article", err)
	}

	visible, err := s.visibleChain(article.ID, 0, viewer)
	if err != nil {
		return nil, err
	}
	// No visible revision means the article does not exist for this
	// viewer, same as the canonical read view.
	if len(visible) == 0 {
		return nil, wiki.ErrNotFound
	}

	// Deltas against the previous visible revision only. The earliest
	// visible revision counts its full content as added; if earlier
	// revisions exist but are invisible, that is deliberate (their line
	// counts must not leak).
	entries := make([]*wiki.HistoryEntry, 0, len(visible))
	for i, rev := range visible {
		var added, removed int
		if i == 0 {
			added = len(strings.Split(rev.Content, "\n"))
		} else {
			added, removed = wiki.DiffCounts(wiki.BuildLineDiff(visible[i-1].Content, rev.Content))
		}
		entries = append(entries, &wiki.HistoryEntry{
			RevisionID:     rev.ID,
			RevisionNumber: rev.RevisionNumber,
			Status:         rev.Status,
			AuthorName:     rev.AuthorName,
			Summary:        rev.Summary,
			ContentHash:    rev.ContentHash,
			Created:        rev.Created,
			DeltaAdded:     added,
			DeltaRemoved:   removed,
		})
	}

	// Newest first for display.
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}

// GetRaw returns a revision's stored content, or ErrNotFound when the
// revision is missing or invisible to this viewer.
func (s *historyService) GetRaw(viewer *wiki.Viewer, slug string, revisionNumber int) (*wiki.Revision, error) {
	_, rev, err := s.lookupVisible(viewer, slug, revisionNumber)
	if err != nil {
		return nil, err
	}
	return rev, nil
}

// GetBlame reconstructs per-line authorship for one revision over the
// viewer's visible chain.
func (s *historyService) GetBlame(viewer *wiki.Viewer, slug string, revisionNumber int) (*wiki.BlameView, error) {
	article, rev, err := s.lookupVisible(viewer, slug, revisionNumber)
	if err != nil {
		return nil, err
	}

	chain, err := s.visibleChain(article.ID, rev.RevisionNumber, viewer)
	if err != nil {
		return nil, err
	}

	return &wiki.BlameView{
		Slug:           article.Slug,
		RevisionNumber: rev.RevisionNumber,
		Lines:          wiki.BuildBlame(chain),
	}, nil
}

// GetCompare diffs two visible revisions, including intraline splits for
// changed rows and field-level metadata changes.
func (s *historyService) GetCompare(viewer *wiki.Viewer, slug string, oldNumber, newNumber int) (*wiki.Comparison, error) {
	article, oldRev, err := s.lookupVisible(viewer, slug, oldNumber)
	if err != nil {
		return nil, err
	}
	_, newRev, err := s.lookupVisible(viewer, slug, newNumber)
	if err != nil {
		return nil, err
	}

	rows := wiki.BuildLineDiff(oldRev.Content, newRev.Content)
	intraline := make(map[int]wiki.LineSplit)
	for i, row := range rows {
		if row.Type == wiki.DiffChanged {
			intraline[i] = wiki.SplitChangedLine(row.OldLine, row.NewLine)
		}
	}
	if len(intraline) == 0 {
		intraline = nil
	}

	return &wiki.Comparison{
		Slug:              article.Slug,
		OldRevisionNumber: oldRev.RevisionNumber,
		NewRevisionNumber: newRev.RevisionNumber,
		Rows:              rows,
		Intraline:         intraline,
		FieldChanges:      fieldChanges(article, oldRev, newRev),
	}, nil
}

// lookupVisible fetches an article and one of its revisions, collapsing
// "missing" and "not visible" into the same ErrNotFound.
func (s *historyService) lookupVisible(viewer *wiki.Viewer, slug string, revisionNumber int) (*wiki.Article, *wiki.Revision, error) {
	article, err := s.store.SelectArticleBySlug(slug)
	if err != nil {
		return nil, nil, translateLookup("select article", err)
	}
	rev, err := s.store.SelectRevisionByNumber(article.ID, revisionNumber)
	if err != nil {
		return nil, nil, translateLookup("select revision", err)
	}
	if !wiki.CanView(rev.Status, rev.AuthorID, viewer) {
		return nil, nil, wiki.ErrNotFound
	}
	return article, rev, nil
}

// visibleChain returns the viewer-visible revisions of an article
// ascending by revision number, windowed to the most recent
// HistoryWindowSize. maxNumber of zero means no upper bound.
func (s *historyService) visibleChain(articleID int64, maxNumber int, viewer *wiki.Viewer) ([]*wiki.Revision, error) {
	revs, err := s.store.SelectRevisions(articleID, repository.RevisionListOptions{
		MaxRevisionNumber: maxNumber,
		Limit:             wiki.HistoryWindowSize,
		Descending:        true,
	})
	if err != nil {
		return nil, &wiki.UpstreamError{Op: "select revisions", Err: err}
	}

	// Reverse to ascending before filtering.
	for i, j := 0, len(revs)-1; i < j; i, j = i+1, j-1 {
		revs[i], revs[j] = revs[j], revs[i]
	}
	return wiki.FilterVisible(revs, viewer), nil
}

// fieldChanges reports metadata differences between two revisions'
// resolved article fields. Each side resolves its proposed overrides
// against the article's current values, so only fields a revision
// actually proposed to change show up.
func fieldChanges(article *wiki.Article, oldRev, newRev *wiki.Revision) []wiki.FieldChange {
	var changes []wiki.FieldChange
	add := func(field, oldVal, newVal string) {
		if oldVal != newVal {
			changes = append(changes, wiki.FieldChange{Field: field, Old: oldVal, New: newVal})
		}
	}

	add("title", resolve(oldRev.ProposedTitle, article.Title), resolve(newRev.ProposedTitle, article.Title))
	add("category",
		string(resolve(oldRev.ProposedCategory, article.Category)),
		string(resolve(newRev.ProposedCategory, article.Category)))
	add("summary", resolve(oldRev.ProposedSummary, article.Summary), resolve(newRev.ProposedSummary, article.Summary))
	add("tags",
		strings.Join(resolveList(oldRev.ProposedTags, article.Tags), ", "),
		strings.Join(resolveList(newRev.ProposedTags, article.Tags), ", "))
	add("related_articles",
		strings.Join(resolveList(oldRev.ProposedRelated, article.RelatedArticles), ", "),
		strings.Join(resolveList(newRev.ProposedRelated, article.RelatedArticles), ", "))
	add("content_format", string(oldRev.ContentFormat), string(newRev.ContentFormat))
	return changes
}
