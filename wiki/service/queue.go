package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/emberwiki/emberwiki/wiki"
	"github.com/emberwiki/emberwiki/wiki/repository"
	"github.com/microcosm-cc/bluemonday"
)

// MaxReportDetailLen caps the free-text note on a report.
const MaxReportDetailLen = 1000

// QueueService produces the staff review worklists and owns the report
// lifecycle.
type QueueService interface {
	// ModerationQueue returns all pending revisions and open reports,
	// oldest first, enriched for display. Staff only.
	ModerationQueue(viewer *wiki.Viewer) (*wiki.ModerationQueue, error)

	// SubmitReport files a flag against a target entity. Any
	// authenticated user, rate limited.
	SubmitReport(ctx context.Context, viewer *wiki.Viewer, targetType wiki.TargetType, targetID string, reason wiki.ReportReason, detail string) (*wiki.Report, error)

	// ResolveReport closes a report as resolved or dismissed. Staff
	// only; never mutates the reported target.
	ResolveReport(viewer *wiki.Viewer, reportID int64, status wiki.ReportStatus, detail string) (*wiki.Report, error)
}

// targetResolver turns a report target into a display label and an
// optional navigable link.
type targetResolver func(s *queueService, report *wiki.Report) (label, link string, err error)

// targetResolvers maps resolvable target kinds. Adding a target kind is a
// one-entry change; kinds without an entry degrade to a raw type:id label
// with no link.
var targetResolvers = map[wiki.TargetType]targetResolver{
	wiki.TargetArticle: func(s *queueService, r *wiki.Report) (string, string, error) {
		id, err := strconv.ParseInt(r.TargetID, 10, 64)
		if err != nil {
			return "", "", err
		}
		article, err := s.store.SelectArticleByID(id)
		if err != nil {
			return "", "", err
		}
		return fmt.Sprintf("Article: %s", article.Title), "/wiki/" + article.Slug, nil
	},
	wiki.TargetRevision: func(s *queueService, r *wiki.Report) (string, string, error) {
		id, err := strconv.ParseInt(r.TargetID, 10, 64)
		if err != nil {
			return "", "", err
		}
		rev, err := s.store.SelectRevision(id)
		if err != nil {
			return "", "", err
		}
		article, err := s.store.SelectArticleByID(rev.ArticleID)
		if err != nil {
			return "", "", err
		}
		label := fmt.Sprintf("Revision r%d of %s", rev.RevisionNumber, article.Title)
		link := fmt.Sprintf("/wiki/%s?rev=%d", article.Slug, rev.RevisionNumber)
		return label, link, nil
	},
	wiki.TargetUser: func(s *queueService, r *wiki.Report) (string, string, error) {
		profile, err := s.store.SelectProfile(r.TargetID)
		if err != nil {
			return "", "", err
		}
		return fmt.Sprintf("User: %s", profile.Username), "/users/" + profile.Username, nil
	},
}

type queueService struct {
	store   repository.Store
	limiter repository.RateLimiter
	limits  RateLimits
	strip   *bluemonday.Policy
}

// NewQueueService creates a QueueService over the given store and rate
// limiter.
func NewQueueService(store repository.Store, limiter repository.RateLimiter, limits RateLimits) QueueService {
	return &queueService{
		store:   store,
		limiter: limiter,
		limits:  limits,
		strip:   bluemonday.StrictPolicy(),
	}
}

// ModerationQueue assembles the two staff worklists.
func (s *queueService) ModerationQueue(viewer *wiki.Viewer) (*wiki.ModerationQueue, error) {
	if viewer.IsAnonymous() {
		return nil, wiki.ErrUnauthorized
	}
	if !viewer.Staff {
		return nil, wiki.ErrStaffRequired
	}

	pending, err := s.store.SelectPendingRevisions()
	if err != nil {
		return nil, &wiki.UpstreamError{Op: "select pending revisions", Err: err}
	}

	reports, err := s.store.SelectOpenReports()
	if err != nil {
		return nil, &wiki.UpstreamError{Op: "select open reports", Err: err}
	}

	entries := make([]*wiki.ReportEntry, 0, len(reports))
	for _, report := range reports {
		entries = append(entries, s.describeTarget(report))
	}

	return &wiki.ModerationQueue{
		PendingRevisions: pending,
		OpenReports:      entries,
	}, nil
}

// describeTarget resolves a report's target through the registry,
// degrading to the raw type:id label when the kind is unregistered or the
// target row is gone.
func (s *queueService) describeTarget(report *wiki.Report) *wiki.ReportEntry {
	entry := &wiki.ReportEntry{Report: report, Label: report.FallbackLabel()}
	resolver, ok := targetResolvers[report.TargetType]
	if !ok {
		return entry
	}
	label, link, err := resolver(s, report)
	if err != nil {
		return entry
	}
	entry.Label = label
	entry.Link = link
	return entry
}

// SubmitReport files a flag against a target entity.
func (s *queueService) SubmitReport(ctx context.Context, viewer *wiki.Viewer, targetType wiki.TargetType, targetID string, reason wiki.ReportReason, detail string) (*wiki.Report, error) {
	if viewer.IsAnonymous() {
		return nil, wiki.ErrUnauthorized
	}
	if !targetType.Valid() {
		return nil, wiki.NewValidationError("target_type", fmt.Sprintf("unknown target type %q", targetType))
	}
	if strings.TrimSpace(targetID) == "" {
		return nil, wiki.NewValidationError("target_id", "must not be empty")
	}
	if !reason.Valid() {
		return nil, wiki.NewValidationError("reason", fmt.Sprintf("unknown reason %q", reason))
	}
	if len(detail) > MaxReportDetailLen {
		return nil, wiki.NewValidationError("detail", fmt.Sprintf("must be at most %d characters", MaxReportDetailLen))
	}
	if err := s.limiter.Check(ctx, "reports", viewer.ActorID, s.limits.ReportWindow, s.limits.ReportMax); err != nil {
		return nil, err
	}

	report := &wiki.Report{
		ReporterID: viewer.ActorID,
		TargetType: targetType,
		TargetID:   targetID,
		Reason:     reason,
		Detail:     s.strip.Sanitize(detail),
		Status:     wiki.ReportOpen,
		Created:    time.Now().UTC(),
	}
	if err := s.store.InsertReport(report); err != nil {
		return nil, &wiki.UpstreamError{Op: "insert report", Err: err}
	}
	return report, nil
}

// ResolveReport closes a report. The reported target itself is never
// touched here; moderating the target is a separate action.
func (s *queueService) ResolveReport(viewer *wiki.Viewer, reportID int64, status wiki.ReportStatus, detail string) (*wiki.Report, error) {
	if viewer.IsAnonymous() {
		return nil, wiki.ErrUnauthorized
	}
	if !viewer.Staff {
		return nil, wiki.ErrStaffRequired
	}
	if status != wiki.ReportResolved && status != wiki.ReportDismissed {
		return nil, wiki.NewValidationError("status", "must be resolved or dismissed")
	}
	if len(detail) > MaxReportDetailLen {
		return nil, wiki.NewValidationError("detail", fmt.Sprintf("must be at most %d characters", MaxReportDetailLen))
	}

	report, err := s.store.SelectReport(reportID)
	if err != nil {
		return nil, translateLookup("select report", err)
	}
	if report.Status != wiki.ReportOpen {
		return nil, wiki.NewValidationError("status", "report is not open")
	}

	now := time.Now().UTC()
	if err := s.store.ResolveReport(report.ID, status, viewer.ActorID, now, s.strip.Sanitize(detail)); err != nil {
		return nil, &wiki.UpstreamError{Op: "resolve report", Err: err}
	}

	resolved, err := s.store.SelectReport(report.ID)
	if err != nil {
		return nil, translateLookup("select report", err)
	}
	return resolved, nil
}
