package wiki

import (
	"database/sql"
	"fmt"
	"time"
)

// TargetType tags the kind of entity a report points at. Targets are weak
// references looked up by (type, id); no foreign key crosses the
// heterogeneous target tables.
type TargetType string

const (
	TargetArticle  TargetType = "article"
	TargetRevision TargetType = "revision"
	TargetPost     TargetType = "post"
	TargetComment  TargetType = "comment"
	TargetUser     TargetType = "user"
)

// Valid reports whether t is a known target type.
func (t TargetType) Valid() bool {
	switch t {
	case TargetArticle, TargetRevision, TargetPost, TargetComment, TargetUser:
		return true
	}
	return false
}

// ReportReason is the fixed set of reasons a user may report something.
type ReportReason string

const (
	ReasonSpam       ReportReason = "spam"
	ReasonAbuse      ReportReason = "abuse"
	ReasonInaccurate ReportReason = "inaccurate"
	ReasonCopyright  ReportReason = "copyright"
	ReasonOther      ReportReason = "other"
)

// Valid reports whether r is a known report reason.
func (r ReportReason) Valid() bool {
	switch r {
	case ReasonSpam, ReasonAbuse, ReasonInaccurate, ReasonCopyright, ReasonOther:
		return true
	}
	return false
}

// ReportStatus is the lifecycle state of a report.
type ReportStatus string

const (
	ReportOpen      ReportStatus = "open"
	ReportResolved  ReportStatus = "resolved"
	ReportDismissed ReportStatus = "dismissed"
)

// Report is a user-raised flag on any target entity. The target id is a
// string because target keys are heterogeneous (numeric rows for articles
// and revisions, actor ids for users). Reports transition only via staff
// action and are never deleted.
type Report struct {
	ID         int64          `db:"id"`
	ReporterID string         `db:"reporter_id"`
	TargetType TargetType     `db:"target_type"`
	TargetID   string         `db:"target_id"`
	Reason     ReportReason   `db:"reason"`
	Detail     string         `db:"detail"`
	Status     ReportStatus   `db:"status"`
	ResolvedBy sql.NullString `db:"resolved_by"`
	ResolvedAt sql.NullTime   `db:"resolved_at"`
	Created    time.Time      `db:"created"`
}

// FallbackLabel is the degraded display label for a report whose target
// type has no registered resolver.
func (r *Report) FallbackLabel() string {
	return fmt.Sprintf("%s:%s", r.TargetType, r.TargetID)
}
