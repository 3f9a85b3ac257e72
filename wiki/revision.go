package wiki

import (
	"crypto/sha512"
	"encoding/base64"
	"fmt"
	"time"
)

// Status is the moderation state of a revision.
type Status string

const (
	StatusActive  Status = "active"
	StatusPending Status = "pending"
	StatusHidden  Status = "hidden"
	StatusDeleted Status = "deleted"
)

// Valid reports whether s is a known revision status.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusPending, StatusHidden, StatusDeleted:
		return true
	}
	return false
}

// ModerationAction is a staff decision applied to a revision.
type ModerationAction string

const (
	ActionApprove ModerationAction = "approve"
	ActionReject  ModerationAction = "reject"
	ActionHide    ModerationAction = "hide"
	ActionHold    ModerationAction = "hold"
)

// transitions is the explicit table of which revision statuses each
// moderation action may be applied to. Hidden and deleted revisions never
// regress to pending, and deleted revisions are terminal.
var transitions = map[ModerationAction]map[Status]bool{
	ActionApprove: {StatusPending: true, StatusHidden: true},
	ActionReject:  {StatusActive: true, StatusPending: true, StatusHidden: true},
	ActionHide:    {StatusActive: true, StatusPending: true},
	ActionHold:    {StatusPending: true},
}

// CanTransition reports whether action may be applied to a revision
// currently in status from.
func CanTransition(action ModerationAction, from Status) bool {
	return transitions[action][from]
}

// Result returns the status a revision ends in after action.
func (a ModerationAction) Result() Status {
	switch a {
	case ActionApprove:
		return StatusActive
	case ActionReject:
		return StatusDeleted
	case ActionHide:
		return StatusHidden
	case ActionHold:
		return StatusPending
	}
	return ""
}

// Valid reports whether a is a known moderation action.
func (a ModerationAction) Valid() bool {
	return a == ActionApprove || a == ActionReject || a == ActionHide || a == ActionHold
}

// Revision is an immutable snapshot of a proposed or historical article
// state. Proposed* fields are nil when the submission did not change them
// from the article's then-current value; resolution against the live
// article happens at approve time.
type Revision struct {
	ID             int64         `db:"id"`
	ArticleID      int64         `db:"article_id"`
	RevisionNumber int           `db:"revision_number"`
	Content        string        `db:"content"`
	ContentFormat  ContentFormat `db:"content_format"`
	ContentHash    string        `db:"content_hash"`
	Summary        string        `db:"summary"`

	ProposedTitle    *string   `db:"proposed_title"`
	ProposedCategory *Category `db:"proposed_category"`
	ProposedSummary  *string   `db:"proposed_summary"`
	ProposedTags     []string
	ProposedRelated  []string

	AuthorID   string    `db:"author_id"`
	AuthorName string    `db:"author_name"`
	Status     Status    `db:"status"`
	Created    time.Time `db:"created"`
}

func (r *Revision) String() string {
	return fmt.Sprintf("r%d (%s)", r.RevisionNumber, r.Status)
}

// HashContent computes the advisory digest of a revision body. It is
// shown in history views for display and debugging; it is not an
// integrity mechanism.
func HashContent(content string) string {
	x := sha512.Sum384([]byte(content))
	return base64.URLEncoding.EncodeToString(x[:])
}

// RevertSummary is the auto-set edit summary for a revert submission.
func RevertSummary(revisionNumber int) string {
	return fmt.Sprintf("Revert to r%d", revisionNumber)
}
