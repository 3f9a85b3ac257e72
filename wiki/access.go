package wiki

// CanView decides whether a viewer may see a revision, given its status
// and author. Staff see everything; active revisions are public; pending
// revisions are visible only to their author; hidden and deleted revisions
// are invisible to everyone else. Every historical view (history listing,
// raw, blame, compare) filters each revision through this predicate
// individually so invisible revisions never leak, not even into diff
// counts.
func CanView(status Status, authorID string, viewer *Viewer) bool {
	if viewer != nil && viewer.Staff {
		return true
	}
	switch status {
	case StatusActive:
		return true
	case StatusPending:
		return !viewer.IsAnonymous() && viewer.ActorID == authorID
	default:
		return false
	}
}

// FilterVisible returns the revisions of chain the viewer may see,
// preserving order. The result is the only chain history, blame and
// compare are allowed to operate on.
func FilterVisible(chain []*Revision, viewer *Viewer) []*Revision {
	visible := make([]*Revision, 0, len(chain))
	for _, rev := range chain {
		if CanView(rev.Status, rev.AuthorID, viewer) {
			visible = append(visible, rev)
		}
	}
	return visible
}
