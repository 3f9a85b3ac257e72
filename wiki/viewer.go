package wiki

// Role constants for profile authorization.
const (
	RoleUser      = "user"
	RoleModerator = "moderator"
	RoleAdmin     = "admin"
)

// AutoApproveTrust is the trust score at which a non-staff submission
// bypasses moderation and becomes active immediately.
const AutoApproveTrust = 10

// Viewer is the resolved identity behind a request: a stable actor id plus
// the two facts every access decision consumes. A zero ActorID means
// anonymous.
type Viewer struct {
	ActorID    string
	Name       string
	Staff      bool
	TrustScore int
}

// Anonymous returns the unauthenticated viewer.
func Anonymous() *Viewer {
	return &Viewer{}
}

// IsAnonymous reports whether the viewer carries no identity.
func (v *Viewer) IsAnonymous() bool {
	return v == nil || v.ActorID == ""
}

// AutoApproved reports whether submissions from this viewer become active
// without moderation.
func (v *Viewer) AutoApproved() bool {
	return v != nil && (v.Staff || v.TrustScore >= AutoApproveTrust)
}

// Profile is the stored identity record behind an actor id, as returned
// by the identity provider.
type Profile struct {
	ActorID      string `db:"actor_id"`
	Username     string `db:"username"`
	Email        string `db:"email"`
	PasswordHash string `db:"password_hash"`
	TrustScore   int    `db:"trust_score"`
	Role         string `db:"role"`
}

// IsStaff reports whether the profile's role grants moderation rights.
func (p *Profile) IsStaff() bool {
	return p.Role == RoleModerator || p.Role == RoleAdmin
}

// Viewer derives the access-control view of this profile.
func (p *Profile) Viewer() *Viewer {
	return &Viewer{
		ActorID:    p.ActorID,
		Name:       p.Username,
		Staff:      p.IsStaff(),
		TrustScore: p.TrustScore,
	}
}
