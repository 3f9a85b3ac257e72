package repository

import "github.com/emberwiki/emberwiki/wiki"

// Session is the opaque authenticated-session handle handed to the
// identity provider. The transport layer fills it from whatever carries
// the login (a session cookie here); the provider decides what the token
// means.
type Session struct {
	Token       string
	Email       string
	DisplayName string
}

// ProfileHints are the optional signup-time attributes used when a
// profile is created on first resolution.
type ProfileHints struct {
	Email       string
	DisplayName string
}

// IdentityProvider resolves a session to a stable actor identity. The
// built-in provider is backed by the local store; hosted deployments
// substitute their own.
type IdentityProvider interface {
	// ResolveActor maps a session to a stable actor id. Returns
	// wiki.ErrUnauthorized for a nil or unresolvable session.
	ResolveActor(session *Session) (string, error)

	// GetOrCreateProfile fetches the profile behind an actor id, creating
	// it with defaults (username from hints or the email local part,
	// trust 0, role user) when absent.
	GetOrCreateProfile(actorID string, hints ProfileHints) (*wiki.Profile, error)
}
