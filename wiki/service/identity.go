package service

import (
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/emberwiki/emberwiki/wiki"
	"github.com/emberwiki/emberwiki/wiki/repository"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// MinimumPasswordLength for locally registered accounts.
const MinimumPasswordLength = 8

var usernamePattern = regexp.MustCompile(`^[\p{L}0-9-_]+$`)

// IdentityService is the built-in identity provider, backed by the local
// profile store with bcrypt credentials. It satisfies
// repository.IdentityProvider; a hosted deployment swaps the whole
// provider for its own and ignores Register/Login.
type IdentityService interface {
	repository.IdentityProvider

	// Register creates a local account and returns its profile.
	Register(username, email, password string) (*wiki.Profile, error)

	// Login verifies credentials and returns the matching profile.
	Login(email, password string) (*wiki.Profile, error)

	// SetRole changes a profile's role. Admin only.
	SetRole(actingViewer *wiki.Viewer, actorID, role string) error

	// SetTrustScore changes a profile's trust score. Staff only.
	SetTrustScore(actingViewer *wiki.Viewer, actorID string, score int) error
}

type identityService struct {
	profiles repository.ProfileRepository
}

// NewIdentityService creates the local identity provider.
func NewIdentityService(profiles repository.ProfileRepository) IdentityService {
	return &identityService{profiles: profiles}
}

// ResolveActor maps a session to its stable actor id. The local provider
// stores the actor id directly in the session token at login.
func (s *identityService) ResolveActor(session *repository.Session) (string, error) {
	if session == nil || session.Token == "" {
		return "", wiki.ErrUnauthorized
	}
	if _, err := s.profiles.SelectProfile(session.Token); err != nil {
		if errors.Is(err, sql.ErrNoRows) || errors.Is(err, wiki.ErrNotFound) {
			return "", wiki.ErrUnauthorized
		}
		return "", &wiki.UpstreamError{Op: "select profile", Err: err}
	}
	return session.Token, nil
}

// GetOrCreateProfile fetches the profile behind an actor id, creating it
// with defaults on first resolution.
func (s *identityService) GetOrCreateProfile(actorID string, hints repository.ProfileHints) (*wiki.Profile, error) {
	profile, err := s.profiles.SelectProfile(actorID)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, sql.ErrNoRows) && !errors.Is(err, wiki.ErrNotFound) {
		return nil, &wiki.UpstreamError{Op: "select profile", Err: err}
	}

	profile = &wiki.Profile{
		ActorID:    actorID,
		Username:   deriveUsername(actorID, hints),
		Email:      hints.Email,
		TrustScore: 0,
		Role:       wiki.RoleUser,
	}
	if err := s.profiles.InsertProfile(profile); err != nil {
		if errors.Is(err, wiki.ErrUsernameTaken) {
			// Collide-and-retry once with a suffix derived from the
			// actor id.
			profile.Username = profile.Username + "-" + shortID(actorID)
			if err := s.profiles.InsertProfile(profile); err != nil {
				return nil, &wiki.UpstreamError{Op: "insert profile", Err: err}
			}
			return profile, nil
		}
		return nil, &wiki.UpstreamError{Op: "insert profile", Err: err}
	}
	return profile, nil
}

// Register creates a local account.
func (s *identityService) Register(username, email, password string) (*wiki.Profile, error) {
	if username == "" {
		return nil, wiki.NewValidationError("username", "must not be empty")
	}
	if !usernamePattern.MatchString(username) {
		return nil, wiki.NewValidationError("username", "must only contain letters, numbers, - or _")
	}
	if !strings.Contains(email, "@") {
		return nil, wiki.NewValidationError("email", "must be a valid address")
	}
	if len(password) < MinimumPasswordLength {
		return nil, wiki.NewValidationError("password",
			fmt.Sprintf("must be at least %d characters long", MinimumPasswordLength))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	profile := &wiki.Profile{
		ActorID:      uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		TrustScore:   0,
		Role:         wiki.RoleUser,
	}
	if err := s.profiles.InsertProfile(profile); err != nil {
		if errors.Is(err, wiki.ErrUsernameTaken) || errors.Is(err, wiki.ErrEmailTaken) {
			return nil, err
		}
		return nil, &wiki.UpstreamError{Op: "insert profile", Err: err}
	}
	return profile, nil
}

// Login verifies credentials against the stored bcrypt hash.
func (s *identityService) Login(email, password string) (*wiki.Profile, error) {
	profile, err := s.profiles.SelectProfileByEmail(email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || errors.Is(err, wiki.ErrNotFound) {
			return nil, wiki.ErrIncorrectPassword
		}
		return nil, &wiki.UpstreamError{Op: "select profile", Err: err}
	}

	err = bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return nil, wiki.ErrIncorrectPassword
	}
	if err != nil {
		return nil, err
	}
	return profile, nil
}

// SetRole changes a profile's role. Admin only; admins cannot demote
// themselves.
func (s *identityService) SetRole(actingViewer *wiki.Viewer, actorID, role string) error {
	if actingViewer.IsAnonymous() {
		return wiki.ErrUnauthorized
	}
	if role != wiki.RoleUser && role != wiki.RoleModerator && role != wiki.RoleAdmin {
		return wiki.NewValidationError("role", fmt.Sprintf("unknown role %q", role))
	}
	acting, err := s.profiles.SelectProfile(actingViewer.ActorID)
	if err != nil {
		return translateLookup("select profile", err)
	}
	if acting.Role != wiki.RoleAdmin {
		return wiki.ErrForbidden
	}
	if acting.ActorID == actorID {
		return wiki.ErrForbidden
	}
	return s.profiles.UpdateProfileRole(actorID, role)
}

// SetTrustScore changes a profile's trust score. Staff only.
func (s *identityService) SetTrustScore(actingViewer *wiki.Viewer, actorID string, score int) error {
	if actingViewer.IsAnonymous() {
		return wiki.ErrUnauthorized
	}
	if !actingViewer.Staff {
		return wiki.ErrStaffRequired
	}
	if score < 0 {
		return wiki.NewValidationError("trust_score", "must not be negative")
	}
	return s.profiles.UpdateProfileTrust(actorID, score)
}

// deriveUsername picks a default username: the display name hint, then
// the email local part, then a fragment of the actor id.
func deriveUsername(actorID string, hints repository.ProfileHints) string {
	if hints.DisplayName != "" {
		return hints.DisplayName
	}
	if at := strings.Index(hints.Email, "@"); at > 0 {
		return hints.Email[:at]
	}
	return "user-" + shortID(actorID)
}

func shortID(actorID string) string {
	if len(actorID) > 8 {
		return actorID[:8]
	}
	return actorID
}
