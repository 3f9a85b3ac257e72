package service

import (
	"log/slog"

	"github.com/emberwiki/emberwiki/wiki"
	"github.com/emberwiki/emberwiki/wiki/repository"
)

// ViewerService maps an optional authenticated session to the viewer
// identity every access decision consumes.
type ViewerService interface {
	// ResolveViewer resolves a session. A nil session yields the
	// anonymous viewer; a session that fails to resolve is an error.
	// Write paths use this so an edit can never silently proceed as
	// anonymous.
	ResolveViewer(session *repository.Session) (*wiki.Viewer, error)

	// ResolveViewerForRead is ResolveViewer with graceful degradation:
	// any resolution failure yields the anonymous viewer so a page
	// render never fails on a broken session.
	ResolveViewerForRead(session *repository.Session) *wiki.Viewer
}

type viewerService struct {
	identity repository.IdentityProvider
}

// NewViewerService creates a ViewerService over the given identity
// provider.
func NewViewerService(identity repository.IdentityProvider) ViewerService {
	return &viewerService{identity: identity}
}

// ResolveViewer resolves a session to a viewer, hard-failing on broken
// sessions.
func (s *viewerService) ResolveViewer(session *repository.Session) (*wiki.Viewer, error) {
	if session == nil {
		return wiki.Anonymous(), nil
	}

	actorID, err := s.identity.ResolveActor(session)
	if err != nil {
		return nil, err
	}

	profile, err := s.identity.GetOrCreateProfile(actorID, repository.ProfileHints{
		Email:       session.Email,
		DisplayName: session.DisplayName,
	})
	if err != nil {
		return nil, err
	}

	return profile.Viewer(), nil
}

// ResolveViewerForRead degrades any resolution failure to anonymous.
func (s *viewerService) ResolveViewerForRead(session *repository.Session) *wiki.Viewer {
	viewer, err := s.ResolveViewer(session)
	if err != nil {
		slog.Warn("viewer resolution failed, treating as anonymous", "error", err)
		return wiki.Anonymous()
	}
	return viewer
}
