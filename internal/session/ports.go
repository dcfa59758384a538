package session

import "context"

type (
	// Identity is the minimal authenticated-user view every entity is scoped
	// to. It is always present once a session is authenticated.
	Identity struct {
		ID    string
		Email string
	}

	// Profile is the optional enrichment fetched after authentication. Empty
	// fields simply stay empty; enrichment never gates the session.
	Profile struct {
		DisplayName string
		AvatarURL   string
		Phone       string
		Occupation  string
		Biography   string
		BirthDate   string
	}

	// AuthEvent is an authentication-change notification from the backend.
	AuthEvent struct {
		SignedIn bool
		Identity Identity
	}

	// AuthSource is what a live persistence backend must provide for session
	// management. The demo path needs none of this.
	AuthSource interface {
		// Events streams sign-in and sign-out notifications.
		Events() <-chan AuthEvent
		// FetchProfile reads the enrichment profile for a user id.
		FetchProfile(ctx context.Context, userID string) (Profile, error)
		// SignOut terminates the backend session.
		SignOut(ctx context.Context) error
	}
)
