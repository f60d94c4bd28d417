// Package auth defines the boundary to the authentication service. The
// progression engines only need a stable user identifier; when none is
// available the session runs in guest mode and persistence is skipped.
package auth

import "context"

// Service supplies the identity of the signed-in user
type Service interface {
	// CurrentUserID returns the signed-in user's id. The second return
	// is false for guest sessions.
	CurrentUserID(ctx context.Context) (string, bool)
}

// Static always reports the same user id. Used for single-tenant
// deployments and tests.
type Static struct {
	UserID string
}

// CurrentUserID returns the configured id
func (s *Static) CurrentUserID(_ context.Context) (string, bool) {
	return s.UserID, s.UserID != ""
}

// NewStatic creates a Service fixed to the given user id
func NewStatic(userID string) Service {
	return &Static{UserID: userID}
}

// Anonymous reports no signed-in user
type Anonymous struct{}

// CurrentUserID always reports a guest session
func (Anonymous) CurrentUserID(_ context.Context) (string, bool) {
	return "", false
}
