// Package unlocks provides the repository for per-user unlocked-skill
// documents. The document is a map of skill id to unlocked flag; absent
// keys mean locked, and resets remove keys rather than writing false so
// the document stays minimal.
package unlocks

import (
	"context"
)

// GetInput contains parameters for reading a user's unlock document
type GetInput struct {
	UserID string
}

// GetOutput contains the unlock document. A user with no document yet
// gets an empty map, not an error.
type GetOutput struct {
	Unlocked map[string]bool
}

// SetUnlockedInput contains parameters for the merge-write of one skill
type SetUnlockedInput struct {
	UserID  string
	SkillID string
}

// SetUnlockedOutput contains the result of a merge-write
type SetUnlockedOutput struct{}

// DeleteInput contains parameters for removing skill keys from a document
type DeleteInput struct {
	UserID   string
	SkillIDs []string
}

// DeleteOutput contains the number of keys actually removed
type DeleteOutput struct {
	Removed int64
}

// Repository defines the interface for unlock document storage
type Repository interface {
	// Get reads the full unlock document for a user
	Get(ctx context.Context, input GetInput) (*GetOutput, error)

	// SetUnlocked merge-writes a single unlocked skill into the document
	SetUnlocked(ctx context.Context, input SetUnlockedInput) (*SetUnlockedOutput, error)

	// Delete removes the given skill keys from the document
	Delete(ctx context.Context, input DeleteInput) (*DeleteOutput, error)
}
