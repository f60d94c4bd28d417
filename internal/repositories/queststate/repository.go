// Package queststate provides repository interface and types for per-user
// quest state: the three quest lists plus the player reward ledger,
// persisted as one JSON document.
package queststate

import (
	"context"
	"time"

	"github.com/calistree/progression-api/internal/catalog"
)

// Status is the lifecycle state of a quest
type Status string

// Quest lifecycle states. Locked is initial; completed and expired are
// terminal.
const (
	StatusLocked    Status = "locked"
	StatusAvailable Status = "available"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusExpired   Status = "expired"
)

// Progress tracks a quest's counter against its target
type Progress struct {
	Current int `json:"current"`
	Target  int `json:"target"`
}

// IsCompleted reports whether the counter has reached the target
func (p Progress) IsCompleted() bool {
	return p.Current >= p.Target
}

// Reward is the payout carried by a quest record
type Reward struct {
	Experience int    `json:"experience"`
	Coins      int    `json:"coins"`
	Title      string `json:"title,omitempty"`
	Badge      string `json:"badge,omitempty"`
}

// Quest is a runtime quest record. Template-instantiated quests keep
// their template id; dynamically generated quests carry a generated id
// and an empty template id.
type Quest struct {
	ID             string             `json:"id"`
	TemplateID     string             `json:"templateId,omitempty"`
	Name           string             `json:"name"`
	Description    string             `json:"description,omitempty"`
	Type           catalog.QuestType  `json:"type"`
	Difficulty     catalog.Difficulty `json:"difficulty"`
	RequiredLevel  int                `json:"requiredLevel"`
	RequiredSkills []string           `json:"requiredSkills,omitempty"`
	Prerequisites  []string           `json:"prerequisites,omitempty"`
	TargetSkills   []string           `json:"targetSkills,omitempty"`
	TargetTrees    []string           `json:"targetTrees,omitempty"`
	Progress       Progress           `json:"progress"`
	Reward         Reward             `json:"reward"`
	Status         Status             `json:"status"`
	StartedAt      *time.Time         `json:"startedAt,omitempty"`
	CompletedAt    *time.Time         `json:"completedAt,omitempty"`
	ExpiresAt      *time.Time         `json:"expiresAt,omitempty"`
}

// Document is the persisted quest state for one user
type Document struct {
	AvailableQuests  []*Quest `json:"availableQuests"`
	ActiveQuests     []*Quest `json:"activeQuests"`
	CompletedQuests  []*Quest `json:"completedQuests"`
	PlayerExperience int      `json:"playerExperience"`
	PlayerCoins      int      `json:"playerCoins"`
	PlayerTitles     []string `json:"playerTitles"`
	PlayerBadges     []string `json:"playerBadges"`
}

// GetInput contains parameters for reading a user's quest document
type GetInput struct {
	UserID string
}

// GetOutput contains the quest document
type GetOutput struct {
	Document *Document
}

// SaveInput contains parameters for writing a user's quest document
type SaveInput struct {
	UserID   string
	Document *Document
}

// SaveOutput contains the result of a save
type SaveOutput struct{}

// DeleteInput contains parameters for removing a user's quest document
type DeleteInput struct {
	UserID string
}

// DeleteOutput contains the result of a delete
type DeleteOutput struct{}

// Repository defines the interface for quest state storage
type Repository interface {
	// Get reads the quest document for a user. Returns NotFound when no
	// document exists yet.
	Get(ctx context.Context, input GetInput) (*GetOutput, error)

	// Save writes the full quest document for a user
	Save(ctx context.Context, input SaveInput) (*SaveOutput, error)

	// Delete removes the quest document for a user
	Delete(ctx context.Context, input DeleteInput) (*DeleteOutput, error)
}
