package evaluation

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
)

// Result is the machine-readable verdict embedded in a model reply.
type Result struct {
	IsCompleted bool    `json:"isCompleted"`
	Message     string  `json:"message"`
	Details     Details `json:"details"`
}

type Details struct {
	OverallScore float64            `json:"overallScore"`
	Rubric       map[string]float64 `json:"rubric"`
}

// EvaluationLog is append-only: one row per distinct conversation hash,
// never updated. The unique index is the backstop for the check-then-insert
// dedup.
type EvaluationLog struct {
	ID               uint                 `json:"id" gorm:"primaryKey"`
	ActivityID       uint                 `json:"activity_id" gorm:"index;not null"`
	UserID           uint                 `json:"user_id" gorm:"index;not null"`
	RubricScores     datatypes.JSONMap    `json:"rubric_scores"`
	OverallScore     float64              `json:"overall_score"`
	FeedbackMessage  string               `json:"feedback_message"`
	IsCompleted      bool                 `json:"is_completed"`
	ConversationHash string               `json:"conversation_hash" gorm:"uniqueIndex;size:64;not null"`
	CreatedAt        time.Time            `json:"createdAt"`
}

// CompletionRecord holds one row per (activity, user). Completion is
// monotonic: it is only ever overwritten by completing evaluations.
type CompletionRecord struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	ActivityID      uint      `json:"activity_id" gorm:"uniqueIndex:idx_completion_activity_user;not null"`
	UserID          uint      `json:"user_id" gorm:"uniqueIndex:idx_completion_activity_user;not null"`
	IsCompleted     bool      `json:"is_completed"`
	CompletedAt     time.Time `json:"completed_at"`
	EvaluationScore float64   `json:"evaluation_score"`
}

// ConversationHash digests the judged conversation state. The same
// activity, user and turn sequence always hash the same, which is what
// makes Record idempotent under client retries.
func ConversationHash(activityID, userID uint, turns []string) string {
	h := sha256.New()
	fmt.Fprintf(h, "%d|%d|", activityID, userID)
	h.Write([]byte(strings.Join(turns, "\x1f")))
	return hex.EncodeToString(h.Sum(nil))
}
