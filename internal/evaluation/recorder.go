package evaluation

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Recorder persists evaluation outcomes idempotently and keeps the
// per-user completion record current.
type Recorder struct {
	db *gorm.DB
}

func NewRecorder(db *gorm.DB) *Recorder {
	return &Recorder{db: db}
}

// Record inserts the log unless its conversation hash was seen before.
// The existence check closes the common retry case; the unique index on
// conversation_hash closes the race between two concurrent evaluations, in
// which case the losing insert's conflict is treated as the dedup signal.
// A completing evaluation also upserts the completion record; a later
// non-completing one never reverts it.
func (r *Recorder) Record(entry *EvaluationLog) error {
	if entry.ConversationHash == "" {
		return errors.New("evaluation log requires a conversation hash")
	}

	var count int64
	if err := r.db.Model(&EvaluationLog{}).
		Where("conversation_hash = ?", entry.ConversationHash).
		Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check evaluation log: %w", err)
	}
	if count > 0 {
		log.Printf("[Evaluation] duplicate conversation hash %.12s..., skipping", entry.ConversationHash)
		return nil
	}

	if err := r.db.Create(entry).Error; err != nil {
		if isDuplicateKey(err) {
			log.Printf("[Evaluation] lost dedup race on hash %.12s..., treating as recorded", entry.ConversationHash)
			return nil
		}
		return fmt.Errorf("failed to insert evaluation log: %w", err)
	}

	if !entry.IsCompleted {
		return nil
	}
	return r.upsertCompletion(entry)
}

func (r *Recorder) upsertCompletion(entry *EvaluationLog) error {
	var rec CompletionRecord
	err := r.db.
		Where("activity_id = ? AND user_id = ?", entry.ActivityID, entry.UserID).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		rec = CompletionRecord{
			ActivityID:      entry.ActivityID,
			UserID:          entry.UserID,
			IsCompleted:     true,
			CompletedAt:     time.Now(),
			EvaluationScore: entry.OverallScore,
		}
		if err := r.db.Create(&rec).Error; err != nil {
			return fmt.Errorf("failed to create completion record: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to check completion record: %w", err)
	}

	rec.IsCompleted = true
	rec.CompletedAt = time.Now()
	rec.EvaluationScore = entry.OverallScore
	if err := r.db.Save(&rec).Error; err != nil {
		return fmt.Errorf("failed to update completion record: %w", err)
	}
	return nil
}

// Completion returns the record for (activity, user), or nil when the user
// has never completed the activity.
func (r *Recorder) Completion(activityID, userID uint) (*CompletionRecord, error) {
	var rec CompletionRecord
	err := r.db.
		Where("activity_id = ? AND user_id = ?", activityID, userID).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch completion record: %w", err)
	}
	return &rec, nil
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}
