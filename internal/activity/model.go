package activity

import (
	"time"

	"gorm.io/datatypes"
)

// DetectionQuery configures how a deliverable is detected in user output.
// Exactly one of Regex or Keywords must be set.
type DetectionQuery struct {
	Regex    string   `json:"regex,omitempty"`
	Keywords []string `json:"keywords,omitempty"`
}

// Deliverable is a specific, detectable artifact an activity expects the
// user to produce.
type Deliverable struct {
	ID             uint           `json:"id" gorm:"primaryKey"`
	ActivityID     uint           `json:"activity_id" gorm:"index;not null"`
	Code           string         `json:"code" gorm:"size:40;not null"`
	Description    string         `json:"description"`
	DetectionQuery datatypes.JSON `json:"detection_query"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

// RubricCriterion is a weighted success condition the evaluating model
// scores on a 0-1 scale.
type RubricCriterion struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	ActivityID      uint      `json:"activity_id" gorm:"index;not null"`
	CriterionID     string    `json:"criterion_id" gorm:"size:40;not null"`
	SuccessCriteria string    `json:"success_criteria"`
	Weight          float64   `json:"weight"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}
