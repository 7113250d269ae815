package activity

import (
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ErrDuplicate marks validation failures caused by a code or criterion id
// already existing for the activity. Callers distinguish it with errors.Is.
var ErrDuplicate = errors.New("duplicate")

// Store looks up and creates deliverables and rubric criteria. All lookups
// canonicalize the incoming id first so callers may pass either id space.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Deliverables(activityID uint) ([]Deliverable, error) {
	id := ResolveID(s.db, activityID)
	var rows []Deliverable
	if err := s.db.Where("activity_id = ?", id).Order("id asc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch deliverables for activity %d: %w", id, err)
	}
	return rows, nil
}

func (s *Store) Rubric(activityID uint) ([]RubricCriterion, error) {
	id := ResolveID(s.db, activityID)
	var rows []RubricCriterion
	if err := s.db.Where("activity_id = ?", id).Order("id asc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch rubric for activity %d: %w", id, err)
	}
	return rows, nil
}

// CreateDeliverable rejects duplicate codes per activity and detection
// queries that set both or neither mode, before anything is written.
func (s *Store) CreateDeliverable(activityID uint, d *Deliverable) error {
	id := ResolveID(s.db, activityID)

	var q DetectionQuery
	if len(d.DetectionQuery) > 0 {
		if err := json.Unmarshal(d.DetectionQuery, &q); err != nil {
			return fmt.Errorf("invalid detection query: %w", err)
		}
	}
	hasRegex := q.Regex != ""
	hasKeywords := len(q.Keywords) > 0
	if hasRegex == hasKeywords {
		return errors.New("detection query must set exactly one of regex or keywords")
	}

	var count int64
	if err := s.db.Model(&Deliverable{}).
		Where("activity_id = ? AND code = ?", id, d.Code).
		Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check deliverable code: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("%w: deliverable code %q already exists for activity %d", ErrDuplicate, d.Code, id)
	}

	d.ActivityID = id
	if err := s.db.Create(d).Error; err != nil {
		return fmt.Errorf("failed to create deliverable: %w", err)
	}
	return nil
}

// CreateCriterion rejects duplicate criterion ids per activity and weights
// outside (0,1]. Weight sums are advisory only and not checked here.
func (s *Store) CreateCriterion(activityID uint, rc *RubricCriterion) error {
	id := ResolveID(s.db, activityID)

	if rc.Weight <= 0 || rc.Weight > 1 {
		return fmt.Errorf("criterion weight must be in (0,1], got %v", rc.Weight)
	}

	var count int64
	if err := s.db.Model(&RubricCriterion{}).
		Where("activity_id = ? AND criterion_id = ?", id, rc.CriterionID).
		Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check criterion id: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("%w: criterion %q already exists for activity %d", ErrDuplicate, rc.CriterionID, id)
	}

	rc.ActivityID = id
	if err := s.db.Create(rc).Error; err != nil {
		return fmt.Errorf("failed to create rubric criterion: %w", err)
	}
	return nil
}
