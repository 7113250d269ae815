package content

import (
	"fmt"

	"gorm.io/gorm"
)

// LegacyStore reads the old single-table polymorphic schema. It never
// writes; it is a read-only translation into the unified projection so
// callers cannot distinguish its output from the normalized store's.
type LegacyStore struct {
	db *gorm.DB
}

func NewLegacyStore(db *gorm.DB) *LegacyStore {
	return &LegacyStore{db: db}
}

func (s *LegacyStore) Resolve(moduleID uint) ([]UnifiedContent, error) {
	var rows []LegacyContent
	if err := s.db.
		Where("module_id = ?", moduleID).
		Order("sort_order asc").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to read legacy content for module %d: %w", moduleID, err)
	}

	items := make([]UnifiedContent, 0, len(rows))
	for _, row := range rows {
		items = append(items, UnifiedContent{
			ID:                 row.ID,
			Title:              row.Title,
			ContentType:        row.ContentType,
			Position:           row.SortOrder,
			StorageID:          row.ID,
			StorageTable:       TableLegacy,
			Body:               row.Body,
			URL:                row.VideoURL,
			Provider:           row.Provider,
			ActivityData:       row.ActivityData,
			PromptSection:      row.PromptSection,
			SystemInstructions: row.SystemInstructions,
			Description:        row.Description,
		})
	}
	return items, nil
}
