package content

import (
	"fmt"
	"log"

	"gorm.io/gorm"
)

// NormalizedStore reads the registry + position index + specialized tables.
type NormalizedStore struct {
	db *gorm.DB
}

func NewNormalizedStore(db *gorm.DB) *NormalizedStore {
	return &NormalizedStore{db: db}
}

// Resolve joins position index -> registry -> specialized store into the
// unified projection. A row whose registry entry or payload is missing is
// skipped (logged), not fatal: a partial result beats no result. Only a
// failure to read the position index itself is a hard error.
func (s *NormalizedStore) Resolve(moduleID uint) ([]UnifiedContent, error) {
	var positions []ModulePosition
	if err := s.db.
		Where("module_id = ?", moduleID).
		Order("position asc").
		Find(&positions).Error; err != nil {
		return nil, fmt.Errorf("failed to read position index for module %d: %w", moduleID, err)
	}

	items := make([]UnifiedContent, 0, len(positions))
	for _, pos := range positions {
		var entry RegistryEntry
		if err := s.db.First(&entry, pos.RegistryID).Error; err != nil {
			log.Printf("[Content] skipping position %d: registry entry %d not readable: %v",
				pos.Position, pos.RegistryID, err)
			continue
		}

		item := UnifiedContent{
			ID:           entry.ID,
			Title:        entry.Title,
			ContentType:  entry.ContentType,
			Position:     pos.Position,
			RegistryID:   entry.ID,
			StorageID:    entry.StorageID,
			StorageTable: entry.StorageTable,
		}
		if err := s.fillPayload(&item, entry); err != nil {
			log.Printf("[Content] skipping registry entry %d: payload %s/%d not readable: %v",
				entry.ID, entry.StorageTable, entry.StorageID, err)
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

func (s *NormalizedStore) fillPayload(item *UnifiedContent, entry RegistryEntry) error {
	switch entry.StorageTable {
	case TableTexts:
		var row TextContent
		if err := s.db.First(&row, entry.StorageID).Error; err != nil {
			return err
		}
		item.Body = row.Body
	case TableVideos:
		var row VideoContent
		if err := s.db.First(&row, entry.StorageID).Error; err != nil {
			return err
		}
		item.URL = row.URL
		item.Provider = row.Provider
	case TableActivities:
		var row ActivityContent
		if err := s.db.First(&row, entry.StorageID).Error; err != nil {
			return err
		}
		item.ActivityData = row.ActivityData
		item.PromptSection = row.PromptSection
		item.SystemInstructions = row.SystemInstructions
	case TableLegacy:
		// Activities may still live in the legacy table with a registry
		// entry pointing at them.
		var row LegacyContent
		if err := s.db.First(&row, entry.StorageID).Error; err != nil {
			return err
		}
		item.Body = row.Body
		item.URL = row.VideoURL
		item.Provider = row.Provider
		item.ActivityData = row.ActivityData
		item.PromptSection = row.PromptSection
		item.SystemInstructions = row.SystemInstructions
		item.Description = row.Description
	case TableAdvisorySessions:
		var row AdvisorySession
		if err := s.db.First(&row, entry.StorageID).Error; err != nil {
			return err
		}
		item.Description = row.Description
		item.DurationMinutes = row.DurationMinutes
	default:
		return fmt.Errorf("unknown storage table %q", entry.StorageTable)
	}
	return nil
}
