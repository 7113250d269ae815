package content

import (
	"errors"

	"gorm.io/gorm"
)

// ResolveActivity fetches an activity payload by canonical id, from the
// specialized table first and the legacy table second. A miss in both is
// (nil, nil), not an error: read paths report absence, they do not fail.
func ResolveActivity(db *gorm.DB, id uint) (*UnifiedContent, error) {
	var row ActivityContent
	err := db.First(&row, id).Error
	if err == nil {
		return &UnifiedContent{
			ID:                 row.ID,
			ContentType:        TypeActivity,
			StorageID:          row.ID,
			StorageTable:       TableActivities,
			ActivityData:       row.ActivityData,
			PromptSection:      row.PromptSection,
			SystemInstructions: row.SystemInstructions,
		}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var legacy LegacyContent
	err = db.Where("id = ? AND content_type = ?", id, TypeActivity).First(&legacy).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &UnifiedContent{
		ID:                 legacy.ID,
		Title:              legacy.Title,
		ContentType:        TypeActivity,
		StorageID:          legacy.ID,
		StorageTable:       TableLegacy,
		ActivityData:       legacy.ActivityData,
		PromptSection:      legacy.PromptSection,
		SystemInstructions: legacy.SystemInstructions,
	}, nil
}
