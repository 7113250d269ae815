package activity

import (
	"errors"

	"coachdesk/internal/content"

	"gorm.io/gorm"
)

// ResolveID normalizes the two overlapping id spaces into the canonical
// activity id. A registry entry whose id equals the given id wins and its
// storage id is returned; otherwise the id is assumed canonical already.
// Canonical ids resolve to themselves, so the function is idempotent.
func ResolveID(db *gorm.DB, id uint) uint {
	var entry content.RegistryEntry
	err := db.Where("id = ? AND content_type = ?", id, content.TypeActivity).
		First(&entry).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			// Lookup trouble degrades to pass-through; callers treat the
			// id as canonical.
			return id
		}
		return id
	}
	return entry.StorageID
}
