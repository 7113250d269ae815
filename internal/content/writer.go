package content

import (
	"errors"
	"fmt"
	"log"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// IDSpace states which id space a caller holds. The registry id and the
// specialized-table (storage) id overlap numerically; forcing callers to
// declare the space removes the silent-misresolution hazard on deletes.
type IDSpace int

const (
	RegistrySpace IDSpace = iota
	StorageSpace
)

type ContentRef struct {
	Space IDSpace
	ID    uint
}

// Writer performs the multi-table create/update/delete sequences. The
// steps are sequential and not wrapped in a transaction; a later step
// failing leaves earlier writes in place.
type Writer struct {
	db *gorm.DB
}

func NewWriter(db *gorm.DB) *Writer {
	return &Writer{db: db}
}

type CreateInput struct {
	ModuleID    uint
	Title       string
	ContentType ContentType

	Body               string
	URL                string
	Provider           string
	ActivityData       datatypes.JSON
	PromptSection      string
	SystemInstructions string
	Description        string
	DurationMinutes    int
}

// Create inserts the specialized row, then the registry entry, then the
// position-index row at position = current item count.
func (w *Writer) Create(in CreateInput) (*RegistryEntry, error) {
	table, err := StorageTableFor(in.ContentType)
	if err != nil {
		return nil, err
	}

	storageID, err := w.createPayload(table, in)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s payload: %w", in.ContentType, err)
	}

	entry := RegistryEntry{
		Title:        in.Title,
		ContentType:  in.ContentType,
		StorageTable: table,
		StorageID:    storageID,
		Status:       "active",
	}
	if err := w.db.Create(&entry).Error; err != nil {
		// The payload row is orphaned now; we log and surface one error.
		log.Printf("[Content] registry insert failed after payload insert (%s/%d): %v",
			table, storageID, err)
		return nil, fmt.Errorf("failed to create registry entry: %w", err)
	}

	var count int64
	if err := w.db.Model(&ModulePosition{}).
		Where("module_id = ?", in.ModuleID).
		Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to count module positions: %w", err)
	}
	pos := ModulePosition{
		ModuleID:   in.ModuleID,
		RegistryID: entry.ID,
		Position:   int(count),
	}
	if err := w.db.Create(&pos).Error; err != nil {
		log.Printf("[Content] position insert failed after registry insert (registry %d): %v",
			entry.ID, err)
		return nil, fmt.Errorf("failed to create module position: %w", err)
	}
	return &entry, nil
}

func (w *Writer) createPayload(table string, in CreateInput) (uint, error) {
	switch table {
	case TableTexts:
		row := TextContent{Body: in.Body}
		if err := w.db.Create(&row).Error; err != nil {
			return 0, err
		}
		return row.ID, nil
	case TableVideos:
		row := VideoContent{URL: in.URL, Provider: in.Provider}
		if err := w.db.Create(&row).Error; err != nil {
			return 0, err
		}
		return row.ID, nil
	case TableActivities:
		row := ActivityContent{
			ActivityData:       in.ActivityData,
			PromptSection:      in.PromptSection,
			SystemInstructions: in.SystemInstructions,
		}
		if err := w.db.Create(&row).Error; err != nil {
			return 0, err
		}
		return row.ID, nil
	case TableAdvisorySessions:
		row := AdvisorySession{Description: in.Description, DurationMinutes: in.DurationMinutes}
		if err := w.db.Create(&row).Error; err != nil {
			return 0, err
		}
		return row.ID, nil
	}
	return 0, fmt.Errorf("unknown storage table %q", table)
}

type UpdateInput struct {
	Title    string
	Position *int

	Body               string
	URL                string
	Provider           string
	ActivityData       datatypes.JSON
	PromptSection      string
	SystemInstructions string
	Description        string
	DurationMinutes    int
}

// Update edits the specialized row in place, then the registry title, then
// the position when reordering. Activities without a registry entry are
// updated through the legacy table (dual-path, keyed on registry presence).
func (w *Writer) Update(id uint, contentType ContentType, in UpdateInput) error {
	var entry RegistryEntry
	err := w.db.First(&entry, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) && contentType == TypeActivity {
		// Legacy-resident activity: id is the legacy row id.
		return w.updateLegacyActivity(id, in)
	}
	if err != nil {
		return fmt.Errorf("failed to find registry entry %d: %w", id, err)
	}

	if err := w.updatePayload(entry, in); err != nil {
		return fmt.Errorf("failed to update %s payload: %w", entry.ContentType, err)
	}

	if in.Title != "" && in.Title != entry.Title {
		if err := w.db.Model(&entry).Update("title", in.Title).Error; err != nil {
			return fmt.Errorf("failed to update registry title: %w", err)
		}
	}

	if in.Position != nil {
		if err := w.db.Model(&ModulePosition{}).
			Where("registry_id = ?", entry.ID).
			Update("position", *in.Position).Error; err != nil {
			return fmt.Errorf("failed to update position: %w", err)
		}
	}
	return nil
}

func (w *Writer) updateLegacyActivity(id uint, in UpdateInput) error {
	var row LegacyContent
	if err := w.db.First(&row, id).Error; err != nil {
		return fmt.Errorf("failed to find legacy activity %d: %w", id, err)
	}
	updates := map[string]interface{}{}
	if in.PromptSection != "" {
		updates["prompt_section"] = in.PromptSection
	}
	if in.SystemInstructions != "" {
		updates["system_instructions"] = in.SystemInstructions
	}
	if in.Title != "" {
		updates["title"] = in.Title
	}
	if in.ActivityData != nil {
		updates["activity_data"] = in.ActivityData
	}
	if in.Position != nil {
		updates["sort_order"] = *in.Position
	}
	if len(updates) == 0 {
		return nil
	}
	if err := w.db.Model(&row).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to update legacy activity %d: %w", id, err)
	}
	return nil
}

// updatePayload edits only the fields the request carries; an absent field
// never blanks the stored value. Clearing a field takes a full rewrite of
// the content item.
func (w *Writer) updatePayload(entry RegistryEntry, in UpdateInput) error {
	switch entry.StorageTable {
	case TableTexts:
		if in.Body == "" {
			return nil
		}
		return w.db.Model(&TextContent{}).Where("id = ?", entry.StorageID).
			Update("body", in.Body).Error
	case TableVideos:
		updates := map[string]interface{}{}
		if in.URL != "" {
			updates["url"] = in.URL
		}
		if in.Provider != "" {
			updates["provider"] = in.Provider
		}
		if len(updates) == 0 {
			return nil
		}
		return w.db.Model(&VideoContent{}).Where("id = ?", entry.StorageID).
			Updates(updates).Error
	case TableActivities:
		updates := map[string]interface{}{}
		if in.PromptSection != "" {
			updates["prompt_section"] = in.PromptSection
		}
		if in.SystemInstructions != "" {
			updates["system_instructions"] = in.SystemInstructions
		}
		if in.ActivityData != nil {
			updates["activity_data"] = in.ActivityData
		}
		if len(updates) == 0 {
			return nil
		}
		return w.db.Model(&ActivityContent{}).Where("id = ?", entry.StorageID).
			Updates(updates).Error
	case TableLegacy:
		pos := in.Position
		in.Position = nil // sort_order handled via module position here
		err := w.updateLegacyActivity(entry.StorageID, in)
		in.Position = pos
		return err
	case TableAdvisorySessions:
		updates := map[string]interface{}{}
		if in.Description != "" {
			updates["description"] = in.Description
		}
		if in.DurationMinutes != 0 {
			updates["duration_minutes"] = in.DurationMinutes
		}
		if len(updates) == 0 {
			return nil
		}
		return w.db.Model(&AdvisorySession{}).Where("id = ?", entry.StorageID).
			Updates(updates).Error
	}
	return fmt.Errorf("unknown storage table %q", entry.StorageTable)
}

// Delete removes position rows, then the specialized row, then the registry
// entry. Each step is best-effort: a failure is logged and the next step
// still runs. When the ref is a registry id that matches nothing, an
// alternate lookup by storage id is attempted before giving up.
func (w *Writer) Delete(ref ContentRef) error {
	var entry RegistryEntry
	var err error
	switch ref.Space {
	case RegistrySpace:
		err = w.db.First(&entry, ref.ID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			err = w.db.Where("storage_id = ?", ref.ID).First(&entry).Error
		}
	case StorageSpace:
		err = w.db.Where("storage_id = ?", ref.ID).First(&entry).Error
	}
	if err != nil {
		return fmt.Errorf("failed to find registry entry for ref %d: %w", ref.ID, err)
	}

	var firstErr error
	if err := w.db.Where("registry_id = ?", entry.ID).
		Delete(&ModulePosition{}).Error; err != nil {
		log.Printf("[Content] failed to delete positions for registry %d: %v", entry.ID, err)
		firstErr = err
	}

	// Activities resident in the legacy table keep their legacy row.
	if entry.StorageTable != TableLegacy {
		if err := w.deletePayload(entry); err != nil {
			log.Printf("[Content] failed to delete payload %s/%d: %v",
				entry.StorageTable, entry.StorageID, err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	if err := w.db.Delete(&RegistryEntry{}, entry.ID).Error; err != nil {
		log.Printf("[Content] failed to delete registry entry %d: %v", entry.ID, err)
		if firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		return fmt.Errorf("delete of content %d incomplete: %w", entry.ID, firstErr)
	}
	return nil
}

func (w *Writer) deletePayload(entry RegistryEntry) error {
	switch entry.StorageTable {
	case TableTexts:
		return w.db.Delete(&TextContent{}, entry.StorageID).Error
	case TableVideos:
		return w.db.Delete(&VideoContent{}, entry.StorageID).Error
	case TableActivities:
		return w.db.Delete(&ActivityContent{}, entry.StorageID).Error
	case TableAdvisorySessions:
		return w.db.Delete(&AdvisorySession{}, entry.StorageID).Error
	}
	return fmt.Errorf("unknown storage table %q", entry.StorageTable)
}
