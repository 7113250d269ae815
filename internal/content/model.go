package content

import (
	"fmt"
	"time"

	"gorm.io/datatypes"
)

type ContentType string

const (
	TypeText            ContentType = "text"
	TypeVideo           ContentType = "video"
	TypeActivity        ContentType = "activity"
	TypeAdvisorySession ContentType = "advisory_session"
)

// Storage table names for the specialized payload stores.
const (
	TableTexts            = "text_contents"
	TableVideos           = "video_contents"
	TableActivities       = "activity_contents"
	TableAdvisorySessions = "advisory_sessions"
	TableLegacy           = "legacy_contents"
)

// StorageTableFor maps a content type to its specialized store.
func StorageTableFor(t ContentType) (string, error) {
	switch t {
	case TypeText:
		return TableTexts, nil
	case TypeVideo:
		return TableVideos, nil
	case TypeActivity:
		return TableActivities, nil
	case TypeAdvisorySession:
		return TableAdvisorySessions, nil
	default:
		return "", fmt.Errorf("unknown content type %q", t)
	}
}

// RegistryEntry maps a logical content id to its type and physical storage
// location. It is the authoritative owner of type identity.
type RegistryEntry struct {
	ID           uint        `json:"id" gorm:"primaryKey"`
	Title        string      `json:"title" gorm:"size:255;not null"`
	ContentType  ContentType `json:"content_type" gorm:"size:20;not null"`
	StorageTable string      `json:"storage_table" gorm:"size:40;not null"`
	StorageID    uint        `json:"storage_id" gorm:"index;not null"`
	Status       string      `json:"status" gorm:"size:20;default:'active'"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

func (RegistryEntry) TableName() string { return "content_registry" }

// ModulePosition orders registry entries within a module (stage).
type ModulePosition struct {
	ID         uint `json:"id" gorm:"primaryKey"`
	ModuleID   uint `json:"module_id" gorm:"uniqueIndex:idx_module_position"`
	RegistryID uint `json:"registry_id" gorm:"index"`
	Position   int  `json:"position" gorm:"uniqueIndex:idx_module_position"`
}

type TextContent struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	Body string `json:"body"`
}

type VideoContent struct {
	ID       uint   `json:"id" gorm:"primaryKey"`
	URL      string `json:"url" gorm:"size:512"`
	Provider string `json:"provider" gorm:"size:40"`
}

type ActivityContent struct {
	ID                 uint           `json:"id" gorm:"primaryKey"`
	ActivityData       datatypes.JSON `json:"activity_data"`
	PromptSection      string         `json:"prompt_section"`
	SystemInstructions string         `json:"system_instructions"`
}

type AdvisorySession struct {
	ID              uint   `json:"id" gorm:"primaryKey"`
	Description     string `json:"description"`
	DurationMinutes int    `json:"duration_minutes"`
}

// LegacyContent is the original single-table polymorphic schema, retained
// for backward compatibility during migration. Activities may live only
// here and never get a specialized row.
type LegacyContent struct {
	ID                 uint           `json:"id" gorm:"primaryKey"`
	ModuleID           uint           `json:"module_id" gorm:"index"`
	Title              string         `json:"title" gorm:"size:255"`
	ContentType        ContentType    `json:"content_type" gorm:"size:20"`
	Body               string         `json:"body"`
	VideoURL           string         `json:"video_url" gorm:"size:512"`
	Provider           string         `json:"provider" gorm:"size:40"`
	ActivityData       datatypes.JSON `json:"activity_data"`
	PromptSection      string         `json:"prompt_section"`
	SystemInstructions string         `json:"system_instructions"`
	Description        string         `json:"description"`
	SortOrder          int            `json:"sort_order"`
	CreatedAt          time.Time      `json:"createdAt"`
	UpdatedAt          time.Time      `json:"updatedAt"`
}

// UnifiedContent is the merged, type-agnostic projection consumers see.
// It is built on read and never persisted.
type UnifiedContent struct {
	ID           uint        `json:"id"`
	Title        string      `json:"title"`
	ContentType  ContentType `json:"content_type"`
	Position     int         `json:"position"`
	RegistryID   uint        `json:"registry_id"`
	StorageID    uint        `json:"storage_id"`
	StorageTable string      `json:"storage_table"`

	// Type-specific fields, populated according to ContentType.
	Body               string         `json:"body,omitempty"`
	URL                string         `json:"url,omitempty"`
	Provider           string         `json:"provider,omitempty"`
	ActivityData       datatypes.JSON `json:"activity_data,omitempty"`
	PromptSection      string         `json:"prompt_section,omitempty"`
	SystemInstructions string         `json:"system_instructions,omitempty"`
	Description        string         `json:"description,omitempty"`
	DurationMinutes    int            `json:"duration_minutes,omitempty"`
}
