package program

import (
	"time"

	"gorm.io/gorm"
)

type Program struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	Title       string         `json:"title" gorm:"size:255;not null"`
	Description string         `json:"description"`
	Status      string         `json:"status" gorm:"size:20;default:'draft'"` // "draft" or "published"
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
	Stages      []Stage        `json:"-" gorm:"foreignKey:ProgramID"`
}

// Stage is one ordered step of a program. Its ID is the module id the
// content position index refers to.
type Stage struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	ProgramID uint           `json:"program_id" gorm:"index"`
	Title     string         `json:"title" gorm:"size:255;not null"`
	Position  int            `json:"position"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}
