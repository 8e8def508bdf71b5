// internal/models/common.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate assigns the id in Go so the same schema works on postgres and sqlite.
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// MaxBookImages caps the image set of a single listing.
const MaxBookImages = 3

// ActivationCodeLength is the length of the one-time activation token.
const ActivationCodeLength = 40

// PetitionLevel is an ordinal index into the recognized interest levels.
type PetitionLevel uint8

const (
	PetitionLevelNone PetitionLevel = iota
	PetitionLevelLow
	PetitionLevelMedium
	PetitionLevelHigh
)

// EducationLevel labels recognized by the level search. Courses are stored
// as free text ("2º Bachillerato", "ESO 3") and matched by substring.
var EducationLevels = []string{
	"Infantil",
	"Primaria",
	"ESO",
	"Bachillerato",
	"FP",
	"Universidad",
}
