// internal/models/petition.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// Petition records a user's interest in acquiring a book by ISBN.
type Petition struct {
	UserID    uuid.UUID     `json:"user_id" gorm:"type:uuid;primaryKey"`
	ISBN      string        `json:"isbn" gorm:"size:20;primaryKey"`
	Level     PetitionLevel `json:"level" gorm:"not null"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`

	User User `json:"-" gorm:"foreignKey:UserID"`
}
