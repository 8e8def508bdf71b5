// internal/models/book.go
package models

import (
	"github.com/google/uuid"
)

type Book struct {
	BaseModel
	OwnerID     uuid.UUID `json:"owner_id" gorm:"type:uuid;not null;index"`
	ISBN        string    `json:"isbn" gorm:"size:20;not null;index"`
	Title       string    `json:"title" gorm:"size:255;not null"`
	Course      string    `json:"course" gorm:"size:100;index"`
	Editorial   string    `json:"editorial" gorm:"size:100"`
	EditionYear int       `json:"edition_year"`
	Price       float64   `json:"price" gorm:"type:decimal(10,2);not null"`
	Detail      string    `json:"detail" gorm:"type:text"`
	// ActivationCode is cleared once redeemed.
	ActivationCode *string `json:"-" gorm:"size:64;uniqueIndex"`
	Activated      bool    `json:"activated" gorm:"not null"`
	Available      bool    `json:"available" gorm:"not null"`
	// Revision is bumped after every change to the listing or its images.
	Revision int64 `json:"revision" gorm:"not null;default:0"`

	// Relationships
	Owner  User        `json:"-" gorm:"foreignKey:OwnerID"`
	Images []BookImage `json:"images,omitempty" gorm:"foreignKey:BookID;constraint:OnDelete:CASCADE"`
}

// IsOwnedBy reports whether userID created the listing.
func (b *Book) IsOwnedBy(userID uuid.UUID) bool {
	return b.OwnerID == userID
}

type BookImage struct {
	BaseModel
	BookID uuid.UUID `json:"book_id" gorm:"type:uuid;not null;index"`
	// Path is the opaque storage locator handed out by the blob store.
	Path      string `json:"locator" gorm:"size:255;not null;uniqueIndex"`
	IsPrimary bool   `json:"is_primary" gorm:"not null"`
}
