// internal/models/user.go
package models

// User is the read model of accounts owned by the external auth service.
// This core only reads it for seller info and notifications.
type User struct {
	BaseModel
	Name     string `json:"name" gorm:"size:100;not null"`
	Email    string `json:"email" gorm:"uniqueIndex;size:255;not null"`
	Location string `json:"location" gorm:"size:255"`
	Active   bool   `json:"active"`

	// Relationships
	Books     []Book     `json:"books,omitempty" gorm:"foreignKey:OwnerID"`
	Petitions []Petition `json:"petitions,omitempty" gorm:"foreignKey:UserID"`
}
