package repository

import "gorm.io/gorm"

// Repositories bundles every store backed by the same database handle.
type Repositories struct {
	Books     BookRepository
	Images    ImageRepository
	Users     UserRepository
	Petitions PetitionRepository
}

func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Books:     NewBookRepository(db),
		Images:    NewImageRepository(db),
		Users:     NewUserRepository(db),
		Petitions: NewPetitionRepository(db),
	}
}
