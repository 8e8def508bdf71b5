// internal/services/petition_service.go
package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/bookswap-backend/internal/models"
	"github.com/javajoker/bookswap-backend/internal/repository"
	"github.com/javajoker/bookswap-backend/internal/utils"
)

type PetitionRequest struct {
	ISBN  string               `json:"isbn" validate:"required,isbn_loose"`
	Level models.PetitionLevel `json:"petIndex"`
}

// ISBNDemand summarizes the petitions for one ISBN without naming who sent them.
type ISBNDemand struct {
	ISBN    string                       `json:"isbn"`
	Total   int                          `json:"total"`
	ByLevel map[models.PetitionLevel]int `json:"by_level"`
}

type PetitionService struct {
	petitions repository.PetitionRepository
	users     repository.UserRepository
	log       logrus.FieldLogger
}

func NewPetitionService(repos *repository.Repositories, log logrus.FieldLogger) *PetitionService {
	return &PetitionService{
		petitions: repos.Petitions,
		users:     repos.Users,
		log:       log.WithField("component", "petitions"),
	}
}

// SetPetition records the caller's interest in an ISBN. Submitting again for
// the same ISBN overwrites the level.
func (s *PetitionService) SetPetition(ctx context.Context, userID uuid.UUID, req PetitionRequest) (*models.Petition, error) {
	req.ISBN = strings.TrimSpace(req.ISBN)
	if err := utils.ValidateStruct(&req); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, dbError("load user", err)
	}

	petition := &models.Petition{UserID: userID, ISBN: req.ISBN, Level: req.Level}
	if err := s.petitions.Upsert(ctx, petition); err != nil {
		return nil, dbError("save petition", err)
	}

	s.log.WithFields(logrus.Fields{
		"user_id": userID,
		"isbn":    req.ISBN,
		"level":   req.Level,
	}).Info("Petition saved")
	return petition, nil
}

func (s *PetitionService) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Petition, error) {
	petitions, err := s.petitions.ListByUser(ctx, userID)
	if err != nil {
		return nil, dbError("list petitions", err)
	}
	return petitions, nil
}

func (s *PetitionService) ListForISBN(ctx context.Context, isbn string) ([]models.Petition, error) {
	petitions, err := s.petitions.ListByISBN(ctx, strings.TrimSpace(isbn))
	if err != nil {
		return nil, dbError("list petitions", err)
	}
	return petitions, nil
}

// DemandForISBN counts the petitions for isbn per level.
func (s *PetitionService) DemandForISBN(ctx context.Context, isbn string) (*ISBNDemand, error) {
	isbn = strings.TrimSpace(isbn)
	petitions, err := s.ListForISBN(ctx, isbn)
	if err != nil {
		return nil, err
	}

	demand := &ISBNDemand{ISBN: isbn, Total: len(petitions), ByLevel: map[models.PetitionLevel]int{}}
	for _, p := range petitions {
		demand.ByLevel[p.Level]++
	}
	return demand, nil
}
