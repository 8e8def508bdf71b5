// internal/handlers/petition.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/bookswap-backend/internal/i18n"
	"github.com/javajoker/bookswap-backend/internal/services"
	"github.com/javajoker/bookswap-backend/internal/utils"
)

type PetitionHandler struct {
	petitionService *services.PetitionService
	log             logrus.FieldLogger
}

func NewPetitionHandler(petitionService *services.PetitionService, log logrus.FieldLogger) *PetitionHandler {
	return &PetitionHandler{
		petitionService: petitionService,
		log:             log,
	}
}

// POST /user/requests/new
func (h *PetitionHandler) CreatePetition(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	var req services.PetitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "", err.Error())
		return
	}

	petition, err := h.petitionService.SetPetition(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, h.log, err, i18n.KeyUserNotFound, true)
		return
	}

	utils.SuccessMessage(c, i18n.KeyPetitionSaved, petition)
}

// GET /user/requests
func (h *PetitionHandler) GetMyPetitions(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	petitions, err := h.petitionService.ListForUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.log, err, i18n.KeyUserNotFound, false)
		return
	}

	utils.SuccessResponse(c, petitions)
}

// GET /user/requests/isbn/:isbn
func (h *PetitionHandler) GetDemandByISBN(c *gin.Context) {
	demand, err := h.petitionService.DemandForISBN(c.Request.Context(), c.Param("isbn"))
	if err != nil {
		respondError(c, h.log, err, i18n.KeyUserNotFound, false)
		return
	}

	utils.SuccessResponse(c, demand)
}
