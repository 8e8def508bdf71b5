// internal/handlers/errors.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/bookswap-backend/internal/i18n"
	"github.com/javajoker/bookswap-backend/internal/models"
	"github.com/javajoker/bookswap-backend/internal/services"
	"github.com/javajoker/bookswap-backend/internal/utils"
)

// respondError maps a service error to the response envelope. Missing
// resources are 404 on reads and 400 on mutating routes.
func respondError(c *gin.Context, log logrus.FieldLogger, err error, notFoundKey string, mutating bool) {
	lang := utils.GetLangFromContext(c)

	switch {
	case errors.Is(err, services.ErrValidation):
		if details := utils.GetValidationErrors(err); len(details) > 0 {
			utils.ValidationErrorResponse(c, details)
			return
		}
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
	case errors.Is(err, services.ErrForbidden):
		utils.ErrorResponse(c, http.StatusBadRequest, "FORBIDDEN", i18n.T(lang, i18n.KeyBookForbidden), nil)
	case errors.Is(err, services.ErrNotAvailable):
		utils.ErrorResponse(c, http.StatusBadRequest, "NOT_AVAILABLE", i18n.T(lang, i18n.KeyBookNotAvailable), nil)
	case errors.Is(err, services.ErrNotActivated):
		utils.ErrorResponse(c, http.StatusBadRequest, "NOT_ACTIVATED", i18n.T(lang, i18n.KeyBookNotActivated), nil)
	case errors.Is(err, services.ErrImageLimit):
		utils.ErrorResponse(c, http.StatusBadRequest, "IMAGE_LIMIT", i18n.T(lang, i18n.KeyImageLimit, models.MaxBookImages), nil)
	case errors.Is(err, services.ErrInvalidCode):
		utils.ErrorResponse(c, http.StatusBadRequest, "INVALID_CODE", i18n.T(lang, i18n.KeyBookInvalidCode), nil)
	case errors.Is(err, services.ErrNotFound):
		if !mutating {
			utils.NotFoundResponse(c, notFoundKey)
			return
		}
		utils.ErrorResponse(c, http.StatusBadRequest, "NOT_FOUND", i18n.T(lang, notFoundKey), nil)
	case errors.Is(err, services.ErrStorage):
		log.WithError(err).WithField("path", c.FullPath()).Error("Storage failure")
		utils.ErrorResponse(c, http.StatusInternalServerError, "STORAGE_ERROR", i18n.T(lang, i18n.KeyImageStorage), nil)
	default:
		log.WithError(err).WithField("path", c.FullPath()).Error("Request failed")
		utils.InternalErrorResponse(c, "")
	}
}

func parseID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(utils.GetLangFromContext(c), i18n.KeyValidationInvalid, name), nil)
		return uuid.Nil, false
	}
	return id, true
}

func callerID(c *gin.Context) (uuid.UUID, bool) {
	id, ok := utils.GetUserIDFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
	}
	return id, ok
}
