// internal/handlers/book.go
package handlers

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/bookswap-backend/internal/i18n"
	"github.com/javajoker/bookswap-backend/internal/models"
	"github.com/javajoker/bookswap-backend/internal/repository"
	"github.com/javajoker/bookswap-backend/internal/services"
	"github.com/javajoker/bookswap-backend/internal/utils"
)

type BookHandler struct {
	bookService *services.BookService
	viewService *services.ViewService
	limits      UploadLimits
	log         logrus.FieldLogger
}

func NewBookHandler(bookService *services.BookService, viewService *services.ViewService, limits UploadLimits, log logrus.FieldLogger) *BookHandler {
	return &BookHandler{
		bookService: bookService,
		viewService: viewService,
		limits:      limits,
		log:         log,
	}
}

// updateBookForm is the multipart body of an edit. imageN is "changed" for
// every slot that receives the next uploaded file; oldImageN is the locator
// of the image that file replaces.
type updateBookForm struct {
	services.BookUpdate
	Image0    string `json:"image0" form:"image0"`
	Image1    string `json:"image1" form:"image1"`
	Image2    string `json:"image2" form:"image2"`
	OldImage0 string `json:"oldImage0" form:"oldImage0"`
	OldImage1 string `json:"oldImage1" form:"oldImage1"`
	OldImage2 string `json:"oldImage2" form:"oldImage2"`
}

func (f *updateBookForm) changeSet() services.ImageChangeSet {
	slots := [models.MaxBookImages][2]string{
		{f.Image0, f.OldImage0},
		{f.Image1, f.OldImage1},
		{f.Image2, f.OldImage2},
	}
	var changes services.ImageChangeSet
	for i, slot := range slots {
		changes[i] = services.ImageSlot{Changed: slot[0] == "changed", OldLocator: slot[1]}
	}
	return changes
}

type availabilityRequest struct {
	Available *bool `json:"available" binding:"required"`
}

// POST /upload/book
func (h *BookHandler) CreateBook(c *gin.Context) {
	ownerID, ok := callerID(c)
	if !ok {
		return
	}
	limitBody(c, h.limits)

	var fields services.BookFields
	if err := c.ShouldBind(&fields); err != nil {
		utils.BadRequestResponse(c, "", err.Error())
		return
	}

	blobs, err := readImages(c, "images", h.limits)
	if err != nil {
		respondError(c, h.log, err, i18n.KeyUserNotFound, true)
		return
	}

	book, err := h.bookService.Create(c.Request.Context(), ownerID, fields, blobs)
	if err != nil {
		respondError(c, h.log, err, i18n.KeyUserNotFound, true)
		return
	}

	utils.CreatedResponse(c, i18n.KeyBookCreated, book)
}

// GET /upload/activate/:code
func (h *BookHandler) ActivateBook(c *gin.Context) {
	book, err := h.bookService.Activate(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondError(c, h.log, err, i18n.KeyBookNotFound, true)
		return
	}

	utils.SuccessMessage(c, i18n.KeyBookActivated, gin.H{"id": book.ID})
}

// PUT /update-book/:id
func (h *BookHandler) UpdateBook(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	bookID, ok := parseID(c, "id")
	if !ok {
		return
	}
	limitBody(c, h.limits)

	var form updateBookForm
	if err := c.ShouldBind(&form); err != nil {
		utils.BadRequestResponse(c, "", err.Error())
		return
	}

	blobs, err := readImages(c, "images", h.limits)
	if err != nil {
		respondError(c, h.log, err, i18n.KeyBookNotFound, true)
		return
	}

	book, err := h.bookService.Update(c.Request.Context(), bookID, userID, form.BookUpdate, form.changeSet(), blobs)
	if err != nil {
		respondError(c, h.log, err, i18n.KeyBookNotFound, true)
		return
	}

	utils.SuccessMessage(c, i18n.KeyBookUpdated, book)
}

// POST /update-book/images/add/:id
func (h *BookHandler) AddImage(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	bookID, ok := parseID(c, "id")
	if !ok {
		return
	}
	limitBody(c, h.limits)

	blobs, err := readImages(c, "image", h.limits)
	if err != nil {
		respondError(c, h.log, err, i18n.KeyBookNotFound, true)
		return
	}
	var data []byte
	if len(blobs) > 0 {
		data = blobs[0]
	}

	image, err := h.bookService.AddImage(c.Request.Context(), bookID, userID, data)
	if err != nil {
		respondError(c, h.log, err, i18n.KeyBookNotFound, true)
		return
	}

	utils.CreatedResponse(c, i18n.KeyImageAdded, image)
}

// DELETE /update-book/images/delete/:id
func (h *BookHandler) DeleteImage(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	imageID, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.bookService.DeleteImage(c.Request.Context(), imageID, userID); err != nil {
		respondError(c, h.log, err, i18n.KeyImageNotFound, true)
		return
	}

	utils.SuccessMessage(c, i18n.KeyImageDeleted, nil)
}

// PUT /user/books/delete/:id
func (h *BookHandler) DeleteBook(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	bookID, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.bookService.Delete(c.Request.Context(), bookID, userID); err != nil {
		respondError(c, h.log, err, i18n.KeyBookNotFound, true)
		return
	}

	utils.SuccessMessage(c, i18n.KeyBookDeleted, nil)
}

// PUT /user/books/availability/:id
func (h *BookHandler) SetAvailability(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	bookID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req availabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "", err.Error())
		return
	}

	book, err := h.bookService.SetAvailability(c.Request.Context(), bookID, userID, *req.Available)
	if err != nil {
		respondError(c, h.log, err, i18n.KeyBookNotFound, true)
		return
	}

	utils.SuccessMessage(c, i18n.KeyBookAvailability, book)
}

// GET /books/info/:id
func (h *BookHandler) GetBook(c *gin.Context) {
	bookID, ok := parseID(c, "id")
	if !ok {
		return
	}

	view, err := h.viewService.GetListingView(c.Request.Context(), bookID)
	if err != nil {
		respondError(c, h.log, err, i18n.KeyBookNotFound, false)
		return
	}

	utils.SuccessResponse(c, view)
}

// GET /books
func (h *BookHandler) SearchBooks(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	filter := repository.BookFilter{
		PaginationParams: params,
		ISBN:             c.Query("isbn"),
		Title:            c.Query("title"),
		Course:           c.Query("course"),
		Editorial:        c.Query("editorial"),
		Level:            c.Query("level"),
	}

	if priceMinStr := c.Query("price_min"); priceMinStr != "" {
		if priceMin, err := strconv.ParseFloat(priceMinStr, 64); err == nil {
			filter.PriceMin = &priceMin
		}
	}

	if priceMaxStr := c.Query("price_max"); priceMaxStr != "" {
		if priceMax, err := strconv.ParseFloat(priceMaxStr, 64); err == nil {
			filter.PriceMax = &priceMax
		}
	}

	views, total, err := h.viewService.Search(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.log, err, i18n.KeyBookNotFound, false)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(views, total, params))
}

// GET /search/:level
func (h *BookHandler) SearchByLevel(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	views, total, err := h.viewService.SearchByLevel(c.Request.Context(), c.Param("level"), params)
	if errors.Is(err, services.ErrValidation) {
		utils.BadRequestResponse(c, i18n.T(utils.GetLangFromContext(c), i18n.KeyBookInvalidLevel), models.EducationLevels)
		return
	}
	if err != nil {
		respondError(c, h.log, err, i18n.KeyBookNotFound, false)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(views, total, params))
}

// GET /user/books
func (h *BookHandler) GetMyBooks(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	views, err := h.viewService.ListOwnerListings(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.log, err, i18n.KeyBookNotFound, false)
		return
	}

	utils.SuccessResponse(c, views)
}
