package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/writeitupx/backend/internal/model"
	"github.com/writeitupx/backend/internal/service"
)

type LetterHandler struct {
	svc *service.LetterService
}

func NewLetterHandler(svc *service.LetterService) *LetterHandler {
	return &LetterHandler{svc: svc}
}

// List godoc
// @Summary List letters owned by or shared with the current user
// @Tags letters
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.Letter
// @Router /api/letters [get]
func (h *LetterHandler) List(c *gin.Context) {
	user := GetAuthUser(c)
	letters, err := h.svc.List(c.Request.Context(), user.ID)
	if err != nil {
		writeLetterError(c, err)
		return
	}
	c.JSON(http.StatusOK, letters)
}

// Get godoc
// @Summary Get a single letter
// @Tags letters
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.Letter
// @Failure 404 {object} model.ErrorResponse
// @Router /api/letters/{id} [get]
func (h *LetterHandler) Get(c *gin.Context) {
	user := GetAuthUser(c)
	letterID, ok := parseLetterID(c)
	if !ok {
		return
	}

	letter, err := h.svc.Get(c.Request.Context(), letterID, user.ID)
	if err != nil {
		writeLetterError(c, err)
		return
	}
	c.JSON(http.StatusOK, letter)
}

// Create godoc
// @Summary Create a letter
// @Tags letters
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 201 {object} model.Letter
// @Failure 400 {object} model.ErrorResponse
// @Router /api/letters [post]
func (h *LetterHandler) Create(c *gin.Context) {
	user := GetAuthUser(c)
	var req model.LetterCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse("INVALID_REQUEST", "Invalid request body"))
		return
	}

	letter, err := h.svc.Create(c.Request.Context(), user.ID, req)
	if err != nil {
		writeLetterError(c, err)
		return
	}
	c.JSON(http.StatusCreated, letter)
}

// Update godoc
// @Summary Update a letter
// @Tags letters
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.Letter
// @Failure 404 {object} model.ErrorResponse
// @Router /api/letters/{id} [put]
func (h *LetterHandler) Update(c *gin.Context) {
	user := GetAuthUser(c)
	letterID, ok := parseLetterID(c)
	if !ok {
		return
	}

	var req model.LetterUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse("INVALID_REQUEST", "Invalid request body"))
		return
	}

	letter, err := h.svc.Update(c.Request.Context(), letterID, user.ID, req)
	if err != nil {
		writeLetterError(c, err)
		return
	}
	c.JSON(http.StatusOK, letter)
}

// Delete godoc
// @Summary Delete an owned letter
// @Tags letters
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.LetterDeleteResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /api/letters/{id} [delete]
func (h *LetterHandler) Delete(c *gin.Context) {
	user := GetAuthUser(c)
	letterID, ok := parseLetterID(c)
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), letterID, user.ID); err != nil {
		writeLetterError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.LetterDeleteResponse{Message: "Letter deleted successfully"})
}

// SaveToDrive godoc
// @Summary Export a letter to the user's Google Drive
// @Tags letters
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.DriveSaveResponse
// @Failure 404 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /api/letters/{id}/save-to-drive [post]
func (h *LetterHandler) SaveToDrive(c *gin.Context) {
	user := GetAuthUser(c)
	letterID, ok := parseLetterID(c)
	if !ok {
		return
	}

	var req model.DriveSaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse("INVALID_REQUEST", "Invalid request body"))
		return
	}

	fileID, err := h.svc.SaveToDrive(c.Request.Context(), letterID, user.ID, req.Content)
	if err != nil {
		if errors.Is(err, service.ErrLetterNotFound) {
			writeLetterError(c, err)
			return
		}
		c.JSON(http.StatusInternalServerError, model.NewErrorResponse("GOOGLE_API_ERROR", "Error saving to Google Drive"))
		return
	}
	c.JSON(http.StatusOK, model.DriveSaveResponse{Message: "Saved to Google Drive", DriveFileID: fileID})
}

func parseLetterID(c *gin.Context) (uuid.UUID, bool) {
	letterID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse("INVALID_ID", "Invalid letter id"))
		return uuid.Nil, false
	}
	return letterID, true
}

func writeLetterError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidLetter):
		c.JSON(http.StatusBadRequest, model.NewErrorResponse("INVALID_LETTER", "Letter title is required"))
	case errors.Is(err, service.ErrLetterNotFound):
		c.JSON(http.StatusNotFound, model.NewErrorResponse("LETTER_NOT_FOUND", "Letter not found or insufficient permissions"))
	default:
		c.JSON(http.StatusInternalServerError, model.NewErrorResponse("INTERNAL_ERROR", "An unexpected error occurred"))
	}
}
