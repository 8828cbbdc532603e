package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/writeitupx/backend/internal/model"
	"github.com/writeitupx/backend/internal/service"
)

type SuggestHandler struct {
	svc *service.SuggestService
}

func NewSuggestHandler(svc *service.SuggestService) *SuggestHandler {
	return &SuggestHandler{svc: svc}
}

// Suggestions godoc
// @Summary Generate writing suggestions for a draft
// @Tags ai
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.SuggestionResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 429 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /api/ai/suggestions [post]
func (h *SuggestHandler) Suggestions(c *gin.Context) {
	var req model.SuggestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse("INVALID_REQUEST", "Invalid request body"))
		return
	}

	suggestions, err := h.svc.Suggest(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidSuggestionRequest):
			c.JSON(http.StatusBadRequest, model.NewErrorResponse("INVALID_REQUEST", "Text to analyze is required"))
		case errors.Is(err, service.ErrNoSuggestions):
			c.JSON(http.StatusInternalServerError, model.NewErrorResponse("AI_ERROR", "No valid suggestions generated. Please try again."))
		default:
			log.Printf("Failed to generate suggestions: %v", err)
			c.JSON(http.StatusInternalServerError, model.NewErrorResponse("AI_ERROR", "An error occurred while generating suggestions."))
		}
		return
	}

	c.JSON(http.StatusOK, model.SuggestionResponse{Suggestions: suggestions})
}
