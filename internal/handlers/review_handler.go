package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/skillswap/skillswap-api/internal/models"
	"github.com/skillswap/skillswap-api/internal/services"
)

// ReviewHandler handles review-related HTTP requests
type ReviewHandler struct {
	service services.ReviewServiceInterface
}

// NewReviewHandler creates a new review handler
func NewReviewHandler(service services.ReviewServiceInterface) *ReviewHandler {
	return &ReviewHandler{service: service}
}

// SubmitReview handles POST /api/v1/exchanges/:id/reviews
func (h *ReviewHandler) SubmitReview(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req models.SubmitReviewRequest
	if !bindJSON(c, &req) {
		return
	}

	review, err := h.service.SubmitReview(c.Request.Context(), c.Param("id"), userID, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, models.SubmitReviewResponse{
		Success: true,
		Review:  review,
	})
}
