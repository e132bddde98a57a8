package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/skillswap/skillswap-api/internal/models"
	"github.com/skillswap/skillswap-api/internal/services"
)

// ExchangeHandler handles exchange HTTP requests
type ExchangeHandler struct {
	service services.ExchangeServiceInterface
}

// NewExchangeHandler creates a new exchange handler
func NewExchangeHandler(service services.ExchangeServiceInterface) *ExchangeHandler {
	return &ExchangeHandler{service: service}
}

// Initiate handles POST /api/v1/exchanges
func (h *ExchangeHandler) Initiate(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req models.InitiateExchangeRequest
	if !bindJSON(c, &req) {
		return
	}

	ex, err := h.service.Initiate(c.Request.Context(), userID, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, ex)
}

// List handles GET /api/v1/exchanges
func (h *ExchangeHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	resp, err := h.service.ListForUser(c.Request.Context(), userID, c.Query("status"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Upcoming handles GET /api/v1/exchanges/upcoming
func (h *ExchangeHandler) Upcoming(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	resp, err := h.service.Upcoming(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Get handles GET /api/v1/exchanges/:id
func (h *ExchangeHandler) Get(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	detail, err := h.service.Get(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, detail)
}

// Accept handles POST /api/v1/exchanges/:id/accept
func (h *ExchangeHandler) Accept(c *gin.Context) {
	h.transition(c, h.service.Accept)
}

// Reject handles POST /api/v1/exchanges/:id/reject
func (h *ExchangeHandler) Reject(c *gin.Context) {
	h.transition(c, h.service.Reject)
}

// Cancel handles POST /api/v1/exchanges/:id/cancel
func (h *ExchangeHandler) Cancel(c *gin.Context) {
	h.transition(c, h.service.Cancel)
}

// Complete handles POST /api/v1/exchanges/:id/complete
func (h *ExchangeHandler) Complete(c *gin.Context) {
	h.transition(c, h.service.Complete)
}

type transitionFunc func(ctx context.Context, exchangeID, actorID string) (*models.Exchange, error)

func (h *ExchangeHandler) transition(c *gin.Context, apply transitionFunc) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	ex, err := apply(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ex)
}
