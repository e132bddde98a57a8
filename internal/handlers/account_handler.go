package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/skillswap/skillswap-api/internal/services"
)

// AccountHandler serves the caller's account and notifications
type AccountHandler struct {
	service services.AccountServiceInterface
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(service services.AccountServiceInterface) *AccountHandler {
	return &AccountHandler{service: service}
}

// GetAccount handles GET /api/v1/me/account
func (h *AccountHandler) GetAccount(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	resp, err := h.service.GetAccount(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ListNotifications handles GET /api/v1/me/notifications
func (h *AccountHandler) ListNotifications(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, "limit must be a number", err)
			return
		}
		limit = parsed
	}

	resp, err := h.service.ListNotifications(c.Request.Context(), userID, limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
