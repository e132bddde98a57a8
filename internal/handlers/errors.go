package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/skillswap/skillswap-api/internal/middleware"
	"github.com/skillswap/skillswap-api/internal/services"
)

// attachError attaches err to the gin context so the observability middleware
// can include the reason in the request log. c.Error() returns *gin.Error (not
// the error interface), so we suppress errcheck here intentionally.
func attachError(c *gin.Context, err error) {
	if err != nil {
		_ = c.Error(err) //nolint:errcheck
	}
}

// respondError sends an error JSON response and attaches the error to the gin context
func respondError(c *gin.Context, status int, message string, err error) {
	attachError(c, err)
	c.JSON(status, gin.H{"error": message})
}

// respondErrorWithDetails sends an error response with an additional details field.
func respondErrorWithDetails(c *gin.Context, status int, message string, details any, err error) {
	attachError(c, err)
	c.JSON(status, gin.H{"error": message, "details": details})
}

// serviceErrors maps domain errors to a status and a user-facing message.
// Order matters only for errors that wrap each other.
var serviceErrors = []struct {
	err     error
	status  int
	message string
}{
	{services.ErrNotFound, http.StatusNotFound, "Not found"},
	{services.ErrNotAuthorized, http.StatusForbidden, "You are not allowed to perform this action"},
	{services.ErrNotParticipant, http.StatusForbidden, "Only participants can review this exchange"},
	{services.ErrInvalidParticipants, http.StatusBadRequest, "You cannot create an exchange with yourself"},
	{services.ErrRoleMismatch, http.StatusBadRequest, "Skill assertions do not allow this mentor and learner pairing"},
	{services.ErrLocationRequired, http.StatusBadRequest, "Location is required for in-person exchanges"},
	{services.ErrScheduleInPast, http.StatusBadRequest, "Scheduled time must be in the future"},
	{services.ErrInvalidDuration, http.StatusBadRequest, "Duration is outside the allowed range"},
	{services.ErrInvalidRating, http.StatusBadRequest, "Rating must be between 1 and 5"},
	{services.ErrInvalidStatusFilter, http.StatusBadRequest, "Invalid status filter"},
	{services.ErrInvalidSkillName, http.StatusBadRequest, "Skill name must contain letters or digits"},
	{services.ErrInvalidLevel, http.StatusBadRequest, "Invalid skill level"},
	{services.ErrDuplicateExchange, http.StatusConflict, "An open exchange already exists for this partner and skill"},
	{services.ErrDuplicateReview, http.StatusConflict, "You have already reviewed this exchange"},
	{services.ErrInvalidTransition, http.StatusConflict, "The exchange is not in a state that allows this action"},
	{services.ErrNotCompleted, http.StatusConflict, "Only completed exchanges can be reviewed"},
	{services.ErrSkillExists, http.StatusConflict, "Skill already exists"},
}

// respondServiceError maps a service error to its HTTP response. Unknown
// errors become 500 without leaking details.
func respondServiceError(c *gin.Context, err error) {
	var dup *services.DuplicateExchangeError
	if errors.As(err, &dup) {
		attachError(c, err)
		body := gin.H{"error": "An open exchange already exists for this partner and skill"}
		if dup.ExistingID != "" {
			body["existingExchangeId"] = dup.ExistingID
		}
		c.JSON(http.StatusConflict, body)
		return
	}

	for _, m := range serviceErrors {
		if errors.Is(err, m.err) {
			respondError(c, m.status, m.message, err)
			return
		}
	}

	respondError(c, http.StatusInternalServerError, "Internal server error", err)
}

// currentUserID returns the authenticated user or writes 401
func currentUserID(c *gin.Context) (string, bool) {
	session, err := middleware.GetUserSession(c)
	if err != nil || session.UserID == "" {
		respondError(c, http.StatusUnauthorized, "Unauthorized", err)
		return "", false
	}
	return session.UserID, true
}
