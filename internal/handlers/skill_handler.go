package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/skillswap/skillswap-api/internal/models"
	"github.com/skillswap/skillswap-api/internal/services"
)

// SkillHandler handles the skill catalog and the caller's skill assertions
type SkillHandler struct {
	service services.SkillServiceInterface
}

// NewSkillHandler creates a new skill handler
func NewSkillHandler(service services.SkillServiceInterface) *SkillHandler {
	return &SkillHandler{service: service}
}

// ListSkills handles GET /api/v1/skills
func (h *SkillHandler) ListSkills(c *gin.Context) {
	skills, err := h.service.ListSkills(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"skills": skills, "total": len(skills)})
}

// CreateSkill handles POST /api/internal/skills
func (h *SkillHandler) CreateSkill(c *gin.Context) {
	var req models.CreateSkillRequest
	if !bindJSON(c, &req) {
		return
	}

	skill, err := h.service.CreateSkill(c.Request.Context(), &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, skill)
}

// ListMySkills handles GET /api/v1/me/skills
func (h *SkillHandler) ListMySkills(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	assertions, err := h.service.ListUserSkills(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"skills": assertions, "total": len(assertions)})
}

// UpsertMySkill handles PUT /api/v1/me/skills/:skillId
func (h *SkillHandler) UpsertMySkill(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req models.UpsertAssertionRequest
	if !bindJSON(c, &req) {
		return
	}

	assertion, err := h.service.UpsertAssertion(c.Request.Context(), userID, c.Param("skillId"), &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, assertion)
}

// DeleteMySkill handles DELETE /api/v1/me/skills/:skillId
func (h *SkillHandler) DeleteMySkill(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.service.DeleteAssertion(c.Request.Context(), userID, c.Param("skillId")); err != nil {
		respondServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// FindMentors handles GET /api/v1/skills/:skillId/mentors
func (h *SkillHandler) FindMentors(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	resp, err := h.service.FindMentors(c.Request.Context(), userID, c.Param("skillId"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// FindLearners handles GET /api/v1/skills/:skillId/learners
func (h *SkillHandler) FindLearners(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	resp, err := h.service.FindLearners(c.Request.Context(), userID, c.Param("skillId"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
