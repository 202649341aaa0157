package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"glasspro-backend/models"
	"glasspro-backend/repositories"
	"glasspro-backend/utils"
)

func (h *Handler) profiles(c *gin.Context) *repositories.ProfileRepository {
	return repositories.NewProfileRepository(h.session(c))
}

func (h *Handler) GetProfile(c *gin.Context) {
	profile, err := h.profiles(c).Get(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// UpdateCompanyProfile saves the settings screen. Only the fields present
// in the body are written.
func (h *Handler) UpdateCompanyProfile(c *gin.Context) {
	var input models.CompanyPatch
	if !bindJSON(c, &input) {
		return
	}
	profile, err := h.profiles(c).UpdateCompany(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func workflowList(c *gin.Context) (models.WorkflowList, bool) {
	list, ok := models.ParseWorkflowList(c.Param("list"))
	if !ok {
		utils.RespondWithError(c, http.StatusNotFound, "Unknown workflow list")
	}
	return list, ok
}

func (h *Handler) AddWorkflowOption(c *gin.Context) {
	list, ok := workflowList(c)
	if !ok {
		return
	}
	var input models.WorkflowOptionInput
	if !bindJSON(c, &input) {
		return
	}
	option, err := h.profiles(c).AddOption(c.Request.Context(), list, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, option)
}

func (h *Handler) UpdateWorkflowOption(c *gin.Context) {
	list, ok := workflowList(c)
	if !ok {
		return
	}
	var input models.WorkflowOptionInput
	if !bindJSON(c, &input) {
		return
	}
	option, err := h.profiles(c).UpdateOption(c.Request.Context(), list, c.Param("optionId"), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, option)
}

func (h *Handler) DeleteWorkflowOption(c *gin.Context) {
	list, ok := workflowList(c)
	if !ok {
		return
	}
	if err := h.profiles(c).DeleteOption(c.Request.Context(), list, c.Param("optionId")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Workflow option deleted successfully"})
}
