package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"glasspro-backend/models"
	"glasspro-backend/repositories"
	"glasspro-backend/utils"
)

func (h *Handler) CreateJob(c *gin.Context) {
	var input models.JobInput
	if !bindJSON(c, &input) {
		return
	}
	job, err := h.jobService(c).Create(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, job)
}

// GetJobs lists jobs, optionally only those with ?status=.
func (h *Handler) GetJobs(c *gin.Context) {
	repo := repositories.NewJobRepository(h.session(c))
	ctx := c.Request.Context()

	raw := c.Query("status")
	if raw == "" {
		jobs, err := repo.List(ctx)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, jobs)
		return
	}

	status, ok := models.ParseJobStatus(raw)
	if !ok {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid status filter")
		return
	}
	jobs, err := repo.ListByStatus(ctx, status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, jobs)
}

func (h *Handler) GetJob(c *gin.Context) {
	job, err := repositories.NewJobRepository(h.session(c)).Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

// UpdateJob applies the edited fields. Totals follow the pricing fields
// unless the user typed them in this same request.
func (h *Handler) UpdateJob(c *gin.Context) {
	var input models.JobPatch
	if !bindJSON(c, &input) {
		return
	}
	job, err := h.jobService(c).Update(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

func (h *Handler) DeleteJob(c *gin.Context) {
	if err := repositories.NewJobRepository(h.session(c)).Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Job deleted successfully"})
}
