package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"glasspro-backend/repositories"
	"glasspro-backend/services"
)

func (h *Handler) GetDashboardOverview(c *gin.Context) {
	session := h.session(c)
	ctx := c.Request.Context()

	customers, err := repositories.NewCustomerRepository(session).List(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	jobs, err := repositories.NewJobRepository(session).List(ctx)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, services.BuildDashboard(customers, jobs, h.now()))
}
