package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"glasspro-backend/models"
	"glasspro-backend/utils"
	"glasspro-backend/workorder"
)

// PreviewJob returns the work order of an unsaved job form.
func (h *Handler) PreviewJob(c *gin.Context) {
	var input models.JobInput
	if !bindJSON(c, &input) {
		return
	}
	wo, err := h.jobService(c).Preview(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, wo)
}

// PreviewJobUpdate returns the work order a pending edit would produce.
func (h *Handler) PreviewJobUpdate(c *gin.Context) {
	var input models.JobPatch
	if !bindJSON(c, &input) {
		return
	}
	wo, err := h.jobService(c).PreviewUpdate(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, wo)
}

// GetWorkOrder renders a saved job as ?format=json (default), print, email
// or sms.
func (h *Handler) GetWorkOrder(c *gin.Context) {
	wo, err := h.jobService(c).WorkOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	var (
		body        string
		contentType = "text/plain; charset=utf-8"
	)
	switch c.DefaultQuery("format", "json") {
	case "json":
		c.JSON(http.StatusOK, wo)
		return
	case "print":
		body, err = workorder.PrintHTML(wo)
		contentType = "text/html; charset=utf-8"
	case "email":
		body, err = workorder.EmailText(wo)
	case "sms":
		body, err = workorder.SMSText(wo)
	default:
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid format (use json, print, email or sms)")
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.Data(http.StatusOK, contentType, []byte(body))
}

type sendSMSInput struct {
	Phone string `json:"phone"`
}

// SendWorkOrderSMS texts the summary to the given phone or, when none is
// given, to the customer's phone.
func (h *Handler) SendWorkOrderSMS(c *gin.Context) {
	var input sendSMSInput
	if c.Request.ContentLength > 0 && !bindJSON(c, &input) {
		return
	}
	wo, err := h.jobService(c).WorkOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	sid, err := h.notifications.SendWorkOrderSMS(c.Request.Context(), wo, input.Phone)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "SMS sent", "sid": sid})
}
