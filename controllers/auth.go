package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"glasspro-backend/models"
	"glasspro-backend/repositories"
	"glasspro-backend/store"
	"glasspro-backend/utils"
)

// Register creates the account and seeds the company profile of its new
// tenant from the sign-up form.
func (h *Handler) Register(c *gin.Context) {
	var input models.RegisterInput
	if !bindJSON(c, &input) {
		return
	}

	account, err := h.accounts.Register(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}

	profiles := repositories.NewProfileRepository(store.NewSession(account.ID, h.store))
	if _, err := profiles.UpdateCompany(c.Request.Context(), models.CompanyPatch{
		CompanyName: &input.CompanyName,
		Address:     &input.Address,
		Phone:       &input.Phone,
		Email:       &account.Email,
	}); err != nil {
		utils.Logger.WithError(err).Warnf("Failed to seed profile for tenant %s", account.ID)
	}

	token, ok := h.issueToken(c, account)
	if !ok {
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "Registration successful",
		"token":   token,
		"user":    account,
	})
}

func (h *Handler) Login(c *gin.Context) {
	var input models.LoginInput
	if !bindJSON(c, &input) {
		return
	}

	account, err := h.accounts.Authenticate(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}

	token, ok := h.issueToken(c, account)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"token":   token,
		"user":    account,
	})
}

// Me returns the ids from the token and the tenant's company profile.
func (h *Handler) Me(c *gin.Context) {
	profile, err := repositories.NewProfileRepository(h.session(c)).Get(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"userId":   c.GetString(utils.ContextUserID),
		"tenantId": c.GetString(utils.ContextTenantID),
		"profile":  profile,
	})
}

// issueToken signs a token and also sets it as a cookie, which is what
// EventSource streams authenticate with.
func (h *Handler) issueToken(c *gin.Context, account models.Account) (string, bool) {
	token, err := utils.GenerateToken(account.ID, account.ID, h.jwtSecret, h.jwtExpiry)
	if err != nil {
		utils.Logger.WithError(err).Error("Failed to generate token")
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to generate token")
		return "", false
	}
	c.SetCookie("token", token, int(h.jwtExpiry.Seconds()), "/", "", true, true)
	return token, true
}
