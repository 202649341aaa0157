package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"glasspro-backend/models"
	"glasspro-backend/repositories"
)

func (h *Handler) customers(c *gin.Context) *repositories.CustomerRepository {
	return repositories.NewCustomerRepository(h.session(c))
}

func (h *Handler) CreateCustomer(c *gin.Context) {
	var input models.CustomerInput
	if !bindJSON(c, &input) {
		return
	}
	customer, err := h.customers(c).Create(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, customer)
}

func (h *Handler) GetCustomers(c *gin.Context) {
	customers, err := h.customers(c).List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, customers)
}

func (h *Handler) GetCustomer(c *gin.Context) {
	customer, err := h.customers(c).Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, customer)
}

func (h *Handler) UpdateCustomer(c *gin.Context) {
	var input models.CustomerPatch
	if !bindJSON(c, &input) {
		return
	}
	customer, err := h.customers(c).Update(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, customer)
}

// DeleteCustomer removes the customer permanently. Jobs keep the name they
// were saved with.
func (h *Handler) DeleteCustomer(c *gin.Context) {
	if err := h.customers(c).Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Customer deleted successfully"})
}
