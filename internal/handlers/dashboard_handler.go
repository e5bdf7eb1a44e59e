package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"office-management-backend/internal/middleware"
	"office-management-backend/internal/services/dashboard"
)

type DashboardHandler struct {
	service *dashboard.Service
}

func NewDashboardHandler(service *dashboard.Service) *DashboardHandler {
	return &DashboardHandler{service: service}
}

func (h *DashboardHandler) CEO(c *gin.Context) {
	ident := middleware.CurrentIdentity(c)

	data, err := h.service.CEO(c.Request.Context(), ident.OfficeID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error fetching CEO dashboard data"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": data})
}

func (h *DashboardHandler) AO(c *gin.Context) {
	ident := middleware.CurrentIdentity(c)

	rangeID, err := uuid.Parse(c.Query("range_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Please provide range_id"})
		return
	}

	data, err := h.service.AO(c.Request.Context(), ident.OfficeID, rangeID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error fetching AO dashboard data"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": data})
}
