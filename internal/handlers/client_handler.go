package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"office-management-backend/internal/middleware"
	"office-management-backend/internal/repository"
	"office-management-backend/internal/services/clients"
)

type ClientHandler struct {
	service *clients.Service
}

func NewClientHandler(service *clients.Service) *ClientHandler {
	return &ClientHandler{service: service}
}

func actorFrom(c *gin.Context) clients.Actor {
	ident := middleware.CurrentIdentity(c)
	return clients.Actor{UserID: ident.UserID, OfficeID: ident.OfficeID}
}

type clientPayload struct {
	PAN              string     `json:"pan" binding:"required"`
	FullName         string     `json:"full_name" binding:"required"`
	DistrictID       *uuid.UUID `json:"district_id"`
	RangeID          *uuid.UUID `json:"range_id"`
	AssignedTo       *uuid.UUID `json:"assigned_to"`
	AnnexureReceived bool       `json:"annexure_received"`
	ITRFiled         bool       `json:"itr_filed"`
	ITRFiledDate     *time.Time `json:"itr_filed_date"`
	EVerified        bool       `json:"everified"`
	EVerifiedDate    *time.Time `json:"everified_date"`
}

func (h *ClientHandler) Create(c *gin.Context) {
	var payload clientPayload
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "PAN and Name are required"})
		return
	}

	client, err := h.service.Create(c.Request.Context(), actorFrom(c), clients.CreateInput{
		PAN:              payload.PAN,
		FullName:         payload.FullName,
		DistrictID:       payload.DistrictID,
		RangeID:          payload.RangeID,
		AssignedTo:       payload.AssignedTo,
		AnnexureReceived: payload.AnnexureReceived,
		ITRFiled:         payload.ITRFiled,
		ITRFiledDate:     payload.ITRFiledDate,
		EVerified:        payload.EVerified,
		EVerifiedDate:    payload.EVerifiedDate,
	})
	if err != nil {
		if errors.Is(err, clients.ErrPANExists) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Client with this PAN already exists in your office"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error creating client"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"status": "success", "data": client})
}

func (h *ClientHandler) List(c *gin.Context) {
	var filters repository.ClientFilters
	if v := c.Query("range_id"); v != "" {
		if id, err := uuid.Parse(v); err == nil {
			filters.RangeID = &id
		}
	}
	if v := c.Query("district_id"); v != "" {
		if id, err := uuid.Parse(v); err == nil {
			filters.DistrictID = &id
		}
	}
	if v := c.Query("assigned_to"); v != "" {
		if id, err := uuid.Parse(v); err == nil {
			filters.AssignedTo = &id
		}
	}
	if v := c.Query("status"); v != "" {
		filed := v == "filed"
		filters.ITRFiled = &filed
	}

	list, err := h.service.List(c.Request.Context(), actorFrom(c), filters)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error fetching clients"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "results": len(list), "data": list})
}

func (h *ClientHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid client ID"})
		return
	}

	client, err := h.service.Get(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		if errors.Is(err, clients.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Client not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error fetching client"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": client})
}

func (h *ClientHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid client ID"})
		return
	}

	var updates map[string]interface{}
	if err := c.BindJSON(&updates); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid payload"})
		return
	}

	client, err := h.service.Update(c.Request.Context(), actorFrom(c), id, updates)
	if err != nil {
		switch {
		case errors.Is(err, clients.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"message": "Client not found"})
		case errors.Is(err, clients.ErrNoUpdatableFields):
			c.JSON(http.StatusBadRequest, gin.H{"message": "No valid fields provided for update"})
		case errors.Is(err, clients.ErrPANExists):
			c.JSON(http.StatusBadRequest, gin.H{"message": "Client with this PAN already exists in your office"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Error updating client"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": client})
}

func (h *ClientHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid client ID"})
		return
	}

	if err := h.service.Delete(c.Request.Context(), actorFrom(c), id); err != nil {
		if errors.Is(err, clients.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Client not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error deleting client"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Client deleted successfully"})
}

func (h *ClientHandler) BulkAssign(c *gin.Context) {
	var payload struct {
		ClientIDs []uuid.UUID `json:"client_ids" binding:"required"`
		OAID      uuid.UUID   `json:"oa_id" binding:"required"`
	}
	if err := c.BindJSON(&payload); err != nil || len(payload.ClientIDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Please provide client_ids (array) and oa_id"})
		return
	}

	count, assigneeName, err := h.service.BulkAssign(c.Request.Context(), actorFrom(c), payload.ClientIDs, payload.OAID)
	if err != nil {
		if errors.Is(err, clients.ErrAssigneeNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "OA not found or does not belong to your office"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error performing bulk assignment"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": fmt.Sprintf("Successfully assigned %d clients to %s", count, assigneeName),
		"count":   count,
	})
}
