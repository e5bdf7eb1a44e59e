package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"office-management-backend/internal/services/accounts"
)

type AuthHandler struct {
	service *accounts.Service
}

func NewAuthHandler(service *accounts.Service) *AuthHandler {
	return &AuthHandler{service: service}
}

func (h *AuthHandler) RegisterOffice(c *gin.Context) {
	var payload struct {
		OfficeName    string `json:"office_name" binding:"required"`
		OfficeAddress string `json:"office_address"`
		CEOName       string `json:"ceo_name" binding:"required"`
		CEOEmail      string `json:"ceo_email" binding:"required,email"`
		Password      string `json:"password" binding:"required,min=8"`
	}
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Please provide all required fields"})
		return
	}

	user, token, err := h.service.RegisterOffice(c.Request.Context(), accounts.RegisterOfficeInput{
		OfficeName:    payload.OfficeName,
		OfficeAddress: payload.OfficeAddress,
		CEOName:       payload.CEOName,
		CEOEmail:      payload.CEOEmail,
		Password:      payload.Password,
	})
	if err != nil {
		if errors.Is(err, accounts.ErrEmailTaken) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "User with this email already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error during registration"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"status": "success",
		"data":   gin.H{"user": user, "token": token},
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var payload struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Please provide email and password"})
		return
	}

	user, token, err := h.service.Login(c.Request.Context(), payload.Email, payload.Password)
	if err != nil {
		if errors.Is(err, accounts.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid email or password"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error during login"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   gin.H{"user": user, "token": token},
	})
}
