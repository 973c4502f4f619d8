// internal/api/handlers/user_handler.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"logiledger-api-server/internal/models"
	"logiledger-api-server/internal/service"
)

type UserHandler struct {
	Accounts *service.AccountService
}

type RegisterRequest struct {
	Name        string               `json:"name"`
	Email       string               `json:"email" binding:"omitempty,email"`
	Password    string               `json:"password"`
	UserType    string               `json:"userType"`
	CompanyName string               `json:"companyName"`
	Phone       string               `json:"phone"`
	PhoneNumber string               `json:"phoneNumber"`
	Address     string               `json:"address"`
	GSTNumber   string               `json:"gstNumber"`
	PANNumber   string               `json:"panNumber"`
	Location    models.LocationInput `json:"location"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UpdateProfileRequest struct {
	Name        *string               `json:"name"`
	CompanyName *string               `json:"companyName"`
	Phone       *string               `json:"phone"`
	Address     *string               `json:"address"`
	GSTNumber   *string               `json:"gstNumber"`
	PANNumber   *string               `json:"panNumber"`
	Location    *models.LocationInput `json:"location"`
}

func (h *UserHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, bindingMessage(err))
		return
	}
	phone := req.Phone
	if phone == "" {
		phone = req.PhoneNumber
	}

	user, token, err := h.Accounts.Register(c.Request.Context(), service.RegisterInput{
		Name:        req.Name,
		Email:       req.Email,
		Password:    req.Password,
		UserType:    req.UserType,
		CompanyName: req.CompanyName,
		Phone:       phone,
		Address:     req.Address,
		GSTNumber:   req.GSTNumber,
		PANNumber:   req.PANNumber,
		Location:    req.Location,
	})
	if err != nil {
		respondError(c, err, "register")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"token":   token,
		"user":    user,
		"message": "User registered successfully",
	})
}

func (h *UserHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, bindingMessage(err))
		return
	}

	user, token, err := h.Accounts.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err, "login")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"token":   token,
		"user":    user,
		"message": "Login successful",
	})
}

// Verify echoes the user behind the bearer token.
func (h *UserHandler) Verify(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "user": currentUser(c)})
}

func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, bindingMessage(err))
		return
	}

	user, err := h.Accounts.UpdateProfile(c.Request.Context(), currentUser(c), service.ProfileInput{
		Name:        req.Name,
		CompanyName: req.CompanyName,
		Phone:       req.Phone,
		Address:     req.Address,
		GSTNumber:   req.GSTNumber,
		PANNumber:   req.PANNumber,
		Location:    req.Location,
	})
	if err != nil {
		respondError(c, err, "update profile")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user":    user,
		"message": "Profile updated successfully",
	})
}
