package handlers

import (
	"errors"
	"net/http"

	"gym_crm_backend/internal/middleware"
	"gym_crm_backend/internal/services"
	"gym_crm_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// AuthHandler holds the authentication service.
type AuthHandler struct {
	authService services.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(as services.AuthService) *AuthHandler {
	return &AuthHandler{authService: as}
}

// Login handles admin login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, "Login", err)
		return
	}

	authResp, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			utils.LogWarn("Login: invalid credentials", map[string]interface{}{"client_ip": c.ClientIP()})
			utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Invalid email or password.", err.Error()))
			return
		}
		respondServiceError(c, err, "Login", "Failed to login.")
		return
	}
	c.JSON(http.StatusOK, authResp)
}

// GetCurrentAdmin retrieves the profile of the authenticated admin.
func (h *AuthHandler) GetCurrentAdmin(c *gin.Context) {
	adminIDRaw, exists := c.Get(middleware.ContextAdminID)
	adminID, ok := adminIDRaw.(int64)
	if !exists || !ok {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Admin not authenticated.", "Missing admin ID in context"))
		return
	}

	admin, err := h.authService.GetAdminProfile(c.Request.Context(), adminID)
	if err != nil {
		if errors.Is(err, services.ErrAdminNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Admin profile not found.", err.Error()))
			return
		}
		respondServiceError(c, err, "GetCurrentAdmin", "Failed to retrieve admin profile.")
		return
	}
	c.JSON(http.StatusOK, admin)
}
