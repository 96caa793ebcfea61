package handlers

import (
	"net/http"

	"gym_crm_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// RenewalHandler holds the renewal service.
type RenewalHandler struct {
	renewalService services.RenewalService
}

// NewRenewalHandler creates a new RenewalHandler.
func NewRenewalHandler(rs services.RenewalService) *RenewalHandler {
	return &RenewalHandler{renewalService: rs}
}

// RenewMembership handles POST /clients/:id/renewals.
func (h *RenewalHandler) RenewMembership(c *gin.Context) {
	clientID, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req services.RenewMembershipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, "RenewMembership", err)
		return
	}

	result, err := h.renewalService.RenewMembership(c.Request.Context(), clientID, req)
	if err != nil {
		respondServiceError(c, err, "RenewMembership", "Failed to renew membership.")
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetRenewalLog handles GET /renewals?start_date=&end_date=.
func (h *RenewalHandler) GetRenewalLog(c *gin.Context) {
	var req services.RenewalLogRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, "GetRenewalLog", err)
		return
	}

	log, err := h.renewalService.GetRenewalLog(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, "GetRenewalLog", "Failed to fetch renewal log.")
		return
	}
	c.JSON(http.StatusOK, log)
}
