package handlers

import (
	"net/http"

	"gym_crm_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// DashboardHandler serves the admin overview.
type DashboardHandler struct {
	dashboardService services.DashboardService
}

func NewDashboardHandler(ds services.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: ds}
}

// GetDashboardSummary provides member counts per status and this month's renewals.
func (h *DashboardHandler) GetDashboardSummary(c *gin.Context) {
	summary, err := h.dashboardService.GetSummary(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "GetDashboardSummary", "Failed to build dashboard summary.")
		return
	}
	c.JSON(http.StatusOK, summary)
}
