package handlers

import (
	"net/http"

	"gym_crm_backend/internal/services"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	notificationService services.NotificationService
}

func NewNotificationHandler(ns services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: ns}
}

// RunSweep runs the reminder sweep synchronously and returns its report.
func (h *NotificationHandler) RunSweep(c *gin.Context) {
	report, err := h.notificationService.SweepAndNotify(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "RunSweep", "Failed to run membership sweep.")
		return
	}
	c.JSON(http.StatusOK, report)
}
