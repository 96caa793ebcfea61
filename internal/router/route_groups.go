package router

import (
	"gym_crm_backend/internal/handlers"

	"github.com/gin-gonic/gin"
)

// SetupClientRoutes sets up the client routes, including per-client renewals.
func SetupClientRoutes(authenticatedGroup *gin.RouterGroup, clientHandler *handlers.ClientHandler, renewalHandler *handlers.RenewalHandler) {
	clientRoutes := authenticatedGroup.Group("/clients")
	{
		clientRoutes.POST("", clientHandler.CreateClient)
		clientRoutes.GET("", clientHandler.GetClients)
		clientRoutes.GET("/:id", clientHandler.GetClientByID)
		clientRoutes.PATCH("/:id", clientHandler.UpdateClient)
		clientRoutes.DELETE("/:id", clientHandler.DeleteClient)
		clientRoutes.GET("/:id/renewals", clientHandler.GetClientRenewals)
		clientRoutes.POST("/:id/renewals", renewalHandler.RenewMembership)
	}
}

// SetupRenewalRoutes sets up the renewal log.
func SetupRenewalRoutes(authenticatedGroup *gin.RouterGroup, renewalHandler *handlers.RenewalHandler) {
	authenticatedGroup.GET("/renewals", renewalHandler.GetRenewalLog)
}

// SetupMembershipRoutes exposes plan listing and end date previews.
func SetupMembershipRoutes(authenticatedGroup *gin.RouterGroup, membershipHandler *handlers.MembershipHandler) {
	membershipRoutes := authenticatedGroup.Group("/membership")
	{
		membershipRoutes.GET("/plans", membershipHandler.ListPlans)
		membershipRoutes.GET("/preview", membershipHandler.Preview)
	}
}

// SetupDashboardRoutes sets up the dashboard routes.
func SetupDashboardRoutes(authenticatedGroup *gin.RouterGroup, dashboardHandler *handlers.DashboardHandler) {
	dashboardRoutes := authenticatedGroup.Group("/dashboard")
	{
		dashboardRoutes.GET("/summary", dashboardHandler.GetDashboardSummary)
	}
}

// SetupNotificationRoutes lets an admin run the reminder sweep on demand.
func SetupNotificationRoutes(authenticatedGroup *gin.RouterGroup, notificationHandler *handlers.NotificationHandler) {
	authenticatedGroup.POST("/notifications/sweep", notificationHandler.RunSweep)
}
