package router

import (
	"database/sql"
	"net/http"

	"gym_crm_backend/internal/handlers"
	"gym_crm_backend/internal/middleware"
	"gym_crm_backend/internal/models"
	"gym_crm_backend/internal/repositories"
	"gym_crm_backend/internal/services"
	"gym_crm_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// Services bundles everything the HTTP layer calls into.
type Services struct {
	Auth          services.AuthService
	Clients       services.ClientService
	Renewals      services.RenewalService
	Notifications services.NotificationService
	Dashboard     services.DashboardService
}

// NewServices wires repositories and services over one connection pool.
func NewServices(db *sql.DB, tokens *utils.TokenManager, notifier services.Notifier) *Services {
	// Initialize Repositories
	authRepo := repositories.NewAuthRepository(db)
	clientRepo := repositories.NewClientRepository(db)
	renewalRepo := repositories.NewRenewalRepository(db)
	txRunner := repositories.NewTxRunner(db)

	// Initialize Services
	return &Services{
		Auth:          services.NewAuthService(authRepo, txRunner, tokens),
		Clients:       services.NewClientService(clientRepo, renewalRepo, txRunner),
		Renewals:      services.NewRenewalService(clientRepo, renewalRepo, txRunner),
		Notifications: services.NewNotificationService(clientRepo, notifier),
		Dashboard:     services.NewDashboardService(clientRepo, renewalRepo),
	}
}

// Setup initializes the routing for the application.
func Setup(engine *gin.Engine, svc *Services, tokens *utils.TokenManager) {
	// Initialize Handlers
	authHandler := handlers.NewAuthHandler(svc.Auth)
	clientHandler := handlers.NewClientHandler(svc.Clients)
	renewalHandler := handlers.NewRenewalHandler(svc.Renewals)
	membershipHandler := handlers.NewMembershipHandler()
	dashboardHandler := handlers.NewDashboardHandler(svc.Dashboard)
	notificationHandler := handlers.NewNotificationHandler(svc.Notifications)

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := engine.Group("/api/v1")

	SetupPublicAuthRoutes(apiV1.Group("/auth"), authHandler)

	authenticated := apiV1.Group("")
	authenticated.Use(middleware.AuthMiddleware(tokens), middleware.RoleAuthMiddleware(models.RoleAdmin))
	{
		SetupAuthenticatedAuthRoutes(authenticated.Group("/auth"), authHandler)
		SetupClientRoutes(authenticated, clientHandler, renewalHandler)
		SetupRenewalRoutes(authenticated, renewalHandler)
		SetupMembershipRoutes(authenticated, membershipHandler)
		SetupDashboardRoutes(authenticated, dashboardHandler)
		SetupNotificationRoutes(authenticated, notificationHandler)
	}
}

func SetupPublicAuthRoutes(group *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	group.POST("/login", authHandler.Login)
}

func SetupAuthenticatedAuthRoutes(group *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	group.GET("/me", authHandler.GetCurrentAdmin)
}
