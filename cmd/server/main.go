package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gym_crm_backend/internal/config"
	"gym_crm_backend/internal/database"
	"gym_crm_backend/internal/mailer"
	"gym_crm_backend/internal/router"
	"gym_crm_backend/internal/scheduler"
	"gym_crm_backend/internal/services"
	"gym_crm_backend/pkg/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		utils.InitLogger("info", true)
		utils.LogError(err, "Invalid configuration")
		os.Exit(1)
	}

	// Initialize Logger
	utils.InitLogger(cfg.LogLevel, cfg.LogPretty)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize Database
	db, err := database.InitDB(ctx, cfg.DB)
	if err != nil {
		utils.LogError(err, "Failed to initialize database")
		os.Exit(1)
	}
	defer db.Close()

	tokens := utils.NewTokenManager(cfg.JWT.Secret, cfg.JWT.TTL)

	var notifier services.Notifier
	if cfg.Mail.Enabled() {
		notifier = mailer.NewSMTPMailer(cfg.Mail)
		utils.LogInfo("SMTP mailer configured", map[string]interface{}{"host": cfg.Mail.Host, "port": cfg.Mail.Port})
	} else {
		notifier = mailer.LogMailer{}
		utils.LogWarn("MAIL_USER or MAIL_PASS is not set, reminders will only be logged")
	}

	svc := router.NewServices(db, tokens, notifier)

	seedCtx, cancelSeed := context.WithTimeout(ctx, cfg.DB.QueryTimeout)
	if err := svc.Auth.EnsureDefaultAdmin(seedCtx, cfg.Admin.Email, cfg.Admin.Password); err != nil {
		utils.LogError(err, "Failed to seed default admin", map[string]interface{}{"email": cfg.Admin.Email})
	}
	cancelSeed()

	sweep, err := scheduler.New("membership-sweep", cfg.Sweep.Schedule, cfg.Sweep.Timeout, func(ctx context.Context) error {
		_, err := svc.Notifications.SweepAndNotify(ctx)
		return err
	})
	if err != nil {
		utils.LogError(err, "Failed to configure membership sweep", map[string]interface{}{"schedule": cfg.Sweep.Schedule})
		os.Exit(1)
	}
	// An on-demand sweep from the API may already hold the run.
	sweep.SkipOn(services.ErrSweepInProgress)
	sweep.Start()
	if cfg.Sweep.RunOnStart {
		sweep.RunOnce()
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	// Add GinLogger middleware for request logging
	engine.Use(utils.GinLogger())

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	corsConfig.AllowCredentials = true
	engine.Use(cors.New(corsConfig))

	// Setup all application routes
	router.Setup(engine, svc, tokens)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		utils.LogInfo("Server starting", map[string]interface{}{"port": cfg.Port})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.LogError(err, "Failed to start server")
			stop()
		}
	}()

	<-ctx.Done()
	utils.LogInfo("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		utils.LogError(err, "HTTP server shutdown failed")
	}
	if err := sweep.Stop(shutdownCtx); err != nil {
		utils.LogError(err, "Membership sweep did not stop in time")
	}
}
