package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/arkanlabs/course-feedback-api/internal/handler"
	"github.com/arkanlabs/course-feedback-api/internal/middleware"
	"github.com/arkanlabs/course-feedback-api/internal/models"
	"github.com/arkanlabs/course-feedback-api/internal/repository"
	"github.com/arkanlabs/course-feedback-api/internal/service"
	"github.com/arkanlabs/course-feedback-api/pkg/cache"
	"github.com/arkanlabs/course-feedback-api/pkg/config"
	"github.com/arkanlabs/course-feedback-api/pkg/database"
	"github.com/arkanlabs/course-feedback-api/pkg/jobs"
	"github.com/arkanlabs/course-feedback-api/pkg/logger"
	corsmiddleware "github.com/arkanlabs/course-feedback-api/pkg/middleware/cors"
	reqidmiddleware "github.com/arkanlabs/course-feedback-api/pkg/middleware/requestid"
	"github.com/arkanlabs/course-feedback-api/pkg/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	validate := validator.New()
	metrics := service.NewMetricsService()

	// Redis is optional: without it the dashboard simply recomputes.
	var cacheSvc *service.CacheService
	if cfg.Dashboard.CacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, dashboard caching disabled", zap.Error(err))
		} else {
			cacheRepo := repository.NewCacheRepository(redisClient, logr)
			defer cacheRepo.Close() //nolint:errcheck
			cacheSvc = service.NewCacheService(cacheRepo, metrics, cfg.Dashboard.CacheTTL, logr, true)
		}
	}

	store, err := storage.NewLocalStorage(cfg.Uploads.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare upload storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Uploads.SignedURLSecret, cfg.Uploads.SignedURLTTL)

	userRepo := repository.NewUserRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	feedbackRepo := repository.NewFeedbackRepository(db)
	dashboardRepo := repository.NewDashboardRepository(db)
	settingRepo := repository.NewSettingRepository(db)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		TokenSecret: cfg.JWT.Secret,
		TokenExpiry: cfg.JWT.Expiration,
		Issuer:      cfg.JWT.Issuer,
	})
	settingSvc := service.NewSettingService(settingRepo, logr)
	courseSvc := service.NewCourseService(courseRepo, cacheSvc, validate, logr)
	feedbackSvc := service.NewFeedbackService(feedbackRepo, courseRepo, settingSvc, cacheSvc, validate, logr)
	dashboardSvc := service.NewDashboardService(dashboardRepo, cacheSvc, service.DashboardServiceConfig{
		CacheTTL: cfg.Dashboard.CacheTTL,
	}, logr)
	inactivitySvc := service.NewInactivityService(courseRepo, feedbackRepo, metrics, logr, service.InactivityConfig{
		LookbackDays: cfg.Inactivity.LookbackDays,
	})

	authHandler := handler.NewAuthHandler(authSvc)
	courseHandler := handler.NewCourseHandler(courseSvc)
	feedbackHandler := handler.NewFeedbackHandler(feedbackSvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc)
	settingHandler := handler.NewSettingHandler(settingSvc)
	attachmentHandler := handler.NewAttachmentHandler(store, signer, cfg.Uploads, cfg.APIPrefix, logr)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)
	api.GET("/attachments/:token", attachmentHandler.Download)

	authed := api.Group("")
	authed.Use(middleware.JWT(authSvc))
	authed.GET("/auth/me", authHandler.Me)

	authed.GET("/courses", middleware.RequirePermission(models.PermCoursesView), courseHandler.List)
	authed.GET("/courses/active", middleware.RequirePermission(models.PermCoursesView), courseHandler.ListActive)
	authed.GET("/courses/:id", middleware.RequirePermission(models.PermCoursesView), courseHandler.Get)
	authed.POST("/courses", middleware.RequirePermission(models.PermCoursesCreate), courseHandler.Create)
	authed.PUT("/courses/:id", middleware.RequirePermission(models.PermCoursesEdit), courseHandler.Update)
	authed.DELETE("/courses/:id", middleware.RequirePermission(models.PermCoursesDelete), courseHandler.Delete)

	authed.GET("/feedbacks", middleware.RequirePermission(models.PermFeedbacksView), feedbackHandler.List)
	authed.GET("/feedbacks/:id", middleware.RequirePermission(models.PermFeedbacksView), feedbackHandler.Get)
	authed.POST("/feedbacks", middleware.RequirePermission(models.PermFeedbacksCreate), feedbackHandler.Create)
	authed.PUT("/feedbacks/:id", middleware.RequirePermission(models.PermFeedbacksEdit), feedbackHandler.Update)
	authed.DELETE("/feedbacks/:id", middleware.RequirePermission(models.PermFeedbacksDelete), feedbackHandler.Delete)
	authed.POST("/feedbacks/attachments", middleware.RequirePermission(models.PermFeedbacksCreate), attachmentHandler.Upload)

	authed.GET("/dashboard", middleware.RequirePermission(models.PermDashboardView), dashboardHandler.Summary)
	authed.GET("/dashboard/export", middleware.RequirePermission(models.PermDashboardView), dashboardHandler.Export)

	authed.GET("/settings", middleware.RequirePermission(models.PermSettingsManage), settingHandler.List)
	authed.GET("/settings/:key", middleware.RequirePermission(models.PermSettingsManage), settingHandler.Get)
	authed.PUT("/settings/:key", middleware.RequirePermission(models.PermSettingsManage), settingHandler.Update)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	scheduler := jobs.NewScheduler(jobs.SchedulerConfig{
		MaxAttempts: cfg.Inactivity.MaxAttempts,
		RetryDelay:  cfg.Inactivity.RetryDelay,
		Logger:      logr,
	})
	if cfg.Inactivity.Enabled {
		if err := scheduler.Register("inactivity-check", cfg.Inactivity.CronSchedule, inactivitySvc.Run); err != nil {
			logr.Sugar().Fatalw("failed to register inactivity check", "error", err)
		}
		scheduler.Start(ctx)
		defer scheduler.Stop()
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("server shutdown failed", "error", err)
	}
}
