package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/cordova-labs/booking-portal-api/api/swagger"
	"github.com/cordova-labs/booking-portal-api/internal/handler"
	"github.com/cordova-labs/booking-portal-api/internal/middleware"
	"github.com/cordova-labs/booking-portal-api/internal/models"
	"github.com/cordova-labs/booking-portal-api/internal/repository"
	"github.com/cordova-labs/booking-portal-api/internal/service"
	"github.com/cordova-labs/booking-portal-api/pkg/cache"
	"github.com/cordova-labs/booking-portal-api/pkg/config"
	"github.com/cordova-labs/booking-portal-api/pkg/database"
	"github.com/cordova-labs/booking-portal-api/pkg/logger"
	corsmiddleware "github.com/cordova-labs/booking-portal-api/pkg/middleware/cors"
	reqidmiddleware "github.com/cordova-labs/booking-portal-api/pkg/middleware/requestid"
)

// @title Booking Portal API
// @version 1.0.0
// @description Training session booking portal with automatic RP allocation
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("database connection failed", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, dashboard caching disabled", zap.Error(err))
		redisClient = nil
	}

	validate := validator.New()

	// Repositories.
	bookingRepo := repository.NewBookingRepository(db)
	slotRepo := repository.NewSlotRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	sessionTypeRepo := repository.NewSessionTypeRepository(db)
	schoolRepo := repository.NewSchoolRepository(db)
	rpRepo := repository.NewResourcePersonRepository(db)
	ruleRepo := repository.NewRPRuleRepository(db)
	unavailabilityRepo := repository.NewRPUnavailabilityRepository(db)
	userRepo := repository.NewUserRepository(db)
	feedbackRepo := repository.NewFeedbackRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// The absence registry is optional: probe it once and run with the
	// feature off when the table is missing or unreadable.
	absenceEnabled := false
	if cfg.Unavailability.Probe {
		probeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := unavailabilityRepo.Probe(probeCtx); err != nil {
			logr.Warn("rp_unavailability probe failed, absence checks disabled", zap.Error(err))
		} else {
			absenceEnabled = true
		}
		cancel()
	}

	// Services.
	metricsSvc := service.NewMetricsService()
	allocationSvc := service.NewAllocationService(bookingRepo, slotRepo, sessionTypeRepo, ruleRepo, unavailabilityRepo, absenceEnabled, validate, logr)
	bookingSvc := service.NewBookingService(bookingRepo, schoolRepo, rpRepo, allocationSvc, metricsSvc, validate, logr)
	authSvc := service.NewAuthService(userRepo, cfg.JWT, validate, logr)
	userSvc := service.NewUserService(userRepo, rpRepo, logr)
	catalogSvc := service.NewCatalogService(slotRepo, subjectRepo, sessionTypeRepo, rpRepo, ruleRepo, validate, logr)
	unavailabilitySvc := service.NewUnavailabilityService(unavailabilityRepo, rpRepo, validate, logr)
	feedbackSvc := service.NewFeedbackService(feedbackRepo, bookingRepo, validate, logr)

	var dashboardSvc *service.DashboardService
	if cfg.Dashboard.Enabled {
		dashboardSvc = service.NewDashboardService(bookingRepo, slotRepo, unavailabilityRepo, cacheRepo, cfg.Dashboard.CacheTTL, logr)
	}
	var reportSvc *service.ReportService
	if cfg.Reports.Enabled {
		reportSvc = service.NewReportService(bookingRepo, feedbackRepo, logr)
	}

	// Handlers.
	authHandler := handler.NewAuthHandler(authSvc)
	bookingHandler := handler.NewBookingHandler(bookingSvc, metricsSvc)
	availabilityHandler := handler.NewAvailabilityHandler(allocationSvc)
	catalogHandler := handler.NewCatalogHandler(catalogSvc)
	unavailabilityHandler := handler.NewUnavailabilityHandler(unavailabilitySvc)
	userHandler := handler.NewUserHandler(userSvc)
	feedbackHandler := handler.NewFeedbackHandler(feedbackSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unready"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/login", authHandler.Login)
	auth.POST("/register", authHandler.Register)
	auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)

	authed := api.Group("")
	authed.Use(middleware.JWT(authSvc))

	adminOnly := middleware.RequireRoles(models.RoleAdmin)

	bookings := authed.Group("/bookings")
	bookings.POST("", middleware.RequireRoles(models.RoleSalesperson), bookingHandler.Create)
	bookings.GET("", bookingHandler.List)
	bookings.GET("/:id", bookingHandler.Get)
	bookings.POST("/:id/approve", adminOnly, bookingHandler.Approve)
	bookings.POST("/:id/reject", adminOnly, bookingHandler.Reject)
	bookings.POST("/:id/cancel", middleware.RequireRoles(models.RoleAdmin, models.RoleSalesperson), bookingHandler.Cancel)
	bookings.POST("/:id/reassign", adminOnly, bookingHandler.Reassign)
	bookings.POST("/:id/attendance", middleware.RequireRoles(models.RoleRP), bookingHandler.MarkAttendance)

	authed.GET("/availability/summary", availabilityHandler.Summary)

	catalog := authed.Group("/catalog")
	catalog.GET("/slots", catalogHandler.ListSlots)
	catalog.POST("/slots", adminOnly, catalogHandler.CreateSlot)
	catalog.PUT("/slots/:id/active", adminOnly, catalogHandler.SetSlotActive)
	catalog.GET("/subjects", catalogHandler.ListSubjects)
	catalog.POST("/subjects", adminOnly, catalogHandler.CreateSubject)
	catalog.GET("/session-types", catalogHandler.ListSessionTypes)
	catalog.POST("/session-types", adminOnly, catalogHandler.CreateSessionType)
	catalog.GET("/resource-persons", adminOnly, catalogHandler.ListResourcePersons)
	catalog.POST("/resource-persons", adminOnly, catalogHandler.CreateResourcePerson)
	catalog.GET("/rules", adminOnly, catalogHandler.ListRules)
	catalog.POST("/rules", adminOnly, catalogHandler.CreateRule)
	catalog.DELETE("/rules/:id", adminOnly, catalogHandler.DeleteRule)

	unavailability := authed.Group("/unavailability")
	unavailability.Use(middleware.RequireRoles(models.RoleAdmin, models.RoleRP))
	unavailability.POST("", unavailabilityHandler.Mark)
	unavailability.GET("", unavailabilityHandler.ListByDate)
	unavailability.DELETE("/:id", unavailabilityHandler.Remove)

	users := authed.Group("/users")
	users.Use(adminOnly)
	users.GET("", userHandler.ListByRole)
	users.GET("/pending", userHandler.ListPending)
	users.POST("/:id/approve", userHandler.Approve)
	users.POST("/:id/reject", userHandler.Reject)

	feedback := authed.Group("/feedback")
	feedback.POST("", middleware.RequireRoles(models.RoleSalesperson), feedbackHandler.Submit)
	feedback.GET("", adminOnly, feedbackHandler.List)
	feedback.GET("/pending", middleware.RequireRoles(models.RoleSalesperson), feedbackHandler.Pending)

	if dashboardSvc != nil {
		dashboardHandler := handler.NewDashboardHandler(dashboardSvc, metricsSvc)
		authed.GET("/dashboard/daily", adminOnly, dashboardHandler.Daily)
		authed.POST("/dashboard/daily/refresh", adminOnly, dashboardHandler.Refresh)
	}
	if reportSvc != nil {
		reportHandler := handler.NewReportHandler(reportSvc)
		reports := authed.Group("/reports")
		reports.Use(adminOnly)
		reports.GET("/schedule.pdf", reportHandler.SchedulePDF)
		reports.GET("/feedback.csv", reportHandler.FeedbackCSV)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting",
		"addr", addr,
		"env", cfg.Env,
		"absence_checks", absenceEnabled,
		"dashboard", cfg.Dashboard.Enabled,
		"reports", cfg.Reports.Enabled)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
