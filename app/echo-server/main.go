package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"pharmaSupply/app/echo-server/router"
	"pharmaSupply/business/analytics"
	"pharmaSupply/business/audit"
	"pharmaSupply/business/auth"
	"pharmaSupply/business/dashboard"
	"pharmaSupply/business/invoice"
	"pharmaSupply/business/medicine"
	"pharmaSupply/business/notification"
	"pharmaSupply/business/orders"
	"pharmaSupply/business/ordertemplate"
	"pharmaSupply/business/report"
	"pharmaSupply/business/setting"
	userService "pharmaSupply/business/user"
	"pharmaSupply/internal/middleware"
	"pharmaSupply/internal/repository/mailer"
	psqlRepo "pharmaSupply/internal/repository/postgres"
	redisRepo "pharmaSupply/internal/repository/redis"
	"pharmaSupply/internal/rest"
	"pharmaSupply/internal/worker"
	"pharmaSupply/pkg/config"
	"pharmaSupply/pkg/database"
	redisClient "pharmaSupply/pkg/database/redis"
	"pharmaSupply/pkg/health"
	"pharmaSupply/pkg/logger"
	"pharmaSupply/pkg/metrics"
	"pharmaSupply/pkg/utils"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

const apiPrefix = "/api/v1"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.App.Environment)
	defer logger.Sync()
	logger.Info("Starting Pharma Supply API", "version", cfg.App.Version, "env", cfg.App.Environment)

	db, err := database.InitPostgres(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	defer database.Close(db)
	logger.Info("Database connected successfully")

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(db); err != nil {
			logger.Fatal("Failed to migrate database", "error", err)
		}
	}

	rdb, err := redisClient.NewRedisClient(context.Background(), cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to redis", "error", err)
	}
	defer redisClient.CloseRedisClient(rdb)
	logger.Info("Redis connected successfully")

	metrics.Init()

	mailjetEmail := mailer.NewMailjetRepository(
		mailer.MailjetConfig{
			MailjetBaseURL:           cfg.Mailjet.MailjetBaseUrl,
			MailjetBasicAuthUsername: cfg.Mailjet.MailjetBasicAuthUsername,
			MailjetBasicAuthPassword: cfg.Mailjet.MailjetBasicAuthPassword,
			MailjetSenderEmail:       cfg.Mailjet.MailjetSenderEmail,
			MailjetSenderName:        cfg.Mailjet.MailjetSenderName,
		},
	)

	// Init validate
	validate := validator.New()

	// Init repo
	userRepo := psqlRepo.NewUserRepository(db)
	medicineRepo := psqlRepo.NewMedicineRepository(db)
	ordersRepo := psqlRepo.NewOrdersRepository(db)
	notificationRepo := psqlRepo.NewNotificationRepository(db)
	settingRepo := psqlRepo.NewSettingRepository(db)
	invoiceRepo := psqlRepo.NewInvoiceRepository(db)
	templateRepo := psqlRepo.NewOrderTemplateRepository(db)
	auditRepo := psqlRepo.NewAuditRepository(db)
	reportRepo := psqlRepo.NewReportRepository(db)
	statsRepo := psqlRepo.NewStatsRepository(db)
	txManager := psqlRepo.NewTxManager(db)
	sessionRepo := redisRepo.NewSessionRepository(rdb)

	checks := health.New()
	checks.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	checks.AddReadinessCheck("database", 2*time.Second, pingDB(db))
	checks.AddReadinessCheck("redis", 2*time.Second, sessionRepo.Ping)

	recorder := audit.NewRecorder(auditRepo, cfg.Audit.QueueSize, cfg.Audit.Workers)
	recorder.Start()

	jwtManager := utils.NewJWTManager(cfg.JWT.SecretKey, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)

	// Init service
	auditService := audit.NewAuditService(auditRepo, sessionRepo, recorder)
	notificationService := notification.NewNotificationService(notificationRepo)
	authService := auth.NewAuthService(userRepo, jwtManager, sessionRepo, auditService, mailjetEmail, cfg.App.ResetTokenKey, cfg.App.AppDeploymentUrl)
	userSvc := userService.NewUserService(userRepo, auditService, validate)
	medicineService := medicine.NewMedicineService(medicineRepo, notificationService)
	ordersService := orders.NewOrdersService(ordersRepo, medicineRepo, txManager, notificationService)
	settingService := setting.NewSettingService(settingRepo)
	invoiceService := invoice.NewInvoiceService(invoiceRepo, ordersRepo, validate)
	templateService := ordertemplate.NewTemplateService(templateRepo, medicineRepo, ordersService, txManager)
	dashboardService := dashboard.NewDashboardService(statsRepo, ordersRepo, medicineRepo)
	analyticsService := analytics.NewAnalyticsService(statsRepo, medicineRepo, checks)
	reportService := report.NewReportService(reportRepo, statsRepo, validate, cfg.Reports.Dir, cfg.Reports.Retention)

	// Init handler
	authHandler := rest.NewAuthHandler(authService)
	userHandler := rest.NewUserHandler(userSvc)
	medicineHandler := rest.NewMedicineHandler(medicineService)
	ordersHandler := rest.NewOrdersHandler(ordersService)
	notificationHandler := rest.NewNotificationHandler(notificationService)
	settingHandler := rest.NewSettingHandler(settingService)
	invoiceHandler := rest.NewInvoiceHandler(invoiceService)
	templateHandler := rest.NewTemplateHandler(templateService)
	dashboardHandler := rest.NewDashboardHandler(dashboardService)
	analyticsHandler := rest.NewAnalyticsHandler(analyticsService)
	auditHandler := rest.NewAuditHandler(auditService)
	reportHandler := rest.NewReportHandler(reportService)
	healthHandler := rest.NewHealthHandler(checks)

	// Init echo
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// HTTP error handler
	e.HTTPErrorHandler = middleware.ErrorHandler

	// Global middleware
	e.Use(echomiddleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     cfg.Server.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))
	e.Use(middleware.Metrics())
	e.Use(middleware.RateLimit(cfg.Server.RateLimit, cfg.Server.RateLimitWindow))
	e.Use(middleware.UUIDParams("id", "userId", "orderId", "medicineId"))

	guards := router.Guards{
		Auth:  middleware.Auth(jwtManager, sessionRepo),
		Audit: middleware.Audit(auditService, apiPrefix),
	}

	// Setup routes
	router.SetupHealthRoutes(e, healthHandler, echo.WrapHandler(promhttp.Handler()))

	api := e.Group(apiPrefix)
	router.SetupAuthRoutes(api, authHandler, guards)
	router.SetupUserRoutes(api, userHandler, guards)
	router.SetupMedicineRoutes(api, medicineHandler, guards)
	router.SetOrdersRoutes(api, ordersHandler, guards)
	router.SetupNotificationRoutes(api, notificationHandler, guards)
	router.SetupSettingRoutes(api, settingHandler, guards)
	router.SetupInvoiceRoutes(api, invoiceHandler, guards)
	router.SetupTemplateRoutes(api, templateHandler, guards)
	router.SetupDashboardRoutes(api, dashboardHandler, guards)
	router.SetupAnalyticsRoutes(api, analyticsHandler, guards)
	router.SetupAuditRoutes(api, auditHandler, guards)
	router.SetupReportRoutes(api, reportHandler, guards)

	// Background jobs
	jobsCtx, stopJobs := context.WithCancel(context.Background())
	scheduler := worker.NewScheduler(
		worker.Job{
			Name:     "session-cleanup",
			Interval: cfg.Audit.SessionCleanupInterval,
			Run:      auditService.CleanupExpiredSessions,
		},
		worker.Job{
			Name:     "report-cleanup",
			Interval: cfg.Reports.CleanupInterval,
			Run: func(ctx context.Context) error {
				_, err := reportService.CleanupExpired(ctx)
				return err
			},
		},
	)
	jobsDone := make(chan struct{})
	go func() {
		defer close(jobsDone)
		if err := scheduler.Start(jobsCtx); err != nil {
			logger.Error("Scheduler stopped", "error", err)
		}
	}()

	// Goroutine server
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		logger.Info("Server starting", "address", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	stopJobs()
	<-jobsDone

	if err := recorder.Close(ctx); err != nil {
		logger.Error("Audit recorder did not drain", "error", err)
	}

	logger.Info("Server stopped")
}

func pingDB(db *gorm.DB) health.CheckFunc {
	return func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
}
