package router

import (
	"pharmaSupply/domain"
	"pharmaSupply/internal/middleware"
	"pharmaSupply/internal/rest"

	"github.com/labstack/echo/v4"
)

// Guards bundles the middleware every protected group needs.
// Audit runs after Auth so it sees the caller.
type Guards struct {
	Auth  echo.MiddlewareFunc
	Audit echo.MiddlewareFunc
}

func (g Guards) protected() []echo.MiddlewareFunc {
	return []echo.MiddlewareFunc{g.Auth, g.Audit}
}

var (
	adminOnly = middleware.RequireRoles(domain.RoleAdmin)
	can       = middleware.RequireCapability
)

func SetupAuthRoutes(api *echo.Group, handler *rest.AuthHandler, g Guards) {
	auth := api.Group("/auth")

	auth.POST("/register", handler.Register)
	auth.POST("/register-provider", handler.Register)
	auth.POST("/login", handler.Login)
	auth.POST("/refresh", handler.Refresh)
	auth.POST("/forgot-password", handler.ForgotPassword)
	auth.POST("/reset-password", handler.ResetPassword)

	auth.POST("/register-admin", handler.RegisterAdmin, g.Auth, g.Audit, adminOnly)
	auth.GET("/profile", handler.Profile, g.Auth, g.Audit)
	auth.POST("/logout", handler.Logout, g.Auth, g.Audit)
}

func SetupUserRoutes(api *echo.Group, handler *rest.UserHandler, g Guards) {
	users := api.Group("/users", append(g.protected(), can(domain.CapManageUsers))...)

	users.GET("", handler.GetAllUsers)
	users.GET("/stats", handler.GetUserStats)
	users.GET("/:id", handler.GetUserByID)
	users.POST("", handler.CreateUser)
	users.PATCH("/:id", handler.UpdateUser)
	users.PUT("/:id", handler.UpdateUser)
	users.DELETE("/:id", handler.DeleteUser)
}

func SetupMedicineRoutes(api *echo.Group, handler *rest.MedicineHandler, g Guards) {
	medicines := api.Group("/medicines")

	medicines.GET("", handler.GetAllMedicines)
	medicines.GET("/categories", handler.GetCategories)
	medicines.GET("/:id", handler.GetMedicineByID)

	manage := append(g.protected(), can(domain.CapManageInventory))
	medicines.POST("", handler.CreateMedicine, manage...)
	medicines.PATCH("/:id", handler.UpdateMedicine, manage...)
	medicines.PUT("/:id", handler.UpdateMedicine, manage...)
	medicines.DELETE("/:id", handler.DeleteMedicine, manage...)
}

func SetOrdersRoutes(api *echo.Group, handler *rest.OrdersHandler, g Guards) {
	orders := api.Group("/orders", g.protected()...)

	orders.POST("", handler.PlaceOrder, can(domain.CapPlaceOrder))
	orders.GET("/me", handler.GetMyOrders, can(domain.CapViewOwnOrders))
	orders.GET("/stats", handler.GetStats)
	orders.GET("/past", handler.GetPastOrders, can(domain.CapManageOrders))
	orders.GET("", handler.GetAllOrders, can(domain.CapManageOrders))
	orders.GET("/:id", handler.GetOrderByID)
	orders.PATCH("/:id/status", handler.UpdateStatus, can(domain.CapManageOrders))
}

func SetupNotificationRoutes(api *echo.Group, handler *rest.NotificationHandler, g Guards) {
	notifications := api.Group("/notifications", append(g.protected(), can(domain.CapReadNotifications))...)

	notifications.GET("", handler.GetNotifications)
	notifications.GET("/stats", handler.GetStats)
	notifications.POST("", handler.CreateNotification, can(domain.CapManageNotifications))
	notifications.PATCH("/read-all", handler.MarkAllRead)
	notifications.PATCH("/:id/read", handler.MarkRead)
	notifications.DELETE("/:id", handler.DeleteNotification)
}

func SetupSettingRoutes(api *echo.Group, handler *rest.SettingHandler, g Guards) {
	settings := api.Group("/settings", g.protected()...)
	manage := can(domain.CapManageSettings)

	settings.GET("", handler.GetAllSettings, manage)
	settings.GET("/category/:category", handler.GetByCategory)
	settings.GET("/organization", handler.GetOrganization)
	settings.GET("/notification-settings", handler.GetNotificationSettings)
	settings.GET("/general", handler.GetGeneral)
	settings.GET("/:key", handler.GetSetting)
	settings.POST("", handler.CreateSetting, manage)
	settings.PATCH("/organization", handler.UpdateOrganization, manage)
	settings.PATCH("/notification-settings", handler.UpdateNotificationSettings, manage)
	settings.PATCH("/general", handler.UpdateGeneral, manage)
	settings.PATCH("/:key", handler.UpdateSetting, manage)
	settings.DELETE("/:key", handler.DeleteSetting, manage)
}

func SetupInvoiceRoutes(api *echo.Group, handler *rest.InvoiceHandler, g Guards) {
	invoices := api.Group("/invoices", g.protected()...)
	manage := can(domain.CapManageInvoices)

	invoices.GET("", handler.GetAllInvoices, manage)
	invoices.GET("/order/:orderId", handler.GetInvoiceByOrder)
	invoices.GET("/:id", handler.GetInvoiceByID)
	invoices.POST("", handler.CreateInvoice, manage)
	invoices.PATCH("/:id/status", handler.UpdateStatus, manage)
}

func SetupTemplateRoutes(api *echo.Group, handler *rest.TemplateHandler, g Guards) {
	templates := api.Group("/templates", append(g.protected(), can(domain.CapUseTemplates))...)

	templates.POST("", handler.CreateTemplate)
	templates.GET("", handler.GetTemplates)
	templates.GET("/:id", handler.GetTemplate)
	templates.PUT("/:id", handler.UpdateTemplate)
	templates.DELETE("/:id", handler.DeleteTemplate)
	templates.POST("/:id/order", handler.PlaceOrder, can(domain.CapPlaceOrder))
}

func SetupDashboardRoutes(api *echo.Group, handler *rest.DashboardHandler, g Guards) {
	dashboard := api.Group("/dashboard", g.protected()...)

	dashboard.GET("/provider", handler.ProviderStats, can(domain.CapViewOwnOrders))
	dashboard.GET("/admin", handler.AdminStats, adminOnly)
	dashboard.GET("/low-stock", handler.LowStock)
	dashboard.GET("/stock-details/:medicineId", handler.StockDetails)
}

func SetupAnalyticsRoutes(api *echo.Group, handler *rest.AnalyticsHandler, g Guards) {
	analytics := api.Group("/analytics")

	analytics.GET("/new-medicine-announcements", handler.Announcements)

	admin := append(g.protected(), can(domain.CapViewAnalytics))
	analytics.GET("/revenue-trends", handler.RevenueTrends, admin...)
	analytics.GET("/user-growth", handler.UserGrowth, admin...)
	analytics.GET("/medicine-performance", handler.MedicinePerformance, admin...)
	analytics.GET("/provider-performance", handler.ProviderPerformance, admin...)
	analytics.GET("/geographic-distribution", handler.GeographicDistribution, admin...)
	analytics.GET("/seasonal-patterns", handler.SeasonalPatterns, admin...)
	analytics.GET("/system-health", handler.SystemHealth, admin...)
	analytics.GET("/search", handler.Search, admin...)

	own := append(g.protected(), can(domain.CapViewOwnAnalytics))
	analytics.GET("/order-trends", handler.OrderTrends, own...)
	analytics.GET("/top-ordered-medicines", handler.TopOrderedMedicines, own...)
	analytics.GET("/spending-analysis", handler.SpendingAnalysis, own...)
	analytics.GET("/order-frequency-metrics", handler.OrderFrequency, own...)
}

func SetupAuditRoutes(api *echo.Group, handler *rest.AuditHandler, g Guards) {
	audit := api.Group("/audit", g.Auth, can(domain.CapViewAudit))

	audit.GET("/logs", handler.ListLogs)
	audit.GET("/logs/stats", handler.LogStats)
	audit.GET("/security-events", handler.ListSecurityEvents)
	audit.GET("/security-events/stats", handler.SecurityEventStats)
	audit.PATCH("/security-events/:id/resolve", handler.ResolveSecurityEvent)
	audit.GET("/sessions", handler.ActiveSessions)
	audit.DELETE("/sessions/:sessionId", handler.TerminateSession)
	audit.DELETE("/sessions/user/:userId", handler.TerminateUserSessions)
	audit.POST("/sessions/cleanup", handler.CleanupSessions)
}

func SetupReportRoutes(api *echo.Group, handler *rest.ReportHandler, g Guards) {
	reports := api.Group("/reports", append(g.protected(), can(domain.CapManageReports))...)

	reports.POST("/templates", handler.CreateTemplate)
	reports.GET("/templates", handler.GetTemplates)
	reports.GET("/templates/prebuilt", handler.GetPrebuiltTemplates)
	reports.GET("/templates/:id", handler.GetTemplate)
	reports.PUT("/templates/:id", handler.UpdateTemplate)
	reports.DELETE("/templates/:id", handler.DeleteTemplate)

	reports.POST("", handler.CreateReport)
	reports.GET("", handler.GetReports)
	reports.POST("/cleanup", handler.CleanupExpired, adminOnly)
	reports.GET("/:id", handler.GetReport)
	reports.POST("/:id/execute", handler.ExecuteReport)
	reports.GET("/:id/download", handler.DownloadReport)
	reports.DELETE("/:id", handler.DeleteReport)
}

func SetupHealthRoutes(e *echo.Echo, handler *rest.HealthHandler, metrics echo.HandlerFunc) {
	e.GET("/health", handler.Live)
	e.GET("/health/ready", handler.Ready)
	e.GET("/metrics", metrics)
}
