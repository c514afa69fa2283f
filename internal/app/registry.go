package app

import (
	"net/http"

	"go-leave/internal/balance"
	"go-leave/internal/document"
	"go-leave/internal/employee"
	"go-leave/internal/leave"
	"go-leave/internal/messaging/kafka"
	"go-leave/internal/middleware"
	"go-leave/internal/notification"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func registerModules(
	router *gin.Engine,
	gormDB *gorm.DB,
	rdb *redis.Client,
	docStore document.Store,
) error {
	router.Use(middleware.RequestID())
	router.Use(middleware.ContextLogger(zap.L()))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.RateLimitByIP(20, 40))

	// --- Repositories ---
	employeeRepo := employee.NewRepository(gormDB)
	leaveRepo := leave.NewRepository(gormDB)
	notificationRepo := notification.NewRepository(gormDB)
	outboxRepo := kafka.NewOutboxRepository(gormDB)

	// --- Services ---
	employeeService := employee.NewService(gormDB, employeeRepo)
	leaveService := leave.NewService(leave.ServiceDeps{
		DB:        gormDB,
		Repo:      leaveRepo,
		Employees: employeeRepo,
		Notifs:    notificationRepo,
		Outbox:    outboxRepo,
		Documents: docStore,
		Redis:     rdb,
	})
	notificationService := notification.NewService(notificationRepo)
	balanceService := balance.NewService(gormDB, employeeRepo)

	// --- Handlers ---
	employeeHandler := employee.NewHandler(employeeService)
	leaveHandler := leave.NewHandler(leaveService)
	notificationHandler := notification.NewHandler(notificationService)
	balanceHandler := balance.NewHandler(balanceService)

	// --- Routes Registration ---
	api := router.Group("/api/v1")
	{
		employee.RegisterRoutes(api, employeeHandler)
		leave.RegisterRoutes(api, leaveHandler)
		notification.RegisterRoutes(api, notificationHandler)
		balance.RegisterRoutes(api, balanceHandler)
	}

	router.GET("/healthz", func(c *gin.Context) {
		sqlDB, err := gormDB.DB()
		if err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "down"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return nil
}
