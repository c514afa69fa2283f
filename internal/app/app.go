package app

import (
	"os"

	"go-leave/internal/document"
	"go-leave/internal/employee"
	"go-leave/internal/leave"
	"go-leave/internal/notification"
	"go-leave/internal/shared/connection"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const outboxDDL = `
CREATE TABLE IF NOT EXISTS outbox_events (
	id            UUID PRIMARY KEY,
	request_id    VARCHAR(64),
	aggregate_type VARCHAR(50)  NOT NULL,
	aggregate_id  VARCHAR(100) NOT NULL,
	event_type    VARCHAR(100) NOT NULL,
	topic         VARCHAR(200) NOT NULL,
	payload       JSONB        NOT NULL,
	status        VARCHAR(20)  NOT NULL DEFAULT 'pending',
	retry_count   INT          NOT NULL DEFAULT 0,
	error_message VARCHAR(500),
	next_retry_at TIMESTAMPTZ,
	processed_at  TIMESTAMPTZ,
	created_at    TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
	updated_at    TIMESTAMPTZ  NOT NULL DEFAULT NOW()
)`

func migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&employee.Employee{},
		&leave.Leave{},
		&notification.Notification{},
	); err != nil {
		return err
	}
	return db.Exec(outboxDDL).Error
}

func BuildApp(router *gin.Engine) error {
	gormDB, err := connection.ConnectGORMWithRetry(
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
		os.Getenv("DB_SSLMODE"),
		5,
	)
	if err != nil {
		return err
	}

	if err := migrate(gormDB); err != nil {
		return err
	}
	zap.L().Info("database schema ready")

	redisClient, err := connection.ConnectRedisWithRetry(os.Getenv("REDIS_ADDR"), 5)
	if err != nil {
		return err
	}

	uploadDir := os.Getenv("UPLOAD_DIR")
	if uploadDir == "" {
		uploadDir = "uploads"
	}
	docStore, err := document.NewDiskStore(uploadDir)
	if err != nil {
		return err
	}

	return registerModules(router, gormDB, redisClient, docStore)
}
