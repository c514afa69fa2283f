package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-leave/internal/balance"
	"go-leave/internal/employee"
	"go-leave/internal/shared/connection"

	"go.uber.org/zap"
)

func envDuration(name string, fallback time.Duration) time.Duration {
	v := os.Getenv(name)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		zap.L().Warn("invalid duration env, using fallback",
			zap.String("name", name),
			zap.String("value", v),
			zap.Duration("fallback", fallback),
		)
		return fallback
	}
	return d
}

// RunSweeper repairs out-of-range balances on a timer until SIGINT/SIGTERM.
// The initial delay lets the API finish its own startup migration first.
func RunSweeper() error {
	logger := zap.L().Named("app.sweeper")

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

	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	employeeRepo := employee.NewRepository(gormDB)
	balanceService := balance.NewService(gormDB, employeeRepo)

	delay := envDuration("SWEEP_DELAY", 30*time.Second)
	interval := envDuration("SWEEP_INTERVAL", 10*time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		logger.Info("sweeper started",
			zap.Duration("delay", delay),
			zap.Duration("interval", interval),
		)

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			report, err := balanceService.Sweep(ctx)
			if err != nil {
				logger.Error("sweep failed", zap.Error(err))
			} else if report.Repaired > 0 {
				logger.Warn("sweep repaired drifted balances",
					zap.Int("scanned", report.Scanned),
					zap.Int("repaired", report.Repaired),
				)
			}

			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("sweeper shutting down")
	cancel()

	return nil
}
