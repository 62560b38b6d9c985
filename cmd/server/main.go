package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"log/slog"

	"github.com/joho/godotenv"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/SHIS22proxy/paygate/internal/config"
	apphttp "github.com/SHIS22proxy/paygate/internal/http"
	"github.com/SHIS22proxy/paygate/internal/mailer"
	"github.com/SHIS22proxy/paygate/internal/metrics"
	"github.com/SHIS22proxy/paygate/internal/modules/alerts"
	"github.com/SHIS22proxy/paygate/internal/modules/orders"
	"github.com/SHIS22proxy/paygate/internal/modules/webhooks"
	"github.com/SHIS22proxy/paygate/internal/storage"
)

func main() {
	// Load .env file (ignore error if not found - prod uses real env vars)
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := openDB(cfg)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	metrics.Register()

	archive, err := storage.New(context.Background(), cfg.Archive)
	if err != nil {
		log.Fatalf("failed to set up payload archive: %v", err)
	}

	var notifier alerts.Notifier
	if len(cfg.Alerts.To) > 0 {
		var sender mailer.Service
		switch cfg.MailerDriver {
		case "mailtrap":
			sender = mailer.NewMailtrapMailer(cfg.Mailtrap.APIURL, cfg.Mailtrap.APIToken)
		default:
			sender = mailer.NewSMTPMailer(cfg.SMTP)
		}
		mail := alerts.NewMail(sender, cfg.Alerts.From, cfg.Alerts.To)
		mail.SetLogger(logger)
		notifier = mail
	}

	r := apphttp.NewRouter(apphttp.Deps{
		Logger:   logger,
		DB:       db,
		Config:   cfg,
		Archive:  archive,
		Notifier: notifier,
	})

	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", cfg.Addr, "db_driver", cfg.DBDriver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("shutdown: %v", err)
	}
	logger.Info("shutdown complete")
}

func openDB(cfg config.Config) (*gorm.DB, error) {
	switch cfg.DBDriver {
	case "sqlite":
		db, err := gorm.Open(sqlite.Open(cfg.DBDSN), &gorm.Config{})
		if err != nil {
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		// single connection keeps concurrent transactions serialized
		sqlDB.SetMaxOpenConns(1)
		if err := db.AutoMigrate(&orders.Order{}, &orders.OrderEvent{}, &webhooks.DeliveryReceipt{}); err != nil {
			return nil, err
		}
		return db, nil
	default:
		return gorm.Open(mysql.Open(cfg.DBDSN), &gorm.Config{})
	}
}
