// cmd/contact-server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	awsmail "github.com/emmanuel-sarpedon/contact-form/internal/common/aws"
	"github.com/emmanuel-sarpedon/contact-form/internal/common/config"
	"github.com/emmanuel-sarpedon/contact-form/internal/common/database"
	"github.com/emmanuel-sarpedon/contact-form/internal/common/logger"
	"github.com/emmanuel-sarpedon/contact-form/internal/common/mailer"
	"github.com/emmanuel-sarpedon/contact-form/internal/common/observability"
	"github.com/emmanuel-sarpedon/contact-form/internal/web"

	on "github.com/emmanuel-sarpedon/contact-form/internal/workers/communication/owner-notify"
	sp "github.com/emmanuel-sarpedon/contact-form/internal/workers/contact/submission-pipeline"
	prc "github.com/emmanuel-sarpedon/contact-form/internal/workers/crm/prospect-record-create"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting contact server...",
		zap.String("environment", cfg.App.Environment),
		zap.String("version", cfg.App.Version),
	)

	obs, err := observability.New(cfg.App.Name)
	if err != nil {
		zapLog.Fatal("observability init failed", zap.Error(err))
	}
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Single-flight guard ---
	var guard sp.Guard
	switch cfg.Guard.Driver {
	case "redis":
		var redis *database.RedisClient
		err = retryWithBackoff(func() error {
			var err error
			redis, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return redis.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer redis.Close()
		zapLog.Info("Redis connected successfully")
		guard = sp.NewRedisGuard(redis, cfg.Guard.KeyPrefix, config.GetDuration(cfg.Guard.TTL), config.GetDuration(cfg.Guard.InFlightTTL))
	default:
		guard = sp.NewMemoryGuard(config.GetDuration(cfg.Guard.TTL))
	}

	// --- Owner notification transport ---
	mail, err := buildMailer(ctx, cfg)
	if err != nil {
		zapLog.Fatal("mailer init failed", zap.Error(err))
	}
	zapLog.Info("Mail driver initialized", zap.String("driver", mail.Name()))

	// --- Services ---
	recordCfg := &prc.Config{
		Timeout:          config.GetDuration(cfg.Integrations.Notion.Timeout),
		NotionAPIKey:     cfg.Integrations.Notion.APIKey,
		NotionDatabaseID: cfg.Integrations.Notion.DatabaseID,
		NotionBaseURL:    cfg.Integrations.Notion.BaseURL,
		NotionVersion:    cfg.Integrations.Notion.Version,
	}
	if err := recordCfg.Validate(); err != nil {
		zapLog.Fatal("invalid record store config", zap.Error(err))
	}
	records := prc.NewService(prc.ServiceDependencies{Logger: log}, recordCfg)
	if !records.Configured() {
		zapLog.Warn("Record store credentials are missing, submissions will fail until NOTION_API_KEY and NOTION_DATABASE_ID are set")
	}

	notifyCfg := on.DefaultConfig()
	notifyCfg.From = cfg.Mail.From
	notifyCfg.To = cfg.Mail.To
	notifyCfg.Subject = cfg.Mail.Subject
	if err := notifyCfg.Validate(); err != nil {
		zapLog.Fatal("invalid notification config", zap.Error(err))
	}
	notifier := on.NewService(on.ServiceDependencies{Logger: log, Mailer: mail}, notifyCfg)

	pipelineCfg := &sp.Config{
		RedirectURL: cfg.Contact.RedirectURL,
		Messages: sp.Messages{
			InProgress: cfg.Contact.Messages.InProgress,
			Success:    cfg.Contact.Messages.Success,
			Failure:    cfg.Contact.Messages.Failure,
		},
		DispatchTimeout: config.GetDuration(cfg.Contact.DispatchTimeout),
	}
	pipeline, err := sp.NewPipeline(sp.ServiceDependencies{
		Logger:        log,
		Records:       records,
		Notifier:      notifier,
		Guard:         guard,
		Observability: obs,
	}, pipelineCfg)
	if err != nil {
		zapLog.Fatal("pipeline init failed", zap.Error(err))
	}

	// --- HTTP ---
	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	checks := map[string]web.ReadinessCheck{
		"guard": pipeline.Ping,
	}
	if records.Configured() {
		checks["records"] = records.TestConnection
	}
	router, err := web.NewRouter(web.RouterDeps{
		Logger:         log,
		Submitter:      pipeline,
		Checks:         checks,
		LoadingMessage: pipelineCfg.Messages.InProgress,
	})
	if err != nil {
		zapLog.Fatal("router init failed", zap.Error(err))
	}

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, draining requests...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down HTTP server", zap.Error(err))
	}

	zapLog.Info("Contact server stopped gracefully")
}

func buildMailer(ctx context.Context, cfg *config.Config) (mailer.Mailer, error) {
	switch cfg.Mail.Driver {
	case "ses":
		return awsmail.NewSESMailer(ctx, cfg.Integrations.AWS.Region)
	case "sns":
		return awsmail.NewSNSMailer(ctx, cfg.Integrations.AWS.Region, cfg.Integrations.AWS.SNS.TopicARN)
	default:
		return mailer.NewSMTPMailer(mailer.SMTPConfig{
			Host:     cfg.Integrations.SMTP.Host,
			Port:     cfg.Integrations.SMTP.Port,
			Username: cfg.Integrations.SMTP.Username,
			Password: cfg.Integrations.SMTP.Password,
			Secure:   cfg.Integrations.SMTP.Secure,
		}), nil
	}
}
