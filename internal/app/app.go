package app

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/tesfam/kiraypay/internal/auditlog"
	"github.com/tesfam/kiraypay/internal/cache"
	"github.com/tesfam/kiraypay/internal/config"
	"github.com/tesfam/kiraypay/internal/env"
	"github.com/tesfam/kiraypay/internal/errHandler"
	"github.com/tesfam/kiraypay/internal/fx"
	"github.com/tesfam/kiraypay/internal/helper"
	"github.com/tesfam/kiraypay/internal/payout"
	"github.com/tesfam/kiraypay/internal/reconciliation"
	"github.com/tesfam/kiraypay/internal/repository"
	"github.com/tesfam/kiraypay/internal/settlement"
	"github.com/tesfam/kiraypay/internal/smtp"
	"github.com/tesfam/kiraypay/internal/split"
	"github.com/tesfam/kiraypay/internal/stream"
	"github.com/joho/godotenv"
)

// Essential services and resources are exposed to the application
// this makes it possible for methods to have access to these items when they need them
type Application struct {
	Config         config.Config
	DB             repository.Database
	Logger         *slog.Logger
	Mailer         *smtp.Mailer
	WG             sync.WaitGroup
	errorHandler   *errHandler.ErrorHandler
	helper         *helper.HelperRepository
	Kafka          *stream.KafkaStream
	Cache          *cache.Cache
	Audit          *auditlog.Recorder
	Fx             *fx.Service
	Calculator     *split.Calculator
	Settlement     *settlement.Engine
	Payouts        *payout.Processor
	Reconciliation *reconciliation.Checker
}

func NewApplication(logger *slog.Logger) (*Application, error) {
	if err := godotenv.Load(); err != nil {
		logger.Error("Error loading .env file", "error", err)
	}

	var cfg config.Config

	// config values are loaded from the .env file
	// Default values are provided for these items and these should strictly be values for development mode only
	// make sure no production-level value is exposed as default value here
	cfg.BaseURL = env.GetString("BASE_URL", "http://localhost:4444")
	cfg.HttpPort = env.GetInt("HTTP_PORT", 4444)

	cfg.Db.Dsn = env.GetString("DB_DSN", "user:pass@localhost:5432/db")
	cfg.Db.Automigrate = env.GetBool("DB_AUTOMIGRATE", true)

	cfg.Jwt.SecretKey = env.GetString("JWT_SECRET_KEY", "ajf5nx3qmp6zquevllxocxqvyz42ypuo")

	// server errors and reconciliation alerts won't be sent via email if
	// NOTIFICATIONS_EMAIL wasn't set in the .env file
	cfg.Notifications.Email = env.GetString("NOTIFICATIONS_EMAIL", "")

	cfg.Smtp.Host = env.GetString("SMTP_HOST", "example.smtp.host")
	cfg.Smtp.Port = env.GetInt("SMTP_PORT", 25)
	cfg.Smtp.Username = env.GetString("SMTP_USERNAME", "example_username")
	cfg.Smtp.Password = env.GetString("SMTP_PASSWORD", "pa55word")
	cfg.Smtp.From = env.GetString("SMTP_FROM", "KirayPay <no_reply@example.org>")

	cfg.KafkaServers = env.GetString("KAFKA_SERVERS", "localhost:9092")
	cfg.RedisServer = env.GetString("REDIS_SERVER", "localhost:6379")

	cfg.Split.VatPercent = env.GetString("SPLIT_VAT_PERCENT", "15")
	cfg.Split.WithholdingPercent = env.GetString("SPLIT_WITHHOLDING_PERCENT", "2")
	cfg.Split.DellalaPercent = env.GetString("SPLIT_DELLALA_PERCENT", "5")
	cfg.Split.PlatformFeePercent = env.GetString("SPLIT_PLATFORM_FEE_PERCENT", "10")
	cfg.Split.DellalaWindowMonths = env.GetInt("SPLIT_DELLALA_WINDOW_MONTHS", 36)

	cfg.Reconciliation.IntervalHours = env.GetInt("RECONCILIATION_INTERVAL_HOURS", 24)
	cfg.FxCacheSeconds = env.GetInt("FX_CACHE_SECONDS", 300)

	db, err := repository.New(cfg.Db.Dsn, cfg.Db.Automigrate)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	mailer, err := smtp.NewMailer(cfg.Smtp.Host, cfg.Smtp.Port, cfg.Smtp.Username, cfg.Smtp.Password, cfg.Smtp.From)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize mailer: %w", err)
	}

	errorHandler := errHandler.New(cfg.Notifications.Email, cfg.BaseURL, mailer, logger)

	kafkaStream := stream.New(cfg.KafkaServers)
	redisCache := cache.New(cfg.RedisServer, 0)

	calculator, err := split.NewCalculator(split.Config{
		VatPercent:         cfg.Split.VatPercent,
		WithholdingPercent: cfg.Split.WithholdingPercent,
		DellalaPercent:     cfg.Split.DellalaPercent,
		PlatformFeePercent: cfg.Split.PlatformFeePercent,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build split calculator: %w", err)
	}

	audit := auditlog.New(db.Audit(), logger)
	fxService := fx.New(db, redisCache, audit, logger, time.Duration(cfg.FxCacheSeconds)*time.Second)
	settlementEngine := settlement.New(db, calculator, fxService, audit, logger, cfg.Split.DellalaWindowMonths)
	payoutProcessor := payout.New(db, audit, logger)
	reconChecker := reconciliation.New(db, audit, mailer, cfg.Notifications.Email, logger)

	app := &Application{
		Config:         cfg,
		DB:             db,
		Logger:         logger,
		Mailer:         mailer,
		errorHandler:   errorHandler,
		Kafka:          kafkaStream,
		Cache:          redisCache,
		Audit:          audit,
		Fx:             fxService,
		Calculator:     calculator,
		Settlement:     settlementEngine,
		Payouts:        payoutProcessor,
		Reconciliation: reconChecker,
	}

	app.helper = helper.New(&cfg.BaseURL, &app.WG, errorHandler)

	return app, nil
}

func (app *Application) Helper() *helper.HelperRepository {
	return app.helper
}
