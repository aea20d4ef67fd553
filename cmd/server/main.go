package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/jeremygz0607/Customer-RMA-Portal/internal/application/service"
	"github.com/jeremygz0607/Customer-RMA-Portal/internal/auth"
	"github.com/jeremygz0607/Customer-RMA-Portal/internal/config"
	"github.com/jeremygz0607/Customer-RMA-Portal/internal/domain/rules"
	"github.com/jeremygz0607/Customer-RMA-Portal/internal/infrastructure/external/easypost"
	"github.com/jeremygz0607/Customer-RMA-Portal/internal/infrastructure/external/hubspot"
	"github.com/jeremygz0607/Customer-RMA-Portal/internal/infrastructure/external/lark"
	"github.com/jeremygz0607/Customer-RMA-Portal/internal/infrastructure/external/openai"
	"github.com/jeremygz0607/Customer-RMA-Portal/internal/infrastructure/media"
	"github.com/jeremygz0607/Customer-RMA-Portal/internal/infrastructure/persistence/repository"
	"github.com/jeremygz0607/Customer-RMA-Portal/internal/infrastructure/storage"
	"github.com/jeremygz0607/Customer-RMA-Portal/internal/infrastructure/worker"
	httpserver "github.com/jeremygz0607/Customer-RMA-Portal/internal/interfaces/http"
	"github.com/jeremygz0607/Customer-RMA-Portal/pkg/database"
	"github.com/jeremygz0607/Customer-RMA-Portal/pkg/utils"
)

func main() {
	// Local overrides; missing .env is fine in production
	_ = gotenv.Load()

	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting RMA portal",
		zap.String("version", "1.0.0"),
		zap.Int("port", cfg.Server.Port))

	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	migrator := database.NewMigrator(db, logger)
	if err := migrator.RunMigrations(cfg.Database.MigrationsDir); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	if err := os.MkdirAll(cfg.Storage.BasePath, 0755); err != nil {
		logger.Fatal("Failed to create storage directory", zap.Error(err))
	}

	// Repositories
	rmaRepo := repository.NewRmaRepository(db.DB, logger)
	tsRepo := repository.NewTroubleshootingRepository(db.DB, logger)
	playbookRepo := repository.NewPlaybookRepository(db.DB, logger)
	labelRepo := repository.NewLabelRepository(db.DB, logger)
	auditRepo := repository.NewAuditRepository(db.DB, logger)
	warehouse := repository.NewWarehouseRepository(db.DB, logger)

	fileStorage := storage.NewLocalFileStorage(cfg.Storage.BasePath, logger)

	// External clients
	ticketing := hubspot.NewClient(hubspot.Config{
		BaseURL:    cfg.HubSpot.BaseURL,
		Token:      cfg.HubSpot.Token,
		PipelineID: cfg.HubSpot.PipelineID,
	}, logger)

	carrier := easypost.NewClient(easypost.Config{
		BaseURL: cfg.EasyPost.BaseURL,
		APIKey:  cfg.EasyPost.APIKey,
		ReturnAddress: easypost.Address{
			Name:    cfg.EasyPost.Return.Name,
			Street1: cfg.EasyPost.Return.Street1,
			City:    cfg.EasyPost.Return.City,
			State:   cfg.EasyPost.Return.State,
			Zip:     cfg.EasyPost.Return.Zip,
			Country: cfg.EasyPost.Return.Country,
		},
	}, logger)

	notifier := lark.NewReviewNotifier(lark.Config{
		AppID:        cfg.Lark.AppID,
		AppSecret:    cfg.Lark.AppSecret,
		ReviewChatID: cfg.Lark.ReviewChatID,
	}, logger)

	assist := openai.NewAssistClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.Temperature, logger)
	inspector := media.NewPDFInspector(logger)

	engine := rules.NewEngine(rmaRepo, logger)
	tokens := auth.NewTokenManager(cfg.Auth.TokenSecret, cfg.Auth.TokenTTL)

	svcLogger := &zapLoggerAdapter{logger: logger}

	// Application services
	services := httpserver.Services{
		Session:         service.NewSessionService(rmaRepo, auditRepo, warehouse, ticketing, tokens, svcLogger),
		Troubleshooting: service.NewTroubleshootingService(rmaRepo, tsRepo, playbookRepo, auditRepo, assist, svcLogger),
		Evidence:        service.NewEvidenceService(rmaRepo, tsRepo, auditRepo, fileStorage, inspector, svcLogger),
		Terms:           service.NewTermsService(rmaRepo, auditRepo, svcLogger),
		Authorization:   service.NewAuthorizationService(rmaRepo, tsRepo, auditRepo, engine, notifier, ticketing, svcLogger),
		Shipping: service.NewShippingService(rmaRepo, labelRepo, auditRepo, carrier, fileStorage, service.ShippingConfig{
			USPSPayOnDeliveryEnabled: cfg.Shipping.USPSPayOnDeliveryEnabled,
		}, svcLogger),
		Close: service.NewCloseService(rmaRepo, auditRepo, ticketing, svcLogger),
		Documents: service.NewDocumentService(rmaRepo, labelRepo, fileStorage, service.DocumentConfig{
			PortalBaseURL: cfg.Documents.PortalBaseURL,
			ReturnAddress: cfg.Documents.ReturnAddress,
			SupportEmail:  cfg.Documents.SupportEmail,
		}, svcLogger),
		Admin: service.NewAdminService(rmaRepo, tsRepo, labelRepo, playbookRepo, auditRepo, ticketing, svcLogger),
	}

	// Background workers
	workers := worker.NewManager(logger)
	workers.Register(worker.NewStorageCleanupWorker(worker.StorageCleanupConfig{
		SweepInterval: cfg.Storage.SweepInterval,
		RetentionDays: cfg.Storage.RetentionDays,
		Prefix:        "rma",
	}, fileStorage, logger))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := workers.StartAll(ctx); err != nil {
		logger.Fatal("Failed to start workers", zap.Error(err))
	}

	server := httpserver.NewServer(httpserver.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		AdminAPIKey:  cfg.Server.AdminAPIKey,
	}, services, tokens, svcLogger)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start(ctx)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		logger.Info("Shutting down server...")
	case err := <-serverErr:
		if err != nil {
			logger.Error("Server error", zap.Error(err))
		}
	}

	cancel()

	if err := server.Stop(); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := workers.StopAll(); err != nil {
		logger.Error("Worker shutdown error", zap.Error(err))
	}

	logger.Info("Server exited successfully")
}

// zapLoggerAdapter adapts zap.Logger to the service logger interface
type zapLoggerAdapter struct {
	logger *zap.Logger
}

func (a *zapLoggerAdapter) Info(msg string, keysAndValues ...interface{}) {
	a.logger.Info(msg, toZapFields(keysAndValues...)...)
}

func (a *zapLoggerAdapter) Error(msg string, keysAndValues ...interface{}) {
	a.logger.Error(msg, toZapFields(keysAndValues...)...)
}

func toZapFields(keysAndValues ...interface{}) []zap.Field {
	fields := make([]zap.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		fields = append(fields, zap.Any(key, keysAndValues[i+1]))
	}
	return fields
}
