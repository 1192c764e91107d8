// File: backend/services/auth-service/cmd/auth-service/main.go
package main

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/open-transit-tools/data-manager/backend/services/auth-service/internal/config"
	"github.com/open-transit-tools/data-manager/backend/services/auth-service/internal/domain/interfaces"
	repoPostgres "github.com/open-transit-tools/data-manager/backend/services/auth-service/internal/domain/repository/postgres"
	repoRedis "github.com/open-transit-tools/data-manager/backend/services/auth-service/internal/domain/repository/redis"
	"github.com/open-transit-tools/data-manager/backend/services/auth-service/internal/events/kafka"
	httpHandler "github.com/open-transit-tools/data-manager/backend/services/auth-service/internal/handler/http"
	"github.com/open-transit-tools/data-manager/backend/services/auth-service/internal/infrastructure/identity"
	"github.com/open-transit-tools/data-manager/backend/services/auth-service/internal/infrastructure/security"
	"github.com/open-transit-tools/data-manager/backend/services/auth-service/internal/service"
	"github.com/open-transit-tools/data-manager/backend/services/auth-service/internal/utils/logger"
	"github.com/open-transit-tools/data-manager/backend/services/auth-service/internal/utils/shutdown"
	"github.com/open-transit-tools/data-manager/backend/services/auth-service/internal/utils/validator"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	log, err := logger.NewLogger(cfg.Logging.Level, cfg.Telemetry.Environment)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer log.Sync()

	if err := validator.RegisterCustomValidators(); err != nil {
		log.Fatal("Failed to register validators", zap.Error(err))
	}

	dbPool, err := initDatabase(cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize PostgreSQL connection pool", zap.Error(err))
	}
	defer dbPool.Close()
	auditRepo := repoPostgres.NewAuditLogRepositoryPostgres(dbPool)

	redisClient, err := initRedis(cfg)
	if err != nil {
		log.Fatal("Failed to initialize Redis client", zap.Error(err))
	}
	defer redisClient.Close()

	var publisher interfaces.EventPublisher
	if cfg.Kafka.Enabled {
		kafkaProducer, err := initKafkaProducer(cfg, log)
		if err != nil {
			log.Fatal("Failed to initialize Kafka producer", zap.Error(err))
		}
		defer kafkaProducer.Close()
		publisher = kafka.NewPublisher(kafkaProducer, cfg.Kafka.Producer.Topic)
	}

	idpClient := identity.NewClient(identity.Config{
		BaseURL:      cfg.Identity.BaseURL,
		ClientID:     cfg.Identity.ClientID,
		ClientSecret: cfg.Identity.ClientSecret,
		Timeout:      cfg.Identity.Timeout,
	}, log)

	registry := service.NewRegistry(
		service.Config{
			ClientID:             cfg.Identity.ClientID,
			RedirectURI:          cfg.Identity.RedirectURI,
			Scope:                cfg.Identity.Scope,
			ResponseMode:         cfg.Identity.ResponseMode,
			LogoutURL:            cfg.Identity.LogoutURL,
			LogoutReturnTo:       cfg.Identity.LogoutReturnTo,
			ProfileRefreshWindow: cfg.Session.ProfileRefreshWindow,
		},
		func(sessionID string) interfaces.TokenStore {
			return repoRedis.NewTokenStore(redisClient, log, sessionID, cfg.Redis.TokenTTL)
		},
		service.ManagerDeps{
			Identity:  idpClient,
			Decoder:   security.NewJWTDecoder(),
			Publisher: publisher,
			AuditRepo: auditRepo,
			Logger:    log,
		},
	)

	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		Registry:          registry,
		SessionHandler:    httpHandler.NewSessionHandler(registry, log),
		PermissionHandler: httpHandler.NewPermissionHandler(registry, log),
		AdminHandler:      httpHandler.NewAdminHandler(auditRepo, log),
		HealthHandler:     httpHandler.NewHealthHandler(dbPool, redisClient),
		CORSOrigins:       cfg.Server.CORSOrigins,
		Logger:            log,
	})

	httpServer := startHTTPServer(cfg, router, log)
	shutdown.Wait(httpServer, cfg.Server.ShutdownTimeout, log)
}
