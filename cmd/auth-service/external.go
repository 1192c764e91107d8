// File: backend/services/auth-service/cmd/auth-service/external.go
package main

import (
	"fmt"

	goredis "github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/open-transit-tools/data-manager/backend/services/auth-service/internal/config"
	repoRedis "github.com/open-transit-tools/data-manager/backend/services/auth-service/internal/domain/repository/redis"
	"github.com/open-transit-tools/data-manager/backend/services/auth-service/internal/events/kafka"
	infraDbPostgres "github.com/open-transit-tools/data-manager/backend/services/auth-service/internal/infrastructure/database/postgres"
)

func initDatabase(cfg *config.Config, logger *zap.Logger) (*pgxpool.Pool, error) {
	if cfg.Database.AutoMigrate {
		logger.Info("Running database migrations")
		migrationURL := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
			cfg.Database.User, cfg.Database.Password, cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName, cfg.Database.SSLMode)
		m, err := migrate.New("file://migrations", migrationURL)
		if err != nil {
			return nil, fmt.Errorf("create migration instance: %w", err)
		}
		if err := m.Up(); err != nil && err != migrate.ErrNoChange {
			return nil, fmt.Errorf("apply migrations: %w", err)
		}
		logger.Info("Migrations applied successfully")
	}

	return infraDbPostgres.NewDBPool(cfg.Database)
}

func initRedis(cfg *config.Config) (*goredis.Client, error) {
	return repoRedis.NewRedisClient(cfg.Redis)
}

func initKafkaProducer(cfg *config.Config, logger *zap.Logger) (*kafka.Producer, error) {
	return kafka.NewProducer(cfg.Kafka.Brokers, logger, "urn:service:auth")
}
