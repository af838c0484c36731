// Package repositories provides data access layer implementations.
// It handles all database operations and data persistence logic.
package repositories

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"tourneypay/internal/config"
	"tourneypay/internal/models"
	"tourneypay/internal/repositories/cache"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB is the global database instance used across the application.
var DB *gorm.DB
var CacheService *cache.CacheService

// DBConfig holds database connection pool configuration
type DBConfig struct {
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

func loadDBConfig() DBConfig {
	return DBConfig{
		MaxIdleConns:    config.GetIntEnv("DB_MAX_IDLE_CONNS", 10),
		MaxOpenConns:    config.GetIntEnv("DB_MAX_OPEN_CONNS", 100),
		ConnMaxLifetime: config.GetDurationEnv("DB_CONN_MAX_LIFETIME", time.Hour),
		ConnMaxIdleTime: config.GetDurationEnv("DB_CONN_MAX_IDLE_TIME", 30*time.Minute),
	}
}

// Models lists every table owned by the settlement engine.
func Models() []interface{} {
	return []interface{}{
		&models.Tournament{},
		&models.Category{},
		&models.Registration{},
		&models.PaymentVerification{},
		&models.LedgerAccount{},
		&models.LedgerEntry{},
		&models.TournamentPayment{},
		&models.CancellationRequest{},
		&models.AuditLogEntry{},
	}
}

// InitDB connects PostgreSQL and Redis and applies migrations.
func InitDB() error {
	if err := initPostgres(); err != nil {
		return err
	}

	redisCfg := &cache.RedisConfig{
		Host:     config.GetEnv("REDIS_HOST", "localhost"),
		Port:     config.GetEnv("REDIS_PORT", "6379"),
		Password: config.GetEnv("REDIS_PASSWORD", ""),
		DB:       config.GetIntEnv("REDIS_DB", 0),
	}
	redisClient := cache.NewRedisClient(redisCfg)
	CacheService = cache.NewCacheService(redisClient, config.GetDurationEnv("CACHE_TTL", 24*time.Hour))

	if err := DB.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}

	log.Println("✅ PostgreSQL connected & migrations applied successfully!")
	return nil
}

func initPostgres() error {
	dsn := "host=" + config.GetEnv("DB_HOST", "localhost") +
		" user=" + config.GetEnv("DB_USER", "postgres") +
		" password=" + config.GetEnv("DB_PASSWORD", "postgres") +
		" dbname=" + config.GetEnv("DB_NAME", "tourneypay") +
		" port=" + config.GetEnv("DB_PORT", "5432") +
		" sslmode=" + config.GetEnv("DB_SSLMODE", "disable")

	// Ignore "record not found", repositories translate it.
	newLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  !config.IsProduction(),
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: newLogger})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	poolCfg := loadDBConfig()
	sqlDB.SetMaxIdleConns(poolCfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(poolCfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(poolCfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(poolCfg.ConnMaxIdleTime)

	DB = db
	return nil
}

// Close releases the PostgreSQL and Redis connections.
func Close() {
	if DB != nil {
		sqlDB, err := DB.DB()
		if err != nil {
			log.Printf("⚠️ Failed to get database instance: %v", err)
		} else if err := sqlDB.Close(); err != nil {
			log.Printf("⚠️ Failed to close database connection: %v", err)
		}
	}

	if CacheService != nil {
		if err := CacheService.Close(); err != nil {
			log.Printf("⚠️ Failed to close Redis connection: %v", err)
		}
	}
}

// DBHealth pings the database for health checks.
type DBHealth struct {
	DB *gorm.DB
}

func (h DBHealth) HealthCheck(ctx context.Context) error {
	sqlDB, err := h.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
