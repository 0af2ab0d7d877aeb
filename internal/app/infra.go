package app

import (
	"context"
	"database/sql"
	"time"

	"checkout-arbiter/internal/config"
	"checkout-arbiter/internal/db"
	"checkout-arbiter/internal/logger"
	"checkout-arbiter/internal/redis"

	_ "github.com/lib/pq"
)

type Infra struct {
	DB    *db.DB
	Redis *redis.Client
}

// Migrate applies the checkout schema and exits without starting the
// HTTP surfaces.
func Migrate(ctx context.Context, cfg config.Config) error {
	sqlDB, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	logger.Info("schema migrated", nil)
	return nil
}

func openDatabase(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	sqlDB, err := sql.Open("postgres", cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	if err := db.RunCheckoutMigration(ctx, sqlDB); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return sqlDB, nil
}

func setupInfra(ctx context.Context, cfg config.Config) (*Infra, error) {
	sqlDB, err := openDatabase(ctx, cfg)
	if err != nil {
		return nil, err
	}

	logger.Info("database ready", nil)

	redisClient, err := redis.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	logger.Info("redis ready", map[string]any{
		"addr": cfg.RedisAddr,
		"db":   cfg.RedisDB,
	})

	return &Infra{
		DB:    &db.DB{DB: sqlDB},
		Redis: redisClient,
	}, nil
}

func (i *Infra) Close() error {
	redisErr := i.Redis.Close()
	if err := i.DB.Close(); err != nil {
		return err
	}
	return redisErr
}
