package storage

import (
	"context"
	"fmt"
	"strings"

	"talenttrack/internal/config"
	"talenttrack/internal/logger"
)

// Storage aggregates every storage-side dependency of the service.
type Storage struct {
	// Relational database
	MySQL *MySQL

	// Object storage for resume files
	MinIO *MinIO

	// Resume file dedup set
	Redis *Redis

	// Domain event publishing
	RabbitMQ *RabbitMQ
}

// NewStorage initializes all configured storage components. MySQL is
// mandatory; Redis, RabbitMQ and MinIO degrade gracefully so the core
// application flow keeps working when an auxiliary backend is down.
func NewStorage(ctx context.Context, cfg *config.Config) (*Storage, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	storage := &Storage{}
	var err error
	var initErrors []string

	storage.MySQL, err = NewMySQL(&cfg.MySQL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize MySQL: %w", err)
	}
	logger.Info().Str("host", cfg.MySQL.Host).Str("database", cfg.MySQL.Database).Msg("MySQL initialized")

	storage.MinIO, err = NewMinIO(&cfg.MinIO)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to initialize MinIO, resume uploads unavailable")
		initErrors = append(initErrors, fmt.Sprintf("MinIO: %v", err))
		storage.MinIO = nil
	}

	if cfg.Redis.Address != "" {
		storage.Redis, err = NewRedisAdapter(&cfg.Redis)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to initialize Redis, resume dedup disabled")
			initErrors = append(initErrors, fmt.Sprintf("Redis: %v", err))
			storage.Redis = nil
		}
	} else {
		logger.Info().Msg("Redis not configured, skipping")
	}

	if cfg.RabbitMQ.URL != "" {
		storage.RabbitMQ, err = NewRabbitMQ(&cfg.RabbitMQ)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to initialize RabbitMQ, domain events disabled")
			initErrors = append(initErrors, fmt.Sprintf("RabbitMQ: %v", err))
			storage.RabbitMQ = nil
		}
	} else {
		logger.Info().Msg("RabbitMQ not configured, skipping")
	}

	if len(initErrors) > 0 {
		logger.Warn().Str("components", strings.Join(initErrors, "; ")).Msg("some storage components failed to initialize")
	}

	return storage, nil
}

// Close closes all open connections.
func (s *Storage) Close() {
	if s.RabbitMQ != nil {
		if err := s.RabbitMQ.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close RabbitMQ connection")
		}
	}
	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close Redis connection")
		}
	}
	if s.MySQL != nil {
		if err := s.MySQL.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close MySQL connection")
		}
	}
	// The MinIO client holds no long-lived connection that needs closing.
}
