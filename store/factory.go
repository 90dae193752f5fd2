package store

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/vnkhanh/prince-music-backend/config"
)

// NewStore creates the shared-state store selected by cfg.Type.
func NewStore(logger *zap.Logger, cfg *config.StoreConfig) (Store, error) {
	logger.Info("Initializing shared store", zap.String("type", cfg.Type))
	switch cfg.Type {
	case "memory", "":
		return NewMemoryStore(), nil
	case "redis":
		return NewRedisStore(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	default:
		return nil, fmt.Errorf("unsupported store type: %s", cfg.Type)
	}
}
