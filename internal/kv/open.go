package kv

import (
	"fmt"

	"github.com/STTM-NSU/financeel/internal/config"
	"github.com/STTM-NSU/financeel/internal/logger"
	"github.com/STTM-NSU/financeel/internal/postgres"
	"github.com/STTM-NSU/financeel/internal/sqlite"
)

// Open builds the store selected by cfg. The returned func releases the underlying database.
func Open(cfg config.StorageConfig, logger logger.Logger) (Store, func() error, error) {
	switch cfg.Driver {
	case config.Memory:
		logger.Warnf("using in-memory storage, nothing survives a restart")
		return NewMemoryStore(), func() error { return nil }, nil
	case config.SQLite:
		logger.Debugf("opening sqlite at %s", cfg.SQLitePath)
		db, err := sqlite.NewDB(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return NewSQLStore(db), db.Close, nil
	case config.Postgres:
		pgConfig := postgres.NewConfigFromEnv().Setup()
		logger.Debugf("trying to connect to db with: %s", pgConfig.Redacted())
		db, err := postgres.NewDB(pgConfig)
		if err != nil {
			return nil, nil, err
		}
		return NewSQLStore(db), db.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
