package app

import (
	"fmt"
	"strings"

	"github.com/art0tod/battle-rap-v2-sub000/internal/store"
	"github.com/art0tod/battle-rap-v2-sub000/internal/store/postgres"
	"github.com/art0tod/battle-rap-v2-sub000/internal/store/sqlite"
)

func detectDBType(dsn string) store.DatabaseType {
	if strings.HasPrefix(dsn, "postgres") {
		return store.DBTypePostgres
	}
	return store.DBTypeSQLite
}

func NewStore(cfg store.DBConfig) (store.JudgingStore, error) {
	if cfg.Type == "" {
		cfg.Type = detectDBType(cfg.DSN)
	}

	switch cfg.Type {
	case store.DBTypePostgres:
		return postgres.NewPostgresStore(cfg.DSN, cfg.MigrationsDir)
	case store.DBTypeSQLite:
		return sqlite.NewSQLiteStore(cfg.DSN, cfg.MigrationsDir)
	default:
		return nil, fmt.Errorf("unable to determine database type from DSN: %s", cfg.DSN)
	}
}
