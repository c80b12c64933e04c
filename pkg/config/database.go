package config

import (
	"log/slog"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// InitDB opens the PostgreSQL connection using GORM and verifies it
// with a ping.
func InitDB(connStr string) (*gorm.DB, error) {
	// TranslateError lets callers match gorm.ErrDuplicatedKey instead
	// of driver-specific constraint errors.
	db, err := gorm.Open(postgres.Open(connStr), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err = sqlDB.Ping(); err != nil {
		return nil, err
	}

	slog.Info("connected to PostgreSQL")
	return db, nil
}

// CloseDB closes the underlying SQL connection pool.
func CloseDB(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		slog.Error("getting SQL DB from GORM", "err", err)
		return
	}
	if err := sqlDB.Close(); err != nil {
		slog.Error("closing PostgreSQL connection", "err", err)
	}
}
