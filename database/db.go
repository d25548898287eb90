// Package database opens the gorm connection for the configured dialect and
// keeps the schema up to date.
package database

import (
	"errors"
	"strings"

	"github.com/quillpress/blog/config"
	"github.com/quillpress/blog/database/model"
	"github.com/quillpress/blog/logger"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func initModels(db *gorm.DB) error {
	models := []any{
		&model.User{},
		&model.BlogPost{},
		&model.Comment{},
		&model.AuditLog{},
	}
	for _, model := range models {
		if err := db.AutoMigrate(model); err != nil {
			logger.Errorf("Error auto migrating model %T: %v", model, err)
			return err
		}
	}
	return nil
}

func dialector(cfg *config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Type {
	case config.DatabaseTypeSQLite:
		dsn := cfg.DSN
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + "cache=shared&_journal_mode=WAL&_synchronous=NORMAL&_foreign_keys=on"
		return sqlite.Open(dsn), nil
	case config.DatabaseTypePostgreSQL:
		return postgres.Open(cfg.DSN), nil
	case config.DatabaseTypeMySQL:
		return mysql.Open(cfg.DSN), nil
	default:
		return nil, errors.New("unsupported database type: " + string(cfg.Type))
	}
}

// Open connects to the database described by cfg and migrates the schema.
func Open(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	if err := cfg.EnsureDirectoryExists(); err != nil {
		return nil, err
	}

	dial, err := dialector(cfg)
	if err != nil {
		return nil, err
	}

	var gormLogger gormlogger.Interface
	if config.IsDebug() {
		gormLogger = gormlogger.Default
	} else {
		gormLogger = gormlogger.Discard
	}

	c := &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
		TranslateError:         true,
	}

	db, err := gorm.Open(dial, c)
	if err != nil {
		return nil, err
	}

	if cfg.IsSQLite() {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		if _, err = sqlDB.Exec("PRAGMA cache_size = -64000;"); err != nil {
			return nil, err
		}
		if _, err = sqlDB.Exec("PRAGMA temp_store = MEMORY;"); err != nil {
			return nil, err
		}
	}

	if err := initModels(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Close checkpoints the sqlite WAL (when applicable) and closes the pool.
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	if IsSQLite(db) {
		if err := Checkpoint(db); err != nil {
			logger.Warningf("error executing checkpoint: %v", err)
		}
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func IsSQLite(db *gorm.DB) bool {
	return db.Dialector.Name() == "sqlite"
}

// Checkpoint folds the sqlite WAL back into the main database file.
func Checkpoint(db *gorm.DB) error {
	return db.Exec("PRAGMA wal_checkpoint;").Error
}
