package data

import (
	"fmt"
	"log"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenSQLite opens (creating if needed) the embedded database and switches
// it to WAL mode so writes survive a crash mid-transaction.
func OpenSQLite(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("sqlite open %s: %w", path, err)
	}

	db.Exec("PRAGMA journal_mode=WAL")
	db.Exec("PRAGMA busy_timeout=5000")
	db.Exec("PRAGMA foreign_keys=ON")

	return db, nil
}

// MustSQLite is OpenSQLite for process startup, where a storage failure is
// fatal.
func MustSQLite(path string) *gorm.DB {
	db, err := OpenSQLite(path)
	if err != nil {
		log.Fatalf("sqlite: %v", err)
	}
	return db
}
