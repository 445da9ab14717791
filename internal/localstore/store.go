// Package localstore owns the embedded per-device database. It is the only
// durable state the agent needs to operate: every business write lands here
// first (sync status pending) and the sync engine mirrors it to the cloud
// store opportunistically.
package localstore

import (
	"fmt"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open opens (or creates) the sqlite database at path and applies every
// pending migration. Failure here is fatal for the caller: operating on a
// partially-migrated schema silently corrupts financial state, so the agent
// must refuse to start instead.
func Open(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("localstore: abrir %s: %w", path, err)
	}

	// WAL lets the UI-facing handlers read while the sync engine writes.
	if err := db.Exec("PRAGMA journal_mode=WAL").Error; err != nil {
		return nil, fmt.Errorf("localstore: journal_mode: %w", err)
	}
	if err := db.Exec("PRAGMA foreign_keys=ON").Error; err != nil {
		return nil, fmt.Errorf("localstore: foreign_keys: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("localstore: migraciones: %w", err)
	}
	return db, nil
}
