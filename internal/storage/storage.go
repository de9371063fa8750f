package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/martinsuchenak/connprops/internal/model"
	_ "modernc.org/sqlite"
)

const dbFileName = "connprops.db"

// Storage keeps the history of dispatched property updates
type Storage interface {
	RecordUpdate(rec *model.UpdateRecord) error
	ListUpdates(filter *model.UpdateFilter) ([]model.UpdateRecord, error)
	Close() error
}

// SQLiteStorage is the SQLite-backed Storage
type SQLiteStorage struct {
	db *sql.DB
}

// NewStorage opens (creating if needed) the history database in dataDir
func NewStorage(dataDir string) (*SQLiteStorage, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	path := filepath.Join(dataDir, dbFileName)
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// SQLite serialises writers anyway
	db.SetMaxOpenConns(1)

	ss := &SQLiteStorage{db: db}
	if err := ss.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return ss, nil
}

func (ss *SQLiteStorage) Close() error {
	return ss.db.Close()
}
