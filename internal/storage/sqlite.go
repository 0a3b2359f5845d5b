package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/Veraticus/spice-ledger/internal/service"
)

var _ service.Storage = (*SQLiteStorage)(nil)

// SQLiteStorage implements the service.Storage ledger using SQLite.
type SQLiteStorage struct {
	db            *sql.DB
	securityCache map[string]string // security key -> id
	dbPath        string
	cacheMutex    sync.RWMutex
}

// NewSQLiteStorage creates a new SQLite storage instance.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if err := validateString(dbPath, "dbPath"); err != nil {
		return nil, err
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite doesn't benefit from multiple connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteStorage{
		db:            db,
		dbPath:        dbPath,
		securityCache: make(map[string]string),
	}, nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *SQLiteStorage) Path() string {
	return s.dbPath
}

func (s *SQLiteStorage) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStorage) cachedSecurityID(key string) (string, bool) {
	s.cacheMutex.RLock()
	defer s.cacheMutex.RUnlock()
	id, ok := s.securityCache[key]
	return id, ok
}

func (s *SQLiteStorage) cacheSecurityID(key, id string) {
	s.cacheMutex.Lock()
	defer s.cacheMutex.Unlock()
	s.securityCache[key] = id
}

func (s *SQLiteStorage) resetSecurityCache() {
	s.cacheMutex.Lock()
	defer s.cacheMutex.Unlock()
	s.securityCache = make(map[string]string)
}
