package graphstore

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	_ "github.com/tursodatabase/go-libsql"

	"github.com/skillcompass/skillcompass-go/internal/metrics"
)

// Store answers structured taxonomy queries over a libSQL database. The
// taxonomy is loaded by an external ETL process and is read-only at serving
// time; each request draws its own connection from the pool.
type Store struct {
	config *Config
	db     *sql.DB

	stmtMu    sync.RWMutex
	stmtCache map[string]*sql.Stmt
}

// NewStore opens the database, applies the schema and tunes the pool.
func NewStore(config *Config) (*Store, error) {
	dbURL := config.URL
	if !strings.HasPrefix(dbURL, "file:") && config.AuthToken != "" {
		// Build URL safely and append/override the authToken parameter
		if u, perr := url.Parse(dbURL); perr == nil {
			q := u.Query()
			q.Set("authToken", config.AuthToken)
			u.RawQuery = q.Encode()
			dbURL = u.String()
		} else if strings.Contains(dbURL, "?") {
			dbURL = dbURL + "&authToken=" + url.QueryEscape(config.AuthToken)
		} else {
			dbURL = dbURL + "?authToken=" + url.QueryEscape(config.AuthToken)
		}
	}

	db, err := sql.Open("libsql", dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create database connector: %w", err)
	}

	s := &Store{
		config:    config,
		db:        db,
		stmtCache: make(map[string]*sql.Stmt),
	}

	if err := s.initialize(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize taxonomy schema: %w", err)
	}

	if config.MaxOpenConns > 0 {
		db.SetMaxOpenConns(config.MaxOpenConns)
	}
	if config.MaxIdleConns > 0 {
		db.SetMaxIdleConns(config.MaxIdleConns)
	}
	if config.ConnMaxIdleSec > 0 {
		db.SetConnMaxIdleTime(time.Duration(config.ConnMaxIdleSec) * time.Second)
	}
	if config.ConnMaxLifeSec > 0 {
		db.SetConnMaxLifetime(time.Duration(config.ConnMaxLifeSec) * time.Second)
	}

	stats := db.Stats()
	metrics.Default().ObservePoolStats(stats.InUse, stats.Idle)
	return s, nil
}

// initialize creates tables and indexes if they don't exist
func (s *Store) initialize(db *sql.DB) error {
	done := metrics.TimeOp("store_initialize")
	success := false
	defer func() { done(success) }()
	tx, err := db.BeginTx(context.Background(), nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for initialization: %w", err)
	}
	defer tx.Rollback()

	for _, statement := range schema {
		if _, err := tx.Exec(statement); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	success = true
	return nil
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// PoolStats reports current connection pool usage.
func (s *Store) PoolStats() (inUse, idle int) {
	stats := s.db.Stats()
	return stats.InUse, stats.Idle
}

// getPreparedStmt returns or prepares and caches a statement
func (s *Store) getPreparedStmt(ctx context.Context, sqlText string) (*sql.Stmt, error) {
	s.stmtMu.RLock()
	if stmt, ok := s.stmtCache[sqlText]; ok {
		s.stmtMu.RUnlock()
		metrics.Default().IncStmtCacheHit("prepare")
		return stmt, nil
	}
	s.stmtMu.RUnlock()
	metrics.Default().IncStmtCacheMiss("prepare")

	stmt, err := s.db.PrepareContext(ctx, sqlText)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare statement: %w", err)
	}
	s.stmtMu.Lock()
	s.stmtCache[sqlText] = stmt
	s.stmtMu.Unlock()
	return stmt, nil
}

// Close closes the prepared statements and the underlying pool.
func (s *Store) Close() error {
	s.stmtMu.Lock()
	for _, stmt := range s.stmtCache {
		_ = stmt.Close()
	}
	s.stmtCache = make(map[string]*sql.Stmt)
	s.stmtMu.Unlock()

	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

// placeholders returns "?,?,...,?" for n parameters.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	p := strings.Repeat("?,", n)
	return p[:len(p)-1]
}

// stringArgs widens a string slice for driver calls.
func stringArgs(vals []string) []interface{} {
	args := make([]interface{}, len(vals))
	for i, v := range vals {
		args[i] = v
	}
	return args
}
