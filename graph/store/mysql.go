package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
)

// MySQLStore persists checkpoints in MySQL for multi-host deployments where
// several engine processes share one checkpoint database.
//
// Each thread id maps to one row. Put upserts with a single statement, so
// concurrent writers for different threads never block on each other beyond
// normal row locking.
type MySQLStore struct {
	db *sql.DB
}

// MySQLConfig holds connection settings for NewMySQLStore.
type MySQLConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

// DSN renders the config as a go-sql-driver DSN with parse-time enabled.
func (c MySQLConfig) DSN() string {
	cfg := mysql.NewConfig()
	cfg.Net = "tcp"
	cfg.Addr = fmt.Sprintf("%s:%d", c.Host, c.Port)
	cfg.User = c.User
	cfg.Passwd = c.Password
	cfg.DBName = c.Database
	cfg.ParseTime = true
	return cfg.FormatDSN()
}

// NewMySQLStore connects to MySQL and ensures the checkpoint table exists.
func NewMySQLStore(cfg MySQLConfig) (*MySQLStore, error) {
	db, err := sql.Open("mysql", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open mysql connection: %w", err)
	}

	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS checkpoints (
		thread_id  VARCHAR(255) PRIMARY KEY,
		seq        INT NOT NULL,
		payload    JSON NOT NULL,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
			ON UPDATE CURRENT_TIMESTAMP,
		INDEX idx_checkpoints_updated_at (updated_at)
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create checkpoint schema: %w", err)
	}

	return &MySQLStore{db: db}, nil
}

// Get implements Store.
func (s *MySQLStore) Get(ctx context.Context, threadID string) (Checkpoint, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT payload FROM checkpoints WHERE thread_id = ?", threadID,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return Checkpoint{}, ErrNotFound
	}
	if err != nil {
		return Checkpoint{}, fmt.Errorf("query checkpoint: %w", err)
	}

	var cp Checkpoint
	if err := json.Unmarshal(payload, &cp); err != nil {
		return Checkpoint{}, fmt.Errorf("decode checkpoint: %w", err)
	}
	return cp, nil
}

// Put implements Store.
func (s *MySQLStore) Put(ctx context.Context, threadID string, cp Checkpoint) error {
	raw, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("encode checkpoint: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO checkpoints (thread_id, seq, payload)
		VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE seq = VALUES(seq), payload = VALUES(payload)`,
		threadID, cp.Seq, raw)
	if err != nil {
		return fmt.Errorf("write checkpoint: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *MySQLStore) Close() error {
	return s.db.Close()
}
