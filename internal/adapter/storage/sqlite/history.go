// Package sqlite persists the conversion history in a local SQLite
// database with goose-managed schema.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/pressly/goose/v3"
	"modernc.org/sqlite"

	"github.com/bnema/anyconv/internal/domain"
	"github.com/bnema/anyconv/internal/port"
)

//go:embed migrations/*.sql
var migrations embed.FS

type History struct {
	db *sql.DB
}

var hookOnce sync.Once

func registerHook() {
	hookOnce.Do(func() {
		sqlite.RegisterConnectionHook(func(conn sqlite.ExecQuerierContext, dsn string) error {
			pragmas := []string{
				"PRAGMA journal_mode = WAL",
				"PRAGMA busy_timeout = 5000",
				"PRAGMA synchronous = NORMAL",
				"PRAGMA foreign_keys = ON",
			}
			for _, p := range pragmas {
				if _, err := conn.ExecContext(context.Background(), p, nil); err != nil {
					return fmt.Errorf("execute %s: %w", p, err)
				}
			}
			return nil
		})
	})
}

func NewHistory(dataDir string) (*History, error) {
	registerHook()

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("data dir: %w", err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dataDir, "anyconv.db"))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Single connection for SQLite (WAL allows concurrent reads but only one writer)
	db.SetMaxOpenConns(1)

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &History{db: db}, nil
}

func (h *History) Record(c *domain.Conversion) error {
	res, err := h.db.Exec(`
		INSERT INTO conversions (source, output, format, status, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		c.Source, c.Output, c.Format, string(c.Status), c.Error, c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("record conversion: %w", err)
	}
	if id, err := res.LastInsertId(); err == nil {
		c.ID = id
	}
	return nil
}

func (h *History) Recent(n int) ([]domain.Conversion, error) {
	rows, err := h.db.Query(`
		SELECT id, source, output, format, status, error, created_at
		FROM conversions
		ORDER BY id DESC
		LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []domain.Conversion
	for rows.Next() {
		var c domain.Conversion
		var status string
		if err := rows.Scan(&c.ID, &c.Source, &c.Output, &c.Format, &status, &c.Error, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan conversion: %w", err)
		}
		c.Status = domain.JobStatus(status)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (h *History) Close() error {
	return h.db.Close()
}

var _ port.History = (*History)(nil)
