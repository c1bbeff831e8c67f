// Package sqlite persists the spending aggregate in a local SQLite
// database. Functionally equivalent to the csvfile backend; useful when
// the aggregate should survive on something sturdier than a flat file.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"cloudexpense/internal/core"
	"cloudexpense/internal/spending"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

var _ spending.Store = (*Store)(nil)

func New(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Save replaces the whole aggregate in one transaction.
func (s *Store) Save(ctx context.Context, rows []core.UserSpending) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM user_spending`); err != nil {
		return fmt.Errorf("clear spending: %w", err)
	}
	for _, row := range rows {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO user_spending (user, cost_total) VALUES (?, ?)`,
			row.User, row.TotalCost)
		if err != nil {
			return fmt.Errorf("insert spending for %s: %w", row.User, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	slog.InfoContext(ctx, "Spending saved to SQLite", "rows", len(rows))
	return nil
}

func (s *Store) Load(ctx context.Context) ([]core.UserSpending, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user, cost_total FROM user_spending ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("query spending: %w", err)
	}
	defer rows.Close()

	out := []core.UserSpending{}
	for rows.Next() {
		var row core.UserSpending
		if err := rows.Scan(&row.User, &row.TotalCost); err != nil {
			return nil, fmt.Errorf("scan spending row: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate spending rows: %w", err)
	}
	return out, nil
}

// Reset removes every row. Returns false when the table was already empty.
func (s *Store) Reset(ctx context.Context) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM user_spending`)
	if err != nil {
		return false, fmt.Errorf("delete spending: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		slog.WarnContext(ctx, "No spending data to reset")
		return false, nil
	}
	slog.InfoContext(ctx, "Spending data reset", "rows_removed", n)
	return true, nil
}
