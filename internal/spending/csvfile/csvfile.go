// Package csvfile persists the spending aggregate as a flat CSV file
// with a `user,cost` header, one row per user.
package csvfile

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"cloudexpense/internal/core"
	"cloudexpense/internal/spending"
)

type Store struct {
	path string
}

var _ spending.Store = (*Store)(nil)

func New(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create spending directory: %w", err)
		}
	}
	return &Store{path: path}, nil
}

// Save overwrites the file with the given rows. The write goes to a temp
// file first and is renamed into place so a crash cannot leave a
// truncated file behind.
func (s *Store) Save(ctx context.Context, rows []core.UserSpending) error {
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".user_spending-*.csv")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after successful rename

	w := csv.NewWriter(tmp)
	if err := w.Write([]string{"user", "cost"}); err != nil {
		tmp.Close()
		return fmt.Errorf("write header: %w", err)
	}
	for _, row := range rows {
		record := []string{row.User, strconv.FormatFloat(row.TotalCost, 'f', -1, 64)}
		if err := w.Write(record); err != nil {
			tmp.Close()
			return fmt.Errorf("write row for %s: %w", row.User, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush csv: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace spending file: %w", err)
	}

	slog.InfoContext(ctx, "Spending saved", "path", s.path, "rows", len(rows))
	return nil
}

// Load reads the file if present. A missing file is an empty table.
func (s *Store) Load(ctx context.Context) ([]core.UserSpending, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []core.UserSpending{}, nil
		}
		return nil, fmt.Errorf("open spending file: %w", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read spending file: %w", err)
	}

	rows := make([]core.UserSpending, 0, len(records))
	for i, record := range records {
		if i == 0 {
			continue // header
		}
		if len(record) != 2 {
			return nil, fmt.Errorf("malformed row %d in %s", i+1, s.path)
		}
		cost, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			return nil, fmt.Errorf("parse cost on row %d: %w", i+1, err)
		}
		rows = append(rows, core.UserSpending{User: record[0], TotalCost: cost})
	}
	return rows, nil
}

// Reset deletes the file. Returns false when there was nothing to delete.
func (s *Store) Reset(ctx context.Context) (bool, error) {
	err := os.Remove(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			slog.WarnContext(ctx, "Spending file does not exist", "path", s.path)
			return false, nil
		}
		return false, fmt.Errorf("remove spending file: %w", err)
	}
	slog.InfoContext(ctx, "Spending file deleted", "path", s.path)
	return true, nil
}
