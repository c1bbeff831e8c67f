// Package spending defines the persistence port for the per-user
// spending aggregate and its backends.
package spending

import (
	"context"

	"cloudexpense/internal/core"
)

// Store persists the per-user spending aggregate. Save overwrites any
// previous data; Load on an empty store returns an empty slice, not an
// error. Reset reports whether there was anything to remove so callers
// can warn instead of erroring on a missing file.
type Store interface {
	Save(ctx context.Context, rows []core.UserSpending) error
	Load(ctx context.Context) ([]core.UserSpending, error)
	Reset(ctx context.Context) (existed bool, err error)
}
