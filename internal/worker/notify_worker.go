// Package worker consumes spending events and reports the persisted
// per-user totals, so a terminal or chat notifier can run apart from the
// interactive server.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"cloudexpense/internal/amqp"
	"cloudexpense/internal/spending"
)

// NotifyWorker reads the aggregate back from the store whenever a save
// event arrives and logs one line per user.
type NotifyWorker struct {
	store spending.Store
}

func NewNotifyWorker(store spending.Store) *NotifyWorker {
	return &NotifyWorker{store: store}
}

// HandleSaved processes a spending saved event.
func (w *NotifyWorker) HandleSaved(ctx context.Context, msg *amqp.SpendingSavedMessage) error {
	slog.InfoContext(ctx, "Processing spending saved event",
		"users", msg.Users,
		"total_cost", msg.TotalCost,
		"saved_at", msg.Timestamp)

	rows, err := w.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load spending: %w", err)
	}
	if len(rows) != msg.Users {
		// The store may have been rewritten since the event was queued;
		// report what is there now.
		slog.WarnContext(ctx, "Stored row count differs from event",
			"event_users", msg.Users, "stored_users", len(rows))
	}

	for _, row := range rows {
		slog.InfoContext(ctx, "User spending",
			"user", row.User,
			"total_cost", row.TotalCost)
	}
	return nil
}

// HandleReset processes a spending reset event.
func (w *NotifyWorker) HandleReset(ctx context.Context, msg *amqp.SpendingResetMessage) error {
	if msg.Existed {
		slog.InfoContext(ctx, "Spending data was reset", "reset_at", msg.Timestamp)
	} else {
		slog.WarnContext(ctx, "Reset requested but no spending data existed", "reset_at", msg.Timestamp)
	}
	return nil
}
