package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"carteira/internal/core"
)

// SubscriptionRoller moves the next due date of recurring subscriptions into
// the current month once their due date belongs to an earlier month. A bill
// due earlier this month keeps its date until the month closes, so the
// month's summary still counts it.
type SubscriptionRoller struct {
	store SubscriptionStore
}

func NewSubscriptionRoller(store SubscriptionStore) *SubscriptionRoller {
	return &SubscriptionRoller{store: store}
}

// Roll advances every subscription due before the start of now's month and
// returns how many were updated.
// A subscription that fails is logged and skipped.
func (r *SubscriptionRoller) Roll(ctx context.Context, now time.Time) (int, error) {
	if r.store == nil {
		return 0, fmt.Errorf("roller not properly initialized")
	}
	monthStart := core.MonthStart(core.DateOf(now))

	due, err := r.store.DueSubscriptions(ctx, monthStart)
	if err != nil {
		return 0, fmt.Errorf("failed to get due subscriptions: %w", err)
	}

	slog.InfoContext(ctx, "Rolling subscriptions",
		"due", len(due),
		"month_start", monthStart.String())

	rolled := 0
	for _, s := range due {
		next, err := s.NextOccurrence(monthStart)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to compute next due date",
				"subscription_id", s.ID,
				"frequency", s.Every,
				"error", err)
			continue
		}
		if err := r.store.SetNextDueDate(ctx, s.ID, next); err != nil {
			slog.ErrorContext(ctx, "Failed to update next due date",
				"subscription_id", s.ID,
				"error", err)
			continue
		}
		rolled++
		slog.InfoContext(ctx, "Advanced subscription due date",
			"subscription_id", s.ID,
			"name", s.Name,
			"previous", s.EffectiveDueDate().String(),
			"next", next.String())
	}

	slog.InfoContext(ctx, "Subscription roll complete",
		"rolled", rolled,
		"total_checked", len(due))
	return rolled, nil
}
