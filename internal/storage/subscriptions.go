package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"carteira/internal/core"
)

const subscriptionColumns = `s.id, s.user_id, s.name, s.amount_cents, s.due_date, s.next_due_date, s.frequency, s.recurring, s.active`

func (r *SQLiteRepository) CreateSubscription(ctx context.Context, s core.Subscription) (core.Subscription, error) {
	if s.Every == "" {
		s.Every = core.Monthly
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO subscriptions (user_id, name, amount_cents, due_date, next_due_date, frequency, recurring, active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		s.UserID, s.Name, s.Amount.Cents, formatDate(s.DueDate), nullDate(s.NextDueDate),
		string(s.Every), s.Recurring, s.Active)
	if err != nil {
		return core.Subscription{}, fmt.Errorf("create subscription: %w", err)
	}
	if s.ID, err = res.LastInsertId(); err != nil {
		return core.Subscription{}, fmt.Errorf("subscription id: %w", err)
	}
	slog.InfoContext(ctx, "Subscription saved", "id", s.ID, "user_id", s.UserID, "frequency", s.Every)
	return s, nil
}

// ListFamilySubscriptions returns the subscriptions of every family member,
// active or not, ordered by ID.
func (r *SQLiteRepository) ListFamilySubscriptions(ctx context.Context, familyID int64) ([]core.Subscription, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+subscriptionColumns+`
		FROM subscriptions s JOIN users u ON u.id = s.user_id
		WHERE u.family_id = ?
		ORDER BY s.id`, familyID)
	if err != nil {
		return nil, fmt.Errorf("list family subscriptions: %w", err)
	}
	return scanSubscriptions(rows)
}

// DueSubscriptions returns active recurring subscriptions whose effective due
// date is strictly before asOf, across all families.
func (r *SQLiteRepository) DueSubscriptions(ctx context.Context, asOf core.Date) ([]core.Subscription, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+subscriptionColumns+`
		FROM subscriptions s
		WHERE s.active = 1 AND s.recurring = 1 AND COALESCE(s.next_due_date, s.due_date) < ?
		ORDER BY s.id`, formatDate(asOf))
	if err != nil {
		return nil, fmt.Errorf("list due subscriptions: %w", err)
	}
	return scanSubscriptions(rows)
}

// SetNextDueDate stores the advanced due date of a subscription.
func (r *SQLiteRepository) SetNextDueDate(ctx context.Context, id int64, next core.Date) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE subscriptions SET next_due_date = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		formatDate(next), id)
	if err != nil {
		return fmt.Errorf("set next due date: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeactivateSubscription stops a family member's subscription.
func (r *SQLiteRepository) DeactivateSubscription(ctx context.Context, familyID, id int64) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE subscriptions SET active = 0, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND user_id IN (SELECT id FROM users WHERE family_id = ?)`, id, familyID)
	if err != nil {
		return fmt.Errorf("deactivate subscription: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	slog.InfoContext(ctx, "Subscription deactivated", "id", id)
	return nil
}

func scanSubscriptions(rows *sql.Rows) ([]core.Subscription, error) {
	defer rows.Close()
	var out []core.Subscription
	for rows.Next() {
		var (
			s       core.Subscription
			due     string
			nextDue sql.NullString
			every   string
		)
		if err := rows.Scan(&s.ID, &s.UserID, &s.Name, &s.Amount.Cents, &due, &nextDue, &every, &s.Recurring, &s.Active); err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		var err error
		if s.DueDate, err = core.ParseDate(due); err != nil {
			return nil, fmt.Errorf("subscription %d due date: %w", s.ID, err)
		}
		if s.NextDueDate, err = parseNullDate(nextDue); err != nil {
			return nil, fmt.Errorf("subscription %d next due date: %w", s.ID, err)
		}
		s.Every = core.Frequency(every)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subscriptions: %w", err)
	}
	return out, nil
}
