package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"carteira/internal/core"
)

func (r *SQLiteRepository) CreateGoal(ctx context.Context, g core.Goal) (core.Goal, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO goals (user_id, name, target_cents, saved_cents, deadline) VALUES (?, ?, ?, ?, ?)`,
		g.UserID, g.Name, g.Target.Cents, g.Saved.Cents, nullDate(g.Deadline))
	if err != nil {
		return core.Goal{}, fmt.Errorf("create goal: %w", err)
	}
	if g.ID, err = res.LastInsertId(); err != nil {
		return core.Goal{}, fmt.Errorf("goal id: %w", err)
	}
	slog.InfoContext(ctx, "Goal saved", "id", g.ID, "user_id", g.UserID)
	return g, nil
}

// ListFamilyGoals returns the goals of every family member ordered by ID.
func (r *SQLiteRepository) ListFamilyGoals(ctx context.Context, familyID int64) ([]core.Goal, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT g.id, g.user_id, g.name, g.target_cents, g.saved_cents, g.deadline
		FROM goals g JOIN users u ON u.id = g.user_id
		WHERE u.family_id = ?
		ORDER BY g.id`, familyID)
	if err != nil {
		return nil, fmt.Errorf("list family goals: %w", err)
	}
	defer rows.Close()

	var out []core.Goal
	for rows.Next() {
		var (
			g        core.Goal
			deadline sql.NullString
		)
		if err := rows.Scan(&g.ID, &g.UserID, &g.Name, &g.Target.Cents, &g.Saved.Cents, &deadline); err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		if g.Deadline, err = parseNullDate(deadline); err != nil {
			return nil, fmt.Errorf("goal %d deadline: %w", g.ID, err)
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate goals: %w", err)
	}
	return out, nil
}
