package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"carteira/internal/core"
)

// Export states of a transaction.
const (
	ExportPending = "pending"
	ExportDone    = "exported"
	ExportFailed  = "error"
)

const transactionColumns = `t.id, t.user_id, t.created_by_id, t.name, t.type, t.category, t.amount_cents,
	t.payment_method, t.date, t.installments, t.created_at`

// PendingExport is a transaction not yet written to the spreadsheet.
type PendingExport struct {
	ID        int64
	CreatedAt time.Time
}

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	var installments sql.NullInt64
	if t.Installments != nil {
		installments = sql.NullInt64{Int64: int64(*t.Installments), Valid: true}
	}
	if t.CreatedByID == 0 {
		t.CreatedByID = t.UserID
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (user_id, created_by_id, name, type, category, amount_cents, payment_method, date, installments)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.UserID, t.CreatedByID, t.Name, string(t.Type), string(t.Category), t.Amount.Cents,
		string(t.PaymentMethod), formatDate(t.Date), installments)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction id: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", id,
		"user_id", t.UserID,
		"type", t.Type,
		"amount_cents", t.Amount.Cents,
		"date", t.Date.String())

	return r.GetTransaction(ctx, id)
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+transactionColumns+` FROM transactions t WHERE t.id = ?`, id)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	txs, err := scanTransactions(rows)
	if err != nil {
		return core.Transaction{}, err
	}
	if len(txs) == 0 {
		return core.Transaction{}, ErrNotFound
	}
	return txs[0], nil
}

// ListFamilyTransactions returns every transaction of the family's members
// dated within [from, to], ordered by date then ID.
func (r *SQLiteRepository) ListFamilyTransactions(ctx context.Context, familyID int64, from, to core.Date) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions t JOIN users u ON u.id = t.user_id
		WHERE u.family_id = ? AND t.date >= ? AND t.date <= ?
		ORDER BY t.date, t.id`,
		familyID, formatDate(from), formatDate(to))
	if err != nil {
		return nil, fmt.Errorf("list family transactions: %w", err)
	}
	return scanTransactions(rows)
}

// DeleteTransaction removes a transaction owned by a member of the family.
func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, familyID, id int64) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM transactions
		WHERE id = ? AND user_id IN (SELECT id FROM users WHERE family_id = ?)`, id, familyID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	slog.InfoContext(ctx, "Transaction deleted", "id", id, "family_id", familyID)
	return nil
}

// PendingExports lists transactions still waiting for the spreadsheet export, oldest first.
func (r *SQLiteRepository) PendingExports(ctx context.Context, limit int) ([]PendingExport, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, created_at FROM transactions
		WHERE export_status = ?
		ORDER BY created_at, id LIMIT ?`, ExportPending, limit)
	if err != nil {
		return nil, fmt.Errorf("get pending exports: %w", err)
	}
	defer rows.Close()

	var out []PendingExport
	for rows.Next() {
		var p PendingExport
		if err := rows.Scan(&p.ID, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan pending export: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// MarkExported records a successful spreadsheet export.
func (r *SQLiteRepository) MarkExported(ctx context.Context, id int64) error {
	if err := r.setExportStatus(ctx, id, ExportDone); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Transaction marked as exported", "id", id)
	return nil
}

// MarkExportError records a failed export so it is not retried forever.
func (r *SQLiteRepository) MarkExportError(ctx context.Context, id int64) error {
	if err := r.setExportStatus(ctx, id, ExportFailed); err != nil {
		return err
	}
	slog.WarnContext(ctx, "Transaction marked with export error", "id", id)
	return nil
}

func (r *SQLiteRepository) setExportStatus(ctx context.Context, id int64, status string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE transactions
		SET export_status = ?, exported_at = CASE WHEN ? = ? THEN CURRENT_TIMESTAMP ELSE exported_at END
		WHERE id = ?`, status, status, ExportDone, id)
	if err != nil {
		return fmt.Errorf("set export status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanTransactions(rows *sql.Rows) ([]core.Transaction, error) {
	defer rows.Close()
	var out []core.Transaction
	for rows.Next() {
		var (
			t            core.Transaction
			typ, cat, pm string
			date         string
			installments sql.NullInt64
		)
		if err := rows.Scan(&t.ID, &t.UserID, &t.CreatedByID, &t.Name, &typ, &cat, &t.Amount.Cents,
			&pm, &date, &installments, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.Type = core.TransactionType(typ)
		t.Category = core.Category(cat)
		t.PaymentMethod = core.PaymentMethod(pm)
		d, err := core.ParseDate(date)
		if err != nil {
			return nil, fmt.Errorf("transaction %d: %w", t.ID, err)
		}
		t.Date = d
		if installments.Valid {
			n := int(installments.Int64)
			t.Installments = &n
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}


// ExportStatus returns pending, exported or error for a transaction.
func (r *SQLiteRepository) ExportStatus(ctx context.Context, id int64) (string, error) {
	var status string
	err := r.db.QueryRowContext(ctx, `SELECT export_status FROM transactions WHERE id = ?`, id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get export status: %w", err)
	}
	return status, nil
}
