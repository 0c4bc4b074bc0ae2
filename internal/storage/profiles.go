package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"carteira/internal/core"
)

// GetProfile returns a user's financial profile. A user who never saved one
// gets an empty profile.
func (r *SQLiteRepository) GetProfile(ctx context.Context, userID int64) (core.FinancialProfile, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT user_id, renda_fixa_cents, dia_pagamento, multiple_payments, beneficios
		FROM financial_profiles WHERE user_id = ?`, userID)
	if err != nil {
		return core.FinancialProfile{}, fmt.Errorf("get profile: %w", err)
	}
	profiles, err := scanProfiles(ctx, rows)
	if err != nil {
		return core.FinancialProfile{}, err
	}
	if len(profiles) == 0 {
		return core.FinancialProfile{UserID: userID}, nil
	}
	return profiles[0], nil
}

// ListFamilyProfiles returns the stored profiles of the family's members.
func (r *SQLiteRepository) ListFamilyProfiles(ctx context.Context, familyID int64) ([]core.FinancialProfile, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT p.user_id, p.renda_fixa_cents, p.dia_pagamento, p.multiple_payments, p.beneficios
		FROM financial_profiles p JOIN users u ON u.id = p.user_id
		WHERE u.family_id = ?
		ORDER BY p.user_id`, familyID)
	if err != nil {
		return nil, fmt.Errorf("list family profiles: %w", err)
	}
	return scanProfiles(ctx, rows)
}

// SaveProfile inserts or replaces a user's financial profile.
func (r *SQLiteRepository) SaveProfile(ctx context.Context, p core.FinancialProfile) error {
	var day sql.NullInt64
	if p.DiaPagamento != 0 {
		day = sql.NullInt64{Int64: int64(p.DiaPagamento), Valid: true}
	}
	payments, err := marshalList(p.MultiplePayments)
	if err != nil {
		return fmt.Errorf("encode multiple payments: %w", err)
	}
	benefits, err := marshalList(p.Beneficios)
	if err != nil {
		return fmt.Errorf("encode beneficios: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO financial_profiles (user_id, renda_fixa_cents, dia_pagamento, multiple_payments, beneficios)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			renda_fixa_cents = excluded.renda_fixa_cents,
			dia_pagamento = excluded.dia_pagamento,
			multiple_payments = excluded.multiple_payments,
			beneficios = excluded.beneficios,
			updated_at = CURRENT_TIMESTAMP`,
		p.UserID, p.RendaFixa.Cents, day, payments, benefits)
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	slog.InfoContext(ctx, "Financial profile saved", "user_id", p.UserID, "payments", len(p.MultiplePayments))
	return nil
}

func marshalList[T any](items []T) (sql.NullString, error) {
	if len(items) == 0 {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(items)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

// scanProfiles decodes profile rows. Malformed JSON columns are logged and
// read as empty so one bad profile cannot break a family's dashboard; a
// malformed payment schedule also flags the profile so it adds no salary.
func scanProfiles(ctx context.Context, rows *sql.Rows) ([]core.FinancialProfile, error) {
	defer rows.Close()
	var out []core.FinancialProfile
	for rows.Next() {
		var (
			p                  core.FinancialProfile
			day                sql.NullInt64
			payments, benefits sql.NullString
		)
		if err := rows.Scan(&p.UserID, &p.RendaFixa.Cents, &day, &payments, &benefits); err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		if day.Valid {
			p.DiaPagamento = int(day.Int64)
		}
		if err := unmarshalList(payments, &p.MultiplePayments); err != nil {
			slog.WarnContext(ctx, "Ignoring malformed multiplePayments", "user_id", p.UserID, "error", err)
			p.MultiplePayments = nil
			p.PaymentsMalformed = true
		}
		if err := unmarshalList(benefits, &p.Beneficios); err != nil {
			slog.WarnContext(ctx, "Ignoring malformed beneficios", "user_id", p.UserID, "error", err)
			p.Beneficios = nil
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate profiles: %w", err)
	}
	return out, nil
}

func unmarshalList[T any](ns sql.NullString, dst *[]T) error {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(ns.String), dst); err != nil {
		return err
	}
	if *dst == nil {
		return errors.New("expected a JSON array")
	}
	return nil
}
