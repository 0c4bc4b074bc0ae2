package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"carteira/internal/core"
)

// passwordCost is lowered in tests.
var passwordCost = bcrypt.DefaultCost

// Session is an authenticated login.
type Session struct {
	Token     string
	UserID    int64
	ExpiresAt time.Time
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateUser registers a user in a new family of their own.
func (r *SQLiteRepository) CreateUser(ctx context.Context, name, email, password string) (core.User, error) {
	email = normalizeEmail(email)
	name = strings.TrimSpace(name)
	if name == "" {
		return core.User{}, core.ErrEmptyName
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), passwordCost)
	if err != nil {
		return core.User{}, fmt.Errorf("hash password: %w", err)
	}

	u := core.User{Name: name, Email: email}
	err = r.withTx(ctx, func(tx *sql.Tx) error {
		var exists int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM users WHERE email = ?`, email).Scan(&exists); err != nil {
			return fmt.Errorf("check email: %w", err)
		}
		if exists > 0 {
			return ErrEmailTaken
		}
		res, err := tx.ExecContext(ctx, `INSERT INTO families (name) VALUES (?)`, name)
		if err != nil {
			return fmt.Errorf("create family: %w", err)
		}
		if u.FamilyID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("family id: %w", err)
		}
		res, err = tx.ExecContext(ctx,
			`INSERT INTO users (family_id, name, email, password_hash) VALUES (?, ?, ?, ?)`,
			u.FamilyID, name, email, string(hash))
		if err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		if u.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("user id: %w", err)
		}
		return nil
	})
	if err != nil {
		return core.User{}, err
	}

	slog.InfoContext(ctx, "User registered", "user_id", u.ID, "family_id", u.FamilyID)
	return u, nil
}

// Authenticate checks an email/password pair.
func (r *SQLiteRepository) Authenticate(ctx context.Context, email, password string) (core.User, error) {
	var (
		u    core.User
		hash string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, family_id, name, email, password_hash FROM users WHERE email = ?`,
		normalizeEmail(email)).Scan(&u.ID, &u.FamilyID, &u.Name, &u.Email, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user by email: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return core.User{}, ErrInvalidCredentials
	}
	return u, nil
}

func (r *SQLiteRepository) GetUser(ctx context.Context, id int64) (core.User, error) {
	return r.scanUser(r.db.QueryRowContext(ctx,
		`SELECT id, family_id, name, email FROM users WHERE id = ?`, id))
}

func (r *SQLiteRepository) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	return r.scanUser(r.db.QueryRowContext(ctx,
		`SELECT id, family_id, name, email FROM users WHERE email = ?`, normalizeEmail(email)))
}

func (r *SQLiteRepository) scanUser(row *sql.Row) (core.User, error) {
	var u core.User
	err := row.Scan(&u.ID, &u.FamilyID, &u.Name, &u.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// ListFamilyMembers returns the members of a family ordered by ID.
func (r *SQLiteRepository) ListFamilyMembers(ctx context.Context, familyID int64) ([]core.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, family_id, name, email FROM users WHERE family_id = ? ORDER BY id`, familyID)
	if err != nil {
		return nil, fmt.Errorf("list family members: %w", err)
	}
	defer rows.Close()

	var users []core.User
	for rows.Next() {
		var u core.User
		if err := rows.Scan(&u.ID, &u.FamilyID, &u.Name, &u.Email); err != nil {
			return nil, fmt.Errorf("scan family member: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// MoveToFamily links a user into another family.
func (r *SQLiteRepository) MoveToFamily(ctx context.Context, userID, familyID int64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET family_id = ? WHERE id = ?`, familyID, userID)
	if err != nil {
		return fmt.Errorf("move user to family: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	slog.InfoContext(ctx, "User joined family", "user_id", userID, "family_id", familyID)
	return nil
}

// CreateSession issues a new random session token valid for ttl.
func (r *SQLiteRepository) CreateSession(ctx context.Context, userID int64, ttl time.Duration) (Session, error) {
	s := Session{
		Token:     uuid.NewString(),
		UserID:    userID,
		ExpiresAt: time.Now().Add(ttl).UTC().Truncate(time.Second),
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (token, user_id, expires_at) VALUES (?, ?, ?)`,
		s.Token, s.UserID, s.ExpiresAt.Unix())
	if err != nil {
		return Session{}, fmt.Errorf("create session: %w", err)
	}
	return s, nil
}

// SessionUser resolves a session token to its user. Expired and unknown
// tokens both yield ErrNotFound.
func (r *SQLiteRepository) SessionUser(ctx context.Context, token string, now time.Time) (core.User, error) {
	if _, err := uuid.Parse(token); err != nil {
		return core.User{}, ErrNotFound
	}
	return r.scanUser(r.db.QueryRowContext(ctx, `
		SELECT u.id, u.family_id, u.name, u.email
		FROM sessions s JOIN users u ON u.id = s.user_id
		WHERE s.token = ? AND s.expires_at > ?`, token, now.Unix()))
}

func (r *SQLiteRepository) DeleteSession(ctx context.Context, token string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = ?`, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// PurgeExpiredSessions removes sessions that expired before now.
func (r *SQLiteRepository) PurgeExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, now.Unix())
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		slog.InfoContext(ctx, "Expired sessions purged", "count", n)
	}
	return n, nil
}
