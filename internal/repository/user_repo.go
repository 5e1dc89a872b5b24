package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"tilt_cover/internal/models"
)

// ErrUserExists is returned by Create when the username is already taken.
var ErrUserExists = errors.New("user already exists")

const (
	insertUserSQL           = `INSERT INTO users (username, password_hash) VALUES (?, ?)`
	selectUserByUsernameSQL = `SELECT id, username, password_hash FROM users WHERE username = ?`
	countUsersSQL           = `SELECT COUNT(*) FROM users`
)

// UserSQLite stores the operators allowed to drive the cover over the API.
type UserSQLite struct {
	db *sql.DB
}

func NewUserSQLite(db *sql.DB) *UserSQLite {
	return &UserSQLite{db: db}
}

var _ Authorization = (*UserSQLite)(nil)

func (r *UserSQLite) Create(ctx context.Context, username, passwordHash string) (int, error) {
	res, err := r.db.ExecContext(ctx, insertUserSQL, username, passwordHash)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("create user %q: %w", username, ErrUserExists)
		}
		return 0, fmt.Errorf("create user %q: %w", username, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("create user %q: last insert id: %w", username, err)
	}
	return int(id), nil
}

// GetByUsername returns (nil, nil) when there is no such user.
func (r *UserSQLite) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	err := r.db.QueryRowContext(ctx, selectUserByUsernameSQL, username).Scan(&u.ID, &u.Username, &u.PasswordHash)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("get user %q: %w", username, err)
	}
	return &u, nil
}

// Count reports how many operators are registered.
func (r *UserSQLite) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, countUsersSQL).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

// sqlite reports constraint failures only through the message text.
func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
