package repository

import (
	"context"
	"database/sql"
	"time"

	"tilt_cover/internal/models"
)

// Authorization stores API operators.
type Authorization interface {
	Create(ctx context.Context, username, hash string) (int, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Count(ctx context.Context) (int, error)
}

// StateRepo persists the last settled estimate so it survives restarts.
type StateRepo interface {
	Save(ctx context.Context, s models.CoverState) error
	// Load returns ok=false when nothing was saved yet.
	Load(ctx context.Context) (s models.CoverState, ok bool, err error)
}

type EventRepo interface {
	Append(ctx context.Context, e models.CoverEvent) error
	List(ctx context.Context, from, to time.Time, typ string) ([]models.CoverEvent, error)
}

type Repository struct {
	StateRepo StateRepo
	EventRepo EventRepo
	Auth      Authorization
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		StateRepo: NewStateSQLite(db),
		EventRepo: NewEventSQLite(db),
		Auth:      NewUserSQLite(db),
	}
}
