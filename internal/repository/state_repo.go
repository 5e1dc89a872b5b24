package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"tilt_cover/internal/models"
)

type StateSQLite struct {
	db *sql.DB
}

func NewStateSQLite(db *sql.DB) *StateSQLite {
	return &StateSQLite{db: db}
}

var _ StateRepo = (*StateSQLite)(nil)

const (
	coverStateRowID = 1

	upsertStateSQL = `
		INSERT INTO cover_state (id, position, tilt, operation, state, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			position=excluded.position,
			tilt=excluded.tilt,
			operation=excluded.operation,
			state=excluded.state,
			updated_at=excluded.updated_at
	`

	selectStateSQL = `
		SELECT id, position, tilt, operation, state, updated_at
		FROM cover_state WHERE id=?
	`
)

// Save upserts the single cover_state row.
func (r *StateSQLite) Save(ctx context.Context, s models.CoverState) error {
	ts := s.UpdatedAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	} else {
		ts = ts.UTC()
	}

	_, err := r.db.ExecContext(ctx, upsertStateSQL,
		coverStateRowID,
		s.Position,
		s.Tilt,
		s.Operation,
		s.State,
		ts,
	)
	if err != nil {
		return fmt.Errorf("save cover state: %w", err)
	}
	return nil
}

func (r *StateSQLite) Load(ctx context.Context) (models.CoverState, bool, error) {
	var s models.CoverState
	err := r.db.QueryRowContext(ctx, selectStateSQL, coverStateRowID).Scan(
		&s.ID,
		&s.Position,
		&s.Tilt,
		&s.Operation,
		&s.State,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.CoverState{}, false, nil
		}
		return models.CoverState{}, false, fmt.Errorf("load cover state: %w", err)
	}
	s.UpdatedAt = s.UpdatedAt.UTC()
	s.Final = true
	return s, true, nil
}
