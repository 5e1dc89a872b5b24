package service

import (
	"context"
	"fmt"
	"time"

	"tilt_cover/internal/cover"
	"tilt_cover/internal/models"
	"tilt_cover/internal/repository"
)

// Snapshotter exposes the most recent state report.
type Snapshotter interface {
	Latest() (models.CoverState, bool)
}

type MonitoringService struct {
	latest    Snapshotter
	stateRepo repository.StateRepo
}

func NewMonitoringService(latest Snapshotter, stateRepo repository.StateRepo) *MonitoringService {
	return &MonitoringService{latest: latest, stateRepo: stateRepo}
}

// GetState returns the latest report. Before the first one it falls back to
// the persisted state, then to the idle midpoint baseline.
func (s *MonitoringService) GetState(ctx context.Context) (models.CoverState, error) {
	if st, ok := s.latest.Latest(); ok {
		return st, nil
	}

	st, ok, err := s.stateRepo.Load(ctx)
	if err != nil {
		return models.CoverState{}, fmt.Errorf("load cover state: %w", err)
	}
	if !ok {
		return baselineState(), nil
	}
	st.UpdatedAt = toUTC(st.UpdatedAt)
	return st, nil
}

// baselineState mirrors the estimate a freshly started cover assumes.
func baselineState() models.CoverState {
	return models.CoverState{
		ID:        1,
		Position:  0.5,
		Tilt:      0.5,
		Operation: cover.OperationIdle.String(),
		State:     cover.StateIdle.String(),
		UpdatedAt: time.Now().UTC(),
	}
}

func toUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}
