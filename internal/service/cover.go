package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tilt_cover/internal/cover"
	"tilt_cover/internal/models"
	"tilt_cover/internal/repository"
)

var (
	ErrInvalidPosition = errors.New("position and tilt must be within [0, 1]")
	ErrTiltUnsupported = errors.New("tilt is not supported by this cover")
	ErrEmptyRequest    = errors.New("position or tilt is required")
)

// Submitter hands control requests to the goroutine owning the estimator.
type Submitter interface {
	Submit(ctx context.Context, call cover.Call) error
}

type CoverService struct {
	runner    Submitter
	eventRepo repository.EventRepo
	traits    cover.Traits
}

func NewCoverService(runner Submitter, eventRepo repository.EventRepo, traits cover.Traits) *CoverService {
	return &CoverService{runner: runner, eventRepo: eventRepo, traits: traits}
}

func (s *CoverService) Traits() cover.Traits { return s.traits }

// Open moves to fully open. Tilt opens first when supported.
func (s *CoverService) Open(ctx context.Context) error {
	return s.command(ctx, models.EventOpen, "open requested", nil,
		cover.Call{Position: cover.Value(cover.Open)})
}

func (s *CoverService) Close(ctx context.Context) error {
	return s.command(ctx, models.EventClose, "close requested", nil,
		cover.Call{Position: cover.Value(cover.Closed)})
}

func (s *CoverService) Stop(ctx context.Context) error {
	return s.command(ctx, models.EventStop, "stop requested", nil, cover.Call{Stop: true})
}

func (s *CoverService) Toggle(ctx context.Context) error {
	return s.command(ctx, models.EventToggle, "toggle requested", nil, cover.Call{Toggle: true})
}

// SetPosition validates and submits a move. An axis left nil cancels any
// pending target on it.
func (s *CoverService) SetPosition(ctx context.Context, p PositionParams) error {
	if p.Position == nil && p.Tilt == nil {
		return ErrEmptyRequest
	}
	if !inUnitRange(p.Position) || !inUnitRange(p.Tilt) {
		return ErrInvalidPosition
	}
	if p.Tilt != nil && !s.traits.SupportsTilt {
		return ErrTiltUnsupported
	}

	meta := map[string]any{}
	if p.Position != nil {
		meta["position"] = *p.Position
	}
	if p.Tilt != nil {
		meta["tilt"] = *p.Tilt
	}
	return s.command(ctx, models.EventMove, "move requested", meta,
		cover.Call{Position: p.Position, Tilt: p.Tilt})
}

func (s *CoverService) command(ctx context.Context, typ, description string, meta map[string]any, call cover.Call) error {
	if err := s.runner.Submit(ctx, call); err != nil {
		return fmt.Errorf("submit %s: %w", typ, err)
	}

	ev := models.CoverEvent{
		OccurredAt:  time.Now().UTC(),
		Type:        typ,
		Description: description,
	}
	if len(meta) > 0 {
		ev.Metadata = meta
	}
	if err := s.eventRepo.Append(ctx, ev); err != nil {
		return fmt.Errorf("log %s event: %w", typ, err)
	}
	return nil
}

func inUnitRange(v *float64) bool {
	return v == nil || (*v >= cover.Closed && *v <= cover.Open)
}
