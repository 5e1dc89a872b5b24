package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"tilt_cover/internal/models"
	"tilt_cover/internal/repository"
)

type EventLogService struct {
	eventRepo repository.EventRepo
}

func NewEventLogService(eventRepo repository.EventRepo) *EventLogService {
	return &EventLogService{eventRepo: eventRepo}
}

const (
	DefaultLogLimit = 500
	MaxLogLimit     = 5000
)

var (
	ErrInvalidTimeRange = errors.New("invalid time range: from must be <= to")
	ErrUnknownEventType = errors.New("unknown event type")
	ErrInvalidLimit     = fmt.Errorf("limit must be between 1 and %d", MaxLogLimit)
)

var eventTypes = map[string]struct{}{
	models.EventOpen:    {},
	models.EventClose:   {},
	models.EventStop:    {},
	models.EventToggle:  {},
	models.EventMove:    {},
	models.EventSettled: {},
	models.EventError:   {},
}

func normalizeFilter(f LogFilter) (from, to time.Time, typ string, err error) {
	from, to = toUTC(f.From), toUTC(f.To)
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return time.Time{}, time.Time{}, "", ErrInvalidTimeRange
	}

	typ = strings.ToUpper(strings.TrimSpace(f.Type))
	if typ != "" {
		if _, ok := eventTypes[typ]; !ok {
			return time.Time{}, time.Time{}, "", fmt.Errorf("%w: %q", ErrUnknownEventType, f.Type)
		}
	}
	return from, to, typ, nil
}

func effectiveLimit(n int) (int, error) {
	switch {
	case n == 0:
		return DefaultLogLimit, nil
	case n < 0 || n > MaxLogLimit:
		return 0, ErrInvalidLimit
	default:
		return n, nil
	}
}

// List returns matching events oldest first, trimmed to the newest Limit.
func (s *EventLogService) List(ctx context.Context, f LogFilter) ([]models.CoverEvent, error) {
	from, to, typ, err := normalizeFilter(f)
	if err != nil {
		return nil, err
	}
	limit, err := effectiveLimit(f.Limit)
	if err != nil {
		return nil, err
	}

	events, err := s.eventRepo.List(ctx, from, to, typ)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	if len(events) > limit {
		events = events[len(events)-limit:]
	}
	return events, nil
}
