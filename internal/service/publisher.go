package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"tilt_cover/internal/cover"
	"tilt_cover/internal/logger"
	"tilt_cover/internal/models"
	"tilt_cover/internal/repository"
)

const persistTimeout = 2 * time.Second

// StatePublisher receives the estimator's reports. It keeps the latest one
// for monitoring, fans every report out through the hub and persists the
// settled ones.
type StatePublisher struct {
	stateRepo repository.StateRepo
	eventRepo repository.EventRepo
	hub       *StateHub
	log       *logger.Logger
	now       func() time.Time

	mu     sync.RWMutex
	latest models.CoverState
	seen   bool
}

var _ cover.Publisher = (*StatePublisher)(nil)

func NewStatePublisher(stateRepo repository.StateRepo, eventRepo repository.EventRepo, hub *StateHub, log *logger.Logger) *StatePublisher {
	return &StatePublisher{
		stateRepo: stateRepo,
		eventRepo: eventRepo,
		hub:       hub,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Publish is called from the runner goroutine.
func (p *StatePublisher) Publish(r cover.Report) {
	st := models.CoverState{
		ID:        1,
		Position:  r.Position,
		Tilt:      r.Tilt,
		Operation: r.Operation.String(),
		State:     r.State.String(),
		Final:     r.Final,
		UpdatedAt: p.now(),
	}

	p.mu.Lock()
	p.latest = st
	p.seen = true
	p.mu.Unlock()

	if r.Final {
		p.persist(st)
	}
	if p.hub != nil {
		p.hub.Broadcast(st)
	}
}

// Latest returns the most recent report, ok=false before the first one.
func (p *StatePublisher) Latest() (models.CoverState, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.latest, p.seen
}

func (p *StatePublisher) persist(st models.CoverState) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	if err := p.stateRepo.Save(ctx, st); err != nil && p.log != nil {
		p.log.Errorw("cover_state_save_failed", "err", err)
	}

	err := p.eventRepo.Append(ctx, models.CoverEvent{
		OccurredAt:  st.UpdatedAt,
		Type:        models.EventSettled,
		Description: fmt.Sprintf("settled at position %.2f, tilt %.2f", st.Position, st.Tilt),
		Metadata:    map[string]any{"position": st.Position, "tilt": st.Tilt},
	})
	if err != nil && p.log != nil {
		p.log.Errorw("cover_event_append_failed", "type", models.EventSettled, "err", err)
	}
}
