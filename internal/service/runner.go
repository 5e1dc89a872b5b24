package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"tilt_cover/internal/cover"
	"tilt_cover/internal/logger"
	"tilt_cover/internal/repository"
)

// ErrRunnerStopped is returned by Submit once the runner has exited.
var ErrRunnerStopped = errors.New("cover runner is not running")

const requestBuffer = 16

// request is a queued call; applied is closed once Control has run.
type request struct {
	call    cover.Call
	applied chan struct{}
}

// CoverRunner owns the estimator. Ticks and control requests are applied
// from the Run goroutine only.
type CoverRunner struct {
	cover     *cover.Cover
	stateRepo repository.StateRepo
	log       *logger.Logger

	requests chan request
	done     chan struct{}
	doneOnce sync.Once
}

func NewCoverRunner(c *cover.Cover, stateRepo repository.StateRepo, log *logger.Logger) *CoverRunner {
	return &CoverRunner{
		cover:     c,
		stateRepo: stateRepo,
		log:       log,
		requests:  make(chan request, requestBuffer),
		done:      make(chan struct{}),
	}
}

// Submit hands a control request to the runner and returns once it has been
// applied. A request still queued when the runner exits is dropped and
// reported as ErrRunnerStopped.
func (r *CoverRunner) Submit(ctx context.Context, call cover.Call) error {
	select {
	case <-r.done:
		return ErrRunnerStopped
	default:
	}

	req := request{call: call, applied: make(chan struct{})}
	select {
	case r.requests <- req:
	case <-r.done:
		return ErrRunnerStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-req.applied:
		return nil
	case <-r.done:
		// applied is closed before done, so this is final.
		select {
		case <-req.applied:
			return nil
		default:
			return ErrRunnerStopped
		}
	}
}

// Run restores the persisted estimate and ticks at the given interval until
// ctx is canceled. A cover still in motion is stopped on the way out.
func (r *CoverRunner) Run(ctx context.Context, tick time.Duration) {
	defer r.doneOnce.Do(func() { close(r.done) })

	r.restore(ctx)
	r.cover.DumpConfig()

	t := time.NewTicker(tick)
	defer t.Stop()
	for {
		if ctx.Err() != nil {
			r.shutdown()
			return
		}
		select {
		case <-ctx.Done():
			r.shutdown()
			return
		case req := <-r.requests:
			r.cover.Control(req.call)
			close(req.applied)
		case <-t.C:
			r.cover.Tick()
		}
	}
}

func (r *CoverRunner) restore(ctx context.Context) {
	st, ok, err := r.stateRepo.Load(ctx)
	switch {
	case err != nil:
		if r.log != nil {
			r.log.Warnw("cover_state_load_failed", "err", err)
		}
	case ok:
		r.cover.Restore(st.Position, st.Tilt)
	}
}

func (r *CoverRunner) shutdown() {
	if r.cover.State() == cover.StateIdle {
		return
	}
	r.cover.Control(cover.Call{Stop: true})
	r.cover.Tick()
	if r.log != nil {
		r.log.Infow("cover_stopped_on_shutdown", "position", r.cover.Position(), "tilt", r.cover.Tilt())
	}
}
