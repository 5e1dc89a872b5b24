package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"tilt_cover/internal/cover"
	"tilt_cover/internal/models"
)

const runnerTick = 5 * time.Millisecond

type runnerFixture struct {
	runner   *CoverRunner
	cover    *cover.Cover
	states   *fakeStateRepo
	events   *fakeEventRepo
	actuator *recordingActuator
	feed     <-chan models.CoverState
	cancel   context.CancelFunc
	finished chan struct{}
}

func startRunner(t *testing.T, cfg cover.Config, states *fakeStateRepo) *runnerFixture {
	t.Helper()

	events := &fakeEventRepo{}
	hub := NewStateHub()
	feed, unsub := hub.Subscribe()
	t.Cleanup(unsub)

	act := &recordingActuator{}
	c := cover.New(cfg, cover.NewSystemClock(), act, NewStatePublisher(states, events, hub, nil), nil)
	r := NewCoverRunner(c, states, nil)

	ctx, cancel := context.WithCancel(context.Background())
	f := &runnerFixture{
		runner: r, cover: c, states: states, events: events, actuator: act,
		feed: feed, cancel: cancel, finished: make(chan struct{}),
	}
	go func() {
		r.Run(ctx, runnerTick)
		close(f.finished)
	}()
	t.Cleanup(f.stop)
	return f
}

func (f *runnerFixture) stop() {
	f.cancel()
	<-f.finished
}

func waitFinal(t *testing.T, feed <-chan models.CoverState) models.CoverState {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case st := <-feed:
			if st.Final {
				return st
			}
		case <-deadline:
			t.Fatal("timeout waiting for a final report")
		}
	}
}

func TestCoverRunner_RestoresAndSettles(t *testing.T) {
	states := &fakeStateRepo{loadResp: models.CoverState{Position: 0, Tilt: 0}, loadOK: true}
	f := startRunner(t, cover.Config{OpenDuration: 100 * time.Millisecond, CloseDuration: 100 * time.Millisecond}, states)

	if err := f.runner.Submit(context.Background(), cover.Call{Position: cover.Value(1)}); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	final := waitFinal(t, f.feed)
	if final.Position != 1 || final.Operation != "IDLE" {
		t.Fatalf("unexpected final report %+v", final)
	}

	f.stop()
	if got := f.actuator.snapshot(); len(got) != 2 || got[0] != "open" || got[1] != "stop" {
		t.Fatalf("unexpected actuator calls %v", got)
	}
	saved := states.savedStates()
	if len(saved) == 0 || saved[len(saved)-1].Position != 1 {
		t.Fatalf("final position not persisted: %+v", saved)
	}
}

func TestCoverRunner_SubmitAfterExit(t *testing.T) {
	f := startRunner(t, cover.Config{OpenDuration: time.Second, CloseDuration: time.Second}, &fakeStateRepo{})
	f.stop()

	err := f.runner.Submit(context.Background(), cover.Call{Stop: true})
	if !errors.Is(err, ErrRunnerStopped) {
		t.Fatalf("expected ErrRunnerStopped, got %v", err)
	}
}

func TestCoverRunner_ShutdownStopsMovingCover(t *testing.T) {
	states := &fakeStateRepo{}
	f := startRunner(t, cover.Config{OpenDuration: 10 * time.Second, CloseDuration: 10 * time.Second}, states)

	if err := f.runner.Submit(context.Background(), cover.Call{Position: cover.Value(1)}); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for len(f.actuator.snapshot()) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("actuator never started")
		}
		time.Sleep(runnerTick)
	}

	f.stop()
	got := f.actuator.snapshot()
	if got[len(got)-1] != "stop" {
		t.Fatalf("expected a stop on shutdown, got %v", got)
	}
	if f.cover.State() != cover.StateIdle {
		t.Fatalf("expected idle after shutdown, got %s", f.cover.State())
	}
	if len(states.savedStates()) != 1 {
		t.Fatal("expected the interrupted position to be persisted")
	}
}

func TestCoverRunner_LoadErrorKeepsDefaults(t *testing.T) {
	states := &fakeStateRepo{loadErr: errors.New("db down")}
	f := startRunner(t, cover.Config{OpenDuration: time.Second, CloseDuration: time.Second}, states)
	f.stop()

	if f.cover.Position() != 0.5 || f.cover.Tilt() != 0.5 {
		t.Fatalf("expected midpoint defaults, got %.2f/%.2f", f.cover.Position(), f.cover.Tilt())
	}
}

func TestCoverRunner_SubmitHonorsContext(t *testing.T) {
	c := cover.New(cover.Config{OpenDuration: time.Second, CloseDuration: time.Second}, cover.NewSystemClock(), &recordingActuator{}, nil, nil)
	r := NewCoverRunner(c, &fakeStateRepo{}, nil)

	for i := 0; i < requestBuffer; i++ {
		r.requests <- request{call: cover.Call{Toggle: true}, applied: make(chan struct{})}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := r.Submit(ctx, cover.Call{Toggle: true}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestCoverRunner_QueuedRequestDroppedOnExit(t *testing.T) {
	c := cover.New(cover.Config{OpenDuration: time.Second, CloseDuration: time.Second}, cover.NewSystemClock(), &recordingActuator{}, nil, nil)
	r := NewCoverRunner(c, &fakeStateRepo{}, nil)
	events := &fakeEventRepo{}
	svc := NewCoverService(r, events, c.Traits())

	result := make(chan error, 1)
	go func() { result <- svc.Open(context.Background()) }()

	deadline := time.Now().Add(time.Second)
	for len(r.requests) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("request never queued")
		}
		time.Sleep(time.Millisecond)
	}

	// Canceled before the loop ever runs: the queued request must not be applied.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r.Run(ctx, runnerTick)

	select {
	case err := <-result:
		if !errors.Is(err, ErrRunnerStopped) {
			t.Fatalf("expected ErrRunnerStopped, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Submit did not return after the runner exited")
	}
	if _, set := c.TargetPosition(); set {
		t.Fatal("dropped request reached the cover")
	}
	if len(events.events) != 0 {
		t.Fatalf("command event logged for a dropped request: %+v", events.events)
	}
}
