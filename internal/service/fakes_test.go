package service

import (
	"context"
	"sync"
	"time"

	"tilt_cover/internal/cover"
	"tilt_cover/internal/models"
)

// ---- Test doubles ----

type fakeStateRepo struct {
	mu       sync.Mutex
	loadResp models.CoverState
	loadOK   bool
	loadErr  error
	saveErr  error
	saved    []models.CoverState
}

func (f *fakeStateRepo) Load(ctx context.Context) (models.CoverState, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loadResp, f.loadOK, f.loadErr
}

func (f *fakeStateRepo) Save(ctx context.Context, s models.CoverState) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, s)
	return f.saveErr
}

func (f *fakeStateRepo) savedStates() []models.CoverState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.CoverState(nil), f.saved...)
}

type fakeEventRepo struct {
	mu        sync.Mutex
	appendErr error
	events    []models.CoverEvent

	listResp []models.CoverEvent
	listErr  error
	gotFrom  time.Time
	gotTo    time.Time
	gotType  string
	calls    int
}

func (f *fakeEventRepo) Append(ctx context.Context, e models.CoverEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, e)
	return f.appendErr
}

func (f *fakeEventRepo) List(ctx context.Context, from, to time.Time, typ string) ([]models.CoverEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.gotFrom, f.gotTo, f.gotType = from, to, typ
	return f.listResp, f.listErr
}

func (f *fakeEventRepo) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e.Type)
	}
	return out
}

type fakeSubmitter struct {
	err   error
	calls []cover.Call
}

func (f *fakeSubmitter) Submit(ctx context.Context, call cover.Call) error {
	f.calls = append(f.calls, call)
	return f.err
}

type recordingActuator struct {
	mu    sync.Mutex
	calls []string
}

func (a *recordingActuator) record(c string) {
	a.mu.Lock()
	a.calls = append(a.calls, c)
	a.mu.Unlock()
}

func (a *recordingActuator) StartOpening() { a.record("open") }
func (a *recordingActuator) StartClosing() { a.record("close") }
func (a *recordingActuator) Stop()         { a.record("stop") }

func (a *recordingActuator) snapshot() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.calls...)
}

type fixedSnapshot struct {
	state models.CoverState
	ok    bool
}

func (f fixedSnapshot) Latest() (models.CoverState, bool) { return f.state, f.ok }
