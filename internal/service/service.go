package service

import (
	"context"
	"time"

	"tilt_cover/internal/cover"
	"tilt_cover/internal/logger"
	"tilt_cover/internal/models"
	"tilt_cover/internal/repository"
)

// Authorization registers operators and issues/verifies API tokens.
type Authorization interface {
	SignUp(ctx context.Context, username, password string, byOperator bool) (int, error)
	GenerateToken(ctx context.Context, username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// Cover exposes the control operations of the window covering.
type Cover interface {
	Open(ctx context.Context) error
	Close(ctx context.Context) error
	Stop(ctx context.Context) error
	Toggle(ctx context.Context) error
	SetPosition(ctx context.Context, p PositionParams) error
	Traits() cover.Traits
}

// Monitoring exposes the current position/tilt estimate.
type Monitoring interface {
	GetState(ctx context.Context) (models.CoverState, error)
}

// EventLog exposes append-only logs with filtering access.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.CoverEvent, error)
}

// Runner drives the estimator until ctx is canceled.
type Runner interface {
	Run(ctx context.Context, tick time.Duration)
}

// StateFeed streams every state report to subscribers.
type StateFeed interface {
	Subscribe() (<-chan models.CoverState, func())
}

type Service struct {
	Cover
	Monitoring
	EventLog
	Runner
	StateFeed
	Authorization
}

// Options carries what the services need beyond the repositories. A nil
// Clock selects the system clock.
type Options struct {
	Cover    cover.Config
	Actuator cover.Actuator
	Clock    cover.Clock
	Auth     AuthConfig
	Log      *logger.Logger
}

func NewService(repos *repository.Repository, opts Options) *Service {
	clock := opts.Clock
	if clock == nil {
		clock = cover.NewSystemClock()
	}

	hub := NewStateHub()
	publisher := NewStatePublisher(repos.StateRepo, repos.EventRepo, hub, opts.Log.Named("publisher"))
	estimator := cover.New(opts.Cover, clock, opts.Actuator, publisher, opts.Log.Named("cover"))
	runner := NewCoverRunner(estimator, repos.StateRepo, opts.Log.Named("runner"))

	return &Service{
		Cover:         NewCoverService(runner, repos.EventRepo, estimator.Traits()),
		Monitoring:    NewMonitoringService(publisher, repos.StateRepo),
		EventLog:      NewEventLogService(repos.EventRepo),
		Runner:        runner,
		StateFeed:     hub,
		Authorization: NewAuthService(repos.Auth, opts.Auth),
	}
}
