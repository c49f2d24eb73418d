package system

import (
	"context"
	"time"

	"github.com/tidewater/engine/internal/core/event"
	"github.com/tidewater/engine/internal/core/runtime"
	"github.com/tidewater/engine/internal/persist"
	"go.uber.org/zap"
)

// SnapshotSystem dumps runtime counters (uptime, ticks, registered systems,
// event traffic) to Postgres on a fixed interval. The repo is an optional
// dependency: without a database the system still tracks counters, it just
// never writes.
type SnapshotSystem struct {
	runtime.Base
	runtime.Injectable
	log      *zap.Logger
	queue    *event.Queue
	manager  *runtime.Manager
	repo     *persist.SnapshotRepo
	interval time.Duration
	elapsed  time.Duration
	uptime   time.Duration
	ticks    int64
}

func NewSnapshotSystem(log *zap.Logger, interval time.Duration) *SnapshotSystem {
	s := &SnapshotSystem{
		Injectable: runtime.NewInjectable("engine.snapshot"),
		log:        log,
		interval:   interval,
	}
	s.Declare(runtime.DepManager, true)
	s.Declare(runtime.DepEventQueue, true)
	s.Declare(runtime.DepSnapshots, false)
	return s
}

func (s *SnapshotSystem) Name() string  { return "engine.snapshot" }
func (s *SnapshotSystem) Priority() int { return PrioritySnapshot }

func (s *SnapshotSystem) Init() error {
	m, err := runtime.Resolve[*runtime.Manager](&s.Injectable, runtime.DepManager)
	if err != nil {
		return err
	}
	q, err := runtime.Resolve[*event.Queue](&s.Injectable, runtime.DepEventQueue)
	if err != nil {
		return err
	}
	s.manager = m
	s.queue = q

	if v := s.OptionalDependency(runtime.DepSnapshots); v != nil {
		repo, ok := v.(*persist.SnapshotRepo)
		if !ok {
			return &runtime.DependencyError{
				System: s.Name(),
				Key:    runtime.DepSnapshots,
				Reason: "injected value is not a *persist.SnapshotRepo",
			}
		}
		s.repo = repo
	} else {
		s.log.Info("snapshot persistence disabled, no repo injected")
	}
	return nil
}

func (s *SnapshotSystem) Update(dt time.Duration) error {
	s.uptime += dt
	s.ticks++

	if s.repo == nil || s.interval <= 0 {
		return nil
	}
	s.elapsed += dt
	if s.elapsed < s.interval {
		return nil
	}
	s.elapsed = 0

	row := &persist.SnapshotRow{
		TakenAt:          time.Now(),
		Uptime:           s.uptime,
		TickCount:        s.ticks,
		SystemCount:      s.manager.Count(),
		EventsDispatched: int64(s.queue.Dispatched()),
		EventsPending:    s.queue.Pending(),
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.repo.Save(ctx, row); err != nil {
		s.log.Error("snapshot save failed", zap.Error(err))
	}
	return nil
}

// Ticks returns the number of updates seen since Init.
func (s *SnapshotSystem) Ticks() int64 { return s.ticks }

// Uptime returns the accumulated virtual uptime.
func (s *SnapshotSystem) Uptime() time.Duration { return s.uptime }
