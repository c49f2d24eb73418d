package runtime

import (
	"math"
	"time"
)

// Priority bounds. Lower priorities run earlier within a tick (and during
// Init); Destroy walks the same order in reverse.
const (
	PriorityFirst = math.MinInt32
	PriorityLast  = math.MaxInt32
)

// System is the unit the manager schedules: a named, priority-ordered piece
// of logic with lifecycle hooks and a per-tick update.
type System interface {
	// Name must be unique among all systems registered with one manager.
	Name() string
	// Priority is the ordering key. Equal priorities keep registration order.
	Priority() int
	Init() error
	Update(dt time.Duration) error
	Destroy() error
}

// Base provides no-op lifecycle methods. Systems that need no setup or
// teardown embed it and override only what they use.
type Base struct{}

func (Base) Init() error                { return nil }
func (Base) Update(time.Duration) error { return nil }
func (Base) Destroy() error             { return nil }
