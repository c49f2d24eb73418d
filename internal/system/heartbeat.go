package system

import (
	"time"

	"github.com/tidewater/engine/internal/core/event"
	"github.com/tidewater/engine/internal/core/runtime"
)

// HeartbeatSystem publishes engine.heartbeat every `every` ticks and
// schedules a delayed engine.heartbeat.echo for each one. It exists to keep
// a live signal on the bus and to exercise both delivery paths end to end.
type HeartbeatSystem struct {
	runtime.Base
	queue     *event.Queue
	every     int
	echoDelay time.Duration
	ticks     int
}

// NewHeartbeatSystem publishes every `every` ticks; every <= 0 disables it.
func NewHeartbeatSystem(q *event.Queue, every int, echoDelay time.Duration) *HeartbeatSystem {
	return &HeartbeatSystem{queue: q, every: every, echoDelay: echoDelay}
}

func (s *HeartbeatSystem) Name() string  { return "engine.heartbeat" }
func (s *HeartbeatSystem) Priority() int { return PriorityHeartbeat }

func (s *HeartbeatSystem) Update(_ time.Duration) error {
	if s.every <= 0 {
		return nil
	}
	s.ticks++
	if s.ticks%s.every != 0 {
		return nil
	}
	beat := event.HeartbeatTick{Tick: s.ticks}
	s.queue.Publish(event.TypeHeartbeat, beat)
	s.queue.PublishDelayed(event.TypeHeartbeatEcho, beat, s.echoDelay)
	return nil
}
