package system

import (
	"testing"
	"time"

	"github.com/tidewater/engine/internal/core/event"
)

func TestHeartbeatCadence(t *testing.T) {
	q := event.NewQueue(nil)
	var beats, echoes []int
	q.Subscribe(event.TypeHeartbeat, func(ev event.Event) {
		beats = append(beats, ev.Payload.(event.HeartbeatTick).Tick)
	})
	q.Subscribe(event.TypeHeartbeatEcho, func(ev event.Event) {
		echoes = append(echoes, ev.Payload.(event.HeartbeatTick).Tick)
	})

	hb := NewHeartbeatSystem(q, 2, 100*time.Millisecond)
	dt := 50 * time.Millisecond

	for i := 0; i < 4; i++ {
		if err := q.Update(dt); err != nil {
			t.Fatalf("queue update: %v", err)
		}
		if err := hb.Update(dt); err != nil {
			t.Fatalf("heartbeat update: %v", err)
		}
	}

	// Ticks 2 and 4 beat; echoes trail by 100ms of queue time.
	if len(beats) != 2 || beats[0] != 2 || beats[1] != 4 {
		t.Fatalf("beats = %v, want [2 4]", beats)
	}
	if len(echoes) != 1 || echoes[0] != 2 {
		t.Fatalf("echoes = %v, want [2] (tick 4's echo still pending)", echoes)
	}
	if q.Pending() != 1 {
		t.Fatalf("pending = %d", q.Pending())
	}

	q.Update(100 * time.Millisecond)
	if len(echoes) != 2 || echoes[1] != 4 {
		t.Fatalf("echoes = %v, want [2 4]", echoes)
	}
}

func TestHeartbeatDisabled(t *testing.T) {
	q := event.NewQueue(nil)
	fired := false
	q.Subscribe(event.TypeHeartbeat, func(event.Event) { fired = true })

	hb := NewHeartbeatSystem(q, 0, time.Second)
	for i := 0; i < 10; i++ {
		hb.Update(time.Millisecond)
	}
	if fired {
		t.Fatal("disabled heartbeat must publish nothing")
	}
}
