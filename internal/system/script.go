package system

import (
	"time"

	"github.com/tidewater/engine/internal/core/event"
	"github.com/tidewater/engine/internal/core/runtime"
	"github.com/tidewater/engine/internal/scripting"
	"go.uber.org/zap"
)

// ScriptSystem bridges the event queue into the Lua engine: every event type
// a script registered an on_event hook for gets a forwarding subscription,
// and on_update hooks run once per tick. Payloads cross the boundary as
// map[string]any; other payload types reach Lua as an empty table.
type ScriptSystem struct {
	runtime.Base
	runtime.Injectable
	log   *zap.Logger
	queue *event.Queue
	lua   *scripting.Engine
}

func NewScriptSystem(log *zap.Logger) *ScriptSystem {
	s := &ScriptSystem{
		Injectable: runtime.NewInjectable("engine.script"),
		log:        log,
	}
	s.Declare(runtime.DepEventQueue, true)
	s.Declare(runtime.DepScripting, true)
	return s
}

func (s *ScriptSystem) Name() string  { return "engine.script" }
func (s *ScriptSystem) Priority() int { return PriorityScript }

func (s *ScriptSystem) Init() error {
	q, err := runtime.Resolve[*event.Queue](&s.Injectable, runtime.DepEventQueue)
	if err != nil {
		return err
	}
	eng, err := runtime.Resolve[*scripting.Engine](&s.Injectable, runtime.DepScripting)
	if err != nil {
		return err
	}
	s.queue = q
	s.lua = eng

	types := eng.EventTypes()
	for _, typ := range types {
		s.queue.Subscribe(event.Type(typ), s.forward)
	}
	if len(types) > 0 {
		s.log.Info("script event hooks subscribed", zap.Strings("types", types))
	}
	return nil
}

func (s *ScriptSystem) Update(dt time.Duration) error {
	s.lua.CallUpdateHooks(dt.Seconds())
	return nil
}

func (s *ScriptSystem) forward(ev event.Event) {
	payload, _ := ev.Payload.(map[string]any)
	s.lua.CallEventHooks(string(ev.Type), payload)
}
