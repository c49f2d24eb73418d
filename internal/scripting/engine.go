package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM hosting engine extension scripts.
// Single-goroutine access only (game loop).
//
// Scripts register hooks through two predeclared globals:
//
//	on_event("wave.begin", function(type, payload) ... end)
//	on_update(function(dt) ... end)
//
// Hooks run in registration order. A failing hook is logged and never stops
// its siblings.
type Engine struct {
	vm          *lua.LState
	log         *zap.Logger
	eventHooks  map[string][]*lua.LFunction
	updateHooks []*lua.LFunction
}

// NewEngine creates a Lua engine and loads every .lua file in scriptsDir.
// A missing directory is not an error; it just loads nothing.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})

	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{
		vm:         vm,
		log:        log,
		eventHooks: make(map[string][]*lua.LFunction),
	}
	vm.SetGlobal("on_event", vm.NewFunction(e.luaOnEvent))
	vm.SetGlobal("on_update", vm.NewFunction(e.luaOnUpdate))

	if err := e.loadDir(scriptsDir); err != nil {
		vm.Close()
		return nil, fmt.Errorf("load scripts: %w", err)
	}
	return e, nil
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

func (e *Engine) luaOnEvent(L *lua.LState) int {
	typ := L.CheckString(1)
	fn := L.CheckFunction(2)
	e.eventHooks[typ] = append(e.eventHooks[typ], fn)
	return 0
}

func (e *Engine) luaOnUpdate(L *lua.LState) int {
	fn := L.CheckFunction(1)
	e.updateHooks = append(e.updateHooks, fn)
	return 0
}

// EventTypes returns the event types scripts registered hooks for, sorted
// for deterministic subscription order.
func (e *Engine) EventTypes() []string {
	types := make([]string, 0, len(e.eventHooks))
	for t := range e.eventHooks {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// CallEventHooks invokes every hook registered for typ with the event type
// and the payload as a table. payload may be nil.
func (e *Engine) CallEventHooks(typ string, payload map[string]any) {
	fns := e.eventHooks[typ]
	if len(fns) == 0 {
		return
	}
	t := e.vm.NewTable()
	for k, v := range payload {
		t.RawSetString(k, luaValue(e.vm, v))
	}
	for _, fn := range fns {
		if err := e.vm.CallByParam(lua.P{
			Fn:      fn,
			NRet:    0,
			Protect: true,
		}, lua.LString(typ), t); err != nil {
			e.log.Error("lua event hook error", zap.String("type", typ), zap.Error(err))
		}
	}
}

// CallUpdateHooks invokes every on_update hook with the tick's dt in seconds.
func (e *Engine) CallUpdateHooks(dtSeconds float64) {
	for _, fn := range e.updateHooks {
		if err := e.vm.CallByParam(lua.P{
			Fn:      fn,
			NRet:    0,
			Protect: true,
		}, lua.LNumber(dtSeconds)); err != nil {
			e.log.Error("lua update hook error", zap.Error(err))
		}
	}
}

func (e *Engine) Close() {
	e.vm.Close()
}

// luaValue converts a Go payload value to a Lua value. Unknown types fall
// back to their string form.
func luaValue(vm *lua.LState, v any) lua.LValue {
	switch x := v.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(x)
	case int:
		return lua.LNumber(x)
	case int32:
		return lua.LNumber(x)
	case int64:
		return lua.LNumber(x)
	case float32:
		return lua.LNumber(x)
	case float64:
		return lua.LNumber(x)
	case string:
		return lua.LString(x)
	case map[string]any:
		t := vm.NewTable()
		for k, mv := range x {
			t.RawSetString(k, luaValue(vm, mv))
		}
		return t
	case []any:
		t := vm.NewTable()
		for _, sv := range x {
			t.Append(luaValue(vm, sv))
		}
		return t
	default:
		return lua.LString(fmt.Sprint(x))
	}
}
