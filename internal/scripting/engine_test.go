package scripting

import (
	"os"
	"path/filepath"
	"testing"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

func newTestEngine(t *testing.T, scripts map[string]string) *Engine {
	t.Helper()
	dir := t.TempDir()
	for name, body := range scripts {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0644); err != nil {
			t.Fatalf("write script: %v", err)
		}
	}
	e, err := NewEngine(dir, zap.NewNop())
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	t.Cleanup(e.Close)
	return e
}

func (e *Engine) globalNumber(t *testing.T, name string) float64 {
	t.Helper()
	v := e.vm.GetGlobal(name)
	n, ok := v.(lua.LNumber)
	if !ok {
		t.Fatalf("global %s = %v, not a number", name, v)
	}
	return float64(n)
}

func TestMissingScriptsDirIsNotAnError(t *testing.T) {
	e, err := NewEngine(filepath.Join(t.TempDir(), "nope"), zap.NewNop())
	if err != nil {
		t.Fatalf("missing dir should load nothing, got %v", err)
	}
	defer e.Close()
	if got := e.EventTypes(); len(got) != 0 {
		t.Fatalf("event types = %v", got)
	}
}

func TestBrokenScriptFailsLoad(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bad.lua"), []byte("this is not lua("), 0644); err != nil {
		t.Fatalf("write script: %v", err)
	}
	if _, err := NewEngine(dir, zap.NewNop()); err == nil {
		t.Fatal("expected load error")
	}
}

func TestEventHooks(t *testing.T) {
	e := newTestEngine(t, map[string]string{
		"hooks.lua": `
seen = 0
on_event("wave.begin", function(type, payload)
    seen = seen + payload.wave
end)
on_event("wave.begin", function(type, payload)
    seen = seen + 100
end)
on_event("world.warmup", function(type, payload) end)
`,
	})

	types := e.EventTypes()
	if len(types) != 2 || types[0] != "wave.begin" || types[1] != "world.warmup" {
		t.Fatalf("event types = %v (want sorted)", types)
	}

	e.CallEventHooks("wave.begin", map[string]any{"wave": 3})
	if got := e.globalNumber(t, "seen"); got != 103 {
		t.Fatalf("seen = %v, want 103 (both hooks, in order)", got)
	}

	// Unhooked types are a silent no-op.
	e.CallEventHooks("never.registered", nil)
}

func TestUpdateHooks(t *testing.T) {
	e := newTestEngine(t, map[string]string{
		"update.lua": `
elapsed = 0
on_update(function(dt)
    elapsed = elapsed + dt
end)
`,
	})
	e.CallUpdateHooks(0.2)
	e.CallUpdateHooks(0.3)
	if got := e.globalNumber(t, "elapsed"); got < 0.499 || got > 0.501 {
		t.Fatalf("elapsed = %v, want 0.5", got)
	}
}

func TestFailingHookDoesNotStopSiblings(t *testing.T) {
	e := newTestEngine(t, map[string]string{
		"mix.lua": `
survived = 0
on_event("x", function(type, payload)
    error("bad hook")
end)
on_event("x", function(type, payload)
    survived = survived + 1
end)
`,
	})
	e.CallEventHooks("x", nil)
	if got := e.globalNumber(t, "survived"); got != 1 {
		t.Fatalf("survived = %v, sibling hook must still run", got)
	}
}

func TestPayloadConversion(t *testing.T) {
	e := newTestEngine(t, map[string]string{
		"payload.lua": `
result = ""
on_event("probe", function(type, payload)
    result = string.format("%s|%d|%s|%.1f|%s",
        payload.s, payload.n, tostring(payload.b), payload.f, payload.nested.inner)
end)
`,
	})
	e.CallEventHooks("probe", map[string]any{
		"s":      "str",
		"n":      7,
		"b":      true,
		"f":      1.5,
		"nested": map[string]any{"inner": "deep"},
	})
	v := e.vm.GetGlobal("result")
	if string(v.(lua.LString)) != "str|7|true|1.5|deep" {
		t.Fatalf("result = %v", v)
	}
}
