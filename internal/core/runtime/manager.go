package runtime

import (
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
)

// entry is one registered system. dep is non-nil when the system satisfies
// Dependent; the check happens once at Register time.
type entry struct {
	sys System
	dep Dependent
	seq int // registration order, tiebreak for equal priorities
}

// Manager owns the system registry and the dependency registry and drives
// the lifecycle: two-phase fail-fast Init, fault-isolated per-tick Update,
// reverse-order Destroy.
type Manager struct {
	log         *zap.Logger
	systems     map[string]*entry
	order       []*entry // ascending priority, stable by seq
	deps        map[DependencyKey]any
	initialized bool
	nextSeq     int
}

func NewManager(log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		log:     log,
		systems: make(map[string]*entry, 16),
		deps:    make(map[DependencyKey]any),
	}
}

// Register adds a system. Fails with a ManagerError when the name is taken.
// After the manager has initialized, late joiners have Init called
// immediately — but they are not injected or validated retroactively; a late
// Dependent must be wired by its caller.
func (m *Manager) Register(s System) error {
	name := s.Name()
	if _, ok := m.systems[name]; ok {
		return &ManagerError{Op: "register", Msg: fmt.Sprintf("system %q already registered", name)}
	}
	e := &entry{sys: s, seq: m.nextSeq}
	m.nextSeq++
	if d, ok := s.(Dependent); ok {
		e.dep = d
	}
	m.systems[name] = e
	m.resort()

	if m.initialized {
		if err := s.Init(); err != nil {
			delete(m.systems, name)
			m.resort()
			return fmt.Errorf("init late system %q: %w", name, err)
		}
	}
	return nil
}

// Unregister destroys the named system and removes it. Destroy failures are
// logged, not propagated; the removal always completes.
func (m *Manager) Unregister(name string) error {
	e, ok := m.systems[name]
	if !ok {
		return &ManagerError{Op: "unregister", Msg: fmt.Sprintf("system %q not registered", name)}
	}
	if err := safeDestroy(e.sys); err != nil {
		m.log.Error("system destroy failed", zap.String("system", name), zap.Error(err))
	}
	delete(m.systems, name)
	m.resort()
	return nil
}

func (m *Manager) Get(name string) (System, error) {
	e, ok := m.systems[name]
	if !ok {
		return nil, &ManagerError{Op: "get", Msg: fmt.Sprintf("system %q not registered", name)}
	}
	return e.sys, nil
}

func (m *Manager) Has(name string) bool {
	_, ok := m.systems[name]
	return ok
}

// Provide stores a shared service under key. No uniqueness constraint:
// providing the same key twice overwrites.
func (m *Manager) Provide(key DependencyKey, value any) {
	m.deps[key] = value
}

func (m *Manager) Dependency(key DependencyKey) (any, bool) {
	v, ok := m.deps[key]
	return v, ok
}

func (m *Manager) HasDependency(key DependencyKey) bool {
	_, ok := m.deps[key]
	return ok
}

// Init runs the two-phase startup. Every Dependent system is injected with
// the full dependency registry and validated before any system's Init runs,
// so no system can observe a half-wired graph. Any failure aborts
// immediately; systems whose Init already succeeded are destroyed again in
// reverse order, and the manager stays uninitialized. A second call logs a
// warning and does nothing.
func (m *Manager) Init() error {
	if m.initialized {
		m.log.Warn("manager already initialized")
		return nil
	}

	for _, e := range m.order {
		if e.dep == nil {
			continue
		}
		for k, v := range m.deps {
			e.dep.Inject(k, v)
		}
	}

	for _, e := range m.order {
		if e.dep == nil {
			continue
		}
		if err := e.dep.ValidateDependencies(); err != nil {
			return err
		}
	}

	for i, e := range m.order {
		if err := e.sys.Init(); err != nil {
			m.rollback(i - 1)
			return fmt.Errorf("init system %q: %w", e.sys.Name(), err)
		}
	}

	m.initialized = true
	return nil
}

// rollback destroys order[0..last] in reverse after a failed Init.
func (m *Manager) rollback(last int) {
	for i := last; i >= 0; i-- {
		e := m.order[i]
		if err := safeDestroy(e.sys); err != nil {
			m.log.Error("rollback destroy failed", zap.String("system", e.sys.Name()), zap.Error(err))
		}
	}
}

// Update runs every system once in ascending-priority order. One failing (or
// panicking) system is logged and skipped; its peers still run. Calling
// Update before Init is a ManagerError.
func (m *Manager) Update(dt time.Duration) error {
	if !m.initialized {
		return &ManagerError{Op: "update", Msg: "manager not initialized"}
	}
	for _, e := range m.order {
		if err := safeUpdate(e.sys, dt); err != nil {
			m.log.Error("system update failed", zap.String("system", e.sys.Name()), zap.Error(err))
		}
	}
	return nil
}

// Destroy tears every system down in descending-priority order, isolating
// failures, then clears the registries and resets the initialized flag.
func (m *Manager) Destroy() {
	for i := len(m.order) - 1; i >= 0; i-- {
		e := m.order[i]
		if err := safeDestroy(e.sys); err != nil {
			m.log.Error("system destroy failed", zap.String("system", e.sys.Name()), zap.Error(err))
		}
	}
	m.systems = make(map[string]*entry, 16)
	m.order = nil
	m.deps = make(map[DependencyKey]any)
	m.initialized = false
}

// SystemNames returns the registered names in no particular order.
func (m *Manager) SystemNames() []string {
	names := make([]string, 0, len(m.systems))
	for name := range m.systems {
		names = append(names, name)
	}
	return names
}

func (m *Manager) Count() int { return len(m.systems) }

func (m *Manager) resort() {
	m.order = m.order[:0]
	for _, e := range m.systems {
		m.order = append(m.order, e)
	}
	sort.Slice(m.order, func(i, j int) bool {
		pi, pj := m.order[i].sys.Priority(), m.order[j].sys.Priority()
		if pi != pj {
			return pi < pj
		}
		return m.order[i].seq < m.order[j].seq
	})
}

func safeUpdate(s System, dt time.Duration) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return s.Update(dt)
}

func safeDestroy(s System) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return s.Destroy()
}
