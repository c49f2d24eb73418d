package runtime

import "fmt"

// DependencyKey names an entry in the manager's dependency registry. A
// distinct type keeps raw strings out of call sites; the string value is
// only used for diagnostics.
type DependencyKey string

// Well-known keys provided by the engine host.
const (
	DepManager    DependencyKey = "runtime.manager"
	DepEventQueue DependencyKey = "event.queue"
	DepScripting  DependencyKey = "scripting.engine"
	DepSnapshots  DependencyKey = "persist.snapshots"
)

// Dependent marks a system that takes part in dependency injection. The
// manager checks for this interface once, when the system is registered,
// and records the result; injectability never changes afterward.
type Dependent interface {
	Inject(key DependencyKey, value any)
	ValidateDependencies() error
}

type declaration struct {
	key      DependencyKey
	required bool
}

// Injectable is the embeddable half of the injection contract. A system
// embeds it, declares its keys in its constructor, and reads them back in
// Init after the manager has injected and validated everything.
type Injectable struct {
	owner    string
	declared []declaration
	injected map[DependencyKey]any
}

// NewInjectable returns an Injectable whose errors name the owning system.
func NewInjectable(owner string) Injectable {
	return Injectable{
		owner:    owner,
		injected: make(map[DependencyKey]any),
	}
}

// Declare records a dependency key. Required keys are checked by
// ValidateDependencies; optional keys never are. Re-declaring a key updates
// its required flag. Must happen before the manager initializes.
func (in *Injectable) Declare(key DependencyKey, required bool) {
	for i, d := range in.declared {
		if d.key == key {
			in.declared[i].required = required
			return
		}
	}
	in.declared = append(in.declared, declaration{key: key, required: required})
}

// Inject stores a value for key, overwriting any previous one. Called by the
// manager; systems normally have no reason to call it themselves.
func (in *Injectable) Inject(key DependencyKey, value any) {
	if in.injected == nil {
		in.injected = make(map[DependencyKey]any)
	}
	in.injected[key] = value
}

// Dependency returns the injected value for key, or a DependencyError when
// nothing was injected under that key.
func (in *Injectable) Dependency(key DependencyKey) (any, error) {
	v, ok := in.injected[key]
	if !ok {
		return nil, &DependencyError{System: in.owner, Key: key, Reason: "not injected"}
	}
	return v, nil
}

// OptionalDependency returns the injected value for key, or nil. It never
// fails; an absent key is indistinguishable from an injected nil.
func (in *Injectable) OptionalDependency(key DependencyKey) any {
	return in.injected[key]
}

// HasDependency reports whether a value was injected under key.
func (in *Injectable) HasDependency(key DependencyKey) bool {
	_, ok := in.injected[key]
	return ok
}

// ValidateDependencies fails on the first declared required key (in
// declaration order) that has no injected value.
func (in *Injectable) ValidateDependencies() error {
	for _, d := range in.declared {
		if !d.required {
			continue
		}
		if _, ok := in.injected[d.key]; !ok {
			return &DependencyError{System: in.owner, Key: d.key, Reason: "required dependency not injected"}
		}
	}
	return nil
}

// Resolve returns the dependency under key asserted to T. A missing key or a
// value of the wrong type yields a DependencyError.
func Resolve[T any](in *Injectable, key DependencyKey) (T, error) {
	var zero T
	v, err := in.Dependency(key)
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, &DependencyError{
			System: in.owner,
			Key:    key,
			Reason: fmt.Sprintf("injected value is %T, not %T", v, zero),
		}
	}
	return t, nil
}
