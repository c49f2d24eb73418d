package runtime

import "fmt"

// ManagerError reports incorrect wiring of the manager: duplicate
// registration, lookups of unknown systems, or updating before Init.
// These surface to the developer instead of being handled at runtime.
type ManagerError struct {
	Op  string // "register", "unregister", "get", "update"
	Msg string
}

func (e *ManagerError) Error() string {
	return fmt.Sprintf("runtime: %s: %s", e.Op, e.Msg)
}

// DependencyError reports a defect in the dependency graph: a required key
// never supplied, or a lookup of a key that was never injected.
type DependencyError struct {
	System string
	Key    DependencyKey
	Reason string
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("runtime: system %q dependency %q: %s", e.System, e.Key, e.Reason)
}
