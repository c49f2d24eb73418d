package system

// Priorities for the engine's own systems. The event queue runs at
// runtime.PriorityFirst; everything here runs after it, snapshots last so
// they see the finished tick.
const (
	PriorityScript    = 100
	PriorityHeartbeat = 200
	PrioritySnapshot  = 900
)
