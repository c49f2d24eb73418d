package event

// Type names an event. Dotted lowercase by convention, e.g. "engine.heartbeat".
type Type string

// Event is what subscribers receive: the type it was published under and the
// publisher's payload, untouched.
type Event struct {
	Type    Type
	Payload any
}

// Engine-level event types.

const (
	// TypeHeartbeat is published by the heartbeat system on its cadence.
	TypeHeartbeat Type = "engine.heartbeat"
	// TypeHeartbeatEcho is the delayed echo of a heartbeat, used to prove
	// delayed delivery end to end.
	TypeHeartbeatEcho Type = "engine.heartbeat.echo"
)

// HeartbeatTick is the payload for TypeHeartbeat and TypeHeartbeatEcho.
type HeartbeatTick struct {
	Tick int
}
