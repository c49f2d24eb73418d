package event

import (
	"reflect"
	"time"

	"github.com/tidewater/engine/internal/core/runtime"
	"go.uber.org/zap"
)

// SystemName is the queue's registration name with the manager.
const SystemName = "event.queue"

// Handler receives a dispatched event. Handlers run synchronously on the
// update goroutine, in subscription order.
type Handler func(Event)

// ScheduleID identifies one pending delayed event for cancellation. The zero
// value is never issued.
type ScheduleID uint64

type subscriber struct {
	id uintptr
	fn Handler
}

type delayed struct {
	id        ScheduleID
	ev        Event
	executeAt time.Duration
}

// Queue is a publish/subscribe bus with immediate and virtual-time-delayed
// delivery. It is itself a System: it runs at PriorityFirst so delayed events
// become visible to every other system within the same tick. "Delay" is
// measured on a virtual clock accumulated from Update's dt, not wall time.
//
// Single-goroutine access only (game loop), like every part of the runtime.
type Queue struct {
	runtime.Base
	log        *zap.Logger
	subs       map[Type][]subscriber
	pending    []delayed // ascending executeAt, FIFO among equals
	now        time.Duration
	nextID     ScheduleID
	dispatched uint64
}

func NewQueue(log *zap.Logger) *Queue {
	if log == nil {
		log = zap.NewNop()
	}
	return &Queue{
		log:  log,
		subs: make(map[Type][]subscriber),
	}
}

func (q *Queue) Name() string  { return SystemName }
func (q *Queue) Priority() int { return runtime.PriorityFirst }

// Subscribe adds fn to the subscriber list for t. Subscribing the same
// function twice is a no-op. Identity is the function's code pointer, so two
// closures from the same literal are distinct, while bound methods of
// different receivers of one type are not — prefer closures when two
// instances must subscribe separately.
func (q *Queue) Subscribe(t Type, fn Handler) {
	if fn == nil {
		return
	}
	id := reflect.ValueOf(fn).Pointer()
	for _, s := range q.subs[t] {
		if s.id == id {
			return
		}
	}
	q.subs[t] = append(q.subs[t], subscriber{id: id, fn: fn})
}

// Unsubscribe removes fn from t's subscriber list; no-op when absent.
func (q *Queue) Unsubscribe(t Type, fn Handler) {
	if fn == nil {
		return
	}
	id := reflect.ValueOf(fn).Pointer()
	old := q.subs[t]
	kept := make([]subscriber, 0, len(old))
	for _, s := range old {
		if s.id != id {
			kept = append(kept, s)
		}
	}
	if len(kept) == 0 {
		delete(q.subs, t)
		return
	}
	q.subs[t] = kept
}

// Publish dispatches synchronously to every current subscriber of t, in
// subscription order, before returning. Zero subscribers is not an error;
// the event is silently discarded.
func (q *Queue) Publish(t Type, payload any) {
	q.dispatch(Event{Type: t, Payload: payload})
}

// PublishDelayed schedules the event to dispatch once the virtual clock has
// advanced by delay. A non-positive delay dispatches immediately and returns
// zero. The returned id can cancel the event while it is still pending.
func (q *Queue) PublishDelayed(t Type, payload any, delay time.Duration) ScheduleID {
	if delay <= 0 {
		q.dispatch(Event{Type: t, Payload: payload})
		return 0
	}
	q.nextID++
	d := delayed{
		id:        q.nextID,
		ev:        Event{Type: t, Payload: payload},
		executeAt: q.now + delay,
	}
	// Insert before the first strictly later deadline so equal deadlines
	// keep publish order.
	i := len(q.pending)
	for j := range q.pending {
		if q.pending[j].executeAt > d.executeAt {
			i = j
			break
		}
	}
	q.pending = append(q.pending, delayed{})
	copy(q.pending[i+1:], q.pending[i:])
	q.pending[i] = d
	return d.id
}

// Cancel removes a still-pending delayed event. It reports whether the id
// was found; an already-dispatched or unknown id returns false.
func (q *Queue) Cancel(id ScheduleID) bool {
	if id == 0 {
		return false
	}
	for i := range q.pending {
		if q.pending[i].id == id {
			q.pending = append(q.pending[:i], q.pending[i+1:]...)
			return true
		}
	}
	return false
}

// Update advances the virtual clock by dt and dispatches every pending event
// whose deadline has been reached. The pending list is sorted, so this stops
// at the first still-future event.
func (q *Queue) Update(dt time.Duration) error {
	q.now += dt
	for len(q.pending) > 0 && q.pending[0].executeAt <= q.now {
		d := q.pending[0]
		q.pending = q.pending[1:]
		q.dispatch(d.ev)
	}
	return nil
}

// Clear drops all subscriptions and all pending delayed events. The virtual
// clock keeps its value.
func (q *Queue) Clear() {
	q.subs = make(map[Type][]subscriber)
	q.pending = nil
}

func (q *Queue) Destroy() error {
	q.Clear()
	return nil
}

// Pending returns the number of queued delayed events.
func (q *Queue) Pending() int { return len(q.pending) }

// Subscribers returns the subscriber count for t.
func (q *Queue) Subscribers(t Type) int { return len(q.subs[t]) }

// Dispatched returns the total number of events dispatched so far, delivered
// or discarded.
func (q *Queue) Dispatched() uint64 { return q.dispatched }

// Now returns the queue's virtual clock.
func (q *Queue) Now() time.Duration { return q.now }

func (q *Queue) dispatch(ev Event) {
	q.dispatched++
	// Snapshot: Unsubscribe builds a fresh slice, so handlers that mutate
	// subscriptions mid-dispatch cannot disturb this pass.
	subs := q.subs[ev.Type]
	for _, s := range subs {
		q.call(s.fn, ev)
	}
}

// call isolates one handler: a panic is logged and the remaining handlers,
// and all later queue processing, still run.
func (q *Queue) call(fn Handler, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			q.log.Error("event handler panic",
				zap.String("type", string(ev.Type)),
				zap.Any("panic", r))
		}
	}()
	fn(ev)
}
