package flash

import "github.com/smit-ai/flash-engine/body"

const (
	TRIGGER_ENTER EventType = iota
	COLLISION_ENTER
	TRIGGER_STAY
	COLLISION_STAY
	TRIGGER_EXIT
	COLLISION_EXIT
	ON_SLEEP
	ON_WAKE
)

type EventType uint8

// Event interface - all events implement this
type Event interface {
	Type() EventType
}

// Trigger events fire for overlaps involving a sensor body; no constraint is
// solved for these pairs
type TriggerEnterEvent struct {
	BodyA int32
	BodyB int32
}

func (e TriggerEnterEvent) Type() EventType { return TRIGGER_ENTER }

type TriggerStayEvent struct {
	BodyA int32
	BodyB int32
}

func (e TriggerStayEvent) Type() EventType { return TRIGGER_STAY }

type TriggerExitEvent struct {
	BodyA int32
	BodyB int32
}

func (e TriggerExitEvent) Type() EventType { return TRIGGER_EXIT }

// Collision events fire for solid contacts
type CollisionEnterEvent struct {
	BodyA int32
	BodyB int32
}

func (e CollisionEnterEvent) Type() EventType { return COLLISION_ENTER }

type CollisionStayEvent struct {
	BodyA int32
	BodyB int32
}

func (e CollisionStayEvent) Type() EventType { return COLLISION_STAY }

type CollisionExitEvent struct {
	BodyA int32
	BodyB int32
}

func (e CollisionExitEvent) Type() EventType { return COLLISION_EXIT }

// Sleep/Wake events
type SleepEvent struct {
	Body int32
}

func (e SleepEvent) Type() EventType { return ON_SLEEP }

type WakeEvent struct {
	Body int32
}

func (e WakeEvent) Type() EventType { return ON_WAKE }

// EventListener - callback for events
type EventListener func(event Event)

// Events buffers collision, trigger and sleep transitions during a step and
// delivers them at flush, never from inside solver loops.
type Events struct {
	// Listeners by event type
	listeners map[EventType][]EventListener

	// Event buffer to send at flush
	buffer []Event

	// Pair tracking for Enter/Stay/Exit detection; the value marks trigger
	// pairs
	previousActivePairs map[Pair]bool
	currentActivePairs  map[Pair]bool

	sleepStates map[int32]bool
}

func NewEvents() Events {
	return Events{
		listeners:           make(map[EventType][]EventListener),
		buffer:              make([]Event, 0, 256),
		previousActivePairs: make(map[Pair]bool),
		currentActivePairs:  make(map[Pair]bool),
		sleepStates:         make(map[int32]bool),
	}
}

// Subscribe adds a listener for an event type
func (e *Events) Subscribe(eventType EventType, listener EventListener) {
	e.listeners[eventType] = append(e.listeners[eventType], listener)
}

// recordPair marks a pair active for this step
func (e *Events) recordPair(pair Pair, isTrigger bool) {
	e.currentActivePairs[pair] = isTrigger
}

// processCollisionEvents compares current and previous pairs to detect
// Enter/Stay/Exit transitions
func (e *Events) processCollisionEvents(bodies []body.Body) {
	for pair, isTrigger := range e.currentActivePairs {
		// Skip if both bodies are sleeping, to avoid spamming events
		if !bodies[pair.A].Awake && !bodies[pair.B].Awake {
			continue
		}

		if _, active := e.previousActivePairs[pair]; active {
			if isTrigger {
				e.buffer = append(e.buffer, TriggerStayEvent{BodyA: pair.A, BodyB: pair.B})
			} else {
				e.buffer = append(e.buffer, CollisionStayEvent{BodyA: pair.A, BodyB: pair.B})
			}
		} else {
			if isTrigger {
				e.buffer = append(e.buffer, TriggerEnterEvent{BodyA: pair.A, BodyB: pair.B})
			} else {
				e.buffer = append(e.buffer, CollisionEnterEvent{BodyA: pair.A, BodyB: pair.B})
			}
		}
	}

	for pair, isTrigger := range e.previousActivePairs {
		if _, active := e.currentActivePairs[pair]; !active {
			if isTrigger {
				e.buffer = append(e.buffer, TriggerExitEvent{BodyA: pair.A, BodyB: pair.B})
			} else {
				e.buffer = append(e.buffer, CollisionExitEvent{BodyA: pair.A, BodyB: pair.B})
			}
		}
	}

	// Swap for next frame and clear current
	e.previousActivePairs, e.currentActivePairs = e.currentActivePairs, e.previousActivePairs
	clear(e.currentActivePairs)
}

func (e *Events) processSleepEvents(bodies []body.Body) {
	for i := range bodies {
		b := &bodies[i]
		trackedAwake, exists := e.sleepStates[b.ID]
		if !exists {
			e.sleepStates[b.ID] = b.Awake
			continue
		}

		if trackedAwake && !b.Awake {
			e.buffer = append(e.buffer, SleepEvent{Body: b.ID})
			e.sleepStates[b.ID] = false
		} else if !trackedAwake && b.Awake {
			e.buffer = append(e.buffer, WakeEvent{Body: b.ID})
			e.sleepStates[b.ID] = true
		}
	}
}

// flush sends all buffered events and clears the buffer
func (e *Events) flush(bodies []body.Body) {
	e.processCollisionEvents(bodies)

	for _, event := range e.buffer {
		if listeners, ok := e.listeners[event.Type()]; ok {
			for _, listener := range listeners {
				listener(event)
			}
		}
	}
	e.buffer = e.buffer[:0]
}
