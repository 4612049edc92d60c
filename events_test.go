package flash

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/smit-ai/flash-engine/body"
)

func awakeBodies(n int) []body.Body {
	bodies := make([]body.Body, n)
	for i := range bodies {
		bodies[i] = body.New(int32(i), body.Dynamic, body.NewCircle(1), mgl32.Vec2{}, 0, body.DefaultFilter())
	}
	return bodies
}

func collect(events *Events, types ...EventType) *[]Event {
	got := &[]Event{}
	for _, et := range types {
		events.Subscribe(et, func(e Event) {
			*got = append(*got, e)
		})
	}
	return got
}

func TestCollisionEnterStayExit(t *testing.T) {
	events := NewEvents()
	bodies := awakeBodies(2)
	got := collect(&events, COLLISION_ENTER, COLLISION_STAY, COLLISION_EXIT)

	pair := Pair{A: 0, B: 1}

	// Frame 1: new pair -> enter
	events.recordPair(pair, false)
	events.flush(bodies)
	if len(*got) != 1 {
		t.Fatalf("after frame 1: %d events, want 1", len(*got))
	}
	if (*got)[0].Type() != COLLISION_ENTER {
		t.Errorf("event = %v, want COLLISION_ENTER", (*got)[0].Type())
	}

	// Frame 2: still active -> stay
	*got = (*got)[:0]
	events.recordPair(pair, false)
	events.flush(bodies)
	if len(*got) != 1 || (*got)[0].Type() != COLLISION_STAY {
		t.Fatalf("after frame 2: got %v, want one COLLISION_STAY", *got)
	}

	// Frame 3: gone -> exit
	*got = (*got)[:0]
	events.flush(bodies)
	if len(*got) != 1 || (*got)[0].Type() != COLLISION_EXIT {
		t.Fatalf("after frame 3: got %v, want one COLLISION_EXIT", *got)
	}

	exit := (*got)[0].(CollisionExitEvent)
	if exit.BodyA != 0 || exit.BodyB != 1 {
		t.Errorf("exit pair = (%d, %d), want (0, 1)", exit.BodyA, exit.BodyB)
	}
}

func TestTriggerEventsSeparateFromCollisions(t *testing.T) {
	events := NewEvents()
	bodies := awakeBodies(2)
	triggers := collect(&events, TRIGGER_ENTER)
	collisions := collect(&events, COLLISION_ENTER)

	events.recordPair(Pair{A: 0, B: 1}, true)
	events.flush(bodies)

	if len(*triggers) != 1 {
		t.Errorf("trigger events = %d, want 1", len(*triggers))
	}
	if len(*collisions) != 0 {
		t.Errorf("collision events = %d, want 0 for a trigger pair", len(*collisions))
	}
}

func TestSleepingPairSuppressed(t *testing.T) {
	events := NewEvents()
	bodies := awakeBodies(2)
	bodies[0].Awake = false
	bodies[1].Awake = false
	got := collect(&events, COLLISION_ENTER, COLLISION_STAY)

	events.recordPair(Pair{A: 0, B: 1}, false)
	events.flush(bodies)

	if len(*got) != 0 {
		t.Errorf("events for a fully sleeping pair = %d, want 0", len(*got))
	}
}

func TestSleepWakeEvents(t *testing.T) {
	events := NewEvents()
	bodies := awakeBodies(1)
	got := collect(&events, ON_SLEEP, ON_WAKE)

	// First sight registers the state without an event
	events.processSleepEvents(bodies)
	events.flush(bodies)
	if len(*got) != 0 {
		t.Fatalf("initial observation produced %d events, want 0", len(*got))
	}

	bodies[0].Awake = false
	events.processSleepEvents(bodies)
	events.flush(bodies)
	if len(*got) != 1 || (*got)[0].Type() != ON_SLEEP {
		t.Fatalf("got %v, want one ON_SLEEP", *got)
	}

	*got = (*got)[:0]
	bodies[0].Awake = true
	events.processSleepEvents(bodies)
	events.flush(bodies)
	if len(*got) != 1 || (*got)[0].Type() != ON_WAKE {
		t.Fatalf("got %v, want one ON_WAKE", *got)
	}
}

func TestUnsubscribedTypeIgnored(t *testing.T) {
	events := NewEvents()
	bodies := awakeBodies(2)
	got := collect(&events, TRIGGER_EXIT)

	events.recordPair(Pair{A: 0, B: 1}, false)
	events.flush(bodies)

	if len(*got) != 0 {
		t.Errorf("listener for an unrelated type received %d events", len(*got))
	}
}

func TestWorldDeliversCollisionEvents(t *testing.T) {
	w := NewWorld(8)
	w.CreateBody(body.Static, body.NewBox(400, 20), 0, -10, 0)
	w.CreateBody(body.Dynamic, body.NewCircle(10), 0, 9, 0)

	var entered int
	w.Events.Subscribe(COLLISION_ENTER, func(e Event) {
		entered++
	})

	w.Step(testDT)
	if entered != 1 {
		t.Errorf("COLLISION_ENTER delivered %d times, want 1", entered)
	}
}
