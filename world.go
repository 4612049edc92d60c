package flash

import (
	"github.com/charmbracelet/log"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/smit-ai/flash-engine/body"
	"github.com/smit-ai/flash-engine/constraint"
	"github.com/smit-ai/flash-engine/softbody"
)

const DEFAULT_WORKERS = 1

// InvalidID is the sentinel returned by creation operations at capacity and
// carried by missed raycasts
const InvalidID int32 = -1

const (
	maxSoftBodies      = 32
	positionSlop       = 0.01
	baumgarte          = 0.2
	softBodyWorldBound = 1000
)

// StepStats are per-step counters collected inside the pipeline and only
// ever reported outside of it
type StepStats struct {
	Pairs          int
	Contacts       int
	Triggers       int
	SoftContacts   int
	PairsSaturated bool
}

// World owns all body, constraint and cache storage. It is not safe for
// concurrent mutation; the host reads state between steps and mutates only
// through the boundary operations.
type World struct {
	bodies     []body.Body
	capacity   int
	config     Config
	broadphase Broadphase

	gravity mgl32.Vec2

	constraints []constraint.Contact
	cache       constraint.ImpulseCache
	joints      []constraint.Constraint

	softBodies   []*softbody.SoftBody
	softContacts []int

	pairBuf []Pair

	Events  Events
	Workers int

	// Logger, when set, receives one structured line per step. Never
	// written to inside the per-body loops.
	Logger *log.Logger

	stats StepStats
}

// NewWorld creates a world with the default configuration
func NewWorld(capacity int) *World {
	return NewWorldWithConfig(capacity, DefaultConfig())
}

// NewWorldWithConfig creates a world holding at most capacity bodies.
// Storage is sized once here; nothing grows mid-step.
func NewWorldWithConfig(capacity int, cfg Config) *World {
	w := &World{
		bodies:       make([]body.Body, 0, capacity),
		capacity:     capacity,
		config:       cfg,
		gravity:      mgl32.Vec2{cfg.GravityX, cfg.GravityY},
		constraints:  make([]constraint.Contact, 0, capacity*4),
		cache:        make(constraint.ImpulseCache),
		softBodies:   make([]*softbody.SoftBody, 0, maxSoftBodies),
		softContacts: make([]int, maxSoftBodies),
		pairBuf:      make([]Pair, capacity*8),
		Events:       NewEvents(),
		Workers:      DEFAULT_WORKERS,
	}

	if cfg.Broadphase == BroadphaseGrid {
		w.broadphase = NewSpatialGrid(cfg.GridCellSize, capacity*4)
	} else {
		w.broadphase = NewDynamicTree(capacity)
	}

	return w
}

// CreateBody adds a body colliding with everything. Returns InvalidID at
// capacity.
func (w *World) CreateBody(kind body.Kind, shape body.Shape, x, y, rotation float32) int32 {
	return w.CreateBodyWithFilter(kind, shape, x, y, rotation, body.DefaultFilter())
}

// CreateBodyWithFilter adds a body with explicit collision filter bits
func (w *World) CreateBodyWithFilter(kind body.Kind, shape body.Shape, x, y, rotation float32, filter body.Filter) int32 {
	if len(w.bodies) >= w.capacity {
		return InvalidID
	}

	id := int32(len(w.bodies))
	b := body.New(id, kind, shape, mgl32.Vec2{x, y}, rotation, filter)
	b.Proxy = w.broadphase.CreateProxy(id, b.AABB())
	w.bodies = append(w.bodies, b)
	return id
}

// Body returns the body for an id, or nil when the id is invalid. The host
// may read pose and velocity between steps; mutation goes through the
// boundary operations.
func (w *World) Body(id int32) *body.Body {
	if id < 0 || int(id) >= len(w.bodies) {
		return nil
	}
	return &w.bodies[id]
}

// Position returns a body's position, or zeros for an invalid id
func (w *World) Position(id int32) (x, y float32) {
	b := w.Body(id)
	if b == nil {
		return 0, 0
	}
	return b.Position.X(), b.Position.Y()
}

// ApplyForce accumulates a force on a body and wakes it. No-op on an
// invalid id.
func (w *World) ApplyForce(id int32, fx, fy float32) {
	if b := w.Body(id); b != nil {
		b.AddForce(fx, fy)
	}
}

// ApplyTorque accumulates a torque on a body and wakes it
func (w *World) ApplyTorque(id int32, torque float32) {
	if b := w.Body(id); b != nil {
		b.AddTorque(torque)
	}
}

// SetVelocity overwrites a body's linear velocity and wakes it
func (w *World) SetVelocity(id int32, vx, vy float32) {
	if b := w.Body(id); b != nil {
		b.SetVelocity(vx, vy)
	}
}

// AddJoint registers a constraint solved alongside the contacts. Concrete
// joints live outside this module; anything satisfying the interface plugs
// in.
func (w *World) AddJoint(j constraint.Constraint) {
	w.joints = append(w.joints, j)
}

// CreateSoftBody adds a soft body from an explicit point ring. Returns
// InvalidID at capacity or for a degenerate ring.
func (w *World) CreateSoftBody(xs, ys []float32, pressure, stiffness float32) int32 {
	if len(w.softBodies) >= maxSoftBodies || len(xs) < 3 || len(xs) != len(ys) {
		return InvalidID
	}
	id := int32(len(w.softBodies))
	w.softBodies = append(w.softBodies, softbody.New(id, xs, ys, pressure, stiffness))
	return id
}

// SoftBody returns a soft body by id, or nil when the id is invalid
func (w *World) SoftBody(id int32) *softbody.SoftBody {
	if id < 0 || int(id) >= len(w.softBodies) {
		return nil
	}
	return w.softBodies[id]
}

// SoftBodyPoint reads one point's position; zeros for invalid ids
func (w *World) SoftBodyPoint(id int32, index int) (x, y float32) {
	sb := w.SoftBody(id)
	if sb == nil || index < 0 || index >= len(sb.Points) {
		return 0, 0
	}
	return sb.Points[index].Pos.X(), sb.Points[index].Pos.Y()
}

// SetSoftBodyPoint teleports one point, zeroing its velocity
func (w *World) SetSoftBodyPoint(id int32, index int, x, y float32) {
	if sb := w.SoftBody(id); sb != nil {
		sb.SetPoint(index, x, y)
	}
}

// Stats returns the counters of the last step
func (w *World) Stats() StepStats {
	return w.stats
}

// Step advances the simulation by dt seconds. The phases run strictly in
// order: integrate forces, build constraints, warm start, velocity
// iterations, integrate positions, position correction. A non-positive dt is
// a no-op.
func (w *World) Step(dt float32) {
	if dt <= 0 {
		return
	}
	w.Workers = max(DEFAULT_WORKERS, w.Workers)
	w.stats = StepStats{}

	w.stepSoftBodies(dt)

	if len(w.bodies) == 0 {
		return
	}

	w.integrateForces(dt)
	w.updateBroadphase()
	w.buildConstraints(dt)

	if w.config.WarmStarting {
		w.warmStart()
	}
	w.solveVelocity(dt)
	w.storeImpulses()

	w.integratePositions(dt)
	w.correctPositions(dt)

	w.Events.processSleepEvents(w.bodies)
	w.Events.flush(w.bodies)

	if w.Logger != nil {
		w.Logger.Debug("step",
			"pairs", w.stats.Pairs,
			"contacts", w.stats.Contacts,
			"triggers", w.stats.Triggers,
			"soft_contacts", w.stats.SoftContacts,
			"saturated", w.stats.PairsSaturated,
		)
	}
}

// stepSoftBodies runs each soft body independently; the rigid store is only
// read. Contact counts land in disjoint slots, summed afterwards.
func (w *World) stepSoftBodies(dt float32) {
	if len(w.softBodies) == 0 {
		return
	}

	bounds := body.AABB{
		Min: mgl32.Vec2{-softBodyWorldBound, -softBodyWorldBound},
		Max: mgl32.Vec2{softBodyWorldBound, softBodyWorldBound},
	}

	task(w.Workers, w.softBodies, func(sb *softbody.SoftBody) {
		w.softContacts[sb.ID] = sb.Step(dt, w.gravity, w.bodies, bounds)
	})

	for _, n := range w.softContacts[:len(w.softBodies)] {
		w.stats.SoftContacts += n
	}
}

func (w *World) integrateForces(dt float32) {
	for i := range w.bodies {
		w.bodies[i].CollisionCount = 0
		w.bodies[i].IntegrateForces(dt, w.gravity, w.config.MaxLinearVelocity)
	}
}

func (w *World) updateBroadphase() {
	for i := range w.bodies {
		b := &w.bodies[i]
		if b.Kind == body.Static {
			continue
		}
		b.Proxy = w.broadphase.MoveProxy(b.Proxy, b.AABB())
	}
}

// buildConstraints runs the narrow phase over the candidate pairs and turns
// true contacts into solver constraints; sensor overlaps become trigger
// events instead
func (w *World) buildConstraints(dt float32) {
	pairCount := w.broadphase.QueryPairs(w.pairBuf)
	w.stats.Pairs = pairCount
	w.stats.PairsSaturated = pairCount == len(w.pairBuf)

	softness := constraint.NewSoftness(w.config.ContactHertz, w.config.ContactDampingRatio, dt)

	w.constraints = w.constraints[:0]
	for _, pair := range w.pairBuf[:pairCount] {
		a := &w.bodies[pair.A]
		b := &w.bodies[pair.B]

		if a.Kind == body.Static && b.Kind == body.Static {
			continue
		}
		if !a.Filter.ShouldCollide(b.Filter) {
			continue
		}

		m := Collide(a, b)
		if !m.Colliding {
			continue
		}

		if a.Sensor || b.Sensor {
			w.Events.recordPair(pair, true)
			w.stats.Triggers++
			continue
		}

		if len(w.constraints) == cap(w.constraints) {
			break
		}

		c := constraint.Contact{
			BodyA:    pair.A,
			BodyB:    pair.B,
			Normal:   m.Normal,
			Friction: constraint.MixFriction(a.Material, b.Material),
			Softness: softness,
		}

		// Restitution only past the approach-velocity threshold, so
		// resting contacts do not buzz
		closingSpeed := b.Velocity.Sub(a.Velocity).Dot(m.Normal)
		if closingSpeed < -w.config.RestitutionThreshold {
			c.Restitution = constraint.MixRestitution(a.Material, b.Material)
		}

		c.PointCount = m.PointCount
		for j := 0; j < m.PointCount; j++ {
			c.InitPoint(j, m.Points[j], m.Penetration, a, b)
		}

		a.CollisionCount++
		b.CollisionCount++
		w.Events.recordPair(pair, false)
		w.constraints = append(w.constraints, c)
	}
	w.stats.Contacts = len(w.constraints)
}

func (w *World) warmStart() {
	for i := range w.constraints {
		c := &w.constraints[i]
		c.WarmStart(&w.bodies[c.BodyA], &w.bodies[c.BodyB], w.cache)
	}
}

// solveVelocity runs the sequential-impulse iterations. The loop is
// inherently ordered: every impulse depends on the one before it, so this
// never runs on more than one goroutine.
func (w *World) solveVelocity(dt float32) {
	for iter := 0; iter < w.config.VelocityIterations; iter++ {
		for i := range w.constraints {
			c := &w.constraints[i]
			a := &w.bodies[c.BodyA]
			b := &w.bodies[c.BodyB]
			if !a.Awake && !b.Awake {
				continue
			}

			// An active constraint with an awake partner keeps both awake
			a.Awake, b.Awake = true, true
			a.SleepTime, b.SleepTime = 0, 0

			c.SolveVelocity(a, b)
		}
		for _, j := range w.joints {
			j.SolveVelocity(dt)
		}
	}
}

func (w *World) storeImpulses() {
	if !w.config.WarmStarting {
		return
	}
	for i := range w.constraints {
		w.constraints[i].StoreImpulses(w.cache)
	}
}

func (w *World) integratePositions(dt float32) {
	for i := range w.bodies {
		w.bodies[i].IntegratePosition(dt)
	}
}

// correctPositions removes the residual penetration the soft velocity bias
// intentionally leaves behind. The narrow phase is re-run against the
// corrected poses on every iteration; that re-evaluation is required, not a
// caching opportunity.
func (w *World) correctPositions(dt float32) {
	for iter := 0; iter < w.config.PositionIterations; iter++ {
		for i := range w.constraints {
			c := &w.constraints[i]
			a := &w.bodies[c.BodyA]
			b := &w.bodies[c.BodyB]
			if !a.Awake && !b.Awake {
				continue
			}

			m := Collide(a, b)
			if !m.Colliding {
				continue
			}

			correction := max(m.Penetration-positionSlop, 0) * baumgarte
			if correction <= 0 {
				continue
			}

			perPoint := correction / float32(m.PointCount)
			for j := 0; j < m.PointCount; j++ {
				ra := m.Points[j].Sub(a.Position)
				rb := m.Points[j].Sub(b.Position)
				raN := body.Cross(ra, m.Normal)
				rbN := body.Cross(rb, m.Normal)

				k := a.SolverInvMass() + b.SolverInvMass() +
					raN*raN*a.SolverInvInertia() + rbN*rbN*b.SolverInvInertia()
				if k <= 1e-6 {
					continue
				}

				impulse := perPoint / k
				push := m.Normal.Mul(impulse)

				a.Position = a.Position.Sub(push.Mul(a.SolverInvMass()))
				a.Rotation -= raN * impulse * a.SolverInvInertia()
				b.Position = b.Position.Add(push.Mul(b.SolverInvMass()))
				b.Rotation += rbN * impulse * b.SolverInvInertia()
			}
		}
		for _, j := range w.joints {
			j.SolvePosition(dt)
		}
	}
}
