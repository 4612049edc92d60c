// Package particles implements a fire-and-forget particle emitter stepped
// alongside the physics world. Simulation is a dense array with swap-remove
// of dead particles; the projection pass that fills host vertex buffers is
// the one place the engine fans work out to goroutines, since it only reads
// already-stepped particles and every worker writes a disjoint output range.
package particles

import (
	"sync"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	minParallelCount = 1000
	maxWorkers       = 8
	nearPlaneW       = 0.1
)

// Particle is one point of the emitter's dense store
type Particle struct {
	Pos     mgl32.Vec3
	Vel     mgl32.Vec3
	Life    float32 // remaining life, 1 down to 0
	MaxLife float32 // initial life in seconds
	Size    float32
	Color   uint32
}

// Emitter owns a fixed-capacity particle array. Spawning past capacity is
// silently dropped.
type Emitter struct {
	particles []Particle
	active    int
	Gravity   mgl32.Vec3
}

// NewEmitter creates an emitter with room for maxParticles
func NewEmitter(maxParticles int, gravity mgl32.Vec3) *Emitter {
	return &Emitter{
		particles: make([]Particle, maxParticles),
		Gravity:   gravity,
	}
}

// Active returns the live particle count
func (e *Emitter) Active() int {
	return e.active
}

// Spawn adds one particle with full life. No-op at capacity.
func (e *Emitter) Spawn(pos, vel mgl32.Vec3, maxLife, size float32, color uint32) {
	if e.active >= len(e.particles) {
		return
	}
	e.particles[e.active] = Particle{
		Pos:     pos,
		Vel:     vel,
		Life:    1,
		MaxLife: maxLife,
		Size:    size,
		Color:   color,
	}
	e.active++
}

// Update integrates every particle and swap-removes the dead ones
func (e *Emitter) Update(dt float32) {
	for i := e.active - 1; i >= 0; i-- {
		p := &e.particles[i]

		p.Pos = p.Pos.Add(p.Vel.Mul(dt))
		p.Vel = p.Vel.Add(e.Gravity.Mul(dt))
		p.Life -= dt / p.MaxLife

		if p.Life <= 0 {
			e.active--
			if i < e.active {
				e.particles[i] = e.particles[e.active]
			}
		}
	}
}

type chunkWork struct {
	start, end int
	visible    []int
}

// FillVertexBuffer projects live particles through the column-major 4x4
// matrix m and writes one triangle (three xy vertices and three colors) per
// visible particle into the caller's buffers. Work is chunked over workers
// in two passes: pass one collects visibility per chunk, a prefix sum
// assigns each chunk its disjoint output range, pass two writes the
// geometry. Returns the number of triangles written.
func (e *Emitter) FillVertexBuffer(m *[16]float32, vertices []float32, colors []uint32, maxCount, workers int) int {
	total := min(e.active, maxCount)
	if total <= 0 {
		return 0
	}

	workers = min(max(workers, 1), maxWorkers)
	if total < minParallelCount {
		workers = 1
	}

	works := make([]chunkWork, workers)
	chunkSize := total / workers

	var wg sync.WaitGroup
	for t := 0; t < workers; t++ {
		works[t].start = t * chunkSize
		works[t].end = (t + 1) * chunkSize
		if t == workers-1 {
			works[t].end = total
		}
		wg.Add(1)
		go func(work *chunkWork) {
			defer wg.Done()
			e.cullChunk(m, work)
		}(&works[t])
	}
	wg.Wait()

	// Prefix-sum the per-chunk counts into disjoint output offsets
	totalVisible := 0
	offsets := make([]int, workers)
	for t := range works {
		offsets[t] = totalVisible
		totalVisible += len(works[t].visible)
	}
	if totalVisible == 0 {
		return 0
	}

	for t := 0; t < workers; t++ {
		if len(works[t].visible) == 0 {
			continue
		}
		wg.Add(1)
		go func(work *chunkWork, offset int) {
			defer wg.Done()
			e.projectChunk(m, vertices, colors, work, offset)
		}(&works[t], offsets[t])
	}
	wg.Wait()

	return totalVisible
}

func (e *Emitter) cullChunk(m *[16]float32, work *chunkWork) {
	work.visible = work.visible[:0]
	for i := work.start; i < work.end; i++ {
		p := &e.particles[i]
		wz := p.Pos.X()*m[3] + p.Pos.Y()*m[7] + p.Pos.Z()*m[11] + m[15]
		if wz >= nearPlaneW {
			work.visible = append(work.visible, i)
		}
	}
}

func (e *Emitter) projectChunk(m *[16]float32, vertices []float32, colors []uint32, work *chunkWork, offset int) {
	vPtr := offset * 3 * 2
	cPtr := offset * 3

	for _, idx := range work.visible {
		p := &e.particles[idx]
		wz := p.Pos.X()*m[3] + p.Pos.Y()*m[7] + p.Pos.Z()*m[11] + m[15]
		invW := 1 / wz
		screenX := (p.Pos.X()*m[0] + p.Pos.Y()*m[4] + p.Pos.Z()*m[8] + m[12]) * invW
		screenY := (p.Pos.X()*m[1] + p.Pos.Y()*m[5] + p.Pos.Z()*m[9] + m[13]) * invW

		halfSize := p.Size * p.Life * invW * 500
		halfSize = min(max(halfSize, 0.5), 50)

		vertices[vPtr] = screenX
		vertices[vPtr+1] = screenY - halfSize
		vertices[vPtr+2] = screenX - halfSize
		vertices[vPtr+3] = screenY + halfSize
		vertices[vPtr+4] = screenX + halfSize
		vertices[vPtr+5] = screenY + halfSize
		vPtr += 6

		alpha := uint32(p.Life * 255)
		col := (p.Color & 0x00FFFFFF) | (alpha << 24)
		colors[cPtr] = col
		colors[cPtr+1] = col
		colors[cPtr+2] = col
		cPtr += 3
	}
}
