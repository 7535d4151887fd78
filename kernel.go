package sparks

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Viewport bounds of the simulation, applied to both axes.
const (
	BoundMin float32 = -1.0
	BoundMax float32 = 1.0
)

// Instance matches WGSL layout in gpu/shaders/integrate.wgsl
// struct Instance { pos: vec2f, size: vec2f, color: vec4f }
type Instance struct {
	Pos   mgl32.Vec2
	Size  mgl32.Vec2
	Color [4]float32
}

// Params is the per-dispatch configuration. BatchSize is the number of
// particles addressed per row of the launch grid; Delta is the time step
// for this tick in seconds. The kernel does not validate either value,
// configuration sanity is the host's job.
type Params struct {
	BatchSize uint32
	Delta     float32
}

// LinearIndex flattens a launch-grid coordinate into a 1D particle index.
// Only the first two components of the coordinate are used.
func LinearIndex(coord [3]uint32, batchSize uint32) uint32 {
	return coord[0] + batchSize*coord[1]
}

// Integrate is one invocation of the particle integrator kernel: it advances
// at most one particle by velocity*delta and reflects it off the viewport
// bounds, or does nothing when the invocation falls outside the particle
// count. Both slices are mutated in place and must be indexed identically;
// no slot other than the addressed one is touched.
func Integrate(coord [3]uint32, p Params, instances []Instance, velocities []mgl32.Vec2) {
	idx := LinearIndex(coord, p.BatchSize)
	if idx >= uint32(len(instances)) {
		return
	}

	inst := &instances[idx]
	vel := &velocities[idx]

	for axis := 0; axis < 2; axis++ {
		next := inst.Pos[axis] + vel[axis]*p.Delta
		if next < BoundMin {
			next = BoundMin
			vel[axis] = -vel[axis]
		} else if next > BoundMax {
			next = BoundMax
			vel[axis] = -vel[axis]
		}
		inst.Pos[axis] = next
	}
}
