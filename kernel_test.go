package sparks

import (
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinearIndex(t *testing.T) {
	assert.Equal(t, uint32(6), LinearIndex([3]uint32{2, 1, 0}, 4))
	assert.Equal(t, uint32(0), LinearIndex([3]uint32{0, 0, 0}, 4))
	assert.Equal(t, uint32(7), LinearIndex([3]uint32{7, 0, 5}, 4)) // z is ignored
}

func TestIntegrate_FreeFlight(t *testing.T) {
	instances := []Instance{
		{Pos: mgl32.Vec2{0.5, -0.25}, Size: mgl32.Vec2{0.01, 0.01}, Color: [4]float32{1, 0, 0, 1}},
	}
	velocities := []mgl32.Vec2{{0.5, -0.5}}

	Integrate([3]uint32{0, 0, 0}, Params{BatchSize: 1, Delta: 0.5}, instances, velocities)

	assert.Equal(t, mgl32.Vec2{0.75, -0.5}, instances[0].Pos)
	assert.Equal(t, mgl32.Vec2{0.5, -0.5}, velocities[0], "in-bounds step must not reflect")
	assert.Equal(t, mgl32.Vec2{0.01, 0.01}, instances[0].Size)
	assert.Equal(t, [4]float32{1, 0, 0, 1}, instances[0].Color)
}

func TestIntegrate_ReflectsUpperBound(t *testing.T) {
	instances := []Instance{{Pos: mgl32.Vec2{0.95, 0.0}}}
	velocities := []mgl32.Vec2{{1.0, 0.0}}

	Integrate([3]uint32{0, 0, 0}, Params{BatchSize: 1, Delta: 0.1}, instances, velocities)

	assert.Equal(t, mgl32.Vec2{1.0, 0.0}, instances[0].Pos)
	assert.Equal(t, mgl32.Vec2{-1.0, 0.0}, velocities[0])
}

func TestIntegrate_ReflectsLowerBoundBothAxes(t *testing.T) {
	instances := []Instance{{Pos: mgl32.Vec2{-1.0, -1.0}}}
	velocities := []mgl32.Vec2{{-2.0, -2.0}}

	Integrate([3]uint32{0, 0, 0}, Params{BatchSize: 1, Delta: 1.0}, instances, velocities)

	assert.Equal(t, mgl32.Vec2{-1.0, -1.0}, instances[0].Pos)
	assert.Equal(t, mgl32.Vec2{2.0, 2.0}, velocities[0])
}

func TestIntegrate_ZeroDeltaIdempotent(t *testing.T) {
	instances := []Instance{{Pos: mgl32.Vec2{0.3, -0.7}}}
	velocities := []mgl32.Vec2{{5.0, -3.0}}

	for i := 0; i < 2; i++ {
		Integrate([3]uint32{0, 0, 0}, Params{BatchSize: 1, Delta: 0}, instances, velocities)
		require.Equal(t, mgl32.Vec2{0.3, -0.7}, instances[0].Pos)
		require.Equal(t, mgl32.Vec2{5.0, -3.0}, velocities[0])
	}
}

func TestIntegrate_OutOfRangeIsNoop(t *testing.T) {
	instances := []Instance{{Pos: mgl32.Vec2{0.1, 0.2}}, {Pos: mgl32.Vec2{0.3, 0.4}}}
	velocities := []mgl32.Vec2{{1, 1}, {1, 1}}

	// index == len and index > len both fall outside the arrays
	Integrate([3]uint32{2, 0, 0}, Params{BatchSize: 2, Delta: 1.0}, instances, velocities)
	Integrate([3]uint32{1, 3, 0}, Params{BatchSize: 2, Delta: 1.0}, instances, velocities)

	assert.Equal(t, mgl32.Vec2{0.1, 0.2}, instances[0].Pos)
	assert.Equal(t, mgl32.Vec2{0.3, 0.4}, instances[1].Pos)
	assert.Equal(t, mgl32.Vec2{1, 1}, velocities[0])
	assert.Equal(t, mgl32.Vec2{1, 1}, velocities[1])
}

func TestIntegrate_IndexIsolation(t *testing.T) {
	instances := []Instance{
		{Pos: mgl32.Vec2{0.1, 0.1}},
		{Pos: mgl32.Vec2{0.2, 0.2}},
		{Pos: mgl32.Vec2{0.3, 0.3}},
	}
	velocities := []mgl32.Vec2{{1, 0}, {0, 1}, {1, 1}}

	// coordinate (1,0) with batch 3 addresses particle 1 only
	Integrate([3]uint32{1, 0, 0}, Params{BatchSize: 3, Delta: 0.1}, instances, velocities)

	assert.Equal(t, mgl32.Vec2{0.1, 0.1}, instances[0].Pos)
	assert.Equal(t, mgl32.Vec2{0.3, 0.3}, instances[2].Pos)
	assert.Equal(t, mgl32.Vec2{1, 0}, velocities[0])
	assert.Equal(t, mgl32.Vec2{1, 1}, velocities[2])
	assert.NotEqual(t, mgl32.Vec2{0.2, 0.2}, instances[1].Pos)
}

func TestIntegrate_PositionAlwaysInBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 1000; i++ {
		instances := []Instance{{Pos: mgl32.Vec2{
			rng.Float32()*4 - 2,
			rng.Float32()*4 - 2,
		}}}
		velocities := []mgl32.Vec2{{
			rng.Float32()*20 - 10,
			rng.Float32()*20 - 10,
		}}
		delta := rng.Float32() * 2

		Integrate([3]uint32{0, 0, 0}, Params{BatchSize: 1, Delta: delta}, instances, velocities)

		for axis := 0; axis < 2; axis++ {
			if instances[0].Pos[axis] < BoundMin || instances[0].Pos[axis] > BoundMax {
				t.Fatalf("iteration %d: axis %d out of bounds: %f", i, axis, instances[0].Pos[axis])
			}
		}
	}
}
