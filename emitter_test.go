package sparks

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmitter_SeedsWithinRanges(t *testing.T) {
	em := NewEmitter(256)
	em.SpeedRange = [2]float32{0.2, 0.4}
	em.SizeRange = [2]float32{0.01, 0.02}
	em.ColorMin = [4]float32{0.1, 0.2, 0.3, 1.0}
	em.ColorMax = [4]float32{0.5, 0.6, 0.7, 1.0}
	em.Seed(1)

	instances, velocities := em.Emit()
	require.Len(t, instances, 256)
	require.Len(t, velocities, 256)

	const eps = 1e-4
	for i := range instances {
		for axis := 0; axis < 2; axis++ {
			assert.GreaterOrEqual(t, instances[i].Pos[axis], BoundMin)
			assert.LessOrEqual(t, instances[i].Pos[axis], BoundMax)
		}
		assert.InDelta(t, instances[i].Size[0], instances[i].Size[1], eps, "square sprites")
		assert.GreaterOrEqual(t, instances[i].Size[0], float32(0.01))
		assert.LessOrEqual(t, instances[i].Size[0], float32(0.02))

		for j := 0; j < 4; j++ {
			assert.GreaterOrEqual(t, instances[i].Color[j], em.ColorMin[j])
			assert.LessOrEqual(t, instances[i].Color[j], em.ColorMax[j])
		}

		speed := math.Sqrt(float64(velocities[i][0]*velocities[i][0] + velocities[i][1]*velocities[i][1]))
		assert.InDelta(t, speed, 0.3, 0.1+eps, "speed within [0.2, 0.4]")
	}
}

func TestEmitter_DeterministicUnderSeed(t *testing.T) {
	a := NewEmitter(64)
	b := NewEmitter(64)
	a.Seed(99)
	b.Seed(99)

	ai, av := a.Emit()
	bi, bv := b.Emit()

	assert.Equal(t, ai, bi)
	assert.Equal(t, av, bv)
	assert.NotEqual(t, a.Id, b.Id, "each emitter gets its own id")
}

func TestEmitter_ZeroCount(t *testing.T) {
	em := NewEmitter(0)
	instances, velocities := em.Emit()
	assert.Empty(t, instances)
	assert.Empty(t, velocities)

	em = NewEmitter(-5)
	instances, velocities = em.Emit()
	assert.Empty(t, instances)
	assert.Empty(t, velocities)
}
