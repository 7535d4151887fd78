package sparks

import (
	"math"
	"math/rand"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

type EmitterId = uuid.UUID

// Emitter seeds the instance/velocity pair the kernel operates on.
// Keep parameters minimal; can extend later.
type Emitter struct {
	Id    EmitterId
	Count int

	SpeedRange [2]float32 // viewport units/sec (min,max)
	SizeRange  [2]float32 // viewport units (min,max)
	ColorMin   [4]float32 // RGBA min (0..1)
	ColorMax   [4]float32 // RGBA max (0..1)

	rng *rand.Rand
}

func NewEmitter(count int) *Emitter {
	if count < 0 {
		count = 0
	}
	return &Emitter{
		Id:         uuid.New(),
		Count:      count,
		SpeedRange: [2]float32{0.1, 0.6},
		SizeRange:  [2]float32{0.01, 0.04},
		ColorMin:   [4]float32{0.2, 0.2, 0.2, 1.0},
		ColorMax:   [4]float32{1.0, 1.0, 1.0, 1.0},
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Seed makes subsequent Emit calls deterministic.
func (e *Emitter) Seed(seed int64) {
	e.rng = rand.New(rand.NewSource(seed))
}

func lerp(a, b, t float32) float32 { return a + (b-a)*t }

// Emit allocates and fills a fresh instance array and its parallel velocity
// array: positions uniform over the viewport, velocities in a random
// direction with speed sampled from SpeedRange.
func (e *Emitter) Emit() ([]Instance, []mgl32.Vec2) {
	instances := make([]Instance, e.Count)
	velocities := make([]mgl32.Vec2, e.Count)

	for i := range instances {
		angle := 2.0 * math.Pi * e.rng.Float64()
		speed := lerp(e.SpeedRange[0], e.SpeedRange[1], e.rng.Float32())
		velocities[i] = mgl32.Vec2{
			float32(math.Cos(angle)),
			float32(math.Sin(angle)),
		}.Mul(speed)

		size := lerp(e.SizeRange[0], e.SizeRange[1], e.rng.Float32())

		var c [4]float32
		for j := 0; j < 4; j++ {
			c[j] = lerp(e.ColorMin[j], e.ColorMax[j], e.rng.Float32())
		}

		instances[i] = Instance{
			Pos: mgl32.Vec2{
				lerp(BoundMin, BoundMax, e.rng.Float32()),
				lerp(BoundMin, BoundMax, e.rng.Float32()),
			},
			Size:  mgl32.Vec2{size, size},
			Color: c,
		}
	}
	return instances, velocities
}
