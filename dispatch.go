package sparks

import (
	"runtime"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
)

// Grid is the launch extent of one dispatch: X invocations per row,
// Y rows. The flattened coordinate space combined with Params.BatchSize
// must cover every particle index at least once, exactly once if the
// caller wants the update to be race-free.
type Grid struct {
	X uint32
	Y uint32
}

// GridFor returns the smallest grid covering count particles with rows of
// batchSize. The last row may overcover; the kernel's bounds check turns
// the excess invocations into no-ops.
func GridFor(count int, batchSize uint32) Grid {
	if count <= 0 || batchSize == 0 {
		return Grid{}
	}
	rows := (uint32(count) + batchSize - 1) / batchSize
	return Grid{X: batchSize, Y: rows}
}

// Invocations is the total thread count of the grid.
func (g Grid) Invocations() uint64 {
	return uint64(g.X) * uint64(g.Y)
}

// Dispatcher runs the integrator kernel over a launch grid on a fixed pool
// of CPU workers. Each worker owns a disjoint range of grid rows, so no two
// invocations ever address the same particle slot as long as the grid maps
// coordinates to indices uniquely.
type Dispatcher struct {
	workers int
	log     Logger
}

type DispatcherOptions struct {
	Workers int // worker goroutines per dispatch; defaults to runtime.NumCPU()
	Logger  Logger
}

func NewDispatcher(opts DispatcherOptions) *Dispatcher {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	logger := opts.Logger
	if logger == nil {
		logger = NewNopLogger()
	}
	return &Dispatcher{
		workers: workers,
		log:     logger,
	}
}

// Dispatch runs one simulation tick across the grid and blocks until every
// invocation has retired. The return is the barrier the next tick depends
// on: state written by this dispatch is fully visible once Dispatch returns.
func (d *Dispatcher) Dispatch(grid Grid, p Params, instances []Instance, velocities []mgl32.Vec2) {
	if grid.X == 0 || grid.Y == 0 {
		return
	}

	rowsPerWorker := (grid.Y + uint32(d.workers) - 1) / uint32(d.workers)

	var wg sync.WaitGroup
	for w := 0; w < d.workers; w++ {
		firstRow := uint32(w) * rowsPerWorker
		if firstRow >= grid.Y {
			break
		}
		lastRow := firstRow + rowsPerWorker
		if lastRow > grid.Y {
			lastRow = grid.Y
		}

		wg.Add(1)
		go func(y0, y1 uint32) {
			defer wg.Done()
			for y := y0; y < y1; y++ {
				for x := uint32(0); x < grid.X; x++ {
					Integrate([3]uint32{x, y, 0}, p, instances, velocities)
				}
			}
		}(firstRow, lastRow)
	}
	wg.Wait()

	if d.log.DebugEnabled() {
		d.log.Debugf("dispatched %dx%d grid over %d particles, batch=%d dt=%g",
			grid.X, grid.Y, len(instances), p.BatchSize, p.Delta)
	}
}
