package gpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/sparks"
	"github.com/gekko3d/sparks/gpu/shaders"
)

// WorkgroupDim is the workgroup edge length declared in integrate.wgsl.
const WorkgroupDim = 8

// Integrator owns the compute pipeline and GPU-resident particle state.
// Upload pushes host arrays into storage buffers, Dispatch runs one tick,
// Readback copies the buffers back out through a mappable staging pair.
type Integrator struct {
	Device *wgpu.Device
	Queue  *wgpu.Queue

	Pipeline *wgpu.ComputePipeline

	InstancesBuf  *wgpu.Buffer
	VelocitiesBuf *wgpu.Buffer
	ParamsBuf     *wgpu.Buffer

	StagingInstancesBuf  *wgpu.Buffer
	StagingVelocitiesBuf *wgpu.Buffer

	BindGroup *wgpu.BindGroup

	count int
	log   sparks.Logger
}

func NewIntegrator(device *wgpu.Device, logger sparks.Logger) (*Integrator, error) {
	if logger == nil {
		logger = sparks.NewNopLogger()
	}

	shaderModule, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "IntegrateShader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaders.IntegrateWGSL},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create integrate shader module: %w", err)
	}
	defer shaderModule.Release()

	pipeline, err := device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label: "IntegratePipeline",
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     shaderModule,
			EntryPoint: "cs_main",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create integrate pipeline: %w", err)
	}

	paramsBuf, err := device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "ParamsBuf",
		Size:  16,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create params buffer: %w", err)
	}

	return &Integrator{
		Device:    device,
		Queue:     device.GetQueue(),
		Pipeline:  pipeline,
		ParamsBuf: paramsBuf,
		log:       logger,
	}, nil
}

// Count is the number of particles currently uploaded.
func (g *Integrator) Count() int { return g.count }

// Upload pushes both host arrays into GPU storage. Buffers are recreated
// when the particle count outgrows them, and the bind group is rebuilt to
// match. The instance buffer carries vertex usage so a host render pass can
// feed it straight into an instanced draw.
func (g *Integrator) Upload(instances []sparks.Instance, velocities []mgl32.Vec2) error {
	if len(instances) != len(velocities) {
		return fmt.Errorf("instance/velocity length mismatch: %d vs %d", len(instances), len(velocities))
	}

	instanceData := packInstances(instances)
	velocityData := packVelocities(velocities)

	rebuilt, err := g.ensureBuffer("InstancesBuf", &g.InstancesBuf, uint64(len(instanceData)),
		wgpu.BufferUsageStorage|wgpu.BufferUsageVertex|wgpu.BufferUsageCopyDst|wgpu.BufferUsageCopySrc)
	if err != nil {
		return err
	}
	rebuiltVel, err := g.ensureBuffer("VelocitiesBuf", &g.VelocitiesBuf, uint64(len(velocityData)),
		wgpu.BufferUsageStorage|wgpu.BufferUsageCopyDst|wgpu.BufferUsageCopySrc)
	if err != nil {
		return err
	}
	rebuilt = rebuilt || rebuiltVel

	g.Queue.WriteBuffer(g.InstancesBuf, 0, instanceData)
	g.Queue.WriteBuffer(g.VelocitiesBuf, 0, velocityData)
	g.count = len(instances)

	if rebuilt || g.BindGroup == nil {
		if err := g.createBindGroup(); err != nil {
			return err
		}
		if err := g.createStagingBuffers(); err != nil {
			return err
		}
	}

	if g.log.DebugEnabled() {
		g.log.Debugf("uploaded %d particles (%d bytes instances, %d bytes velocities)",
			g.count, len(instanceData), len(velocityData))
	}
	return nil
}

// Dispatch runs one simulation tick over the grid. The submit is
// asynchronous; the queue orders it before any later readback or render
// submission, which is the inter-tick barrier hosts rely on.
func (g *Integrator) Dispatch(grid sparks.Grid, p sparks.Params) error {
	if g.BindGroup == nil {
		return fmt.Errorf("no particle state uploaded")
	}
	if grid.X == 0 || grid.Y == 0 {
		return nil
	}

	g.Queue.WriteBuffer(g.ParamsBuf, 0, packParams(p))

	encoder, err := g.Device.CreateCommandEncoder(nil)
	if err != nil {
		return fmt.Errorf("failed to create command encoder: %w", err)
	}
	defer encoder.Release()

	computePass := encoder.BeginComputePass(nil)
	computePass.SetPipeline(g.Pipeline)
	computePass.SetBindGroup(0, g.BindGroup, nil)
	wgX := (grid.X + WorkgroupDim - 1) / WorkgroupDim
	wgY := (grid.Y + WorkgroupDim - 1) / WorkgroupDim
	computePass.DispatchWorkgroups(wgX, wgY, 1)
	computePass.End()

	cmdBuf, err := encoder.Finish(nil)
	if err != nil {
		return fmt.Errorf("failed to finish command encoder: %w", err)
	}
	defer cmdBuf.Release()

	g.Queue.Submit(cmdBuf)
	return nil
}

// Readback copies both storage buffers into the staging pair, blocks until
// the GPU has the data mapped, and decodes it back into host arrays.
func (g *Integrator) Readback() ([]sparks.Instance, []mgl32.Vec2, error) {
	if g.count == 0 {
		return nil, nil, nil
	}

	instanceSize := uint64(g.count * InstanceStride)
	velocitySize := uint64(g.count * VelocityStride)

	encoder, err := g.Device.CreateCommandEncoder(nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create command encoder: %w", err)
	}
	defer encoder.Release()

	encoder.CopyBufferToBuffer(g.InstancesBuf, 0, g.StagingInstancesBuf, 0, instanceSize)
	encoder.CopyBufferToBuffer(g.VelocitiesBuf, 0, g.StagingVelocitiesBuf, 0, velocitySize)

	cmdBuf, err := encoder.Finish(nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to finish command encoder: %w", err)
	}
	defer cmdBuf.Release()
	g.Queue.Submit(cmdBuf)

	instanceData, err := g.mapRead(g.StagingInstancesBuf, instanceSize)
	if err != nil {
		return nil, nil, err
	}
	velocityData, err := g.mapRead(g.StagingVelocitiesBuf, velocitySize)
	if err != nil {
		return nil, nil, err
	}

	return unpackInstances(instanceData, g.count), unpackVelocities(velocityData, g.count), nil
}

func (g *Integrator) mapRead(buf *wgpu.Buffer, size uint64) ([]byte, error) {
	done := false
	failed := false
	buf.MapAsync(wgpu.MapModeRead, 0, size, func(status wgpu.BufferMapAsyncStatus) {
		done = true
		failed = status != wgpu.BufferMapAsyncStatusSuccess
	})
	for !done {
		g.Device.Poll(true, nil)
	}
	if failed {
		return nil, fmt.Errorf("buffer map failed")
	}

	mapped := buf.GetMappedRange(0, uint(size))
	data := make([]byte, size)
	copy(data, mapped)
	buf.Unmap()
	return data, nil
}

func (g *Integrator) ensureBuffer(name string, buf **wgpu.Buffer, neededSize uint64, usage wgpu.BufferUsage) (bool, error) {
	if neededSize%4 != 0 {
		neededSize += 4 - (neededSize % 4)
	}
	if neededSize == 0 {
		neededSize = 4
	}

	current := *buf
	if current != nil && current.GetSize() >= neededSize {
		return false, nil
	}
	if current != nil {
		current.Release()
	}

	created, err := g.Device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: name,
		Size:  neededSize,
		Usage: usage,
	})
	if err != nil {
		return false, fmt.Errorf("failed to create %s: %w", name, err)
	}
	*buf = created
	return true, nil
}

func (g *Integrator) createBindGroup() error {
	if g.BindGroup != nil {
		g.BindGroup.Release()
		g.BindGroup = nil
	}

	layout := g.Pipeline.GetBindGroupLayout(0)
	defer layout.Release()

	bindGroup, err := g.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Layout: layout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: g.InstancesBuf, Size: wgpu.WholeSize},
			{Binding: 1, Buffer: g.VelocitiesBuf, Size: wgpu.WholeSize},
			{Binding: 2, Buffer: g.ParamsBuf, Size: wgpu.WholeSize},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create integrate bind group: %w", err)
	}
	g.BindGroup = bindGroup
	return nil
}

func (g *Integrator) createStagingBuffers() error {
	if g.StagingInstancesBuf != nil {
		g.StagingInstancesBuf.Release()
		g.StagingInstancesBuf = nil
	}
	if g.StagingVelocitiesBuf != nil {
		g.StagingVelocitiesBuf.Release()
		g.StagingVelocitiesBuf = nil
	}

	var err error
	g.StagingInstancesBuf, err = g.Device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "StagingInstancesBuf",
		Size:  g.InstancesBuf.GetSize(),
		Usage: wgpu.BufferUsageCopyDst | wgpu.BufferUsageMapRead,
	})
	if err != nil {
		return fmt.Errorf("failed to create StagingInstancesBuf: %w", err)
	}
	g.StagingVelocitiesBuf, err = g.Device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "StagingVelocitiesBuf",
		Size:  g.VelocitiesBuf.GetSize(),
		Usage: wgpu.BufferUsageCopyDst | wgpu.BufferUsageMapRead,
	})
	if err != nil {
		return fmt.Errorf("failed to create StagingVelocitiesBuf: %w", err)
	}
	return nil
}

// Release frees all GPU resources owned by the integrator.
func (g *Integrator) Release() {
	for _, buf := range []*wgpu.Buffer{
		g.InstancesBuf, g.VelocitiesBuf, g.ParamsBuf,
		g.StagingInstancesBuf, g.StagingVelocitiesBuf,
	} {
		if buf != nil {
			buf.Release()
		}
	}
	if g.BindGroup != nil {
		g.BindGroup.Release()
	}
	if g.Pipeline != nil {
		g.Pipeline.Release()
	}
}
