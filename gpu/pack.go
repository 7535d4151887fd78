package gpu

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/sparks"
)

// Byte strides of the storage buffer elements; must match the WGSL structs
// in shaders/integrate.wgsl.
const (
	InstanceStride = 32
	VelocityStride = 8
)

func putFloat32(b []byte, v float32) {
	binary.LittleEndian.PutUint32(b, math.Float32bits(v))
}

func getFloat32(b []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b))
}

func packInstances(instances []sparks.Instance) []byte {
	data := make([]byte, len(instances)*InstanceStride)
	for i, inst := range instances {
		offset := i * InstanceStride
		putFloat32(data[offset+0:], inst.Pos[0])
		putFloat32(data[offset+4:], inst.Pos[1])
		putFloat32(data[offset+8:], inst.Size[0])
		putFloat32(data[offset+12:], inst.Size[1])
		putFloat32(data[offset+16:], inst.Color[0])
		putFloat32(data[offset+20:], inst.Color[1])
		putFloat32(data[offset+24:], inst.Color[2])
		putFloat32(data[offset+28:], inst.Color[3])
	}
	return data
}

func unpackInstances(data []byte, count int) []sparks.Instance {
	instances := make([]sparks.Instance, count)
	for i := range instances {
		offset := i * InstanceStride
		instances[i] = sparks.Instance{
			Pos:  mgl32.Vec2{getFloat32(data[offset+0:]), getFloat32(data[offset+4:])},
			Size: mgl32.Vec2{getFloat32(data[offset+8:]), getFloat32(data[offset+12:])},
			Color: [4]float32{
				getFloat32(data[offset+16:]),
				getFloat32(data[offset+20:]),
				getFloat32(data[offset+24:]),
				getFloat32(data[offset+28:]),
			},
		}
	}
	return instances
}

func packVelocities(velocities []mgl32.Vec2) []byte {
	data := make([]byte, len(velocities)*VelocityStride)
	for i, v := range velocities {
		offset := i * VelocityStride
		putFloat32(data[offset+0:], v[0])
		putFloat32(data[offset+4:], v[1])
	}
	return data
}

func unpackVelocities(data []byte, count int) []mgl32.Vec2 {
	velocities := make([]mgl32.Vec2, count)
	for i := range velocities {
		offset := i * VelocityStride
		velocities[i] = mgl32.Vec2{getFloat32(data[offset+0:]), getFloat32(data[offset+4:])}
	}
	return velocities
}

func packParams(p sparks.Params) []byte {
	// padded to 16 bytes for the uniform block
	data := make([]byte, 16)
	binary.LittleEndian.PutUint32(data[0:4], p.BatchSize)
	putFloat32(data[4:8], p.Delta)
	return data
}
