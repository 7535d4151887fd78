package gpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// Headless acquires a device and queue without a window surface, for hosts
// that only run compute dispatches.
func Headless() (*wgpu.Device, *wgpu.Queue, error) {
	instance := wgpu.CreateInstance(nil)
	defer instance.Release()

	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to request adapter: %w", err)
	}

	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label:            "Sparks Device",
		RequiredFeatures: nil,
		RequiredLimits:   nil,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to request device: %w", err)
	}

	return device, device.GetQueue(), nil
}
