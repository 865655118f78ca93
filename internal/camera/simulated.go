package camera

import (
	"context"
	"sync"
)

const simulatedDeviceID DeviceId = "dummy:sim0"

// tinyJPEG is a minimal JFIF byte stream (SOI, APP0 header, EOI) with no
// frame or scan data, so it does not decode to an image. It is the simulated
// backend's constant
// "frame" for smoke tests that need bytes to flow through the pipeline
// without real hardware.
var tinyJPEG = []byte{
	0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 0x4A, 0x46, 0x49, 0x46, 0x00, 0x01,
	0x01, 0x00, 0x00, 0x01, 0x00, 0x01, 0x00, 0x00, 0xFF, 0xD9,
}

var simulatedControlTable = []ControlId{Brightness, Contrast, Zoom, Focus}

// SimulatedBackend exposes one fixed in-memory device with a handful of
// synthetic slider controls, for development and demos without real
// hardware. Gated process-wide by camera.simulated_enabled /
// CAMERA_CORE_SIMULATED.
type SimulatedBackend struct {
	mu       sync.Mutex
	controls map[ControlId]int32
}

// NewSimulatedBackend constructs the backend with each control defaulted to
// the midpoint of its fixed [0,100] range.
func NewSimulatedBackend() *SimulatedBackend {
	controls := make(map[ControlId]int32, len(simulatedControlTable))
	for _, id := range simulatedControlTable {
		controls[id] = 50
	}
	return &SimulatedBackend{controls: controls}
}

func (s *SimulatedBackend) EnumerateDevices(ctx context.Context) ([]CameraDevice, error) {
	return []CameraDevice{{
		ID:            simulatedDeviceID,
		Name:          "Simulated Camera",
		TransportPath: "simulated://sim0",
		IsConnected:   true,
	}}, nil
}

// WatchHotplug never fires: the simulated device is always present for the
// process lifetime.
func (s *SimulatedBackend) WatchHotplug(cb HotplugCallback) error { return nil }

func (s *SimulatedBackend) GetControls(ctx context.Context, id DeviceId) ([]ControlDescriptor, error) {
	if id != simulatedDeviceID {
		return nil, ErrDeviceNotFound(id)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	descriptors := make([]ControlDescriptor, 0, len(simulatedControlTable))
	for _, cid := range simulatedControlTable {
		min, max, def := int32(0), int32(100), int32(50)
		descriptors = append(descriptors, ControlDescriptor{
			ID:        cid,
			Name:      cid.Name(),
			Group:     cid.Group(),
			Kind:      KindSlider,
			Min:       &min,
			Max:       &max,
			Default:   &def,
			Current:   s.controls[cid],
			Supported: true,
		})
	}
	return descriptors, nil
}

func (s *SimulatedBackend) GetControl(ctx context.Context, id DeviceId, control ControlId) (ControlValue, error) {
	if id != simulatedDeviceID {
		return ControlValue{}, ErrDeviceNotFound(id)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.controls[control]
	if !ok {
		return ControlValue{}, ErrControlQuery(id, "control not simulated", nil)
	}
	return NewControlValue(v, nil, nil), nil
}

func (s *SimulatedBackend) SetControl(ctx context.Context, id DeviceId, control ControlId, value ControlValue) error {
	if id != simulatedDeviceID {
		return ErrDeviceNotFound(id)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.controls[control]; !ok {
		return ErrControlWrite(id, "control not simulated", nil)
	}
	min, max := int32(0), int32(100)
	s.controls[control] = NewControlValue(value.Int32(), &min, &max).Int32()
	return nil
}

func (s *SimulatedBackend) GetFormats(ctx context.Context, id DeviceId) ([]FormatDescriptor, error) {
	if id != simulatedDeviceID {
		return nil, ErrDeviceNotFound(id)
	}
	return []FormatDescriptor{
		{Width: 640, Height: 480, FPS: 30, PixelFormat: "RGB24"},
	}, nil
}

// NextFrame returns the constant tiny JPEG payload used as this backend's
// "preview frame", for callers wiring a capture.Builder over it.
func (s *SimulatedBackend) NextFrame() []byte {
	frame := make([]byte, len(tinyJPEG))
	copy(frame, tinyJPEG)
	return frame
}
