package camera

import "context"

// Backend is the polymorphic camera abstraction. Every operation is
// fallible; errors are drawn from the fixed taxonomy in errors.go. A single
// Backend value is safe for concurrent use by multiple goroutines.
type Backend interface {
	// EnumerateDevices returns a snapshot of currently connected cameras.
	EnumerateDevices(ctx context.Context) ([]CameraDevice, error)

	// WatchHotplug registers a callback fired on connect/disconnect from a
	// backend-internal goroutine. The callback must be safe to invoke from
	// any goroutine; implementations must not hold internal locks while
	// invoking it.
	WatchHotplug(cb HotplugCallback) error

	// GetControls returns every control the device supports, each fully
	// populated with current value, range, and flags.
	GetControls(ctx context.Context, id DeviceId) ([]ControlDescriptor, error)

	// GetControl and SetControl give single-control access.
	GetControl(ctx context.Context, id DeviceId, control ControlId) (ControlValue, error)
	SetControl(ctx context.Context, id DeviceId, control ControlId, value ControlValue) error

	// GetFormats returns the capture formats the device advertises.
	GetFormats(ctx context.Context, id DeviceId) ([]FormatDescriptor, error)
}
