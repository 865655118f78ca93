package camera

import (
	"context"
	"sync"

	"github.com/webbertakken/camera-core/internal/logging"
)

// CompositeBackend merges device lists and routes control operations across
// multiple sub-backends (native, vendor, simulated). enumerate_devices
// concatenates every sub-backend's result, logging (not failing on) a
// sub-backend that errors; control operations try each sub-backend in turn,
// moving to the next on CodeDeviceNotFound and stopping on any other error.
//
// Grounded on original_source/camera/composite.rs's CompositeBackend and its
// route_to_backend helper.
type CompositeBackend struct {
	backends []Backend
	logger   *logging.Logger
}

// NewCompositeBackend builds a composite over the given sub-backends, tried
// in the given order for routing purposes.
func NewCompositeBackend(backends ...Backend) *CompositeBackend {
	return &CompositeBackend{backends: backends, logger: logging.NewLogger("composite-backend")}
}

func (c *CompositeBackend) EnumerateDevices(ctx context.Context) ([]CameraDevice, error) {
	var all []CameraDevice
	for _, b := range c.backends {
		devices, err := b.EnumerateDevices(ctx)
		if err != nil {
			c.logger.WithError(err).Warn("sub-backend enumeration failed")
			continue
		}
		all = append(all, devices...)
	}
	return all, nil
}

// WatchHotplug registers the same callback with every sub-backend. A
// sub-backend's registration failure is logged, not propagated — the
// composite still reports hotplug events from whichever sub-backends did
// register successfully.
func (c *CompositeBackend) WatchHotplug(cb HotplugCallback) error {
	var mu sync.Mutex
	wrapped := func(evt HotplugEvent) {
		mu.Lock()
		defer mu.Unlock()
		cb(evt)
	}
	for _, b := range c.backends {
		if err := b.WatchHotplug(wrapped); err != nil {
			c.logger.WithError(err).Warn("sub-backend hotplug registration failed")
		}
	}
	return nil
}

func (c *CompositeBackend) GetControls(ctx context.Context, id DeviceId) ([]ControlDescriptor, error) {
	return routeSlice(c.backends, id, func(b Backend) ([]ControlDescriptor, error) {
		return b.GetControls(ctx, id)
	})
}

func (c *CompositeBackend) GetControl(ctx context.Context, id DeviceId, control ControlId) (ControlValue, error) {
	return routeValue(c.backends, id, func(b Backend) (ControlValue, error) {
		return b.GetControl(ctx, id, control)
	})
}

func (c *CompositeBackend) SetControl(ctx context.Context, id DeviceId, control ControlId, value ControlValue) error {
	_, err := routeValue(c.backends, id, func(b Backend) (struct{}, error) {
		return struct{}{}, b.SetControl(ctx, id, control, value)
	})
	return err
}

func (c *CompositeBackend) GetFormats(ctx context.Context, id DeviceId) ([]FormatDescriptor, error) {
	return routeSlice(c.backends, id, func(b Backend) ([]FormatDescriptor, error) {
		return b.GetFormats(ctx, id)
	})
}

// routeSlice and routeValue are the two instantiations route_to_backend
// needs in Go's absence of generic-over-return-arity functions: try each
// backend, short-circuiting on the first non-DeviceNotFound outcome.
func routeSlice[T any](backends []Backend, id DeviceId, op func(Backend) ([]T, error)) ([]T, error) {
	for _, b := range backends {
		result, err := op(b)
		if err == nil {
			return result, nil
		}
		if IsDeviceNotFound(err) {
			continue
		}
		return nil, err
	}
	return nil, ErrDeviceNotFound(id)
}

func routeValue[T any](backends []Backend, id DeviceId, op func(Backend) (T, error)) (T, error) {
	var zero T
	for _, b := range backends {
		result, err := op(b)
		if err == nil {
			return result, nil
		}
		if IsDeviceNotFound(err) {
			continue
		}
		return zero, err
	}
	return zero, ErrDeviceNotFound(id)
}
