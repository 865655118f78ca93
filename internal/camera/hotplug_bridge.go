package camera

import (
	"context"

	"github.com/webbertakken/camera-core/internal/logging"
)

// AppEvent is the tagged union of events the hotplug bridge raises for the
// IPC layer to push as JSON-RPC notifications.
type AppEvent struct {
	Type             string        `json:"type"`
	Hotplug          *HotplugEvent `json:"hotplug,omitempty"`
	DeviceID         DeviceId      `json:"deviceId,omitempty"`
	CameraName       string        `json:"cameraName,omitempty"`
	ControlsApplied  int           `json:"controlsApplied,omitempty"`
}

const (
	AppEventCameraHotplug    = "camera-hotplug"
	AppEventSettingsRestored = "settings-restored"
)

// AppEventSink receives app-level events raised by the hotplug bridge; the
// IPC server implements this to fan events out as push notifications.
type AppEventSink func(AppEvent)

// SettingsApplier is the subset of the settings apply engine the bridge
// needs; satisfied by settings.ApplySavedSettings with backend/store bound.
type SettingsApplier func(ctx context.Context, id DeviceId) (applied int, cameraName string, err error)

// SessionManager is the subset of capture-session lifecycle management the
// bridge drives: start a preview session with default geometry on connect,
// stop it on disconnect.
type SessionManager interface {
	StartDefault(id DeviceId, name string)
	Stop(id DeviceId)
}

// HotplugBridge registers one callback with a Backend (typically a
// CompositeBackend spanning every configured sub-backend) and turns
// Connected/Disconnected events into app-level events, settings restoration,
// and capture-session lifecycle changes.
type HotplugBridge struct {
	backend  Backend
	applier  SettingsApplier
	sessions SessionManager
	sink     AppEventSink
	logger   *logging.Logger

	autoStartPreview bool
}

// NewHotplugBridge constructs a bridge. applier and sessions may be nil if
// settings restoration or capture sessions aren't wired for a given
// deployment (e.g. a headless inspection build); both are checked for nil
// before use.
func NewHotplugBridge(backend Backend, applier SettingsApplier, sessions SessionManager, sink AppEventSink, autoStartPreview bool) *HotplugBridge {
	return &HotplugBridge{
		backend:          backend,
		applier:          applier,
		sessions:         sessions,
		sink:             sink,
		logger:           logging.NewLogger("hotplug-bridge"),
		autoStartPreview: autoStartPreview,
	}
}

// Start registers the bridge's callback with the backend. Registration
// failure is logged and does not propagate — the rest of the application
// continues to function without hotplug-triggered behavior.
func (b *HotplugBridge) Start() {
	if err := b.backend.WatchHotplug(b.onEvent); err != nil {
		b.logger.WithError(err).Warn("hotplug registration failed")
	}
}

func (b *HotplugBridge) onEvent(event HotplugEvent) {
	switch event.Type {
	case HotplugConnected:
		b.handleConnected(event)
	case HotplugDisconnected:
		b.handleDisconnected(event)
	}
}

func (b *HotplugBridge) handleConnected(event HotplugEvent) {
	device := *event.Device
	b.emit(AppEvent{Type: AppEventCameraHotplug, Hotplug: &event})

	if b.applier != nil {
		applied, cameraName, err := b.applier(context.Background(), device.ID)
		if err != nil {
			b.logger.WithFields(logging.Fields{"device_id": device.ID}).WithError(err).Warn("settings apply failed on connect")
		} else if applied > 0 {
			b.emit(AppEvent{
				Type: AppEventSettingsRestored, DeviceID: device.ID,
				CameraName: cameraName, ControlsApplied: applied,
			})
		}
	}

	if b.autoStartPreview && b.sessions != nil {
		b.sessions.StartDefault(device.ID, device.Name)
	}
}

func (b *HotplugBridge) handleDisconnected(event HotplugEvent) {
	b.emit(AppEvent{Type: AppEventCameraHotplug, Hotplug: &event})
	if b.sessions != nil {
		b.sessions.Stop(event.ID)
	}
}

func (b *HotplugBridge) emit(e AppEvent) {
	if b.sink != nil {
		b.sink(e)
	}
}
