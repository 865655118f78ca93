package settings

import (
	"context"

	"github.com/webbertakken/camera-core/internal/camera"
	"github.com/webbertakken/camera-core/internal/logging"
)

// AppliedControl records one control id/value pair successfully pushed to
// hardware, either during restore-on-connect or reset-to-defaults.
type AppliedControl struct {
	ControlID string `json:"controlId"`
	Value     int32  `json:"value"`
}

var applyLogger = logging.NewLogger("settings-apply")

// ApplySavedSettings fetches the saved controls for deviceID and pushes each
// one to the backend, clamped against that control's current descriptor. A
// control no longer supported by the hardware (unknown id, or id not among
// the device's current descriptors) is skipped and logged, never erroring
// the whole call.
func ApplySavedSettings(ctx context.Context, backend camera.Backend, store *Store, deviceID camera.DeviceId) ([]AppliedControl, error) {
	saved, ok := store.GetCamera(string(deviceID))
	if !ok || len(saved.Controls) == 0 {
		return nil, nil
	}

	descriptors, err := backend.GetControls(ctx, deviceID)
	if err != nil {
		applyLogger.WithError(err).WithFields(logging.Fields{"device_id": string(deviceID)}).
			Warn("failed to fetch descriptors while applying saved settings")
		return nil, nil
	}
	byID := make(map[camera.ControlId]camera.ControlDescriptor, len(descriptors))
	for _, d := range descriptors {
		byID[d.ID] = d
	}

	var applied []AppliedControl
	for idStr, value := range saved.Controls {
		cid, ok := camera.ControlIdFromString(idStr)
		if !ok {
			applyLogger.WithFields(logging.Fields{"control_id": idStr}).Warn("unknown saved control id, skipping")
			continue
		}
		desc, ok := byID[cid]
		if !ok {
			applyLogger.WithFields(logging.Fields{"control_id": idStr, "device_id": string(deviceID)}).
				Warn("control not supported by this device, skipping")
			continue
		}
		clamped := camera.ClampToDescriptor(value, desc)
		if err := backend.SetControl(ctx, deviceID, cid, clamped); err != nil {
			applyLogger.WithError(err).WithFields(logging.Fields{"control_id": idStr}).
				Warn("failed to apply saved control, continuing")
			continue
		}
		applied = append(applied, AppliedControl{ControlID: idStr, Value: clamped.Int32()})
	}
	return applied, nil
}

// ResetToDefaults sets every control with a known default back to that
// default, clamped against its own range, then drops the device's saved
// settings entirely.
func ResetToDefaults(ctx context.Context, backend camera.Backend, store *Store, deviceID camera.DeviceId) ([]AppliedControl, error) {
	descriptors, err := backend.GetControls(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	var reset []AppliedControl
	for _, desc := range descriptors {
		if desc.Default == nil {
			continue
		}
		clamped := camera.ClampToDescriptor(*desc.Default, desc)
		if err := backend.SetControl(ctx, deviceID, desc.ID, clamped); err != nil {
			applyLogger.WithError(err).WithFields(logging.Fields{"control_id": desc.ID.IDString()}).
				Warn("failed to reset control to default, continuing")
			continue
		}
		reset = append(reset, AppliedControl{ControlID: desc.ID.IDString(), Value: clamped.Int32()})
	}
	store.RemoveCamera(string(deviceID))
	return reset, nil
}
