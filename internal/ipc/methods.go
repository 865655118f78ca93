package ipc

import (
	"context"
	"fmt"

	"github.com/webbertakken/camera-core/internal/camera"
	"github.com/webbertakken/camera-core/internal/settings"
)

// handlerFunc is the signature every registered IPC method implements. ctx
// is the bounded-worker-pool task context; it carries no request-specific
// data today but gives handlers a cancellation point for future
// long-running operations.
type handlerFunc func(s *Server, ctx context.Context, params map[string]interface{}) (interface{}, error)

func deviceIDParam(params map[string]interface{}) (camera.DeviceId, error) {
	raw, ok := params["device_id"]
	if !ok {
		return "", fmt.Errorf("missing required parameter: device_id")
	}
	str, ok := raw.(string)
	if !ok || str == "" {
		return "", fmt.Errorf("device_id must be a non-empty string")
	}
	return camera.DeviceId(str), nil
}

func stringParam(params map[string]interface{}, name string) (string, error) {
	raw, ok := params[name]
	if !ok {
		return "", fmt.Errorf("missing required parameter: %s", name)
	}
	str, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("%s must be a string", name)
	}
	return str, nil
}

func intParam(params map[string]interface{}, name string, def int) (int, error) {
	raw, ok := params[name]
	if !ok {
		return def, nil
	}
	f, ok := raw.(float64)
	if !ok {
		return 0, fmt.Errorf("%s must be a number", name)
	}
	return int(f), nil
}

func int32Param(params map[string]interface{}, name string) (int32, error) {
	raw, ok := params[name]
	if !ok {
		return 0, fmt.Errorf("missing required parameter: %s", name)
	}
	f, ok := raw.(float64)
	if !ok {
		return 0, fmt.Errorf("%s must be a number", name)
	}
	return int32(f), nil
}

func handleListCameras(s *Server, ctx context.Context, _ map[string]interface{}) (interface{}, error) {
	devices, err := s.backend.EnumerateDevices(ctx)
	if err != nil {
		return nil, err
	}
	if devices == nil {
		devices = []camera.CameraDevice{}
	}
	return devices, nil
}

func handleGetCameraControls(s *Server, ctx context.Context, params map[string]interface{}) (interface{}, error) {
	id, err := deviceIDParam(params)
	if err != nil {
		return nil, err
	}
	return s.backend.GetControls(ctx, id)
}

func handleGetCameraFormats(s *Server, ctx context.Context, params map[string]interface{}) (interface{}, error) {
	id, err := deviceIDParam(params)
	if err != nil {
		return nil, err
	}
	formats, err := s.backend.GetFormats(ctx, id)
	if err != nil {
		return nil, err
	}
	camera.SortFormats(formats)
	return formats, nil
}

func handleSetCameraControl(s *Server, ctx context.Context, params map[string]interface{}) (interface{}, error) {
	id, err := deviceIDParam(params)
	if err != nil {
		return nil, err
	}
	controlIDStr, err := stringParam(params, "control_id")
	if err != nil {
		return nil, err
	}
	raw, err := int32Param(params, "value")
	if err != nil {
		return nil, err
	}

	controlID, ok := camera.ControlIdFromString(controlIDStr)
	if !ok {
		return nil, fmt.Errorf("unknown control id: %s", controlIDStr)
	}

	descriptors, err := s.backend.GetControls(ctx, id)
	if err != nil {
		return nil, err
	}
	var desc *camera.ControlDescriptor
	for i := range descriptors {
		if descriptors[i].ID == controlID {
			desc = &descriptors[i]
			break
		}
	}
	if desc == nil {
		return nil, fmt.Errorf("control %s not supported by device %s", controlIDStr, id)
	}
	if desc.Flags.IsReadOnly {
		return nil, fmt.Errorf("control %s is read-only", controlIDStr)
	}

	value := camera.ClampToDescriptor(raw, *desc)
	if err := s.backend.SetControl(ctx, id, controlID, value); err != nil {
		return nil, err
	}

	if s.store != nil {
		name := desc.Name
		if cam, err := s.backend.EnumerateDevices(ctx); err == nil {
			for _, d := range cam {
				if d.ID == id {
					name = d.Name
					break
				}
			}
		}
		s.store.SetControl(id.String(), name, controlIDStr, value.Int32())
	}
	return nil, nil
}

func handleResetCameraControl(s *Server, ctx context.Context, params map[string]interface{}) (interface{}, error) {
	id, err := deviceIDParam(params)
	if err != nil {
		return nil, err
	}
	controlIDStr, err := stringParam(params, "control_id")
	if err != nil {
		return nil, err
	}
	controlID, ok := camera.ControlIdFromString(controlIDStr)
	if !ok {
		return nil, fmt.Errorf("unknown control id: %s", controlIDStr)
	}

	descriptors, err := s.backend.GetControls(ctx, id)
	if err != nil {
		return nil, err
	}
	var desc *camera.ControlDescriptor
	for i := range descriptors {
		if descriptors[i].ID == controlID {
			desc = &descriptors[i]
			break
		}
	}
	if desc == nil || desc.Default == nil {
		return nil, fmt.Errorf("control %s has no default value", controlIDStr)
	}

	value := camera.ClampToDescriptor(*desc.Default, *desc)
	if err := s.backend.SetControl(ctx, id, controlID, value); err != nil {
		return nil, err
	}
	return value.Int32(), nil
}

func handleStartPreview(s *Server, _ context.Context, params map[string]interface{}) (interface{}, error) {
	id, err := deviceIDParam(params)
	if err != nil {
		return nil, err
	}
	width, err := intParam(params, "width", defaultPreviewWidth)
	if err != nil {
		return nil, err
	}
	height, err := intParam(params, "height", defaultPreviewHeight)
	if err != nil {
		return nil, err
	}
	fps, err := intParam(params, "fps", 30)
	if err != nil {
		return nil, err
	}

	devices, err := s.backend.EnumerateDevices(context.Background())
	if err != nil {
		return nil, err
	}
	name := id.String()
	found := false
	for _, d := range devices {
		if d.ID == id {
			name = d.Name
			found = true
			break
		}
	}
	if !found {
		return nil, camera.ErrDeviceNotFound(id)
	}

	s.sessions.Start(id, name, width, height, fps)
	return nil, nil
}

func handleStopPreview(s *Server, _ context.Context, params map[string]interface{}) (interface{}, error) {
	id, err := deviceIDParam(params)
	if err != nil {
		return nil, err
	}
	s.sessions.Stop(id)
	s.frameCache.Purge(id)
	return nil, nil
}

func handleGetFrame(s *Server, _ context.Context, params map[string]interface{}) (interface{}, error) {
	id, err := deviceIDParam(params)
	if err != nil {
		return nil, err
	}
	session, ok := s.sessions.Get(id)
	if !ok {
		return nil, newIPCError(NoActivePreview, "no active preview for this camera")
	}
	frame, err := s.frameCache.GetFrame(id, session.Buffer())
	if err != nil {
		return nil, newIPCError(NoFrameAvailable, translateError(err))
	}
	return frame, nil
}

func handleGetThumbnail(s *Server, _ context.Context, params map[string]interface{}) (interface{}, error) {
	id, err := deviceIDParam(params)
	if err != nil {
		return nil, err
	}
	session, ok := s.sessions.Get(id)
	if !ok {
		return nil, newIPCError(NoActivePreview, "no active preview for this camera")
	}
	frame, err := s.frameCache.GetThumbnail(id, session.Buffer())
	if err != nil {
		return nil, newIPCError(NoFrameAvailable, translateError(err))
	}
	return frame, nil
}

func handleGetDiagnostics(s *Server, _ context.Context, params map[string]interface{}) (interface{}, error) {
	id, err := deviceIDParam(params)
	if err != nil {
		return nil, err
	}
	session, ok := s.sessions.Get(id)
	if !ok {
		return nil, newIPCError(NoActivePreview, "no active preview for this camera")
	}
	return session.Diagnostics(), nil
}

func handleResetToDefaults(s *Server, ctx context.Context, params map[string]interface{}) (interface{}, error) {
	id, err := deviceIDParam(params)
	if err != nil {
		return nil, err
	}
	if s.store == nil {
		return nil, fmt.Errorf("settings store not configured")
	}
	return settings.ResetToDefaults(ctx, s.backend, s.store, id)
}

func handleGetSavedSettings(s *Server, _ context.Context, params map[string]interface{}) (interface{}, error) {
	id, err := deviceIDParam(params)
	if err != nil {
		return nil, err
	}
	if s.store == nil {
		return nil, nil
	}
	saved, ok := s.store.GetCamera(id.String())
	if !ok {
		return nil, nil
	}
	return saved, nil
}

func handleGetSystemHealth(s *Server, ctx context.Context, _ map[string]interface{}) (interface{}, error) {
	return s.health.Report(ctx)
}

// newIPCError builds a JsonRpcError with an already-human-readable message,
// bypassing translateError's camera.Error unwrapping for synthetic IPC-level
// conditions like "no active preview".
func newIPCError(code int, message string) error { return &ipcError{code: code, message: message} }

type ipcError struct {
	code    int
	message string
}

func (e *ipcError) Error() string { return e.message }
