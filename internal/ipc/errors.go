package ipc

import (
	"errors"
	"strings"

	"github.com/webbertakken/camera-core/internal/camera"
)

// osErrorTranslations maps known OS error codes (as they appear inside a
// backend's error Details string) to user-facing strings.
var osErrorTranslations = map[string]string{
	"0x800705AA": "Camera is in use by another application",
	"0x80070005": "Access denied — close other camera apps and retry",
	"0x80070020": "Camera is locked by another process",
}

// vendorErrorTranslations does the same for Canon vendor-SDK error codes
// whose ErrorCode values surface through camera.Error.Code.
var vendorErrorTranslations = map[camera.ErrorCode]string{
	camera.CodeVendorDeviceBusy:     "Canon camera is busy — wait a moment and try again",
	camera.CodeVendorSessionNotOpen: "Canon camera session is not open — reconnect the camera",
}

// translateError renders err as a human-friendly string, consulting the OS
// and vendor translation tables before falling back to err.Error().
// preview-error notifications and every IPC error response pass through
// here so a raw hex code or Rust-flavoured message never reaches the shell.
func translateError(err error) string {
	if err == nil {
		return ""
	}

	var camErr *camera.Error
	if errors.As(err, &camErr) {
		if msg, ok := vendorErrorTranslations[camErr.Code]; ok {
			return msg
		}
		if camErr.Code == camera.CodeVendorSdk && strings.Contains(strings.ToLower(camErr.Details), "disconnected") {
			return "Canon camera was disconnected"
		}
		for code, msg := range osErrorTranslations {
			if strings.Contains(camErr.Details, code) {
				return msg
			}
		}
		return camErr.Error()
	}

	msg := err.Error()
	for code, translated := range osErrorTranslations {
		if strings.Contains(msg, code) {
			return translated
		}
	}
	return msg
}

// toJsonRpcError maps a camera/capture/settings error onto a JSON-RPC error
// code and a translated, human-friendly message.
func toJsonRpcError(err error) *JsonRpcError {
	var camErr *camera.Error
	if errors.As(err, &camErr) {
		code := InternalError
		switch camErr.Code {
		case camera.CodeDeviceNotFound:
			code = DeviceNotFound
		}
		return newError(code, translateError(err))
	}
	return newError(InternalError, translateError(err))
}
