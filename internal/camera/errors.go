package camera

import (
	"encoding/json"
	"fmt"
	"time"
)

// ErrorCode is the closed taxonomy of camera-core failures.
type ErrorCode string

const (
	CodeDeviceNotFound         ErrorCode = "device_not_found"
	CodeComInit                ErrorCode = "com_init"
	CodeEnumeration            ErrorCode = "enumeration"
	CodeControlQuery           ErrorCode = "control_query"
	CodeControlWrite           ErrorCode = "control_write"
	CodeFormatQuery            ErrorCode = "format_query"
	CodeHotplug                ErrorCode = "hotplug"
	CodeVendorSdk              ErrorCode = "vendor_sdk"
	CodeVendorSessionNotOpen   ErrorCode = "vendor_session_not_open"
	CodeVendorDeviceBusy       ErrorCode = "vendor_device_busy"
)

// Error is the single structured error type for the camera subsystem.
type Error struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
	DeviceID DeviceId `json:"deviceId,omitempty"`
	Cause   error     `json:"-"`
	Time    string    `json:"time"`
}

func (e *Error) Error() string {
	if e.DeviceID != "" {
		return fmt.Sprintf("camera error [%s] device=%s: %s", e.Code, e.DeviceID, e.Message)
	}
	return fmt.Sprintf("camera error [%s]: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is compares by code alone, so callers can do errors.Is(err, ErrDeviceNotFound(...))
// or more commonly errors.Is(err, &Error{Code: CodeDeviceNotFound}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func (e *Error) MarshalJSON() ([]byte, error) {
	type alias Error
	return json.Marshal(&struct {
		*alias
		Time string `json:"time"`
	}{alias: (*alias)(e), Time: time.Now().Format(time.RFC3339)})
}

func newErr(code ErrorCode, msg string, cause error) *Error {
	return &Error{Code: code, Message: msg, Cause: cause}
}

// ErrDeviceNotFound builds the composite's routing sentinel.
func ErrDeviceNotFound(id DeviceId) *Error {
	return &Error{Code: CodeDeviceNotFound, Message: "device not found", DeviceID: id}
}

func ErrComInit(details string, cause error) *Error {
	return newErr(CodeComInit, "capture initialisation failed", cause).withDetails(details)
}

func ErrEnumeration(details string, cause error) *Error {
	return newErr(CodeEnumeration, "device enumeration failed", cause).withDetails(details)
}

func ErrControlQuery(id DeviceId, details string, cause error) *Error {
	e := newErr(CodeControlQuery, "control query failed", cause).withDetails(details)
	e.DeviceID = id
	return e
}

func ErrControlWrite(id DeviceId, details string, cause error) *Error {
	e := newErr(CodeControlWrite, "control write failed", cause).withDetails(details)
	e.DeviceID = id
	return e
}

func ErrFormatQuery(id DeviceId, details string, cause error) *Error {
	e := newErr(CodeFormatQuery, "format query failed", cause).withDetails(details)
	e.DeviceID = id
	return e
}

func ErrHotplug(details string, cause error) *Error {
	return newErr(CodeHotplug, "hotplug registration failed", cause).withDetails(details)
}

func ErrVendorSdk(details string, cause error) *Error {
	return newErr(CodeVendorSdk, "vendor SDK error", cause).withDetails(details)
}

func ErrVendorSessionNotOpen(id DeviceId) *Error {
	e := newErr(CodeVendorSessionNotOpen, "vendor session is not open", nil)
	e.DeviceID = id
	return e
}

func ErrVendorDeviceBusy(id DeviceId) *Error {
	e := newErr(CodeVendorDeviceBusy, "vendor device is busy", nil)
	e.DeviceID = id
	return e
}

func (e *Error) withDetails(d string) *Error {
	e.Details = d
	return e
}

// IsDeviceNotFound is the composite's short-circuit test: "not mine, try
// the next sub-backend".
func IsDeviceNotFound(err error) bool {
	e, ok := err.(*Error)
	return ok && e.Code == CodeDeviceNotFound
}
