package camera

import (
	"context"
	"hash/fnv"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DeviceId is an opaque, stable identifier for a camera, prefixed by the
// backend that owns it: "ds:" (native OS backend), "canon:" (vendor-SDK
// backend), "dummy:" (simulated backend), or "unknown:" for anything that
// could not be classified.
type DeviceId string

const (
	prefixNative    = "ds:"
	prefixVendor    = "canon:"
	prefixSimulated = "dummy:"
	prefixUnknown   = "unknown:"
)

var (
	vidRe    = regexp.MustCompile(`(?i)vid_([0-9a-f]{4})`)
	pidRe    = regexp.MustCompile(`(?i)pid_([0-9a-f]{4})`)
	guidLike = regexp.MustCompile(`^\{[0-9a-fA-F-]+\}$`)
)

// NewDeviceIdFromTriple builds a vendor-SDK device id from a vendor/model/
// serial triple, e.g. the Canon backend identifying a camera by its session
// info. The serial is used as-is; without one, a hash of vendor and model
// is used instead.
func NewDeviceIdFromTriple(vendor, model, serial string) DeviceId {
	serial = strings.TrimSpace(serial)
	if serial == "" {
		serial = simpleHash(vendor + "|" + model)
	}
	return DeviceId(prefixVendor + serial)
}

// NewDeviceIdFromDevicePath derives a stable id from an OS device path by
// extracting vid_/pid_ fields and a serial number. If a serial cannot be
// found, a 64-bit FNV-1a hash of the full path is substituted so the id
// stays stable across enumerations and process restarts.
//
// Mirrors DeviceId::from_device_path in the original implementation this
// core was distilled from.
func NewDeviceIdFromDevicePath(path string) DeviceId {
	vid := extractField(vidRe, path)
	pid := extractField(pidRe, path)

	if vid == "" && pid == "" {
		return DeviceId(prefixUnknown + simpleHash(path))
	}

	serial := extractSerial(path)
	if serial == "" {
		serial = simpleHash(path)
	}

	return DeviceId(prefixNative + strings.ToLower(vid) + ":" + strings.ToLower(pid) + ":" + serial)
}

// NewNativeDeviceId builds a native-backend device id from a card name and
// bus-info string reported by the OS (e.g. v4l2-ctl --info's "Bus info:"
// line), falling back to a hash of the name when no bus info is available.
func NewNativeDeviceId(name, busInfo string) DeviceId {
	busInfo = strings.TrimSpace(busInfo)
	if busInfo == "" {
		busInfo = simpleHash(name)
	}
	return DeviceId(prefixNative + strings.ToLower(busInfo))
}

func extractField(re *regexp.Regexp, path string) string {
	m := re.FindStringSubmatch(path)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

// extractSerial looks for a '#'-delimited path segment that looks like a
// serial number rather than a GUID or an interface index, following the
// layout of Windows symbolic-link device paths
// (\\?\usb#vid_xxxx&pid_yyyy&mi_00#<serial>#{guid}).
func extractSerial(path string) string {
	parts := strings.Split(path, "#")
	if len(parts) < 3 {
		return ""
	}
	candidate := parts[2]
	if guidLike.MatchString(candidate) {
		return ""
	}
	if len(candidate) < 4 {
		return ""
	}
	return strings.ToLower(candidate)
}

func simpleHash(s string) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return strconv.FormatUint(h.Sum64(), 16)
}

// Backend reports, from the id's prefix, which backend owns it ("native",
// "vendor" or "simulated"), or "" if unknown.
func (d DeviceId) Backend() string {
	s := string(d)
	switch {
	case strings.HasPrefix(s, prefixNative):
		return "native"
	case strings.HasPrefix(s, prefixVendor):
		return "vendor"
	case strings.HasPrefix(s, prefixSimulated):
		return "simulated"
	default:
		return ""
	}
}

func (d DeviceId) String() string { return string(d) }

// CameraDevice is a short-lived snapshot rebuilt on each enumeration.
type CameraDevice struct {
	ID            DeviceId `json:"id"`
	Name          string   `json:"name"`
	TransportPath string   `json:"transportPath"`
	IsConnected   bool     `json:"isConnected"`
}

// HotplugEventType discriminates the HotplugEvent sum type.
type HotplugEventType string

const (
	HotplugConnected    HotplugEventType = "connected"
	HotplugDisconnected HotplugEventType = "disconnected"
)

// HotplugEvent is a tagged union: Connected carries the full device snapshot,
// Disconnected carries only the id that went away.
type HotplugEvent struct {
	Type   HotplugEventType `json:"type"`
	Device *CameraDevice    `json:"device,omitempty"`
	ID     DeviceId         `json:"id,omitempty"`
}

func NewHotplugConnected(d CameraDevice) HotplugEvent {
	return HotplugEvent{Type: HotplugConnected, Device: &d}
}

func NewHotplugDisconnected(id DeviceId) HotplugEvent {
	return HotplugEvent{Type: HotplugDisconnected, ID: id}
}

// HotplugCallback is invoked by a backend on connect/disconnect. It must be
// safe to call from any goroutine; implementations must not hold internal
// locks while invoking it.
type HotplugCallback func(HotplugEvent)

// DeviceEventType classifies a raw OS device-node event, upstream of
// HotplugEvent — the native backend's enumeration-diff step is what turns
// these into Connected/Disconnected.
type DeviceEventType string

const (
	DeviceEventAdd    DeviceEventType = "add"
	DeviceEventRemove DeviceEventType = "remove"
	DeviceEventChange DeviceEventType = "change"
)

// DeviceEvent is a raw device-node notification from an event source.
type DeviceEvent struct {
	Type       DeviceEventType
	DevicePath string
	Timestamp  time.Time
}

// DeviceEventSource abstracts the OS-level mechanism that feeds the native
// backend's hotplug reconciliation loop (fsnotify on /dev, udev elsewhere).
type DeviceEventSource interface {
	Start(ctx context.Context) error
	Events() <-chan DeviceEvent
	Close() error
	EventsSupported() bool
	Started() bool
}
