package camera

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/webbertakken/camera-core/internal/logging"
)

// nativeControlMapping binds a ControlId to the v4l2-ctl control name(s) that
// implement it. autoName is empty when the control has no auto/manual
// counterpart.
type nativeControlMapping struct {
	id       ControlId
	name     string
	autoName string
}

// nativeControlTable mirrors the two property groups the native backend
// exposes: camera-class (motor-style) controls and user-class
// (image-processing) controls, matching the V4L2_CID_CAMERA_CLASS /
// V4L2_CID_USER_CLASS split.
var nativeControlTable = []nativeControlMapping{
	{Pan, "pan_absolute", ""},
	{Tilt, "tilt_absolute", ""},
	{Roll, "roll_absolute", ""},
	{Zoom, "zoom_absolute", ""},
	{Exposure, "exposure_absolute", "exposure_auto"},
	{Iris, "iris_absolute", ""},
	{Focus, "focus_absolute", "focus_auto"},
	{Brightness, "brightness", ""},
	{Contrast, "contrast", ""},
	{Hue, "hue", ""},
	{Saturation, "saturation", ""},
	{Sharpness, "sharpness", ""},
	{Gamma, "gamma", ""},
	{WhiteBalance, "white_balance_temperature", "white_balance_automatic"},
	{BacklightCompensation, "backlight_compensation", ""},
	{Gain, "gain", ""},
}

// NativeBackend implements Backend over the local OS video subsystem by
// shelling out to v4l2-ctl, the same approach the prior service's
// device layer used rather than binding raw ioctl structures.
type NativeBackend struct {
	exec   CommandExecutor
	logger *logging.Logger

	mu      sync.Mutex
	known   map[DeviceId]CameraDevice
	source  DeviceEventSource
	onEvent HotplugCallback
}

// NewNativeBackend constructs a backend using the real v4l2-ctl executor.
func NewNativeBackend() *NativeBackend {
	return &NativeBackend{
		exec:   RealCommandExecutor{},
		logger: logging.NewLogger("native-backend"),
		known:  make(map[DeviceId]CameraDevice),
	}
}

var devicePathRe = regexp.MustCompile(`^video[0-9]+$`)

// EnumerateDevices lists /dev/video* nodes and resolves a friendly name and
// stable DeviceId for each via v4l2-ctl --info.
func (b *NativeBackend) EnumerateDevices(ctx context.Context) ([]CameraDevice, error) {
	entries, err := os.ReadDir("/dev")
	if err != nil {
		return nil, ErrEnumeration("failed to list /dev", err)
	}

	var devices []CameraDevice
	for _, entry := range entries {
		if !devicePathRe.MatchString(entry.Name()) {
			continue
		}
		path := filepath.Join("/dev", entry.Name())
		dev, err := b.describeDevice(ctx, path)
		if err != nil {
			b.logger.WithError(err).WithFields(logging.Fields{"path": path}).
				Warn("skipping device that failed to describe")
			continue
		}
		devices = append(devices, dev)
	}

	b.mu.Lock()
	for _, dev := range devices {
		b.known[dev.ID] = dev
	}
	b.mu.Unlock()
	return devices, nil
}

func (b *NativeBackend) describeDevice(ctx context.Context, path string) (CameraDevice, error) {
	out, err := b.exec.Run(ctx, path, "--info")
	if err != nil {
		return CameraDevice{}, err
	}

	name := path
	var serial string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "Card type") {
			if parts := strings.SplitN(line, ":", 2); len(parts) == 2 {
				name = strings.TrimSpace(parts[1])
			}
		}
		if strings.HasPrefix(line, "Bus info") {
			if parts := strings.SplitN(line, ":", 2); len(parts) == 2 {
				serial = strings.TrimSpace(parts[1])
			}
		}
	}

	id := NewNativeDeviceId(name, serial)
	return CameraDevice{
		ID:            id,
		Name:          name,
		TransportPath: path,
		IsConnected:   true,
	}, nil
}

// WatchHotplug starts (lazily) the platform device event source and
// translates its add/remove events into hotplug callbacks by diffing
// against the last known enumeration.
func (b *NativeBackend) WatchHotplug(cb HotplugCallback) error {
	b.mu.Lock()
	b.onEvent = cb
	if b.source == nil {
		b.source = GetDeviceEventSourceFactory().Create()
	}
	source := b.source
	b.mu.Unlock()

	ctx := context.Background()
	if err := source.Start(ctx); err != nil {
		return ErrHotplug("failed to start device event source", err)
	}

	go func() {
		for evt := range source.Events() {
			b.handleDeviceEvent(ctx, evt)
		}
	}()
	return nil
}

func (b *NativeBackend) handleDeviceEvent(ctx context.Context, evt DeviceEvent) {
	switch evt.Type {
	case DeviceEventRemove:
		b.mu.Lock()
		var removed *CameraDevice
		for id, d := range b.known {
			if d.TransportPath == evt.DevicePath {
				delete(b.known, id)
				dCopy := d
				removed = &dCopy
				break
			}
		}
		cb := b.onEvent
		b.mu.Unlock()
		if removed != nil && cb != nil {
			cb(NewHotplugDisconnected(removed.ID))
		}
	case DeviceEventAdd, DeviceEventChange:
		dev, err := b.describeDevice(ctx, evt.DevicePath)
		if err != nil {
			return
		}
		b.mu.Lock()
		_, alreadyKnown := b.known[dev.ID]
		b.known[dev.ID] = dev
		cb := b.onEvent
		b.mu.Unlock()
		if !alreadyKnown && cb != nil {
			cb(NewHotplugConnected(dev))
		}
	}
}

// GetControls queries every control in nativeControlTable that the device
// actually reports, skipping any v4l2-ctl rejects as unsupported.
func (b *NativeBackend) GetControls(ctx context.Context, id DeviceId) ([]ControlDescriptor, error) {
	path, err := b.resolvePath(id)
	if err != nil {
		return nil, err
	}

	out, err := b.exec.Run(ctx, path, "--list-ctrls")
	if err != nil {
		return nil, ErrControlQuery(id, "failed to list controls", err)
	}
	available := parseV4L2Controls(out)

	var descriptors []ControlDescriptor
	for _, mapping := range nativeControlTable {
		raw, ok := available[mapping.name]
		if !ok {
			continue
		}
		desc := ControlDescriptor{
			ID:        mapping.id,
			Name:      mapping.id.Name(),
			Group:     mapping.id.Group(),
			Kind:      KindSlider,
			Min:       raw.min,
			Max:       raw.max,
			Step:      raw.step,
			Current:   raw.value,
			Supported: true,
		}
		if raw.isBool {
			desc.Kind = KindToggle
		}
		if mapping.autoName != "" {
			if autoRaw, hasAuto := available[mapping.autoName]; hasAuto {
				desc.Flags.SupportsAuto = true
				desc.Flags.IsAutoEnabled = autoRaw.value != 0
			}
		}
		descriptors = append(descriptors, desc)
	}
	return descriptors, nil
}

// GetControl reads the current value of a single control.
func (b *NativeBackend) GetControl(ctx context.Context, id DeviceId, control ControlId) (ControlValue, error) {
	path, err := b.resolvePath(id)
	if err != nil {
		return ControlValue{}, err
	}
	mapping, ok := nativeMappingFor(control)
	if !ok {
		return ControlValue{}, ErrControlQuery(id, fmt.Sprintf("control %q unsupported by native backend", control.IDString()), nil)
	}

	out, err := b.exec.Run(ctx, path, "--list-ctrls")
	if err != nil {
		return ControlValue{}, ErrControlQuery(id, "failed to read control", err)
	}
	available := parseV4L2Controls(out)
	raw, ok := available[mapping.name]
	if !ok {
		return ControlValue{}, ErrControlQuery(id, fmt.Sprintf("control %q not reported by device", control.IDString()), nil)
	}
	minV, maxV := raw.min, raw.max
	return NewControlValue(raw.value, minV, maxV), nil
}

// SetControl applies a new value using v4l2-ctl --set-ctrl.
func (b *NativeBackend) SetControl(ctx context.Context, id DeviceId, control ControlId, value ControlValue) error {
	path, err := b.resolvePath(id)
	if err != nil {
		return err
	}
	mapping, ok := nativeMappingFor(control)
	if !ok {
		return ErrControlWrite(id, fmt.Sprintf("control %q unsupported by native backend", control.IDString()), nil)
	}

	arg := fmt.Sprintf("%s=%d", mapping.name, value.Int32())
	if _, err := b.exec.Run(ctx, path, "--set-ctrl", arg); err != nil {
		return ErrControlWrite(id, "failed to set control", err)
	}
	return nil
}

// GetFormats lists supported pixel formats and frame sizes via
// --list-formats-ext, ordered per the shared FormatDescriptor ordering rule.
func (b *NativeBackend) GetFormats(ctx context.Context, id DeviceId) ([]FormatDescriptor, error) {
	path, err := b.resolvePath(id)
	if err != nil {
		return nil, err
	}
	out, err := b.exec.Run(ctx, path, "--list-formats-ext")
	if err != nil {
		return nil, ErrFormatQuery(id, "failed to list formats", err)
	}
	formats := parseV4L2Formats(out)
	SortFormats(formats)
	return formats, nil
}

func (b *NativeBackend) resolvePath(id DeviceId) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if dev, ok := b.known[id]; ok {
		return dev.TransportPath, nil
	}
	return "", ErrDeviceNotFound(id)
}

func nativeMappingFor(id ControlId) (nativeControlMapping, bool) {
	for _, m := range nativeControlTable {
		if m.id == id {
			return m, true
		}
	}
	return nativeControlMapping{}, false
}

type v4l2RawControl struct {
	value  int32
	min    *int32
	max    *int32
	step   *int32
	isBool bool
}

var ctrlLineRe = regexp.MustCompile(`^\s*(\w+)\s+0x[0-9a-fA-F]+\s+\(([a-z0-9]+)\)\s*:\s*(.*)$`)
var ctrlFieldRe = regexp.MustCompile(`(\w+)=(-?\d+)`)

// parseV4L2Controls parses v4l2-ctl --list-ctrls output, e.g.:
//
//	brightness 0x00980900 (int)    : min=-64 max=64 step=1 default=0 value=0
//	white_balance_automatic 0x0098090c (bool)   : default=1 value=1
func parseV4L2Controls(out string) map[string]v4l2RawControl {
	result := make(map[string]v4l2RawControl)
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		m := ctrlLineRe.FindStringSubmatch(scanner.Text())
		if m == nil {
			continue
		}
		name, kind, fields := m[1], m[2], m[3]
		rc := v4l2RawControl{isBool: kind == "bool"}
		for _, fm := range ctrlFieldRe.FindAllStringSubmatch(fields, -1) {
			n, err := strconv.Atoi(fm[2])
			if err != nil {
				continue
			}
			v := int32(n)
			switch fm[1] {
			case "min":
				rc.min = &v
			case "max":
				rc.max = &v
			case "step":
				rc.step = &v
			case "value":
				rc.value = v
			}
		}
		result[name] = rc
	}
	return result
}

var formatHeaderRe = regexp.MustCompile(`^\s*\[\d+\]:\s+'(\w+)'`)
var sizeRe = regexp.MustCompile(`Size:\s+Discrete\s+(\d+)x(\d+)`)
var fpsRe = regexp.MustCompile(`\(([0-9.]+)\s+fps\)`)

// parseV4L2Formats parses v4l2-ctl --list-formats-ext output, which
// interleaves a pixel-format header with indented Size/Interval lines.
func parseV4L2Formats(out string) []FormatDescriptor {
	var formats []FormatDescriptor
	var currentFormat string

	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		line := scanner.Text()
		if m := formatHeaderRe.FindStringSubmatch(line); m != nil {
			currentFormat = m[1]
			continue
		}
		if currentFormat == "" {
			continue
		}
		sm := sizeRe.FindStringSubmatch(line)
		if sm == nil {
			continue
		}
		width, _ := strconv.Atoi(sm[1])
		height, _ := strconv.Atoi(sm[2])
		fps := 30
		if fm := fpsRe.FindStringSubmatch(line); fm != nil {
			if v, err := strconv.ParseFloat(fm[1], 64); err == nil {
				fps = int(v + 0.5)
			}
		}
		formats = append(formats, FormatDescriptor{
			PixelFormat: currentFormat,
			Width:       width,
			Height:      height,
			FPS:         fps,
		})
	}
	return formats
}
