package camera

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeviceIdFromDevicePath_StableAndPrefixed(t *testing.T) {
	path := `\\?\usb#vid_046d&pid_085e&mi_00#6&abc123#{a5dcbf10-6530-11d2-901f-00c04fb951ed}`

	first := NewDeviceIdFromDevicePath(path)
	second := NewDeviceIdFromDevicePath(path)

	assert.Equal(t, first, second, "same path must yield the same id across calls")
	assert.True(t, len(first) > len(prefixNative))
	assert.Equal(t, prefixNative+"046d:085e:6&abc123", string(first))
}

func TestDeviceIdFromDevicePath_DifferentDevicesDiffer(t *testing.T) {
	a := NewDeviceIdFromDevicePath(`\\?\usb#vid_046d&pid_085e&mi_00#serial1#{guid}`)
	b := NewDeviceIdFromDevicePath(`\\?\usb#vid_046d&pid_085e&mi_00#serial2#{guid}`)
	assert.NotEqual(t, a, b)
}

func TestDeviceIdFromDevicePath_FallsBackToHashWithoutSerial(t *testing.T) {
	path := `\\?\usb#vid_046d&pid_085e&mi_00#{a5dcbf10-6530-11d2-901f-00c04fb951ed}`
	id := NewDeviceIdFromDevicePath(path)
	assert.Contains(t, string(id), "046d:085e:")
	// no stable serial segment present, so the tail must be a hash, not empty
	assert.NotEqual(t, prefixNative+"046d:085e:", string(id))
}

func TestDeviceIdFromDevicePath_UnknownWithoutVidPid(t *testing.T) {
	id := NewDeviceIdFromDevicePath("/dev/video0")
	assert.Contains(t, string(id), prefixUnknown)
}

func TestNewDeviceIdFromTriple_UsesSerialWhenPresent(t *testing.T) {
	id := NewDeviceIdFromTriple("Canon", "EOS R5", "SER001")
	assert.Equal(t, DeviceId("canon:SER001"), id)
}

func TestNewDeviceIdFromTriple_HashesWhenSerialMissing(t *testing.T) {
	id := NewDeviceIdFromTriple("Canon", "EOS R5", "")
	assert.Contains(t, string(id), prefixVendor)
	assert.NotEqual(t, DeviceId("canon:"), id)
}

func TestHotplugEvent_Constructors(t *testing.T) {
	dev := CameraDevice{ID: "ds:1", Name: "Cam"}
	c := NewHotplugConnected(dev)
	assert.Equal(t, HotplugConnected, c.Type)
	assert.Equal(t, dev, *c.Device)

	d := NewHotplugDisconnected("ds:1")
	assert.Equal(t, HotplugDisconnected, d.Type)
	assert.Equal(t, DeviceId("ds:1"), d.ID)
}
