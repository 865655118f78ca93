package camera

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulatedBackend_EnumerateReturnsOneFixedDevice(t *testing.T) {
	b := NewSimulatedBackend()
	devices, err := b.EnumerateDevices(context.Background())
	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.Equal(t, simulatedDeviceID, devices[0].ID)
}

func TestSimulatedBackend_SetControlPersistsAndClamps(t *testing.T) {
	b := NewSimulatedBackend()
	err := b.SetControl(context.Background(), simulatedDeviceID, Brightness, NewControlValue(500, nil, nil))
	require.NoError(t, err)

	v, err := b.GetControl(context.Background(), simulatedDeviceID, Brightness)
	require.NoError(t, err)
	assert.Equal(t, int32(100), v.Int32())
}

func TestSimulatedBackend_UnknownControlErrors(t *testing.T) {
	b := NewSimulatedBackend()
	_, err := b.GetControl(context.Background(), simulatedDeviceID, CanonIso)
	assert.Error(t, err)
}

func TestSimulatedBackend_UnknownDeviceReturnsDeviceNotFound(t *testing.T) {
	b := NewSimulatedBackend()
	_, err := b.GetControls(context.Background(), DeviceId("dummy:other"))
	assert.True(t, IsDeviceNotFound(err))
}

func TestSimulatedBackend_NextFrameReturnsConstantPayload(t *testing.T) {
	b := NewSimulatedBackend()
	f1 := b.NextFrame()
	f2 := b.NextFrame()
	assert.Equal(t, f1, f2)
	assert.NotEmpty(t, f1)
}
