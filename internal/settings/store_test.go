package settings

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempStorePath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "cameras.json")
}

func TestLoad_ReturnsEmptyWhenFileMissing(t *testing.T) {
	f, err := Load(filepath.Join(t.TempDir(), "nonexistent.json"))
	require.NoError(t, err)
	assert.Empty(t, f.Cameras)
}

func TestLoad_ParsesValidFile(t *testing.T) {
	path := tempStorePath(t)
	require.NoError(t, os.WriteFile(path, []byte(`{"cameras":{"dev-1":{"name":"Cam","controls":{"brightness":100}}}}`), 0o644))

	f, err := Load(path)
	require.NoError(t, err)
	require.Contains(t, f.Cameras, "dev-1")
	assert.Equal(t, "Cam", f.Cameras["dev-1"].Name)
	assert.Equal(t, int32(100), f.Cameras["dev-1"].Controls["brightness"])
}

func TestLoad_ErrorsOnInvalidJSON(t *testing.T) {
	path := tempStorePath(t)
	require.NoError(t, os.WriteFile(path, []byte("not valid json"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestStore_SetControlCreatesEntryAndSavesAtomically(t *testing.T) {
	path := tempStorePath(t)
	s, err := NewStore(path)
	require.NoError(t, err)
	defer s.Close()

	s.SetControl("dev-1", "Camera", "brightness", 150)
	require.NoError(t, s.Save())

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), ".tmp file must not remain after save")

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, int32(150), loaded.Cameras["dev-1"].Controls["brightness"])
}

func TestStore_SetControlPreservesOtherCamerasAndControls(t *testing.T) {
	s, err := NewStore(tempStorePath(t))
	require.NoError(t, err)
	defer s.Close()

	s.SetControl("dev-1", "Camera One", "brightness", 100)
	s.SetControl("dev-2", "Camera Two", "contrast", 50)
	s.SetControl("dev-1", "Camera One", "contrast", 75)

	cam1, ok := s.GetCamera("dev-1")
	require.True(t, ok)
	assert.Equal(t, int32(100), cam1.Controls["brightness"])
	assert.Equal(t, int32(75), cam1.Controls["contrast"])

	cam2, ok := s.GetCamera("dev-2")
	require.True(t, ok)
	assert.Equal(t, int32(50), cam2.Controls["contrast"])
}

func TestStore_RemoveCameraDeletesEntryIdempotently(t *testing.T) {
	s, err := NewStore(tempStorePath(t))
	require.NoError(t, err)
	defer s.Close()

	s.SetControl("dev-1", "Camera", "brightness", 100)
	s.RemoveCamera("dev-1")
	_, ok := s.GetCamera("dev-1")
	assert.False(t, ok)

	s.RemoveCamera("dev-1") // must not panic
}

func TestStore_DebouncedBurstPersistsLastValue(t *testing.T) {
	path := tempStorePath(t)
	s, err := NewStore(path)
	require.NoError(t, err)
	defer s.Close()

	for i := 0; i < 5; i++ {
		s.SetControl("dev-1", "Camera", "brightness", int32(i))
	}

	assert.Eventually(t, func() bool {
		loaded, err := Load(path)
		return err == nil && loaded.Cameras["dev-1"].Controls["brightness"] == 4
	}, 2*time.Second, 20*time.Millisecond)
}

func TestStore_CloseFlushesPendingSave(t *testing.T) {
	path := tempStorePath(t)
	s, err := NewStore(path)
	require.NoError(t, err)

	s.SetControl("dev-1", "Camera", "brightness", 42)
	require.NoError(t, s.Close())

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, int32(42), loaded.Cameras["dev-1"].Controls["brightness"])
}
