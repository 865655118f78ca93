package settings

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/webbertakken/camera-core/internal/logging"
)

// debounceInterval matches the 500ms reload debounce of internal/config's
// ConfigManager, so the two subsystems behave consistently under rapid change.
const debounceInterval = 500 * time.Millisecond

// Store is a persistent, debounced key/value store of per-camera control
// settings. Writes are applied in memory immediately and flushed to disk
// after a short debounce window so rapid slider drags collapse into a
// single write.
//
// Grounded on the original settings::store::SettingsStore: same atomic
// dirty-flag + notify-channel debounce shape, re-expressed with Go
// primitives (sync.Mutex + a buffered "dirty" channel in place of
// tokio::sync::Notify).
type Store struct {
	path string

	mu   sync.Mutex
	data File

	dirty    atomic.Bool
	saveChan chan struct{}
	stopOnce sync.Once
	stopChan chan struct{}
	wg       sync.WaitGroup

	logger *logging.Logger
}

// NewStore loads path if it exists (defaulting to an empty File otherwise)
// and starts the background debounce-save goroutine.
func NewStore(path string) (*Store, error) {
	data, err := Load(path)
	if err != nil {
		return nil, err
	}

	s := &Store{
		path:     path,
		data:     data,
		saveChan: make(chan struct{}, 1),
		stopChan: make(chan struct{}),
		logger:   logging.NewLogger("settings-store"),
	}
	s.wg.Add(1)
	go s.debounceLoop()
	return s, nil
}

// Load reads and parses path, returning an empty File if it does not exist.
func Load(path string) (File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return newFile(), nil
		}
		return File{}, err
	}
	var f File
	if err := json.Unmarshal(raw, &f); err != nil {
		return File{}, err
	}
	if f.Cameras == nil {
		f.Cameras = make(map[string]CameraSettings)
	}
	return f, nil
}

// Save writes the current in-memory state to disk atomically: write to a
// ".tmp" sibling, then rename over the real path.
func (s *Store) Save() error {
	s.mu.Lock()
	data := s.data
	s.mu.Unlock()

	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, raw, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpPath, s.path)
}

// GetCamera returns the saved settings for a device, and false if none are
// saved.
func (s *Store) GetCamera(deviceID string) (CameraSettings, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cam, ok := s.data.Cameras[deviceID]
	return cam, ok
}

// SetControl records a single control value for a device, creating the
// camera's entry if it doesn't exist yet, and schedules a debounced save.
func (s *Store) SetControl(deviceID, cameraName, controlID string, value int32) {
	s.mu.Lock()
	entry, ok := s.data.Cameras[deviceID]
	if !ok {
		entry = CameraSettings{Controls: make(map[string]int32)}
	}
	entry.Name = cameraName
	if entry.Controls == nil {
		entry.Controls = make(map[string]int32)
	}
	entry.Controls[controlID] = value
	s.data.Cameras[deviceID] = entry
	s.mu.Unlock()

	s.markDirty()
}

// RemoveCamera deletes all saved settings for a device. Idempotent.
func (s *Store) RemoveCamera(deviceID string) {
	s.mu.Lock()
	delete(s.data.Cameras, deviceID)
	s.mu.Unlock()

	s.markDirty()
}

func (s *Store) markDirty() {
	s.dirty.Store(true)
	select {
	case s.saveChan <- struct{}{}:
	default:
	}
}

// debounceLoop waits for a dirty notification, sleeps the debounce window,
// then saves once if still marked dirty. The atomic flag (rather than just
// draining the channel) means a SetControl that lands during the sleep
// still results in exactly one more save.
func (s *Store) debounceLoop() {
	defer s.wg.Done()
	for {
		select {
		case <-s.stopChan:
			return
		case <-s.saveChan:
		}

		select {
		case <-s.stopChan:
			return
		case <-time.After(debounceInterval):
		}

		if s.dirty.Swap(false) {
			if err := s.Save(); err != nil {
				s.logger.WithError(err).Warn("failed to save settings")
			}
		}
	}
}

// Close stops the debounce goroutine, flushing one final save if a write is
// still pending.
func (s *Store) Close() error {
	var err error
	s.stopOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()
		if s.dirty.Swap(false) {
			err = s.Save()
		}
	})
	return err
}
