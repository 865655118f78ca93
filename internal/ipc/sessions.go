package ipc

import (
	"sync"

	"github.com/webbertakken/camera-core/internal/camera"
	"github.com/webbertakken/camera-core/internal/capture"
	"github.com/webbertakken/camera-core/internal/logging"
)

const (
	defaultPreviewWidth  = 1280
	defaultPreviewHeight = 720
)

// sessionEntry pairs a capture session with the geometry it was started
// with, so get_diagnostics and future re-negotiation can report it.
type sessionEntry struct {
	session *capture.Session
	width   int
	height  int
	fps     int
}

// Sessions tracks at most one active capture.Session per device and
// implements camera.SessionManager so the hotplug bridge can start/stop
// previews on connect/disconnect using the same bookkeeping start_preview
// and stop_preview use.
type Sessions struct {
	mu      sync.Mutex
	byID    map[camera.DeviceId]*sessionEntry
	builder capture.Builder
	logger  *logging.Logger
	onError func(deviceID camera.DeviceId, message string)
}

// NewSessions constructs an empty session table. onFatal is invoked (from
// the capture or watchdog goroutine) when a session fails after starting;
// the server wires this to a preview-error push notification.
func NewSessions(builder capture.Builder, onFatal func(deviceID camera.DeviceId, message string)) *Sessions {
	return &Sessions{
		byID:    make(map[camera.DeviceId]*sessionEntry),
		builder: builder,
		logger:  logging.NewLogger("ipc-sessions"),
		onError: onFatal,
	}
}

// Start begins a preview for id at the given geometry, replacing any
// existing session for that device. fps is recorded for diagnostics; the
// capture graph itself negotiates its own frame rate with the device.
func (s *Sessions) Start(id camera.DeviceId, friendlyName string, width, height, fps int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.byID[id]; ok {
		existing.session.Stop()
	}

	session := capture.NewSession(s.builder, id.String(), friendlyName, width, height, func(deviceID, message string) {
		if s.onError != nil {
			s.onError(camera.DeviceId(deviceID), message)
		}
	})
	s.byID[id] = &sessionEntry{session: session, width: width, height: height, fps: fps}
}

// StartDefault implements camera.SessionManager for the hotplug bridge's
// auto-start-on-connect behavior, using a fixed default geometry.
func (s *Sessions) StartDefault(id camera.DeviceId, name string) {
	s.Start(id, name, defaultPreviewWidth, defaultPreviewHeight, 30)
}

// Stop idempotently tears down the session for id, if any, and implements
// camera.SessionManager for the hotplug bridge's stop-on-disconnect path.
func (s *Sessions) Stop(id camera.DeviceId) {
	s.mu.Lock()
	entry, ok := s.byID[id]
	if ok {
		delete(s.byID, id)
	}
	s.mu.Unlock()

	if ok {
		entry.session.Stop()
	}
}

// Get returns the active session for id, if any.
func (s *Sessions) Get(id camera.DeviceId) (*capture.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.byID[id]
	if !ok {
		return nil, false
	}
	return entry.session, true
}

// StopAll tears down every active session, used on server shutdown.
func (s *Sessions) StopAll() {
	s.mu.Lock()
	entries := make([]*sessionEntry, 0, len(s.byID))
	for id, e := range s.byID {
		entries = append(entries, e)
		delete(s.byID, id)
	}
	s.mu.Unlock()

	for _, e := range entries {
		e.session.Stop()
	}
}
