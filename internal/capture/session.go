package capture

import (
	"fmt"
	"sync"
	"time"

	"github.com/webbertakken/camera-core/internal/logging"
)

const (
	ringCapacity           = 3
	watchdogStartupTimeout = 30 * time.Second
	watchdogStartupPoll    = 250 * time.Millisecond
	watchdogFrameTimeout   = 5 * time.Second
)

// ErrorCallback reports a capture-graph failure for a device; called at most
// once per session, either by the capture goroutine (graph construction
// failure) or the watchdog (no-frames timeout).
type ErrorCallback func(deviceID, message string)

// Session is the per-camera capture state: a frame ring buffer, a capture
// goroutine running the platform graph, and a watchdog goroutine that fails
// the session if, once running, it produces no frame within the frame
// timeout. A session that never reaches running is left to the capture
// goroutine's own error report; the watchdog then exits silently.
type Session struct {
	deviceID        string
	buffer          *Buffer
	running         Flag
	shutdown        Flag
	stats           *Stats
	wg              sync.WaitGroup
	stopOnce        sync.Once
	logger          *logging.Logger
	startupTimeout  time.Duration
	startupPoll     time.Duration
	frameTimeout    time.Duration
}

// SessionOption customises watchdog timing; used by tests to shrink the
// otherwise multi-second watchdog windows.
type SessionOption func(*Session)

// WithWatchdogTimeouts overrides the default 30s startup / 5s first-frame
// windows and the 250ms poll interval (production code should never need
// this).
func WithWatchdogTimeouts(startup, frame, poll time.Duration) SessionOption {
	return func(s *Session) {
		s.startupTimeout = startup
		s.frameTimeout = frame
		s.startupPoll = poll
	}
}

// NewSession constructs a session and immediately spawns its capture and
// watchdog goroutines. onError, if non-nil, is invoked with (deviceID,
// human-readable message) if the capture graph fails to build or never
// delivers a first frame.
func NewSession(builder Builder, deviceID, friendlyName string, width, height int, onError ErrorCallback, opts ...SessionOption) *Session {
	s := &Session{
		deviceID:       deviceID,
		buffer:         NewBuffer(ringCapacity),
		stats:          NewStats(),
		logger:         logging.NewLogger("capture-session"),
		startupTimeout: watchdogStartupTimeout,
		startupPoll:    watchdogStartupPoll,
		frameTimeout:   watchdogFrameTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.wg.Add(2)
	go s.captureLoop(builder, deviceID, friendlyName, width, height, onError)
	go s.watchdogLoop(onError)

	return s
}

func (s *Session) captureLoop(builder Builder, deviceID, friendlyName string, width, height int, onError ErrorCallback) {
	defer s.wg.Done()
	s.logger.WithFields(logging.Fields{"device_id": deviceID}).Info("capture goroutine starting")

	req := GraphRequest{
		DevicePath:   deviceID,
		FriendlyName: friendlyName,
		Width:        width,
		Height:       height,
		Buf:          s.buffer,
		Stats:        s.stats,
		Running:      &s.running,
		Shutdown:     &s.shutdown,
	}

	if err := builder.Run(req); err != nil {
		s.logger.WithError(err).WithFields(logging.Fields{"device_id": deviceID}).
			Error("capture graph failed")
		if onError != nil {
			onError(deviceID, err.Error())
		}
	}

	s.logger.WithFields(logging.Fields{"device_id": deviceID}).Info("capture goroutine exiting")
}

// watchdogLoop implements the two-phase sentinel described by the capture
// pipeline design: a startup phase waiting for running to flip true, then a
// frame phase waiting for the first sequence increment.
func (s *Session) watchdogLoop(onError ErrorCallback) {
	defer s.wg.Done()

	deadline := time.Now().Add(s.startupTimeout)
	for !s.running.Get() {
		if s.shutdown.Get() {
			return
		}
		if time.Now().After(deadline) {
			return
		}
		time.Sleep(s.startupPoll)
	}

	frameDeadline := time.Now().Add(s.frameTimeout)
	for time.Now().Before(frameDeadline) {
		if s.buffer.Sequence() > 0 {
			return
		}
		if s.shutdown.Get() {
			return
		}
		time.Sleep(s.startupPoll)
	}

	if s.buffer.Sequence() > 0 {
		return
	}

	s.running.Set(false)
	msg := fmt.Sprintf("camera produces no frames (%ds timeout)", int(s.frameTimeout.Seconds()))
	s.logger.WithFields(logging.Fields{"device_id": s.deviceID}).Warn(msg)
	if onError != nil {
		onError(s.deviceID, msg)
	}
}

// Buffer returns the session's frame ring buffer.
func (s *Session) Buffer() *Buffer { return s.buffer }

// IsRunning reports whether the capture graph is actively delivering frames.
func (s *Session) IsRunning() bool { return s.running.Get() }

// DeviceID returns the device this session captures from.
func (s *Session) DeviceID() string { return s.deviceID }

// Diagnostics returns a snapshot of this session's rolling stats.
func (s *Session) Diagnostics() Snapshot { return s.stats.Snapshot() }

// Stop idempotently signals both goroutines to exit and waits for them.
func (s *Session) Stop() {
	s.stopOnce.Do(func() {
		s.shutdown.Set(true)
		s.running.Set(false)
		s.wg.Wait()
		s.logger.WithFields(logging.Fields{"device_id": s.deviceID}).Info("capture session stopped")
	})
}
