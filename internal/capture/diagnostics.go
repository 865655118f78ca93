package capture

import (
	"sync"
	"time"
)

// Stats collects rolling diagnostic counters for one capture session.
// All accessors are safe for concurrent use; a single writer (the frame
// callback and the capture goroutine) and many readers (IPC handlers) is
// the expected usage.
type Stats struct {
	mu            sync.Mutex
	frameCount    uint64
	dropCount     uint64
	totalBytes    uint64
	startTime     time.Time
	lastFrameTime time.Time
	latencyUs     uint64
	usbBusInfo    string
}

// Snapshot is the serialisable view of Stats returned over IPC.
type Snapshot struct {
	FPS          float64 `json:"fps"`
	FrameCount   uint64  `json:"frameCount"`
	DropCount    uint64  `json:"dropCount"`
	DropRate     float64 `json:"dropRate"`
	LatencyMs    float64 `json:"latencyMs"`
	BandwidthBps uint64  `json:"bandwidthBps"`
	USBBusInfo   *string `json:"usbBusInfo"`
}

// NewStats creates a zeroed stats collector with its clock started now.
func NewStats() *Stats {
	return &Stats{startTime: time.Now()}
}

// SetUSBBusInfo records a human-readable bus descriptor (e.g. "USB 3.0 Bus 2").
func (s *Stats) SetUSBBusInfo(info string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.usbBusInfo = info
}

// RecordFrame accounts for a successfully delivered frame of the given size,
// computing latency as elapsed-since-start minus the frame's own capture
// timestamp.
func (s *Stats) RecordFrame(bytes int, captureTimestampUs uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frameCount++
	s.totalBytes += uint64(bytes)
	s.lastFrameTime = time.Now()

	nowUs := uint64(time.Since(s.startTime).Microseconds())
	if captureTimestampUs <= nowUs {
		s.latencyUs = nowUs - captureTimestampUs
	}
}

// RecordDrop accounts for a frame that failed validation or conversion.
func (s *Stats) RecordDrop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dropCount++
}

// Reset zeroes all counters and restarts the elapsed-time clock.
func (s *Stats) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frameCount = 0
	s.dropCount = 0
	s.totalBytes = 0
	s.startTime = time.Now()
	s.lastFrameTime = time.Time{}
	s.latencyUs = 0
	s.usbBusInfo = ""
}

// Snapshot takes a serialisable copy of the current derived metrics.
func (s *Stats) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	var usbInfo *string
	if s.usbBusInfo != "" {
		v := s.usbBusInfo
		usbInfo = &v
	}

	return Snapshot{
		FPS:          s.fpsLocked(),
		FrameCount:   s.frameCount,
		DropCount:    s.dropCount,
		DropRate:     s.dropRateLocked(),
		LatencyMs:    float64(s.latencyUs) / 1000.0,
		BandwidthBps: s.bandwidthBpsLocked(),
		USBBusInfo:   usbInfo,
	}
}

func (s *Stats) fpsLocked() float64 {
	elapsed := time.Since(s.startTime).Seconds()
	if elapsed < 0.001 {
		return 0
	}
	return float64(s.frameCount) / elapsed
}

func (s *Stats) dropRateLocked() float64 {
	total := s.frameCount + s.dropCount
	if total == 0 {
		return 0
	}
	return (float64(s.dropCount) / float64(total)) * 100.0
}

func (s *Stats) bandwidthBpsLocked() uint64 {
	elapsed := time.Since(s.startTime).Seconds()
	if elapsed < 0.001 {
		return 0
	}
	return uint64(float64(s.totalBytes) / elapsed)
}
