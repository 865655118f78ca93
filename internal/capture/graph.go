package capture

import "strings"

// Builder constructs and runs a platform capture graph for one device,
// pushing frames into buf until running is cleared. Run blocks for the
// lifetime of the capture; it is always invoked on its own goroutine by
// Session.
//
// Concrete implementations: V4L2Builder (internal/capture/v4l2_linux.go,
// the portable default and the one this module can actually exercise) and
// DirectShowBuilder (internal/capture/directshow_windows.go, build-tagged;
// its Run always returns a not-implemented error).
type Builder interface {
	Run(req GraphRequest) error
}

// GraphRequest carries everything a Builder needs to construct and run one
// capture graph.
type GraphRequest struct {
	DevicePath     string
	FriendlyName   string
	Width          int
	Height         int
	Buf            *Buffer
	Stats          *Stats
	Running        *Flag
	Shutdown       *Flag
	OnFatal        func(error)
}

// isOBSVirtualCamera gates the cluster of workarounds OBS Virtual Camera
// needs: skip SetFormat on the source, force NV12 directly, strip the
// reference clock. Kept as a single predicate so the special-casing isn't
// scattered across the graph builder.
func isOBSVirtualCamera(friendlyName string) bool {
	lower := strings.ToLower(friendlyName)
	return strings.Contains(lower, "obs") && strings.Contains(lower, "virtual")
}
