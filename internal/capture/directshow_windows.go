//go:build windows

package capture

import "fmt"

// DirectShowBuilder is the Windows Builder implementation. Building and
// running a DirectShow filter graph (source filter, Sample Grabber, Null
// Renderer, media-type negotiation, and the OBS Virtual Camera workarounds
// graph.go's isOBSVirtualCamera gates) requires hand-written COM vtable
// calls against ICaptureGraphBuilder2/ISampleGrabber that go-ole's
// IDispatch-oriented helpers don't expose, and is out of scope for this
// pass; V4L2Builder (internal/capture/v4l2_linux.go) is this core's
// complete reference implementation of the capture-graph contract.
type DirectShowBuilder struct{}

func NewDirectShowBuilder() *DirectShowBuilder { return &DirectShowBuilder{} }

func (b *DirectShowBuilder) Run(req GraphRequest) error {
	return fmt.Errorf("directshow capture graph not implemented for device %q", req.FriendlyName)
}
