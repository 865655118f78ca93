// Package ipc implements the JSON-RPC 2.0 over WebSocket surface the
// desktop shell talks to: a single local client connection, a
// map[string]HandlerFunc method registry, and three push notifications
// (camera-hotplug, settings-restored, preview-error). Concurrent request
// handling is bounded by an internal/camera.BoundedWorkerPool so a slow
// get_frame JPEG encode cannot starve list_cameras.
package ipc
