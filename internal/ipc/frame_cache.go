package ipc

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"sync"

	"golang.org/x/image/draw"

	"github.com/webbertakken/camera-core/internal/camera"
	"github.com/webbertakken/camera-core/internal/capture"
)

const (
	jpegQuality     = 75
	thumbnailWidth  = 160
	thumbnailHeight = 120
)

// cacheEntry is one device's memoized get_frame result, keyed by the frame
// buffer's own sequence counter per §6's get-frame caching rule.
type cacheEntry struct {
	sequence uint64
	base64   string
}

// FrameCache memoizes the base64 JPEG encoding of the latest frame per
// device so repeated get_frame polling (the common desktop-shell preview
// pattern) doesn't re-encode a frame that hasn't changed.
type FrameCache struct {
	mu    sync.Mutex
	full  map[camera.DeviceId]cacheEntry
	thumb map[camera.DeviceId]cacheEntry
}

// NewFrameCache constructs an empty cache.
func NewFrameCache() *FrameCache {
	return &FrameCache{
		full:  make(map[camera.DeviceId]cacheEntry),
		thumb: make(map[camera.DeviceId]cacheEntry),
	}
}

// Purge drops any cached entries for id, called on stop_preview.
func (c *FrameCache) Purge(id camera.DeviceId) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.full, id)
	delete(c.thumb, id)
}

// GetFrame returns the base64 JPEG of buf's latest frame, re-encoding only
// if buf's sequence has advanced since the last call for this device.
func (c *FrameCache) GetFrame(id camera.DeviceId, buf *capture.Buffer) (string, error) {
	return c.get(id, buf, false)
}

// GetThumbnail is the same as GetFrame but scales the result to
// 160x120 before encoding, cached independently of the full-size entry.
func (c *FrameCache) GetThumbnail(id camera.DeviceId, buf *capture.Buffer) (string, error) {
	return c.get(id, buf, true)
}

func (c *FrameCache) get(id camera.DeviceId, buf *capture.Buffer, thumbnail bool) (string, error) {
	seq := buf.Sequence()
	if seq == 0 {
		return "", fmt.Errorf("no frame available yet")
	}

	c.mu.Lock()
	table := c.full
	if thumbnail {
		table = c.thumb
	}
	if entry, ok := table[id]; ok && entry.sequence == seq {
		c.mu.Unlock()
		return entry.base64, nil
	}
	c.mu.Unlock()

	frame := buf.Latest()
	if frame == nil {
		return "", fmt.Errorf("no frame available yet")
	}

	var img image.Image = rgb24ToImage(frame)
	if thumbnail {
		img = scaleToThumbnail(img)
	}

	encoded, err := encodeJPEG(img)
	if err != nil {
		return "", fmt.Errorf("encode jpeg: %w", err)
	}

	c.mu.Lock()
	table[id] = cacheEntry{sequence: seq, base64: encoded}
	c.mu.Unlock()

	return encoded, nil
}

// rgb24ToImage converts capture.Frame's tightly packed, top-down RGB24
// buffer to an *image.NRGBA, the form both image/jpeg and
// golang.org/x/image/draw operate on.
func rgb24ToImage(f *capture.Frame) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, f.Width, f.Height))
	for y := 0; y < f.Height; y++ {
		srcRow := f.Data[y*f.Width*3 : (y+1)*f.Width*3]
		dstRow := img.Pix[y*img.Stride : y*img.Stride+f.Width*4]
		for x := 0; x < f.Width; x++ {
			dstRow[x*4+0] = srcRow[x*3+0]
			dstRow[x*4+1] = srcRow[x*3+1]
			dstRow[x*4+2] = srcRow[x*3+2]
			dstRow[x*4+3] = 0xFF
		}
	}
	return img
}

func scaleToThumbnail(src image.Image) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, thumbnailWidth, thumbnailHeight))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
	return dst
}

func encodeJPEG(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
