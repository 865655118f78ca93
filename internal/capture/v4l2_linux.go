//go:build linux

package capture

import (
	"encoding/binary"
	"fmt"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/webbertakken/camera-core/internal/logging"
)

// V4L2 ioctl numbers and struct field offsets below are the fixed kernel ABI
// from <linux/videodev2.h>; they never change across kernel versions, which
// is the entire point of ioctl numbers. Struct layouts are accessed as raw
// byte buffers at these offsets rather than as Go structs to avoid relying
// on compiler struct-layout assumptions matching the kernel's C layout
// exactly.
const (
	vidiocQueryCap  = 0x80685600
	vidiocSFmt      = 0xc0d05605
	vidiocReqBufs   = 0xc0145608
	vidiocQueryBuf  = 0xc0585609
	vidiocQBuf      = 0xc058560f
	vidiocDQBuf     = 0xc0585611
	vidiocStreamOn  = 0x40045612
	vidiocStreamOff = 0x40045613

	v4l2BufTypeVideoCapture = 1
	v4l2MemoryMMAP          = 1
	v4l2FieldAny            = 0

	v4l2CapabilitySize    = 104
	v4l2FormatSize        = 208
	v4l2RequestBuffersSize = 20
	v4l2BufferSize        = 88

	// v4l2_format field offsets (type at 0, 4 bytes padding, then the pix
	// sub-struct embedded in the format union starting at byte 8).
	offFormatType            = 0
	offPixWidth              = 8
	offPixHeight             = 12
	offPixPixelFormat        = 16
	offPixField              = 20

	// v4l2_requestbuffers field offsets.
	offReqCount  = 0
	offReqType   = 4
	offReqMemory = 8

	// v4l2_buffer field offsets.
	offBufIndex     = 0
	offBufType      = 4
	offBufBytesUsed = 8
	offBufFlags     = 12
	offBufField     = 16
	offBufSequence  = 56
	offBufMemory    = 60
	offBufMOffset   = 64
	offBufLength    = 72

	v4l2BufferCount = 4
)

// v4l2PixFmtRGB24, v4l2PixFmtYUYV, v4l2PixFmtNV12 are V4L2 FourCC pixel
// format codes, little-endian-packed exactly as the kernel defines them
// (v4l2_fourcc('R','G','B','3') etc.).
const (
	v4l2PixFmtRGB24 uint32 = 'R' | 'G'<<8 | 'B'<<16 | '3'<<24
	v4l2PixFmtYUYV  uint32 = 'Y' | 'U'<<8 | 'Y'<<16 | 'V'<<24
	v4l2PixFmtNV12  uint32 = 'N' | 'V'<<8 | '1'<<16 | '2'<<24
)

var formatCandidates = []struct {
	fourcc  uint32
	subtype string
}{
	{v4l2PixFmtRGB24, "RGB24"},
	{v4l2PixFmtYUYV, "YUY2"},
	{v4l2PixFmtNV12, "NV12"},
}

// V4L2Builder is the portable Builder implementation: mmap-streaming
// capture against a /dev/videoN node via raw VIDIOC_* ioctls.
type V4L2Builder struct {
	logger *logging.Logger
}

func NewV4L2Builder() *V4L2Builder {
	return &V4L2Builder{logger: logging.NewLogger("v4l2-builder")}
}

func ioctl(fd int, req uint, arg unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), uintptr(req), uintptr(arg))
	if errno != 0 {
		return errno
	}
	return nil
}

func (b *V4L2Builder) Run(req GraphRequest) error {
	fd, err := unix.Open(req.DevicePath, unix.O_RDWR, 0)
	if err != nil {
		return fmt.Errorf("open %s: %w", req.DevicePath, err)
	}
	defer unix.Close(fd)

	subtype, negotiatedW, negotiatedH, err := b.negotiateFormat(fd, req.Width, req.Height, req.FriendlyName)
	if err != nil {
		return fmt.Errorf("format negotiation failed for %s: %w", req.DevicePath, err)
	}

	mmaps, err := b.requestAndMapBuffers(fd)
	if err != nil {
		return fmt.Errorf("buffer setup failed for %s: %w", req.DevicePath, err)
	}
	defer func() {
		for _, m := range mmaps {
			_ = unix.Munmap(m)
		}
	}()

	bufType := uint32(v4l2BufTypeVideoCapture)
	if err := ioctl(fd, vidiocStreamOn, unsafe.Pointer(&bufType)); err != nil {
		return fmt.Errorf("VIDIOC_STREAMON failed for %s: %w", req.DevicePath, err)
	}
	defer ioctl(fd, vidiocStreamOff, unsafe.Pointer(&bufType))

	req.Running.Set(true)
	b.logger.WithFields(logging.Fields{
		"device": req.DevicePath, "subtype": subtype, "width": negotiatedW, "height": negotiatedH,
	}).Info("v4l2 capture streaming")

	start := time.Now()
	for !req.Shutdown.Get() && req.Running.Get() {
		buf := make([]byte, v4l2BufferSize)
		binary.LittleEndian.PutUint32(buf[offBufType:], v4l2BufTypeVideoCapture)
		binary.LittleEndian.PutUint32(buf[offBufMemory:], v4l2MemoryMMAP)

		if err := ioctl(fd, vidiocDQBuf, unsafe.Pointer(&buf[0])); err != nil {
			if err == unix.EAGAIN {
				time.Sleep(10 * time.Millisecond)
				continue
			}
			return fmt.Errorf("VIDIOC_DQBUF failed for %s: %w", req.DevicePath, err)
		}

		index := binary.LittleEndian.Uint32(buf[offBufIndex:])
		bytesUsed := binary.LittleEndian.Uint32(buf[offBufBytesUsed:])

		if int(index) < len(mmaps) {
			raw := mmaps[index][:bytesUsed]
			var rgb []byte
			if need := negotiatedW * negotiatedH * 3; subtype == "RGB24" && len(raw) >= need {
				// V4L2's RGB3 is already top-down R,G,B: copy it out of the mmap buffer.
				rgb = append([]byte(nil), raw[:need]...)
			} else if subtype != "RGB24" {
				rgb = ConvertToRGB(subtype, raw, negotiatedW, negotiatedH)
			}
			if rgb != nil {
				ts := uint64(time.Since(start).Microseconds())
				req.Buf.Push(&Frame{Data: rgb, Width: negotiatedW, Height: negotiatedH, TimestampUs: ts})
				req.Stats.RecordFrame(len(rgb), ts)
			} else {
				req.Stats.RecordDrop()
			}
		}

		binary.LittleEndian.PutUint32(buf[offBufIndex:], index)
		if err := ioctl(fd, vidiocQBuf, unsafe.Pointer(&buf[0])); err != nil {
			return fmt.Errorf("VIDIOC_QBUF failed for %s: %w", req.DevicePath, err)
		}
	}

	return nil
}

// negotiateFormat tries RGB24 first, then YUY2, then NV12, returning the
// subtype name ConvertToRGB expects and the driver's actual negotiated
// dimensions (which may differ from what was requested).
func (b *V4L2Builder) negotiateFormat(fd int, width, height int, friendlyName string) (string, int, int, error) {
	obs := isOBSVirtualCamera(friendlyName)

	var lastErr error
	for _, candidate := range formatCandidates {
		if obs && candidate.subtype != "NV12" {
			// OBS Virtual Camera only advertises NV12 reliably; skip the
			// others to avoid a slow, doomed negotiation round-trip.
			continue
		}

		buf := make([]byte, v4l2FormatSize)
		binary.LittleEndian.PutUint32(buf[offFormatType:], v4l2BufTypeVideoCapture)
		binary.LittleEndian.PutUint32(buf[offPixWidth:], uint32(width))
		binary.LittleEndian.PutUint32(buf[offPixHeight:], uint32(height))
		binary.LittleEndian.PutUint32(buf[offPixPixelFormat:], candidate.fourcc)
		binary.LittleEndian.PutUint32(buf[offPixField:], v4l2FieldAny)

		if err := ioctl(fd, vidiocSFmt, unsafe.Pointer(&buf[0])); err != nil {
			lastErr = err
			continue
		}

		gotW := int(binary.LittleEndian.Uint32(buf[offPixWidth:]))
		gotH := int(binary.LittleEndian.Uint32(buf[offPixHeight:]))
		gotFourcc := binary.LittleEndian.Uint32(buf[offPixPixelFormat:])
		if gotFourcc != candidate.fourcc {
			// Driver silently substituted a format we don't know how to
			// convert; treat as a failed candidate and keep trying.
			lastErr = fmt.Errorf("driver returned unexpected fourcc 0x%x for %s request", gotFourcc, candidate.subtype)
			continue
		}
		return candidate.subtype, gotW, gotH, nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no candidate pixel format accepted")
	}
	return "", 0, 0, lastErr
}

func (b *V4L2Builder) requestAndMapBuffers(fd int) ([][]byte, error) {
	req := make([]byte, v4l2RequestBuffersSize)
	binary.LittleEndian.PutUint32(req[offReqCount:], v4l2BufferCount)
	binary.LittleEndian.PutUint32(req[offReqType:], v4l2BufTypeVideoCapture)
	binary.LittleEndian.PutUint32(req[offReqMemory:], v4l2MemoryMMAP)

	if err := ioctl(fd, vidiocReqBufs, unsafe.Pointer(&req[0])); err != nil {
		return nil, fmt.Errorf("VIDIOC_REQBUFS failed: %w", err)
	}
	count := binary.LittleEndian.Uint32(req[offReqCount:])
	if count == 0 {
		return nil, fmt.Errorf("driver allocated zero buffers")
	}

	mmaps := make([][]byte, 0, count)
	for i := uint32(0); i < count; i++ {
		buf := make([]byte, v4l2BufferSize)
		binary.LittleEndian.PutUint32(buf[offBufIndex:], i)
		binary.LittleEndian.PutUint32(buf[offBufType:], v4l2BufTypeVideoCapture)
		binary.LittleEndian.PutUint32(buf[offBufMemory:], v4l2MemoryMMAP)

		if err := ioctl(fd, vidiocQueryBuf, unsafe.Pointer(&buf[0])); err != nil {
			for _, m := range mmaps {
				_ = unix.Munmap(m)
			}
			return nil, fmt.Errorf("VIDIOC_QUERYBUF failed for buffer %d: %w", i, err)
		}

		offset := binary.LittleEndian.Uint32(buf[offBufMOffset:])
		length := binary.LittleEndian.Uint32(buf[offBufLength:])

		mapped, err := unix.Mmap(fd, int64(offset), int(length), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
		if err != nil {
			for _, m := range mmaps {
				_ = unix.Munmap(m)
			}
			return nil, fmt.Errorf("mmap buffer %d failed: %w", i, err)
		}
		mmaps = append(mmaps, mapped)

		if err := ioctl(fd, vidiocQBuf, unsafe.Pointer(&buf[0])); err != nil {
			for _, m := range mmaps {
				_ = unix.Munmap(m)
			}
			return nil, fmt.Errorf("VIDIOC_QBUF (initial queue) failed for buffer %d: %w", i, err)
		}
	}

	return mmaps, nil
}
