package camera

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSortFormats_HigherPixelCountFirst(t *testing.T) {
	formats := []FormatDescriptor{
		{Width: 640, Height: 480, FPS: 30, PixelFormat: "YUY2"},
		{Width: 1920, Height: 1080, FPS: 30, PixelFormat: "MJPG"},
	}
	SortFormats(formats)
	assert.Equal(t, 1920, formats[0].Width)
}

func TestSortFormats_TiesBrokenByFPSThenPixelFormat(t *testing.T) {
	formats := []FormatDescriptor{
		{Width: 640, Height: 480, FPS: 15, PixelFormat: "YUY2"},
		{Width: 640, Height: 480, FPS: 30, PixelFormat: "MJPG"},
		{Width: 640, Height: 480, FPS: 30, PixelFormat: "NV12"},
	}
	SortFormats(formats)
	assert.Equal(t, 30, formats[0].FPS)
	assert.Equal(t, "MJPG", formats[0].PixelFormat)
	assert.Equal(t, "NV12", formats[1].PixelFormat)
	assert.Equal(t, 15, formats[2].FPS)
}
