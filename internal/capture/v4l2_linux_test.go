//go:build linux

package capture

import "testing"

func TestV4L2PixelFormatFourCCsMatchKernelConstants(t *testing.T) {
	cases := []struct {
		name string
		got  uint32
		want uint32
	}{
		{"RGB24", v4l2PixFmtRGB24, 0x33424752},
		{"YUYV", v4l2PixFmtYUYV, 0x56595559},
		{"NV12", v4l2PixFmtNV12, 0x3231564e},
	}
	for _, tc := range cases {
		if tc.got != tc.want {
			t.Errorf("%s: got 0x%x, want 0x%x", tc.name, tc.got, tc.want)
		}
	}
}

func TestFormatCandidatesPreferRGB24ThenYUY2ThenNV12(t *testing.T) {
	want := []string{"RGB24", "YUY2", "NV12"}
	if len(formatCandidates) != len(want) {
		t.Fatalf("got %d candidates, want %d", len(formatCandidates), len(want))
	}
	for i, w := range want {
		if formatCandidates[i].subtype != w {
			t.Errorf("candidate %d: got %s, want %s", i, formatCandidates[i].subtype, w)
		}
	}
}

func TestIsOBSVirtualCameraDetectsByName(t *testing.T) {
	if !isOBSVirtualCamera("OBS Virtual Camera") {
		t.Fatal("expected OBS Virtual Camera to be detected")
	}
	if isOBSVirtualCamera("Logitech BRIO") {
		t.Fatal("did not expect a real webcam to be detected as OBS")
	}
}
