package playa

import "testing"

func TestFrameTryClaimForLoading(t *testing.T) {
	f := NewUnloadedFrame("plate.0001.exr")
	if f.Status() != StatusHeader {
		t.Fatalf("status = %v, want Header", f.Status())
	}
	if !f.TryClaimForLoading() {
		t.Fatal("first claim should succeed")
	}
	if f.Status() != StatusLoading {
		t.Fatalf("status = %v, want Loading", f.Status())
	}
	if f.TryClaimForLoading() {
		t.Fatal("second claim should fail, frame already claimed")
	}
}

func TestFrameLoadNoFilename(t *testing.T) {
	f := NewPlaceholderFrame()
	if err := f.Load(); err == nil {
		t.Fatal("Load on a frame with no source path should error")
	}
	if f.Status() != StatusError {
		t.Fatalf("status = %v, want Error", f.Status())
	}
}

func TestStatusRankOrdering(t *testing.T) {
	tests := []struct {
		a, b Status
		want Status
	}{
		{StatusLoaded, StatusHeader, StatusHeader},
		{StatusError, StatusLoaded, StatusError},
		{StatusLoading, StatusComposing, StatusLoading},
		{StatusHeader, StatusPlaceholder, StatusPlaceholder},
	}
	for _, tt := range tests {
		if got := minStatus(tt.a, tt.b); got != tt.want {
			t.Errorf("minStatus(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestFrameCropPadsWithTransparentBlack(t *testing.T) {
	f := NewSizedPlaceholderFrame(2, 2)
	out := f.Crop(4, 4, "")
	if len(out) != 4*4*4 {
		t.Fatalf("crop buffer len = %d, want %d", len(out), 4*4*4)
	}
	// Row 0 beyond the source width must be zeroed.
	tailOff := 2 * 4
	for i := tailOff; i < tailOff+4; i++ {
		if out[i] != 0 {
			t.Fatalf("padded region byte %d = %d, want 0", i, out[i])
		}
	}
}

func TestStripVideoFrameSuffix(t *testing.T) {
	tests := []struct{ in, want string }{
		{"clip.mp4@42", "clip.mp4"},
		{"plate.0001.exr", "plate.0001.exr"},
		{"odd@notanumber", "odd@notanumber"},
	}
	for _, tt := range tests {
		if got := stripVideoFrameSuffix(tt.in); got != tt.want {
			t.Errorf("stripVideoFrameSuffix(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
