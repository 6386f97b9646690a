package playa

import "testing"

func TestBlendChannelNormalPassesTopThrough(t *testing.T) {
	if got := blendChannel(BlendNormal, 0.2, 0.9); got != 0.9 {
		t.Errorf("Normal = %v, want 0.9", got)
	}
}

func TestBlendChannelScreen(t *testing.T) {
	got := blendChannel(BlendScreen, 0.5, 0.5)
	assertNear(t, "screen", got, 0.75)
}

func TestBlendChannelDivideByZeroGuard(t *testing.T) {
	if got := blendChannel(BlendDivide, 0.5, 0); got != 1 {
		t.Errorf("Divide by zero = %v, want 1", got)
	}
}

func TestBlendChannelMultiply(t *testing.T) {
	got := blendChannel(BlendMultiply, 0.5, 0.5)
	assertNear(t, "multiply", got, 0.25)
}

func TestMinStatusOfPicksLeastReady(t *testing.T) {
	got := minStatusOf([]Status{StatusLoaded, StatusLoading, StatusError})
	if got != StatusError {
		t.Errorf("minStatusOf = %v, want Error", got)
	}
}

func TestMinStatusOfEmptyDefaultsLoaded(t *testing.T) {
	if got := minStatusOf(nil); got != StatusLoaded {
		t.Errorf("minStatusOf(nil) = %v, want Loaded", got)
	}
}

func TestMaxFormatOfPromotesPrecision(t *testing.T) {
	got := maxFormatOf([]PixelFormat{FormatRgba8, FormatRgbaF32, FormatRgbaF16})
	if got != FormatRgbaF32 {
		t.Errorf("maxFormatOf = %v, want RgbaF32", got)
	}
}

func TestCPUCompositorEmptyLayersOpaqueBlack(t *testing.T) {
	c := NewCPUCompositor()
	out := c.Composite(nil, 2, 2, FormatRgba8)
	buf := out.Buffer()
	for i := 0; i < len(buf); i += 4 {
		if buf[i] != 0 || buf[i+1] != 0 || buf[i+2] != 0 || buf[i+3] != 255 {
			t.Fatalf("pixel %d = %v, want opaque black", i/4, buf[i:i+4])
		}
	}
}

func TestCPUCompositorSkipsZeroOpacityLayer(t *testing.T) {
	c := NewCPUCompositor()
	src := NewSizedPlaceholderFrame(2, 2) // opaque dark-green
	out := c.Composite([]LayerFrame{{Frame: src, BlendMode: BlendNormal, Opacity: 0}}, 2, 2, FormatRgba8)
	buf := out.Buffer()
	if buf[0] != 0 || buf[3] != 255 {
		t.Fatal("a zero-opacity layer must not affect the canvas")
	}
}

func TestCPUCompositorFullOpacityNormalReplaces(t *testing.T) {
	c := NewCPUCompositor()
	src := NewSizedPlaceholderFrame(2, 2)
	out := c.Composite([]LayerFrame{{Frame: src, BlendMode: BlendNormal, Opacity: 1}}, 2, 2, FormatRgba8)
	buf := out.Buffer()
	if buf[0] != 0x10 || buf[1] != 0x40 || buf[2] != 0x10 {
		t.Errorf("pixel = %v, want the placeholder's dark green", buf[0:3])
	}
}
