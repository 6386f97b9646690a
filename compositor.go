package playa

// Compositor blends a stack of layer frames (back to front) into a single
// output frame, given each layer's blend mode and opacity. CompNode is the
// only caller; the interface exists so a GPU-backed implementation can be
// swapped in without touching the graph-evaluation code (spec §4.3.2/§4.5).
type Compositor interface {
	// Composite blends layers (bottom-to-top order) into a canvas of size
	// (w, h), returning the result frame. An empty layers slice returns an
	// opaque black canvas at the requested format.
	Composite(layers []LayerFrame, w, h int, format PixelFormat) *Frame
}

// LayerFrame pairs a transformed, effect-applied source frame with its
// layer's blend parameters, ready for compositing.
type LayerFrame struct {
	Frame     *Frame
	BlendMode BlendMode
	Opacity   float64
}

// CPUCompositor is the reference compositor backend: thread-safe, runs on
// any goroutine, used for headless rendering and as the GPU backend's
// fallback on shader failure.
type CPUCompositor struct{}

// NewCPUCompositor returns a CPUCompositor.
func NewCPUCompositor() *CPUCompositor { return &CPUCompositor{} }

// Composite implements Compositor.
func (c *CPUCompositor) Composite(layers []LayerFrame, w, h int, format PixelFormat) *Frame {
	out := make([]float64, w*h*4)
	// Base canvas: opaque black (spec §4.3.2 step 10).
	for i := 0; i < w*h; i++ {
		out[i*4+3] = 1
	}

	for _, lf := range layers {
		if lf.Frame == nil || lf.Opacity <= 0 {
			continue
		}
		src := frameToF64(lf.Frame)
		lw, lh := lf.Frame.Resolution()
		if lw != w || lh != h {
			continue // ApplyTransform always produces canvas-sized output; mismatch is a caller bug, skip defensively
		}
		blendInto(out, src, w, h, lf.BlendMode, lf.Opacity)
	}

	return f64ToFrame(out, format, w, h)
}

// blendInto composites src over bottom (both RGBA float64, straight alpha)
// in place, using blend's per-channel formula scaled by opacity, then
// standard alpha-compositing (spec §4.5):
//
//	blended = blendFn(bottom.rgb, src.rgb)
//	t_a = src.a * opacity
//	out.rgb = bottom.rgb*(1-t_a) + blended*t_a
//	out.a = bottom.a*(1-t_a) + t_a
func blendInto(bottom, src []float64, w, h int, mode BlendMode, opacity float64) {
	for i := 0; i < w*h; i++ {
		bi := i * 4
		br, bg, bb, ba := bottom[bi], bottom[bi+1], bottom[bi+2], bottom[bi+3]
		sr, sg, sb, sa := src[bi], src[bi+1], src[bi+2], src[bi+3]

		ta := sa * opacity
		if ta <= 0 {
			continue
		}

		rr := blendChannel(mode, br, sr)
		rg := blendChannel(mode, bg, sg)
		rb := blendChannel(mode, bb, sb)

		bottom[bi] = br*(1-ta) + rr*ta
		bottom[bi+1] = bg*(1-ta) + rg*ta
		bottom[bi+2] = bb*(1-ta) + rb*ta
		bottom[bi+3] = ba*(1-ta) + ta
	}
}

// blendChannel applies one of the per-channel blend formulas (spec §4.5) to
// a single RGB channel value.
func blendChannel(mode BlendMode, bottom, top float64) float64 {
	switch mode {
	case BlendScreen:
		return 1 - (1-bottom)*(1-top)
	case BlendAdd:
		return bottom + top
	case BlendSubtract:
		return bottom - top
	case BlendMultiply:
		return bottom * top
	case BlendDivide:
		if top == 0 {
			return 1
		}
		return bottom / top
	case BlendDifference:
		d := bottom - top
		if d < 0 {
			return -d
		}
		return d
	case BlendOverlay:
		if bottom < 0.5 {
			return 2 * bottom * top
		}
		return 1 - 2*(1-bottom)*(1-top)
	default: // BlendNormal
		return top
	}
}

// minStatusOf returns the lowest-ranked (least-ready) status among the given
// layer statuses, used by CompNode to decide its own output status (spec
// §4.3.2 step 12: a Comp is only as ready as its least-ready visible layer).
func minStatusOf(statuses []Status) Status {
	if len(statuses) == 0 {
		return StatusLoaded
	}
	m := statuses[0]
	for _, s := range statuses[1:] {
		m = minStatus(m, s)
	}
	return m
}

// maxFormatOf returns the highest-precision pixel format among sources, so a
// comp containing one EXR layer among PNG layers composites at full
// precision instead of truncating (spec §4.3.2 step 9c format promotion).
func maxFormatOf(formats []PixelFormat) PixelFormat {
	best := FormatRgba8
	for _, f := range formats {
		if f.BytesPerChannel() > best.BytesPerChannel() {
			best = f
		}
	}
	return best
}
