package playa

import "math"

// EffectKind identifies a per-layer pixel effect (spec supplemented feature,
// not present in the distilled spec but implemented by the original engine's
// effects module).
type EffectKind uint8

const (
	EffectBlur EffectKind = iota
	EffectBrightness
	EffectHSV
)

// Effect is one entry in a Layer's effect stack, applied in order after the
// layer's source frame is composed but before it is blended into the parent
// canvas.
type Effect struct {
	Kind EffectKind
	Attr *Attrs
}

// NewBlurEffect returns a Gaussian blur effect with the given radius in
// pixels. radius <= 0 is a no-op pass.
func NewBlurEffect(radius float64) Effect {
	a := NewAttrs()
	a.SetFloat("radius", radius)
	return Effect{Kind: EffectBlur, Attr: a}
}

// NewBrightnessEffect returns a brightness/contrast effect. brightness is in
// [-1, 1] (0 = no change), contrast is in [-1, 1] (0 = no change).
func NewBrightnessEffect(brightness, contrast float64) Effect {
	a := NewAttrs()
	a.SetFloat("brightness", brightness)
	a.SetFloat("contrast", contrast)
	return Effect{Kind: EffectBrightness, Attr: a}
}

// NewHSVEffect returns an HSV adjustment effect. hueShift is in degrees,
// saturation and value are multipliers (1.0 = no change).
func NewHSVEffect(hueShift, saturation, value float64) Effect {
	a := NewAttrs()
	a.SetFloat("hue_shift", hueShift)
	a.SetFloat("saturation", saturation)
	a.SetFloat("value", value)
	return Effect{Kind: EffectHSV, Attr: a}
}

// ApplyEffects runs the effect stack over src in order, returning a new
// Frame. An empty stack returns src unchanged (not cloned).
func ApplyEffects(src *Frame, effects []Effect) *Frame {
	cur := src
	for _, e := range effects {
		switch e.Kind {
		case EffectBlur:
			cur = applyBlur(cur, e.Attr)
		case EffectBrightness:
			cur = applyBrightness(cur, e.Attr)
		case EffectHSV:
			cur = applyHSV(cur, e.Attr)
		}
	}
	return cur
}

// applyBlur implements a separable Gaussian blur: a horizontal pass followed
// by a vertical pass over an f64 RGBA working buffer, each edge-clamped.
// O(w*h*k) instead of O(w*h*k^2) for a full 2D kernel.
func applyBlur(src *Frame, attr *Attrs) *Frame {
	radius, _ := attr.GetFloat("radius")
	if radius <= 0 {
		return src
	}

	w, h := src.Resolution()
	work := frameToF64(src)
	kernel := gaussianKernel(radius)

	horiz := convolveHorizontal(work, w, h, kernel)
	vert := convolveVertical(horiz, w, h, kernel)

	return f64ToFrame(vert, src.PixelFormat(), w, h)
}

func gaussianKernel(radius float64) []float64 {
	halfSize := int(math.Ceil(radius * 2))
	size := halfSize*2 + 1
	sigma := radius / 2
	sigma2 := sigma * sigma
	norm := 1 / math.Sqrt(2*math.Pi*sigma2)

	kernel := make([]float64, size)
	sum := 0.0
	for i := 0; i < size; i++ {
		x := float64(i - halfSize)
		weight := norm * math.Exp(-x*x/(2*sigma2))
		kernel[i] = weight
		sum += weight
	}
	for i := range kernel {
		kernel[i] /= sum
	}
	return kernel
}

func convolveHorizontal(src []float64, w, h int, kernel []float64) []float64 {
	dst := make([]float64, len(src))
	half := len(kernel) / 2
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var r, g, b, a float64
			for ki, weight := range kernel {
				sx := clampInt(x+ki-half, 0, w-1)
				idx := (y*w + sx) * 4
				r += src[idx] * weight
				g += src[idx+1] * weight
				b += src[idx+2] * weight
				a += src[idx+3] * weight
			}
			di := (y*w + x) * 4
			dst[di], dst[di+1], dst[di+2], dst[di+3] = r, g, b, a
		}
	}
	return dst
}

func convolveVertical(src []float64, w, h int, kernel []float64) []float64 {
	dst := make([]float64, len(src))
	half := len(kernel) / 2
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var r, g, b, a float64
			for ki, weight := range kernel {
				sy := clampInt(y+ki-half, 0, h-1)
				idx := (sy*w + x) * 4
				r += src[idx] * weight
				g += src[idx+1] * weight
				b += src[idx+2] * weight
				a += src[idx+3] * weight
			}
			di := (y*w + x) * 4
			dst[di], dst[di+1], dst[di+2], dst[di+3] = r, g, b, a
		}
	}
	return dst
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// applyBrightness implements output = (input-0.5)*contrastFactor + 0.5 + brightness.
func applyBrightness(src *Frame, attr *Attrs) *Frame {
	brightness, _ := attr.GetFloat("brightness")
	contrast, _ := attr.GetFloat("contrast")
	if math.Abs(brightness) < 1e-4 && math.Abs(contrast) < 1e-4 {
		return src
	}
	cf := 1 + contrast

	w, h := src.Resolution()
	work := frameToF64(src)
	for i := 0; i < len(work); i += 4 {
		for c := 0; c < 3; c++ {
			v := (work[i+c]-0.5)*cf + 0.5 + brightness
			work[i+c] = v
		}
	}
	return f64ToFrame(work, src.PixelFormat(), w, h)
}

// applyHSV rotates hue, scales saturation and value per spec-supplemented
// color-grading feature.
func applyHSV(src *Frame, attr *Attrs) *Frame {
	hueShift, _ := attr.GetFloat("hue_shift")
	saturation, _ := attr.GetFloat("saturation")
	value, _ := attr.GetFloat("value")
	if math.Abs(hueShift) < 0.01 && math.Abs(saturation-1) < 1e-3 && math.Abs(value-1) < 1e-3 {
		return src
	}

	w, h := src.Resolution()
	work := frameToF64(src)
	ldr := src.PixelFormat() == FormatRgba8

	for i := 0; i < len(work); i += 4 {
		hh, s, v := rgbToHSV(work[i], work[i+1], work[i+2])
		hh = math.Mod(hh+hueShift, 360)
		if hh < 0 {
			hh += 360
		}
		s = clampFloat(s*saturation, 0, 1)
		v = v * value
		if ldr {
			v = clampFloat(v, 0, 1)
		}
		r, g, b := hsvToRGB(hh, s, v)
		work[i], work[i+1], work[i+2] = r, g, b
	}
	return f64ToFrame(work, src.PixelFormat(), w, h)
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func rgbToHSV(r, g, b float64) (h, s, v float64) {
	max := math.Max(r, math.Max(g, b))
	min := math.Min(r, math.Min(g, b))
	delta := max - min
	v = max
	if max > 0 {
		s = delta / max
	}
	switch {
	case delta < 1e-4:
		h = 0
	case max == r:
		h = 60 * math.Mod((g-b)/delta, 6)
	case max == g:
		h = 60 * ((b-r)/delta + 2)
	default:
		h = 60 * ((r-g)/delta + 4)
	}
	if h < 0 {
		h += 360
	}
	return h, s, v
}

func hsvToRGB(h, s, v float64) (r, g, b float64) {
	c := v * s
	x := c * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := v - c
	var r1, g1, b1 float64
	switch {
	case h < 60:
		r1, g1, b1 = c, x, 0
	case h < 120:
		r1, g1, b1 = x, c, 0
	case h < 180:
		r1, g1, b1 = 0, c, x
	case h < 240:
		r1, g1, b1 = 0, x, c
	case h < 300:
		r1, g1, b1 = x, 0, c
	default:
		r1, g1, b1 = c, 0, x
	}
	return r1 + m, g1 + m, b1 + m
}

// frameToF64 expands a Frame's buffer into an RGBA float64 slice regardless
// of source pixel format, so effects operate on one representation.
func frameToF64(f *Frame) []float64 {
	w, h := f.Resolution()
	buf := f.Buffer()
	format := f.PixelFormat()
	out := make([]float64, w*h*4)
	for i := 0; i < w*h; i++ {
		r, g, b, a := readChannelsF64(buf, w, format, i%w, i/w)
		out[i*4], out[i*4+1], out[i*4+2], out[i*4+3] = r, g, b, a
	}
	return out
}

// f64ToFrame re-encodes an RGBA float64 slice back into format.
func f64ToFrame(data []float64, format PixelFormat, w, h int) *Frame {
	switch format {
	case FormatRgba8:
		buf := make([]byte, w*h*4)
		for i := 0; i < w*h; i++ {
			for c := 0; c < 4; c++ {
				v := clampFloat(data[i*4+c], 0, 1)
				buf[i*4+c] = byte(v*255 + 0.5)
			}
		}
		return &Frame{width: w, height: h, format: format, buffer: buf}
	case FormatRgbaF16:
		buf := make([]byte, w*h*4*2)
		for i := 0; i < w*h; i++ {
			for c := 0; c < 4; c++ {
				putF16(buf, (i*4+c)*2, float32(data[i*4+c]))
			}
		}
		return &Frame{width: w, height: h, format: format, buffer: buf}
	default: // FormatRgbaF32
		buf := make([]byte, w*h*4*4)
		for i := 0; i < w*h; i++ {
			for c := 0; c < 4; c++ {
				putF32(buf, (i*4+c)*4, float32(data[i*4+c]))
			}
		}
		return &Frame{width: w, height: h, format: format, buffer: buf}
	}
}

// --- GPU variants: Kage fragment shaders mirroring the CPU formulas above ---

// brightnessContrastShaderSrc applies the same affine brightness/contrast
// formula as applyBrightness, as a Kage shader. No compositor compiles or
// runs it; ApplyEffects always runs on the CPU.
const brightnessContrastShaderSrc = `//kage:unit pixels
package main

var Brightness float
var Contrast float

func Fragment(dst vec4, src vec2, color vec4) vec4 {
	c := imageSrc0At(src)
	if c.a > 0 {
		c.rgb /= c.a
	}
	cf := 1.0 + Contrast
	rgb := (c.rgb-0.5)*cf + 0.5 + Brightness
	rgb = clamp(rgb, 0, 1)
	return vec4(rgb*c.a, c.a)
}
`

// blurShaderSrc is a single-pass, one-direction blur with tent-shaped
// weights (1-|i|/(Radius+1)), approximating the CPU Gaussian pass. No
// compositor compiles or runs it.
const blurShaderSrc = `//kage:unit pixels
package main

var Radius float
var Direction vec2

func Fragment(dst vec4, src vec2, color vec4) vec4 {
	samples := int(Radius)
	if samples < 1 {
		return imageSrc0At(src)
	}
	sum := vec4(0)
	total := 0.0
	for i := -samples; i <= samples; i++ {
		w := 1.0 - abs(float(i))/(Radius+1.0)
		sum += imageSrc0At(src+Direction*float(i)) * w
		total += w
	}
	return sum / total
}
`
