package playa

import (
	"image"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
)

// blendShaderSrc implements the same per-channel formulas as blendChannel in
// compositor.go, as a single Kage shader parameterized by a blend-mode
// uniform so the GPU backend needs one shader, not one per mode.
const blendShaderSrc = `//kage:unit pixels
package main

var BlendMode float
var Opacity float

func blendChannel(mode float, bottom, top float) float {
	if mode < 0.5 {
		return top // Normal
	}
	if mode < 1.5 {
		return 1.0 - (1.0-bottom)*(1.0-top) // Screen
	}
	if mode < 2.5 {
		return bottom + top // Add
	}
	if mode < 3.5 {
		return bottom - top // Subtract
	}
	if mode < 4.5 {
		return bottom * top // Multiply
	}
	if mode < 5.5 {
		if top == 0 {
			return 1.0
		}
		return bottom / top // Divide
	}
	if mode < 6.5 {
		return abs(bottom - top) // Difference
	}
	// Overlay
	if bottom < 0.5 {
		return 2.0 * bottom * top
	}
	return 1.0 - 2.0*(1.0-bottom)*(1.0-top)
}

func Fragment(dst vec4, src vec2, color vec4) vec4 {
	bottom := imageSrc0At(src)
	top := imageSrc1At(src)
	if bottom.a > 0 {
		bottom.rgb /= bottom.a
	}
	if top.a > 0 {
		top.rgb /= top.a
	}

	ta := top.a * Opacity
	r := blendChannel(BlendMode, bottom.r, top.r)
	g := blendChannel(BlendMode, bottom.g, top.g)
	b := blendChannel(BlendMode, bottom.b, top.b)

	outRGB := bottom.rgb*(1.0-ta) + vec3(r, g, b)*ta
	outA := bottom.a*(1.0-ta) + ta
	return vec4(outRGB*outA, outA)
}
`

// blendModeUniform maps BlendMode onto the shader's BlendMode float switch,
// in the same order blendChannel's type switch uses.
func blendModeUniform(mode BlendMode) float32 {
	switch mode {
	case BlendNormal:
		return 0
	case BlendScreen:
		return 1
	case BlendAdd:
		return 2
	case BlendSubtract:
		return 3
	case BlendMultiply:
		return 4
	case BlendDivide:
		return 5
	case BlendDifference:
		return 6
	case BlendOverlay:
		return 7
	default:
		return 0
	}
}

// renderTexturePool manages reusable offscreen ebiten.Images keyed by
// power-of-two dimensions. After warmup, Acquire/Release are zero-alloc.
// Adapted from the scene-graph engine's CacheAsTexture render-target pool to
// back per-layer and per-composite FBOs here instead of cached node
// subtrees.
type renderTexturePool struct {
	buckets map[uint64][]*ebiten.Image
}

func poolKey(w, h int) uint64 { return uint64(w)<<32 | uint64(h) }

// Acquire returns a cleared offscreen image with at least (w, h) pixels,
// rounded up to the next power of two.
func (p *renderTexturePool) Acquire(w, h int) *ebiten.Image {
	pw := nextPowerOfTwo(w)
	ph := nextPowerOfTwo(h)
	key := poolKey(pw, ph)

	if p.buckets != nil {
		if stack := p.buckets[key]; len(stack) > 0 {
			img := stack[len(stack)-1]
			p.buckets[key] = stack[:len(stack)-1]
			img.Clear()
			return img
		}
	}

	return ebiten.NewImageWithOptions(
		image.Rect(0, 0, pw, ph),
		&ebiten.NewImageOptions{Unmanaged: true},
	)
}

// Release returns img to the pool for reuse.
func (p *renderTexturePool) Release(img *ebiten.Image) {
	if img == nil {
		return
	}
	b := img.Bounds()
	key := poolKey(b.Dx(), b.Dy())
	if p.buckets == nil {
		p.buckets = make(map[uint64][]*ebiten.Image)
	}
	p.buckets[key] = append(p.buckets[key], img)
}

// GPUCompositor blends layers on the GPU via ebiten offscreen render
// targets and a Kage blend shader. It must only be used from the goroutine
// that owns ebiten's GL/Metal/D3D context. On any error (shader compile,
// image upload) it falls back to the CPU compositor for that call rather
// than propagating the error, since a single bad composite should never
// crash playback (spec §4.5).
type GPUCompositor struct {
	pool     renderTexturePool
	shader   *ebiten.Shader
	fallback *CPUCompositor
}

// NewGPUCompositor compiles the blend shader eagerly so the first real
// composite isn't the one that discovers a broken shader.
func NewGPUCompositor() *GPUCompositor {
	g := &GPUCompositor{fallback: NewCPUCompositor()}
	if s, err := ebiten.NewShader([]byte(blendShaderSrc)); err == nil {
		g.shader = s
	}
	return g
}

// Composite implements Compositor.
func (g *GPUCompositor) Composite(layers []LayerFrame, w, h int, format PixelFormat) *Frame {
	if g.shader == nil {
		return g.fallback.Composite(layers, w, h, format)
	}

	canvas := g.pool.Acquire(w, h)
	defer g.pool.Release(canvas)
	canvas.Fill(color.NRGBA{A: 255})

	for _, lf := range layers {
		if lf.Frame == nil || lf.Opacity <= 0 {
			continue
		}
		lw, lh := lf.Frame.Resolution()
		top := g.pool.Acquire(lw, lh)
		if err := writeFrameToImage(top, lf.Frame); err != nil {
			g.pool.Release(top)
			return g.fallback.Composite(layers, w, h, format) // redo the whole call on the CPU
		}

		bottom := g.pool.Acquire(w, h)
		bottom.DrawImage(subImage(canvas, w, h), nil)

		var op ebiten.DrawRectShaderOptions
		op.Images[0] = subImage(bottom, w, h)
		op.Images[1] = subImage(top, lw, lh)
		op.Uniforms = map[string]any{
			"BlendMode": blendModeUniform(lf.BlendMode),
			"Opacity":   float32(lf.Opacity),
		}
		canvas.Clear()
		canvas.DrawRectShader(w, h, g.shader, &op)

		g.pool.Release(top)
		g.pool.Release(bottom)
	}

	return readImageToFrame(canvas, w, h, format)
}

func subImage(img *ebiten.Image, w, h int) *ebiten.Image {
	return img.SubImage(image.Rect(0, 0, w, h)).(*ebiten.Image)
}

// writeFrameToImage uploads a straight-alpha Rgba8 representation of frame
// into img's pixels. Non-Rgba8 sources are downconverted, since ebiten
// images are always 8-bit-per-channel.
func writeFrameToImage(img *ebiten.Image, f *Frame) error {
	w, h := f.Resolution()
	format := f.PixelFormat()
	buf := f.Buffer()

	pix := make([]byte, w*h*4)
	if format == FormatRgba8 {
		copy(pix, buf)
	} else {
		for i := 0; i < w*h; i++ {
			r, g, b, a := readChannelsF64(buf, w, format, i%w, i/w)
			pix[i*4] = byte(clampFloat(r, 0, 1)*255 + 0.5)
			pix[i*4+1] = byte(clampFloat(g, 0, 1)*255 + 0.5)
			pix[i*4+2] = byte(clampFloat(b, 0, 1)*255 + 0.5)
			pix[i*4+3] = byte(clampFloat(a, 0, 1)*255 + 0.5)
		}
	}
	// Premultiply for ebiten's internal representation.
	for i := 0; i < len(pix); i += 4 {
		a := pix[i+3]
		if a < 255 {
			pix[i] = byte(int(pix[i]) * int(a) / 255)
			pix[i+1] = byte(int(pix[i+1]) * int(a) / 255)
			pix[i+2] = byte(int(pix[i+2]) * int(a) / 255)
		}
	}
	img.WritePixels(pix)
	return nil
}

// readImageToFrame reads back canvas's premultiplied pixels, un-premultiplies,
// and builds a Frame in the requested format.
func readImageToFrame(canvas *ebiten.Image, w, h int, format PixelFormat) *Frame {
	pix := make([]byte, w*h*4)
	subImage(canvas, w, h).ReadPixels(pix)

	for i := 0; i < len(pix); i += 4 {
		a := pix[i+3]
		if a > 0 && a < 255 {
			pix[i] = byte(min(int(pix[i])*255/int(a), 255))
			pix[i+1] = byte(min(int(pix[i+1])*255/int(a), 255))
			pix[i+2] = byte(min(int(pix[i+2])*255/int(a), 255))
		}
	}

	if format == FormatRgba8 {
		return &Frame{width: w, height: h, format: format, buffer: pix}
	}

	f64 := make([]float64, w*h*4)
	for i := 0; i < len(pix); i++ {
		f64[i] = float64(pix[i]) / 255
	}
	return f64ToFrame(f64, format, w, h)
}
