package playa

import (
	"bytes"
	"image/color"
	"os"
	"sync"

	"github.com/google/uuid"
	"github.com/hajimehoshi/ebiten/v2"
	etext "github.com/hajimehoshi/ebiten/v2/text/v2"
	"golang.org/x/image/font/gofont/goregular"
)

// TextAlign controls horizontal text alignment within a TextNode's block.
type TextAlign uint8

const (
	TextAlignLeft TextAlign = iota
	TextAlignCenter
	TextAlignRight
)

// TextNode renders rasterized text (spec §4.3.4). It has no inputs and
// computes once per lifetime — its cache key is always frame 0, since text
// content doesn't vary with playhead.
type TextNode struct {
	nodeBase

	mu   sync.Mutex
	face etext.Face // resolved lazily, cached across Compute calls
}

// NewTextNode creates a TextNode with spec-default attributes.
func NewTextNode(name, content string) *TextNode {
	n := &TextNode{nodeBase: newNodeBase(name, KindText)}
	a := n.attr
	a.SetStr("text", content)
	a.SetStr("font", "sans-serif")
	a.SetFloat("font_size", 48)
	a.SetVec3("color", Vec3{X: 1, Y: 1, Z: 1})
	a.SetInt("alignment", int64(TextAlignLeft))
	a.SetFloat("line_height", 0) // 0 = font default
	a.SetVec3("bg_color", Vec3{X: -1}) // sentinel: X<0 means transparent/no fill
	a.ClearDirty()
	return n
}

func (n *TextNode) Inputs() []uuid.UUID { return nil }

func (n *TextNode) Preload(center, radius int, ctx *ComputeContext) {} // text has no preload need

// Compute rasterizes the current text attrs into an Rgba8 frame. Per spec
// §4.3.4 the cache key is always (uuid, 0) regardless of the frame index
// requested, since text has no temporal dimension.
func (n *TextNode) Compute(frameIdx int, ctx *ComputeContext) (*Frame, error) {
	if cached, ok := ctx.Cache.Get(n.id, 0); ok && !n.IsDirty() {
		return cached, nil
	}

	content, _ := n.attr.GetStr("text")
	fontSpec, _ := n.attr.GetStr("font")
	fontSize, _ := n.attr.GetFloat("font_size")
	colorV, _ := n.attr.GetVec3("color")
	alignment, _ := n.attr.GetInt("alignment")
	lineHeight, _ := n.attr.GetFloat("line_height")
	bg, _ := n.attr.GetVec3("bg_color")

	face, err := n.resolveFace(fontSpec, fontSize)
	if err != nil {
		f := NewPlaceholderFrame()
		f.SetStatus(StatusError)
		return f, newErr(KindDecodeError, "TextNode.Compute", err)
	}

	frame := rasterizeText(face, content, TextAlign(alignment), lineHeight, colorV, bg)
	frame.SetStatus(StatusLoaded)

	ctx.Cache.Insert(n.id, 0, frame)
	n.ClearDirty()
	return frame, nil
}

// resolveFace implements the font resolution rule from spec §4.3.4: paths
// are treated as font files, named families fall back to
// sans-serif/serif/monospace (all three map to the bundled Go font, the
// only TTF the module ships with — external font installation is a
// GUI-shell concern out of scope per spec §1).
func (n *TextNode) resolveFace(spec string, size float64) (etext.Face, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.face != nil {
		return n.face, nil
	}

	var src []byte
	switch spec {
	case "sans-serif", "serif", "monospace", "":
		src = goregular.TTF
	default:
		data, err := os.ReadFile(spec)
		if err != nil {
			return nil, err
		}
		src = data
	}

	faceSource, err := etext.NewGoTextFaceSource(bytes.NewReader(src))
	if err != nil {
		return nil, err
	}
	face := &etext.GoTextFace{Source: faceSource, Size: size}
	n.face = face
	return face, nil
}

// rasterizeText shapes content with face, honoring alignment, lineHeight,
// and bgColor, and rasterizes into a straight-alpha RGBA8 Frame.
func rasterizeText(face etext.Face, content string, align TextAlign, lineHeight float64, fg, bg Vec3) *Frame {
	op := &etext.LayoutOptions{LineSpacing: lineHeight}
	if lineHeight <= 0 {
		m := face.Metrics()
		op.LineSpacing = m.HLineGap + m.HAscent + m.HDescent
	}
	switch align {
	case TextAlignCenter:
		op.PrimaryAlign = etext.AlignCenter
	case TextAlignRight:
		op.PrimaryAlign = etext.AlignEnd
	default:
		op.PrimaryAlign = etext.AlignStart
	}

	w, h := etext.Measure(content, face, op.LineSpacing)
	iw, ih := int(w)+4, int(h)+4
	if iw < 1 {
		iw = 1
	}
	if ih < 1 {
		ih = 1
	}

	img := ebiten.NewImage(iw, ih)
	if bg.X >= 0 {
		img.Fill(color.NRGBA{R: byte(bg.X * 255), G: byte(bg.Y * 255), B: byte(bg.Z * 255), A: 255})
	}

	drawOp := &etext.DrawOptions{}
	drawOp.ColorScale.ScaleWithColor(color.NRGBA{R: byte(fg.X * 255), G: byte(fg.Y * 255), B: byte(fg.Z * 255), A: 255})
	drawOp.LineSpacing = op.LineSpacing
	drawOp.PrimaryAlign = op.PrimaryAlign
	etext.Draw(img, content, face, drawOp)

	return ebitenImageToFrame(img)
}

// ebitenImageToFrame reads back an ebiten.Image's premultiplied pixels and
// converts to a straight-alpha RGBA8 Frame buffer.
func ebitenImageToFrame(img *ebiten.Image) *Frame {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	pix := make([]byte, w*h*4)
	img.ReadPixels(pix)

	for i := 0; i < len(pix); i += 4 {
		a := pix[i+3]
		if a > 0 && a < 255 {
			pix[i+0] = byte(min(int(pix[i+0])*255/int(a), 255))
			pix[i+1] = byte(min(int(pix[i+1])*255/int(a), 255))
			pix[i+2] = byte(min(int(pix[i+2])*255/int(a), 255))
		}
	}

	f := &Frame{width: w, height: h, format: FormatRgba8, buffer: pix}
	return f
}
