package playa

import (
	"math"

	"github.com/google/uuid"
)

// BlendMode selects a compositing operation for a Layer. Values map 1:1 onto
// the CPU/GPU compositor's per-channel formulas (spec §4.5).
type BlendMode uint8

const (
	BlendNormal BlendMode = iota
	BlendScreen
	BlendAdd
	BlendSubtract
	BlendMultiply
	BlendDivide
	BlendDifference
	BlendOverlay
)

// Layer is an instance of a source node inside a Comp.
type Layer struct {
	UUID       uuid.UUID
	SourceUUID uuid.UUID
	Name       string

	In, Out   int
	SrcLen    int
	TrimIn    int
	TrimOut   int
	Speed     float64
	Opacity   float64
	Visible   bool
	Renderable bool
	Solo      bool
	BlendMode BlendMode

	Width, Height int

	Position Vec3
	Rotation Vec3 // degrees, clockwise-positive
	Scale    Vec3
	Pivot    Vec3

	index int // position in the owning Comp's layer list, set by AddLayer
}

// NewLayer returns a Layer instance of sourceUUID with spec-default values.
func NewLayer(sourceUUID uuid.UUID) *Layer {
	return &Layer{
		UUID:       uuid.New(),
		SourceUUID: sourceUUID,
		Speed:      1.0,
		Opacity:    1.0,
		Visible:    true,
		Renderable: true,
		Scale:      Vec3{X: 1, Y: 1, Z: 1},
	}
}

// End returns end = in + floor(src_len/|speed|) - 1 (spec §3 Layer
// invariant).
func (l *Layer) End() int {
	speed := math.Abs(l.Speed)
	if speed == 0 {
		return l.In
	}
	return l.In + int(math.Floor(float64(l.SrcLen)/speed)) - 1
}

// WorkArea returns [in + trim_in/|speed|, end - trim_out/|speed|].
func (l *Layer) WorkArea() (start, end int) {
	speed := math.Abs(l.Speed)
	if speed == 0 {
		speed = 1
	}
	start = l.In + int(float64(l.TrimIn)/speed)
	end = l.End() - int(float64(l.TrimOut)/speed)
	return start, end
}

// CoversFrame reports whether frameIdx falls within the layer's work area.
func (l *Layer) CoversFrame(frameIdx int) bool {
	start, end := l.WorkArea()
	return frameIdx >= start && frameIdx <= end
}

// SourceFrame maps a parent Comp frame index to the layer's source node
// frame index (spec §4.3.2 step 9a):
//
//	local = floor((frame_idx - layer.in) * |speed|)
//	source_frame = source.in + local
//
// sourceIn is the source node's own "in" attribute (0 for nodes without
// one, e.g. Camera/Text).
func (l *Layer) SourceFrame(frameIdx int, sourceIn int) int {
	local := int(math.Floor(float64(frameIdx-l.In) * math.Abs(l.Speed)))
	return sourceIn + local
}
