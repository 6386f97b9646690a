package playa

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// CompNode is a composition: an ordered stack of Layers, each an instance of
// another node (File, Comp, Camera, or Text), blended together per frame
// (spec §4.3.2). Comps may reference other Comps as layers, so cycle
// detection (ComputeContext.composing) is mandatory.
type CompNode struct {
	nodeBase

	layers []*Layer
	effects map[uuid.UUID][]Effect // keyed by Layer.UUID, not source node
}

// NewCompNode creates an empty CompNode with spec-default canvas attrs.
func NewCompNode(name string) *CompNode {
	n := &CompNode{nodeBase: newNodeBase(name, KindComp), effects: make(map[uuid.UUID][]Effect)}
	a := n.attr
	a.SetInt("width", 1920)
	a.SetInt("height", 1080)
	a.SetFloat("fps", 24)
	a.SetInt("duration", 0)
	a.SetInt("in", 0)
	a.SetInt("out", 0)
	a.SetInt("trim_in", 0)
	a.SetInt("trim_out", 0)
	a.ClearDirty()
	return n
}

// workArea mirrors FileNode.workArea: the comp's own in/out trimmed by
// trim_in/trim_out (spec §3's Comp attributes), used to null out frames
// outside it (spec §4.3.2 step 1) independent of any layer's work area.
func (n *CompNode) workArea() (start, end int) {
	in, _ := n.attr.GetInt("in")
	out, _ := n.attr.GetInt("out")
	trimIn, _ := n.attr.GetInt("trim_in")
	trimOut, _ := n.attr.GetInt("trim_out")
	return int(in + trimIn), int(out - trimOut)
}

// AddLayer appends a Layer instance of sourceUUID and returns it.
func (n *CompNode) AddLayer(sourceUUID uuid.UUID) *Layer {
	l := NewLayer(sourceUUID)
	l.index = len(n.layers)
	n.layers = append(n.layers, l)
	n.MarkDirty()
	return l
}

// RemoveLayer removes the layer with the given UUID, if present.
func (n *CompNode) RemoveLayer(layerUUID uuid.UUID) bool {
	for i, l := range n.layers {
		if l.UUID == layerUUID {
			n.layers = append(n.layers[:i], n.layers[i+1:]...)
			for j := i; j < len(n.layers); j++ {
				n.layers[j].index = j
			}
			delete(n.effects, layerUUID)
			n.MarkDirty()
			return true
		}
	}
	return false
}

// Layers returns the comp's layer stack, bottom-to-top. Callers must not
// mutate the returned slice.
func (n *CompNode) Layers() []*Layer { return n.layers }

// SetLayerEffects replaces the effect stack applied to a layer after its
// source frame is composed but before it is blended.
func (n *CompNode) SetLayerEffects(layerUUID uuid.UUID, effects []Effect) {
	n.effects[layerUUID] = effects
	n.MarkDirty()
}

func (n *CompNode) Inputs() []uuid.UUID {
	out := make([]uuid.UUID, len(n.layers))
	for i, l := range n.layers {
		out[i] = l.SourceUUID
	}
	return out
}

func (n *CompNode) canvasSize() (w, h int) {
	wv, _ := n.attr.GetInt("width")
	hv, _ := n.attr.GetInt("height")
	if wv <= 0 {
		wv = 1
	}
	if hv <= 0 {
		hv = 1
	}
	return int(wv), int(hv)
}

// Compute implements the full composition protocol (spec §4.3.2):
//
//  1. cycle guard (a cycle found anywhere below also returns a Placeholder
//     and the cycle error)
//  2. null if frameIdx falls outside the comp's own work area
//  3. cache lookup (skip only if not dirty and the cached frame is Loaded;
//     a non-Loaded cache hit still recomputes, to pick up inputs that have
//     since finished loading)
//  4. filter layers to those covering frameIdx, visible, renderable
//  5. solo: if any layer has Solo set, only Solo layers render
//  6. sort by Z ascending (farther first), tiebreak by stack index
//  7. find the active camera: topmost visible Camera-kind layer
//  8. for each layer: map frame index, recursively compute the source,
//     apply the layer's transform (skipped when it's an identity, per
//     IsIdentityTransform) and camera (if one is active), then the
//     layer's effect stack
//  9. promote to the highest-precision format among contributing layers
//  10. composite bottom-to-top via the Compositor
//  11. status = min(status) of all contributing layers (Loaded when there
//      are none); the result is never marked Composing
//  12. insert into cache, clear dirty
func (n *CompNode) Compute(frameIdx int, ctx *ComputeContext) (*Frame, error) {
	if !ctx.enterComposing(n.id) {
		return NewPlaceholderFrame(), newErr(KindCycleDetected, "CompNode.Compute", nil)
	}
	defer ctx.exitComposing(n.id)

	if start, end := n.workArea(); frameIdx < start || frameIdx > end {
		return nil, nil
	}

	if cached, ok := ctx.Cache.Get(n.id, frameIdx); ok && !n.IsDirty() && cached.Status() == StatusLoaded {
		return cached, nil
	}

	t0 := time.Now()
	w, h := n.canvasSize()

	active := n.activeLayers(frameIdx)
	cam, camLayer := n.findActiveCamera(ctx)

	statuses := make([]Status, 0, len(active))
	formats := make([]PixelFormat, 0, len(active))
	layerFrames := make([]LayerFrame, 0, len(active))

	for _, l := range active {
		src, err := n.computeLayerSource(l, frameIdx, ctx)
		if err != nil {
			if IsKind(err, KindCycleDetected) {
				return NewPlaceholderFrame(), err
			}
			statuses = append(statuses, StatusError)
			continue
		}
		if src == nil {
			continue
		}
		statuses = append(statuses, src.Status())
		formats = append(formats, src.PixelFormat())

		var vp *ViewProjection
		if cam != nil {
			aspect := float64(w) / float64(h)
			built := cam.BuildViewProjection(camLayer, aspect)
			vp = &built
		}
		srcW, srcH := src.Resolution()
		transformed := src
		if !IsIdentityTransform(l, cam != nil, srcW, srcH, w, h) {
			transformed = ApplyTransform(src, w, h, l, vp)
		}
		transformed = ApplyEffects(transformed, n.effects[l.UUID])

		layerFrames = append(layerFrames, LayerFrame{
			Frame:     transformed,
			BlendMode: l.BlendMode,
			Opacity:   l.Opacity,
		})
	}

	format := maxFormatOf(formats)
	compTime := time.Since(t0)

	t1 := time.Now()
	out := globalCompositor().Composite(layerFrames, w, h, format)
	blendTime := time.Since(t1)

	out.SetStatus(minStatusOf(statuses))

	logComputeStats(n.name, frameIdx, computeStats{
		layerCount:  len(active),
		computeTime: compTime,
		blendTime:   blendTime,
	})

	ctx.Cache.Insert(n.id, frameIdx, out)
	n.ClearDirty()
	return out, nil
}

// activeLayers filters to layers covering frameIdx, visible and renderable,
// honoring solo (spec §4.3.2 steps 3-5), sorted by Z (farther first),
// tiebreaking by stack index (spec §4.3.2 step 7).
func (n *CompNode) activeLayers(frameIdx int) []*Layer {
	anySolo := false
	for _, l := range n.layers {
		if l.Solo {
			anySolo = true
			break
		}
	}

	out := make([]*Layer, 0, len(n.layers))
	for _, l := range n.layers {
		if !l.Visible || !l.Renderable {
			continue
		}
		if anySolo && !l.Solo {
			continue
		}
		if !l.CoversFrame(frameIdx) {
			continue
		}
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Position.Z != out[j].Position.Z {
			return out[i].Position.Z < out[j].Position.Z
		}
		return out[i].index < out[j].index
	})
	return out
}

// findActiveCamera returns the topmost visible Camera-kind layer's node and
// the Layer instance hosting it, or (nil, nil) if no camera layer exists.
func (n *CompNode) findActiveCamera(ctx *ComputeContext) (*CameraNode, *Layer) {
	var best *Layer
	for _, l := range n.layers {
		if !l.Visible {
			continue
		}
		src, ok := ctx.Registry.Get(l.SourceUUID)
		if !ok || src.Kind() != KindCamera {
			continue
		}
		if best == nil || l.index > best.index {
			best = l
		}
	}
	if best == nil {
		return nil, nil
	}
	src, _ := ctx.Registry.Get(best.SourceUUID)
	return src.(*CameraNode), best
}

// computeLayerSource maps frameIdx through the layer into the source node's
// own frame index and recursively computes it.
func (n *CompNode) computeLayerSource(l *Layer, frameIdx int, ctx *ComputeContext) (*Frame, error) {
	src, ok := ctx.Registry.Get(l.SourceUUID)
	if !ok {
		return nil, newErr(KindMissingNode, "CompNode.Compute", nil)
	}

	sourceIn := 0
	if fn, ok := src.(*FileNode); ok {
		in, _ := fn.attr.GetInt("in")
		sourceIn = int(in)
	}
	sourceFrame := l.SourceFrame(frameIdx, sourceIn)

	return src.Compute(sourceFrame, ctx)
}

// Preload enqueues recursive preload for every layer source, not the comp's
// own frames (CompNode has no decode work of its own — it only orchestrates).
func (n *CompNode) Preload(center, radius int, ctx *ComputeContext) {
	for _, l := range n.layers {
		src, ok := ctx.Registry.Get(l.SourceUUID)
		if !ok {
			continue
		}
		mapped := l.SourceFrame(center, 0)
		src.Preload(mapped, radius, ctx)
	}
}

// --- Compositor backend selection ---

var activeCompositor Compositor = NewCPUCompositor()

// globalCompositor returns the process-wide Compositor backend, defaulting
// to the CPU reference implementation. SetCompositorBackend swaps it for the
// GPU backend when a GL-owning thread is available (spec §4.5: the GPU
// backend falls back to CPU on any shader error, never on the caller).
func globalCompositor() Compositor { return activeCompositor }

// SetCompositorBackend replaces the process-wide Compositor backend.
func SetCompositorBackend(c Compositor) { activeCompositor = c }
