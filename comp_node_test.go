package playa

import (
	"testing"

	"github.com/google/uuid"
)

// fakeNode is a minimal Node stand-in for exercising CompNode.Compute without
// real file I/O, grounded on the same Node interface FileNode/CameraNode
// implement.
type fakeNode struct {
	nodeBase
	frame *Frame
}

func newFakeNode(kind NodeKind, frame *Frame) *fakeNode {
	return &fakeNode{nodeBase: newNodeBase("fake", kind), frame: frame}
}

func (n *fakeNode) Inputs() []uuid.UUID { return nil }

func (n *fakeNode) Compute(frameIdx int, ctx *ComputeContext) (*Frame, error) {
	return n.frame, nil
}

func (n *fakeNode) Preload(center, radius int, ctx *ComputeContext) {}

func newTestComputeContext() (*ComputeContext, *Registry, *FrameCache) {
	reg := NewRegistry()
	cache := NewFrameCache()
	ctx := NewComputeContext(cache, reg, nil)
	return ctx, reg, cache
}

func TestCompNodeComputeBlendsVisibleLayers(t *testing.T) {
	ctx, reg, _ := newTestComputeContext()

	src := newFakeNode(KindFile, NewSizedPlaceholderFrame(4, 4))
	reg.Add(src)

	comp := NewCompNode("main")
	comp.Attrs().SetInt("width", 4)
	comp.Attrs().SetInt("height", 4)
	l := comp.AddLayer(src.UUID())
	l.SrcLen = 100

	out, err := comp.Compute(0, ctx)
	if err != nil {
		t.Fatal(err)
	}
	if out.Status() != StatusPlaceholder {
		t.Errorf("status = %v, want Placeholder (min of the single contributing layer)", out.Status())
	}
}

func TestCompNodeComputeCachesResult(t *testing.T) {
	ctx, reg, cache := newTestComputeContext()
	// The source is Loaded so the composite is Loaded too; only a Loaded
	// cached frame is returned without recompositing.
	srcFrame := NewSizedPlaceholderFrame(2, 2)
	srcFrame.SetStatus(StatusLoaded)
	src := newFakeNode(KindFile, srcFrame)
	reg.Add(src)

	comp := NewCompNode("main")
	l := comp.AddLayer(src.UUID())
	l.SrcLen = 10

	first, err := comp.Compute(0, ctx)
	if err != nil {
		t.Fatal(err)
	}
	cached, ok := cache.Get(comp.UUID(), 0)
	if !ok || cached != first {
		t.Fatal("Compute should insert its result into the cache")
	}

	// Without marking dirty, a second Compute call should return the same
	// cached frame rather than recompositing.
	second, err := comp.Compute(0, ctx)
	if err != nil {
		t.Fatal(err)
	}
	if second != first {
		t.Error("an unchanged, non-dirty comp should return the cached frame")
	}
}

func TestCompNodeComputeDetectsCycle(t *testing.T) {
	ctx, reg, _ := newTestComputeContext()

	a := NewCompNode("a")
	b := NewCompNode("b")
	reg.Add(a)
	reg.Add(b)

	a.AddLayer(b.UUID()).SrcLen = 10
	b.AddLayer(a.UUID()).SrcLen = 10

	_, err := a.Compute(0, ctx)
	if err == nil {
		t.Fatal("expected a cycle-detected error")
	}
}

func TestCompNodeActiveLayersHonorsSoloAndVisibility(t *testing.T) {
	comp := NewCompNode("main")
	a := comp.AddLayer(uuid.New())
	a.SrcLen = 10
	b := comp.AddLayer(uuid.New())
	b.SrcLen = 10
	b.Visible = false
	c := comp.AddLayer(uuid.New())
	c.SrcLen = 10
	c.Solo = true

	active := comp.activeLayers(0)
	if len(active) != 1 || active[0] != c {
		t.Fatalf("active = %v, want only the solo layer", active)
	}
}

func TestCompNodeRemoveLayerReindexes(t *testing.T) {
	comp := NewCompNode("main")
	a := comp.AddLayer(uuid.New())
	b := comp.AddLayer(uuid.New())
	c := comp.AddLayer(uuid.New())

	if !comp.RemoveLayer(a.UUID) {
		t.Fatal("RemoveLayer should report success for an existing layer")
	}
	if len(comp.Layers()) != 2 {
		t.Fatalf("Layers() len = %d, want 2", len(comp.Layers()))
	}
	if b.index != 0 || c.index != 1 {
		t.Errorf("remaining layers should be reindexed, got b=%d c=%d", b.index, c.index)
	}
}

func TestCompNodeFindActiveCameraPicksTopmost(t *testing.T) {
	ctx, reg, _ := newTestComputeContext()
	cam1 := NewCameraNode("cam1")
	cam2 := NewCameraNode("cam2")
	reg.Add(cam1)
	reg.Add(cam2)

	comp := NewCompNode("main")
	comp.AddLayer(cam1.UUID())
	comp.AddLayer(cam2.UUID())

	gotCam, gotLayer := comp.findActiveCamera(ctx)
	if gotCam != cam2 {
		t.Error("findActiveCamera should pick the topmost (highest index) camera layer")
	}
	if gotLayer.SourceUUID != cam2.UUID() {
		t.Error("returned layer should be the one hosting the chosen camera")
	}
}
