package playa

import (
	"testing"

	"github.com/google/uuid"
)

func TestBuildTimelineProjectsLayersAsClips(t *testing.T) {
	reg := NewRegistry()
	src := NewFileNode("plate", "plate_*.exr")
	reg.Add(src)

	comp := NewCompNode("main")
	l := comp.AddLayer(src.UUID())
	l.SrcLen = 10

	tl := BuildTimeline(comp, reg, 3)
	if len(tl.Clips) != 1 {
		t.Fatalf("Clips = %v, want 1", tl.Clips)
	}
	c := tl.Clips[0]
	if c.Name != "plate" {
		t.Errorf("Name = %q, want %q (resolved from the source node)", c.Name, "plate")
	}
	if c.SourceUUID != src.UUID() {
		t.Errorf("SourceUUID = %v, want %v", c.SourceUUID, src.UUID())
	}
	if tl.TotalFrames != 10 {
		t.Errorf("TotalFrames = %d, want 10", tl.TotalFrames)
	}
}

func TestBuildTimelineKeepsStaleSourceReference(t *testing.T) {
	reg := NewRegistry()
	comp := NewCompNode("main")
	l := comp.AddLayer(uuid.New())
	l.SrcLen = 5

	tl := BuildTimeline(comp, reg, 0)
	if len(tl.Clips) != 1 {
		t.Fatalf("Clips = %v, want 1 (clip still appears, just with an empty name)", tl.Clips)
	}
	if tl.Clips[0].Name != "" {
		t.Errorf("Name = %q, want empty for an unresolved source", tl.Clips[0].Name)
	}
}

func TestTimelineClipAtPlayhead(t *testing.T) {
	reg := NewRegistry()
	comp := NewCompNode("main")
	a := comp.AddLayer(uuid.New())
	a.SrcLen = 10 // work area [0, 9]
	b := comp.AddLayer(uuid.New())
	b.In = 20
	b.SrcLen = 10 // work area [20, 29]

	tl := BuildTimeline(comp, reg, 25)
	c, ok := tl.ClipAtPlayhead()
	if !ok {
		t.Fatal("expected a clip covering frame 25")
	}
	if c.LayerUUID != b.UUID {
		t.Errorf("ClipAtPlayhead returned layer %v, want %v", c.LayerUUID, b.UUID)
	}

	tl2 := BuildTimeline(comp, reg, 15)
	if _, ok := tl2.ClipAtPlayhead(); ok {
		t.Error("frame 15 falls in the gap between clips, expected no match")
	}
}
