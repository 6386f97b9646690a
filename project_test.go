package playa

import (
	"path/filepath"
	"testing"
)

func newTestProject() *Project {
	cache := NewFrameCache()
	manager := NewCacheManager(cache, 0, 0)
	bus := NewEventBus()
	return NewProject(manager, nil, bus)
}

func TestProjectCreateCompAddsToOrderAndEmitsEvent(t *testing.T) {
	p := newTestProject()
	var got []Event
	p.bus.Subscribe(func(e Event) { got = append(got, e) })

	id := p.CreateComp("main", 30)

	order := p.CompsOrder()
	if len(order) != 1 || order[0] != id {
		t.Fatalf("CompsOrder = %v, want [%v]", order, id)
	}
	if len(got) != 1 || got[0].Kind != EventAddComp {
		t.Errorf("expected a single EventAddComp, got %v", got)
	}
}

func TestProjectEnsureDefaultCompCreatesOnlyOnce(t *testing.T) {
	p := newTestProject()
	first := p.EnsureDefaultComp()
	second := p.EnsureDefaultComp()
	if first != second {
		t.Error("EnsureDefaultComp should not create a second comp once one exists")
	}
	if len(p.CompsOrder()) != 1 {
		t.Errorf("CompsOrder len = %d, want 1", len(p.CompsOrder()))
	}
}

func TestProjectAddRemoveMedia(t *testing.T) {
	p := newTestProject()
	fileID := p.AddMedia(NewFileNode("plate", "plate_*.exr"))

	if _, ok := p.Registry().Get(fileID); !ok {
		t.Fatal("AddMedia should register the node")
	}
	if !p.RemoveMedia(fileID) {
		t.Fatal("RemoveMedia should succeed for a registered node")
	}
	if _, ok := p.Registry().Get(fileID); ok {
		t.Error("node should be gone from the registry after RemoveMedia")
	}
	if p.RemoveMedia(fileID) {
		t.Error("a second RemoveMedia of the same id should report false")
	}
}

func TestProjectSelectionToggle(t *testing.T) {
	p := newTestProject()
	id := p.AddMedia(NewFileNode("plate", "plate_*.exr"))

	p.ToggleSelection(id)
	if sel := p.Selection(); len(sel) != 1 || sel[0] != id {
		t.Fatalf("Selection = %v, want [%v]", sel, id)
	}
	p.ToggleSelection(id)
	if sel := p.Selection(); len(sel) != 0 {
		t.Errorf("Selection after second toggle = %v, want empty", sel)
	}
}

func TestProjectCanAddLayerRejectsCycle(t *testing.T) {
	p := newTestProject()
	aID := p.AddMedia(NewCompNode("a"))
	bID := p.AddMedia(NewCompNode("b"))

	p.ModifyComp(aID, func(c *CompNode) { c.AddLayer(bID) })

	if p.CanAddLayer(aID, aID) {
		t.Error("a comp can never host itself as a layer")
	}
	if p.CanAddLayer(bID, aID) {
		t.Error("b already feeds into a, so a cannot be added inside b (would cycle)")
	}

	cID := p.AddMedia(NewCompNode("c"))
	if !p.CanAddLayer(cID, aID) {
		t.Error("an unrelated comp should be a legal layer host")
	}
}

func TestProjectInvalidateCascadeMarksDependents(t *testing.T) {
	p := newTestProject()
	fileID := p.AddMedia(NewFileNode("plate", "plate_*.exr"))
	compID := p.AddMedia(NewCompNode("main"))
	p.ModifyComp(compID, func(c *CompNode) { c.AddLayer(fileID) })
	p.ModifyComp(compID, func(c *CompNode) { c.ClearDirty() })

	p.InvalidateCascade(fileID)

	n, _ := p.Registry().Get(compID)
	if !n.IsDirty() {
		t.Error("InvalidateCascade should mark the dependent comp dirty")
	}
}

func TestProjectJSONRoundTrip(t *testing.T) {
	p := newTestProject()
	fileID := p.AddMedia(NewFileNode("plate", "plate_*.exr"))
	compID := p.CreateComp("main", 24)
	p.ModifyComp(compID, func(c *CompNode) { c.AddLayer(fileID) })
	p.SetActive(compID)

	path := filepath.Join(t.TempDir(), "project.json")
	if err := p.ToJSON(path); err != nil {
		t.Fatal(err)
	}

	loaded, err := LoadProjectJSON(path)
	if err != nil {
		t.Fatal(err)
	}
	loaded.AttachSchemas()

	if loaded.Registry().Len() != 2 {
		t.Fatalf("loaded registry len = %d, want 2", loaded.Registry().Len())
	}
	active, ok := loaded.Active()
	if !ok || active != compID {
		t.Errorf("loaded active = %v, %v, want %v, true", active, ok, compID)
	}

	n, ok := loaded.Registry().Get(compID)
	if !ok {
		t.Fatal("loaded comp should preserve its original UUID")
	}
	comp := n.(*CompNode)
	if len(comp.Layers()) != 1 || comp.Layers()[0].SourceUUID != fileID {
		t.Errorf("loaded comp layers = %v, want one layer sourced from %v", comp.Layers(), fileID)
	}
}

func TestProjectRebuildWithManagerSyncsEpoch(t *testing.T) {
	p := newTestProject()
	path := filepath.Join(t.TempDir(), "project.json")
	if err := p.ToJSON(path); err != nil {
		t.Fatal(err)
	}
	loaded, err := LoadProjectJSON(path)
	if err != nil {
		t.Fatal(err)
	}

	cache := NewFrameCache()
	manager := NewCacheManager(cache, 0, 0)
	workers := NewWorkerPoolSize(1)
	defer workers.Shutdown()
	bus := NewEventBus()

	loaded.RebuildWithManager(manager, workers, StrategyAll, bus)

	if loaded.CacheManager() != manager {
		t.Error("RebuildWithManager should attach the given manager")
	}
	if workers.Epoch() != cache.Epoch() {
		t.Errorf("worker epoch = %d, cache epoch = %d, want synced", workers.Epoch(), cache.Epoch())
	}
}

func TestProjectRenderRangeProducesOneFramePerIndex(t *testing.T) {
	p := newTestProject()
	fileID := p.AddMedia(NewFileNode("plate", "plate_*.exr"))
	compID := p.CreateComp("main", 24)
	p.ModifyComp(compID, func(c *CompNode) {
		l := c.AddLayer(fileID)
		l.SrcLen = 10
	})

	frames, err := p.RenderRange(compID, 0, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(frames) != 3 {
		t.Fatalf("RenderRange = %d frames, want 3", len(frames))
	}
}
