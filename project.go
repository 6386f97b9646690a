package playa

import (
	"encoding/json"
	"os"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Project is the top-level container: the node Registry, the stacking
// order of top-level Comps, the current selection, and the active comp the
// Player is scrubbing. Grounded on original_source/src/entities (the
// Project type referenced throughout bin/project.rs and runner.rs) —
// to_json/from_json, rebuild_with_manager, comps_order, selection, and
// last_save_path all have a direct counterpart below.
type Project struct {
	mu sync.RWMutex

	registry     *Registry
	compsOrder   []uuid.UUID
	selection    map[uuid.UUID]bool
	active       uuid.UUID
	hasActive    bool
	lastSavePath string

	cacheManager *CacheManager
	workers      *WorkerPool
	bus          *EventBus
}

// NewProject creates an empty Project backed by manager's FrameCache and the
// given worker pool, emitting lifecycle events on bus.
func NewProject(manager *CacheManager, workers *WorkerPool, bus *EventBus) *Project {
	return &Project{
		registry:     NewRegistry(),
		selection:    make(map[uuid.UUID]bool),
		cacheManager: manager,
		workers:      workers,
		bus:          bus,
	}
}

// Registry returns the project's node arena.
func (p *Project) Registry() *Registry { return p.registry }

// CacheManager returns the project's memory-governed frame cache manager.
func (p *Project) CacheManager() *CacheManager { return p.cacheManager }

// Workers returns the project's worker pool.
func (p *Project) Workers() *WorkerPool { return p.workers }

// NewComputeContext builds a ComputeContext bound to this project's cache,
// registry, and worker pool.
func (p *Project) NewComputeContext() *ComputeContext {
	return NewComputeContext(p.cacheManager.Cache(), p.registry, p.workers)
}

// CompsOrder returns the top-level comp UUIDs in display order. Callers
// must not mutate the returned slice.
func (p *Project) CompsOrder() []uuid.UUID {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]uuid.UUID, len(p.compsOrder))
	copy(out, p.compsOrder)
	return out
}

// CreateComp builds a new top-level CompNode named name at fps, registers
// it, appends it to CompsOrder, and emits EventAddComp.
func (p *Project) CreateComp(name string, fps float64) uuid.UUID {
	c := NewCompNode(name)
	c.attr.SetFloat("fps", fps)
	c.attr.ClearDirty()

	p.mu.Lock()
	id := p.registry.Add(c)
	p.compsOrder = append(p.compsOrder, id)
	p.mu.Unlock()

	if p.bus != nil {
		p.bus.Emit(Event{Kind: EventAddComp, Payload: id})
	}
	return id
}

// EnsureDefaultComp returns the first comp in CompsOrder, creating an empty
// "Comp 1" at 24fps if the project has none (runner.rs's restore-on-launch
// fallback).
func (p *Project) EnsureDefaultComp() uuid.UUID {
	p.mu.RLock()
	if len(p.compsOrder) > 0 {
		id := p.compsOrder[0]
		p.mu.RUnlock()
		return id
	}
	p.mu.RUnlock()
	return p.CreateComp("Comp 1", 24)
}

// Active returns the active comp UUID and whether one is set.
func (p *Project) Active() (uuid.UUID, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.active, p.hasActive
}

// SetActive sets the active comp.
func (p *Project) SetActive(id uuid.UUID) {
	p.mu.Lock()
	p.active, p.hasActive = id, true
	p.mu.Unlock()
}

// AddMedia registers a freestanding node (File, Camera, or Text, typically
// one not placed as a layer yet) and returns its UUID.
func (p *Project) AddMedia(n Node) uuid.UUID {
	p.mu.Lock()
	id := p.registry.Add(n)
	p.mu.Unlock()
	return id
}

// RemoveMedia removes a node from the registry, clears its cached frames,
// and cascades dirty-marking to every Comp layer that referenced it,
// per InvalidateCascade. Returns false if id was not present.
func (p *Project) RemoveMedia(id uuid.UUID) bool {
	if _, ok := p.registry.Get(id); !ok {
		return false
	}
	p.registry.Remove(id)
	p.cacheManager.Cache().ClearComp(id)
	p.InvalidateCascade(id)

	p.mu.Lock()
	delete(p.selection, id)
	p.mu.Unlock()

	if p.bus != nil {
		p.bus.Emit(Event{Kind: EventRemoveMedia, Payload: id})
	}
	return true
}

// ClearAllMedia removes every node from the project, resets the comp order
// and selection, and bumps the cache epoch so in-flight preload tasks drop.
func (p *Project) ClearAllMedia() {
	for id := range p.registry.Snapshot() {
		p.registry.Remove(id)
	}

	p.mu.Lock()
	p.compsOrder = nil
	p.selection = make(map[uuid.UUID]bool)
	p.active, p.hasActive = uuid.UUID{}, false
	p.mu.Unlock()

	e := p.cacheManager.Cache().BumpEpoch()
	if p.workers != nil {
		p.workers.SetEpoch(e)
	}
	if p.bus != nil {
		p.bus.Emit(Event{Kind: EventClearAllMedia})
	}
}

// Selection returns the set of currently selected node UUIDs.
func (p *Project) Selection() []uuid.UUID {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]uuid.UUID, 0, len(p.selection))
	for id := range p.selection {
		out = append(out, id)
	}
	return out
}

// SetSelection replaces the current selection.
func (p *Project) SetSelection(ids []uuid.UUID) {
	p.mu.Lock()
	p.selection = make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		p.selection[id] = true
	}
	p.mu.Unlock()
}

// ToggleSelection flips id's membership in the selection.
func (p *Project) ToggleSelection(id uuid.UUID) {
	p.mu.Lock()
	if p.selection[id] {
		delete(p.selection, id)
	} else {
		p.selection[id] = true
	}
	p.mu.Unlock()
}

// ModifyComp looks up id as a CompNode and, if found, invokes fn with it
// under no project-level lock (CompNode itself holds no lock either), returning
// false if id does not name a Comp.
func (p *Project) ModifyComp(id uuid.UUID, fn func(*CompNode)) bool {
	n, ok := p.registry.Get(id)
	if !ok {
		return false
	}
	c, ok := n.(*CompNode)
	if !ok {
		return false
	}
	fn(c)
	return true
}

// CanAddLayer reports whether instancing source as a layer inside comp would
// be legal, i.e. source does not transitively reference comp (spec §4.3.2's
// cycle-forbidden relationship invariant, enforced here at edit time rather
// than relying solely on the runtime cycle guard in ComputeContext).
func (p *Project) CanAddLayer(comp, source uuid.UUID) bool {
	if comp == source {
		return false
	}
	return !p.reaches(source, comp, make(map[uuid.UUID]bool))
}

// reaches reports whether a DFS from from's Inputs() can reach target.
func (p *Project) reaches(from, target uuid.UUID, seen map[uuid.UUID]bool) bool {
	if from == target {
		return true
	}
	if seen[from] {
		return false
	}
	seen[from] = true
	n, ok := p.registry.Get(from)
	if !ok {
		return false
	}
	for _, input := range n.Inputs() {
		if p.reaches(input, target, seen) {
			return true
		}
	}
	return false
}

// InvalidateCascade marks every Comp that directly or transitively
// references id as dirty and clears its cached frames, so a source edit
// (or removal) propagates up through nested Comps without the caller
// needing to know the dependency graph (spec §4.3.2, §5).
func (p *Project) InvalidateCascade(id uuid.UUID) {
	changed := map[uuid.UUID]bool{id: true}
	for {
		progressed := false
		for nid, n := range p.registry.Snapshot() {
			if changed[nid] {
				continue
			}
			for _, input := range n.Inputs() {
				if changed[input] {
					n.MarkDirty()
					p.cacheManager.Cache().ClearComp(nid)
					changed[nid] = true
					progressed = true
					break
				}
			}
		}
		if !progressed {
			break
		}
	}
}

// LastSavePath returns the path Project was last saved to or loaded from,
// and whether one is set.
func (p *Project) LastSavePath() (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastSavePath, p.lastSavePath != ""
}

// SetLastSavePath records path as the project's current save location.
func (p *Project) SetLastSavePath(path string) {
	p.mu.Lock()
	p.lastSavePath = path
	p.mu.Unlock()
}

// --- JSON persistence ---

// nodeDTO is the serializable form of one registry node. Attrs are
// exported via Attrs.Export; Layers is only populated for Comp nodes.
type nodeDTO struct {
	UUID   uuid.UUID            `json:"uuid"`
	Name   string               `json:"name"`
	Kind   NodeKind             `json:"kind"`
	Attrs  map[string]AttrValue `json:"attrs"`
	Layers []*Layer             `json:"layers,omitempty"`
}

// projectDTO is the on-disk JSON shape. Runtime-only state (cache, worker
// pool, event bus, composing guards) is intentionally absent — it is
// rebuilt by RebuildWithManager after Load, mirroring original_source's
// #[serde(skip)] fields restored in runner.rs.
type projectDTO struct {
	Nodes      []nodeDTO   `json:"nodes"`
	CompsOrder []uuid.UUID `json:"comps_order"`
	Active     *uuid.UUID  `json:"active,omitempty"`
}

// ToJSON serializes the project (registry contents, comp order, active
// comp) to path.
func (p *Project) ToJSON(path string) error {
	p.mu.RLock()
	dto := projectDTO{
		CompsOrder: append([]uuid.UUID(nil), p.compsOrder...),
	}
	if p.hasActive {
		active := p.active
		dto.Active = &active
	}
	p.mu.RUnlock()

	snapshot := p.registry.Snapshot()
	ids := make([]uuid.UUID, 0, len(snapshot))
	for id := range snapshot {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	for _, id := range ids {
		n := snapshot[id]
		d := nodeDTO{UUID: n.UUID(), Name: n.Name(), Kind: n.Kind(), Attrs: n.Attrs().Export()}
		if c, ok := n.(*CompNode); ok {
			d.Layers = c.Layers()
		}
		dto.Nodes = append(dto.Nodes, d)
	}

	data, err := json.MarshalIndent(dto, "", "  ")
	if err != nil {
		return newErr(KindDecodeError, "Project.ToJSON", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return newErr(KindNoInput, "Project.ToJSON", err)
	}
	return nil
}

// LoadProjectJSON reads path and reconstructs a Project with no cache
// manager, worker pool or bus attached (all nil); call RebuildWithManager before use, the
// same two-step restore runner.rs performs after eframe::storage restore.
func LoadProjectJSON(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, newErr(KindNoInput, "LoadProjectJSON", err)
	}
	var dto projectDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return nil, newErr(KindDecodeError, "LoadProjectJSON", err)
	}

	p := &Project{registry: NewRegistry(), selection: make(map[uuid.UUID]bool)}
	for _, d := range dto.Nodes {
		n := instantiateNode(d)
		p.registry.Add(n)
	}
	p.compsOrder = dto.CompsOrder
	if dto.Active != nil {
		p.active, p.hasActive = *dto.Active, true
	}
	return p, nil
}

// instantiateNode builds the concrete Node for a nodeDTO, preserving its
// original UUID (every node constructor otherwise mints a fresh one via
// nodeBase's uuid.New(), which a restored project must override so Layer
// SourceUUID references stay valid).
func instantiateNode(d nodeDTO) Node {
	switch d.Kind {
	case KindComp:
		c := NewCompNode(d.Name)
		c.id = d.UUID
		c.attr.Import(d.Attrs)
		c.layers = d.Layers
		for i, l := range c.layers {
			l.index = i
		}
		c.effects = make(map[uuid.UUID][]Effect)
		return c
	case KindCamera:
		cam := NewCameraNode(d.Name)
		cam.id = d.UUID
		cam.attr.Import(d.Attrs)
		return cam
	case KindText:
		content := d.Attrs["text"]
		t := NewTextNode(d.Name, content.S)
		t.id = d.UUID
		t.attr.Import(d.Attrs)
		return t
	default:
		mask := d.Attrs["file_mask"]
		f := NewFileNode(d.Name, mask.S)
		f.id = d.UUID
		f.attr.Import(d.Attrs)
		return f
	}
}

// AttachSchemas re-binds each node's static Schema after a JSON load, since
// Schema pointers are never serialized (original_source's
// project.attach_schemas(), called once per restore in runner.rs).
func (p *Project) AttachSchemas() {
	for _, n := range p.registry.Snapshot() {
		n.Attrs().AttachSchema(schemaFor(n.Kind()))
	}
}

// RebuildWithManager attaches manager, workers, and bus to a project that
// was just constructed by LoadProjectJSON (or cloned), applies strategy to
// the cache, and clears every node's dirty flag so the next compute pass
// only redoes work actually affected by the load.
func (p *Project) RebuildWithManager(manager *CacheManager, workers *WorkerPool, strategy CacheStrategy, bus *EventBus) {
	p.mu.Lock()
	p.cacheManager = manager
	p.workers = workers
	p.bus = bus
	p.mu.Unlock()

	manager.Cache().SetStrategy(strategy, 0, 0)
	manager.Cache().BumpEpoch()
	if workers != nil {
		workers.SetEpoch(manager.Cache().Epoch())
	}
	for _, n := range p.registry.Snapshot() {
		n.ClearDirty()
	}
}

// RenderRange computes frames [start, end] of comp (inclusive) and returns
// them in order, stopping at the first hard error. This supplements the
// interactive player with a batch path for encode/export tooling
// (original_source's encode.rs/ui_encode.rs render a comp to a file
// sequence the same way: iterate frames, call Compute, write out).
func (p *Project) RenderRange(comp uuid.UUID, start, end int) ([]*Frame, error) {
	n, ok := p.registry.Get(comp)
	if !ok {
		return nil, newErr(KindMissingNode, "Project.RenderRange", nil)
	}
	ctx := p.NewComputeContext()

	out := make([]*Frame, 0, end-start+1)
	for idx := start; idx <= end; idx++ {
		f, err := n.Compute(idx, ctx)
		if err != nil {
			return out, err
		}
		out = append(out, f)
	}
	return out, nil
}

// schemaFor returns the static per-kind Schema, or nil if the kind has no
// DAG-sensitivity distinctions worth declaring (every key is then treated
// as DAG-sensitive, per Attrs.Set's no-schema default).
func schemaFor(kind NodeKind) *Schema {
	switch kind {
	case KindFile:
		return NewSchema(
			SchemaField{Key: "file_mask", Kind: KindStr, Role: RoleFilePath, DAG: true},
			SchemaField{Key: "frame", Kind: KindInt, DAG: false},
		)
	default:
		return nil
	}
}
