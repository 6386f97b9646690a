package playa

import (
	"sync"

	"github.com/google/uuid"
)

// NodeKind tags the polymorphic Node variant (Design Notes: a tagged
// variant over a trait, not deep inheritance).
type NodeKind uint8

const (
	KindFile NodeKind = iota
	KindComp
	KindCamera
	KindText
)

func (k NodeKind) String() string {
	switch k {
	case KindFile:
		return "File"
	case KindComp:
		return "Comp"
	case KindCamera:
		return "Camera"
	case KindText:
		return "Text"
	default:
		return "Unknown"
	}
}

// Node is the common contract every node kind satisfies. Shared behavior is
// implemented as free functions taking *Attrs and *ComputeContext rather
// than through a deep type hierarchy.
type Node interface {
	UUID() uuid.UUID
	Name() string
	Kind() NodeKind
	Attrs() *Attrs
	Inputs() []uuid.UUID
	Compute(frameIdx int, ctx *ComputeContext) (*Frame, error)
	IsDirty() bool
	MarkDirty()
	ClearDirty()
	Preload(center, radius int, ctx *ComputeContext)
}

// ComputeContext carries everything a node needs to compute a frame: a
// handle to the shared cache, a handle to the node registry, an optional
// worker pool, and the epoch value in effect when the call was issued.
type ComputeContext struct {
	Cache    *FrameCache
	Registry *Registry
	Workers  *WorkerPool
	Epoch    uint64

	// composing tracks Comp UUIDs currently on this goroutine's call stack,
	// the cycle guard from spec §4.3.2 step 5. One set per goroutine: a
	// ComputeContext must not be shared across goroutines computing
	// concurrently — callers clone it (WithEpoch) for each worker.
	composing map[uuid.UUID]bool
}

// NewComputeContext builds a root-level context for a UI/player-thread
// compute call.
func NewComputeContext(cache *FrameCache, reg *Registry, workers *WorkerPool) *ComputeContext {
	return &ComputeContext{
		Cache:     cache,
		Registry:  reg,
		Workers:   workers,
		Epoch:     cache.Epoch(),
		composing: make(map[uuid.UUID]bool),
	}
}

// WithEpoch returns a copy of ctx carrying a fresh composing set, safe to
// hand to a new goroutine (e.g. a preload task).
func (ctx *ComputeContext) WithEpoch(epoch uint64) *ComputeContext {
	return &ComputeContext{
		Cache:     ctx.Cache,
		Registry:  ctx.Registry,
		Workers:   ctx.Workers,
		Epoch:     epoch,
		composing: make(map[uuid.UUID]bool),
	}
}

func (ctx *ComputeContext) enterComposing(id uuid.UUID) bool {
	if ctx.composing[id] {
		return false
	}
	ctx.composing[id] = true
	return true
}

func (ctx *ComputeContext) exitComposing(id uuid.UUID) {
	delete(ctx.composing, id)
}

// Registry is the UUID -> Node arena. It exclusively owns node values;
// everything else (Layer.SourceUUID, Camera references, ...) is a weak
// UUID reference into it. Guarded by a single readers-writer lock per the
// deadlock policy in spec §5 (epoch < cache < registry < per-node attrs).
type Registry struct {
	mu    sync.RWMutex
	nodes map[uuid.UUID]Node
}

// NewRegistry returns an empty node registry.
func NewRegistry() *Registry {
	return &Registry{nodes: make(map[uuid.UUID]Node)}
}

// Add inserts a node and returns its UUID.
func (r *Registry) Add(n Node) uuid.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nodes[n.UUID()] = n
	return n.UUID()
}

// Get looks up a node by UUID.
func (r *Registry) Get(id uuid.UUID) (Node, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n, ok := r.nodes[id]
	return n, ok
}

// Remove deletes a node from the registry.
func (r *Registry) Remove(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.nodes, id)
}

// Snapshot clones the id->Node map under a brief read lock so long-running
// computes (e.g. preload tasks) can release the registry lock before
// recursing, per spec §4.9/§5.
func (r *Registry) Snapshot() map[uuid.UUID]Node {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[uuid.UUID]Node, len(r.nodes))
	for k, v := range r.nodes {
		out[k] = v
	}
	return out
}

// Len returns the number of registered nodes.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.nodes)
}

// nodeBase holds the fields every node variant shares: identity, attrs, and
// the dirty flag delegated to Attrs.
type nodeBase struct {
	id   uuid.UUID
	name string
	kind NodeKind
	attr *Attrs
}

func newNodeBase(name string, kind NodeKind) nodeBase {
	return nodeBase{id: uuid.New(), name: name, kind: kind, attr: NewAttrs()}
}

func (b *nodeBase) UUID() uuid.UUID { return b.id }
func (b *nodeBase) Name() string    { return b.name }
func (b *nodeBase) Kind() NodeKind  { return b.kind }
func (b *nodeBase) Attrs() *Attrs   { return b.attr }
func (b *nodeBase) IsDirty() bool   { return b.attr.IsDirty() }
func (b *nodeBase) MarkDirty()      { b.attr.MarkDirty() }
func (b *nodeBase) ClearDirty()     { b.attr.ClearDirty() }
