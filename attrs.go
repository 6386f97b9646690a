package playa

import (
	"encoding/binary"
	"hash/fnv"
	"math"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// ValueKind tags the dynamic type carried in an AttrValue.
type ValueKind uint8

const (
	KindBool ValueKind = iota
	KindInt
	KindUInt
	KindFloat
	KindStr
	KindUUID
	KindVec3
	KindVec4
	KindMat3
	KindMat4
	KindJSON
)

// Vec3 and Vec4 are plain float64 vectors used throughout the spatial API.
type Vec3 struct{ X, Y, Z float64 }
type Vec4 struct{ X, Y, Z, W float64 }

// Mat3 and Mat4 are row-major square matrices.
type Mat3 [9]float64
type Mat4 [16]float64

// AttrValue is a tagged union over the value types Attrs can hold.
type AttrValue struct {
	Kind ValueKind
	B    bool
	I    int64
	U    uint64
	F    float64
	S    string
	Uid  uuid.UUID
	V3   Vec3
	V4   Vec4
	M3   Mat3
	M4   Mat4
	J    any // arbitrary JSON-decoded value
}

// FieldRole describes a Schema field's UI role; purely descriptive for the
// engine core, consumed by external editor adapters.
type FieldRole uint8

const (
	RolePlain FieldRole = iota
	RoleFilePath
	RoleColor
	RoleAngle
	RoleEnum
)

// SchemaField describes one named attribute.
type SchemaField struct {
	Key  string
	Kind ValueKind
	Role FieldRole
	// DAG marks that changing this key invalidates downstream compute
	// results (spec §4.2).
	DAG bool
}

// Schema is a static, program-lifetime mapping from attribute key to its
// declared type/role/DAG-sensitivity.
type Schema struct {
	fields map[string]SchemaField
}

// NewSchema builds a Schema from a field list.
func NewSchema(fields ...SchemaField) *Schema {
	m := make(map[string]SchemaField, len(fields))
	for _, f := range fields {
		m[f.Key] = f
	}
	return &Schema{fields: m}
}

func (s *Schema) isDAG(key string) bool {
	if s == nil {
		return false
	}
	f, ok := s.fields[key]
	return ok && f.DAG
}

// Attrs is an ordered mapping from string key to AttrValue, with an
// optional Schema and an atomic dirty flag (spec §4.2).
type Attrs struct {
	mu     sync.RWMutex
	order  []string
	values map[string]AttrValue
	schema *Schema
	dirty  atomic.Bool
}

// NewAttrs returns an empty Attrs bag.
func NewAttrs() *Attrs {
	return &Attrs{values: make(map[string]AttrValue)}
}

// AttachSchema binds s to the bag, used after deserialization re-binding
// (spec §4.10's rebuild path). Does not itself mark anything dirty.
func (a *Attrs) AttachSchema(s *Schema) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.schema = s
}

// Set inserts or overwrites key. Dirty is set if there is no schema, or the
// schema marks key as DAG-sensitive — even when the new value equals the
// old one (spec §4.2: simplifies correctness over optimization).
func (a *Attrs) Set(key string, v AttrValue) {
	a.mu.Lock()
	if _, exists := a.values[key]; !exists {
		a.order = append(a.order, key)
	}
	a.values[key] = v
	schema := a.schema
	a.mu.Unlock()

	if schema == nil || schema.isDAG(key) {
		a.dirty.Store(true)
	}
}

// Get returns the raw value for key and whether it was present.
func (a *Attrs) Get(key string) (AttrValue, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	v, ok := a.values[key]
	return v, ok
}

// Keys returns the insertion-ordered key list.
func (a *Attrs) Keys() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]string, len(a.order))
	copy(out, a.order)
	return out
}

// --- typed getters ---

func (a *Attrs) GetBool(key string) (bool, bool) {
	v, ok := a.Get(key)
	if !ok || v.Kind != KindBool {
		return false, false
	}
	return v.B, true
}

func (a *Attrs) GetInt(key string) (int64, bool) {
	v, ok := a.Get(key)
	if !ok || v.Kind != KindInt {
		return 0, false
	}
	return v.I, true
}

func (a *Attrs) GetUInt(key string) (uint64, bool) {
	v, ok := a.Get(key)
	if !ok || v.Kind != KindUInt {
		return 0, false
	}
	return v.U, true
}

func (a *Attrs) GetFloat(key string) (float64, bool) {
	v, ok := a.Get(key)
	if !ok || v.Kind != KindFloat {
		return 0, false
	}
	return v.F, true
}

func (a *Attrs) GetStr(key string) (string, bool) {
	v, ok := a.Get(key)
	if !ok || v.Kind != KindStr {
		return "", false
	}
	return v.S, true
}

func (a *Attrs) GetVec3(key string) (Vec3, bool) {
	v, ok := a.Get(key)
	if !ok || v.Kind != KindVec3 {
		return Vec3{}, false
	}
	return v.V3, true
}

// --- convenience setters ---

func (a *Attrs) SetBool(key string, v bool)    { a.Set(key, AttrValue{Kind: KindBool, B: v}) }
func (a *Attrs) SetInt(key string, v int64)     { a.Set(key, AttrValue{Kind: KindInt, I: v}) }
func (a *Attrs) SetUInt(key string, v uint64)   { a.Set(key, AttrValue{Kind: KindUInt, U: v}) }
func (a *Attrs) SetFloat(key string, v float64) { a.Set(key, AttrValue{Kind: KindFloat, F: v}) }
func (a *Attrs) SetStr(key string, v string)    { a.Set(key, AttrValue{Kind: KindStr, S: v}) }
func (a *Attrs) SetVec3(key string, v Vec3)      { a.Set(key, AttrValue{Kind: KindVec3, V3: v}) }

// IsDirty reports whether any DAG-sensitive key has been set since the last
// ClearDirty.
func (a *Attrs) IsDirty() bool { return a.dirty.Load() }

// ClearDirty clears the dirty flag; called by the owner after successful
// recompute.
func (a *Attrs) ClearDirty() { a.dirty.Store(false) }

// MarkDirty forces the dirty flag, used for cascading invalidation.
func (a *Attrs) MarkDirty() { a.dirty.Store(true) }

// Export returns a copy of the bag's values, keyed by attribute name, for
// serialization (Project.Save). Order is not preserved; callers that need
// deterministic output should sort the returned map's keys themselves.
func (a *Attrs) Export() map[string]AttrValue {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make(map[string]AttrValue, len(a.values))
	for k, v := range a.values {
		out[k] = v
	}
	return out
}

// Import replaces the bag's contents with m (Project.Load's rebuild path),
// using m's keys in sorted order as the new insertion order. Does not mark
// the bag dirty: a freshly loaded node is, by definition, not stale.
func (a *Attrs) Import(m map[string]AttrValue) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.values = make(map[string]AttrValue, len(m))
	a.order = a.order[:0]
	for k, v := range m {
		a.values[k] = v
		a.order = append(a.order, k)
	}
	sort.Strings(a.order)
}

// HashFiltered computes a deterministic 64-bit digest over keys in sorted
// order (optionally restricted to include, or excluding exclude), with
// floats hashed via their bit pattern and matrices flattened in row-major
// order (spec §4.2).
func (a *Attrs) HashFiltered(include, exclude map[string]bool) uint64 {
	a.mu.RLock()
	defer a.mu.RUnlock()

	keys := make([]string, 0, len(a.values))
	for k := range a.values {
		if include != nil && !include[k] {
			continue
		}
		if exclude != nil && exclude[k] {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := fnv.New64a()
	var buf [8]byte
	writeU64 := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[:], v)
		h.Write(buf[:])
	}
	writeF64 := func(v float64) { writeU64(math.Float64bits(v)) }

	for _, k := range keys {
		h.Write([]byte(k))
		v := a.values[k]
		writeU64(uint64(v.Kind))
		switch v.Kind {
		case KindBool:
			if v.B {
				writeU64(1)
			} else {
				writeU64(0)
			}
		case KindInt:
			writeU64(uint64(v.I))
		case KindUInt:
			writeU64(v.U)
		case KindFloat:
			writeF64(v.F)
		case KindStr:
			h.Write([]byte(v.S))
		case KindUUID:
			h.Write(v.Uid[:])
		case KindVec3:
			writeF64(v.V3.X)
			writeF64(v.V3.Y)
			writeF64(v.V3.Z)
		case KindVec4:
			writeF64(v.V4.X)
			writeF64(v.V4.Y)
			writeF64(v.V4.Z)
			writeF64(v.V4.W)
		case KindMat3:
			for _, f := range v.M3 {
				writeF64(f)
			}
		case KindMat4:
			for _, f := range v.M4 {
				writeF64(f)
			}
		}
	}
	return h.Sum64()
}
