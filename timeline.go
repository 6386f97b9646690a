package playa

import "github.com/google/uuid"

// Clip is a read-only edit-decision summary of one Layer: just enough to
// draw or reason about a timeline row (in/out/trim/speed), without exposing
// the full Layer (transform, blend, effects) a timeline view has no use for.
// Grounded on original_source/src/clip.rs's trimmed-down view of a sequence,
// adapted here to project an existing Layer rather than own a second copy of
// its state — the single Layer type in layer.go remains the source of truth
// (Design Notes: avoid deep/duplicated models of the same entity).
type Clip struct {
	LayerUUID  uuid.UUID
	SourceUUID uuid.UUID
	Name       string
	Start      int
	End        int
	Speed      float64
}

// Timeline is a read-only, per-frame snapshot of a CompNode's layer stack,
// the data a timeline/EDL view (original_source's timeline.rs, GUI-bound and
// out of scope here) would render: one Clip per layer, in stack order, plus
// a frame count (last clip end + 1) and the requested playhead position.
type Timeline struct {
	Clips       []Clip
	TotalFrames int
	Playhead    int
}

// BuildTimeline projects comp's current layer stack into a Timeline as of
// playhead. reg resolves each layer's source node name; a layer whose source
// is no longer registered is kept with an empty name rather than erroring, since a stale
// reference is a normal transient state while media is being replaced.
func BuildTimeline(comp *CompNode, reg *Registry, playhead int) Timeline {
	layers := comp.Layers()
	t := Timeline{Clips: make([]Clip, 0, len(layers)), Playhead: playhead}

	maxEnd := 0
	for _, l := range layers {
		name := l.Name
		if name == "" {
			if src, ok := reg.Get(l.SourceUUID); ok {
				name = src.Name()
			}
		}
		start, end := l.WorkArea()
		t.Clips = append(t.Clips, Clip{
			LayerUUID:  l.UUID,
			SourceUUID: l.SourceUUID,
			Name:       name,
			Start:      start,
			End:        end,
			Speed:      l.Speed,
		})
		if end > maxEnd {
			maxEnd = end
		}
	}
	t.TotalFrames = maxEnd + 1
	return t
}

// ClipAtPlayhead returns the first clip (in stack order) covering the
// timeline's playhead frame, or false if none does.
func (t Timeline) ClipAtPlayhead() (Clip, bool) {
	for _, c := range t.Clips {
		if t.Playhead >= c.Start && t.Playhead <= c.End {
			return c, true
		}
	}
	return Clip{}, false
}
