package playa

import (
	"sync"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// Player owns the playhead and playback transport for one active Comp. It
// advances the playhead from wall-clock time rather than per-tick integer
// steps, so playback speed is independent of host frame rate (spec §6).
type Player struct {
	mu sync.Mutex

	fps       float64
	playing   bool
	loop      bool
	rangeIn   int
	rangeOut  int
	lastFrame int
	accum     float64 // seconds accumulated toward the next frame advance

	// scrubTween eases the displayed frame toward a target after a seek,
	// mirroring the scene-graph engine's camera ScrollTo smoothing so a
	// large jump doesn't show as a single jarring cut when the UI chooses
	// to animate it. nil when not scrubbing.
	scrubTween *gween.Tween
	scrubFrom  float64
}

// NewPlayer returns a Player at frame 0, paused, at the given fps, with no range
// restriction (rangeOut must be set once the active comp's duration is
// known via SetRange).
func NewPlayer(fps float64) *Player {
	return &Player{fps: fps, rangeOut: -1}
}

// SetRange sets the inclusive play range. out < 0 means unbounded (use the
// comp's own duration).
func (p *Player) SetRange(in, out int) {
	p.mu.Lock()
	p.rangeIn, p.rangeOut = in, out
	if p.lastFrame < in {
		p.lastFrame = in
	}
	p.mu.Unlock()
}

// ResetPlayRange clears the range restriction back to unbounded.
func (p *Player) ResetPlayRange() {
	p.mu.Lock()
	p.rangeIn, p.rangeOut = 0, -1
	p.mu.Unlock()
}

// FPS returns the current playback rate.
func (p *Player) FPS() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fps
}

// SetFPS sets the playback rate, clamped to a sane minimum.
func (p *Player) SetFPS(fps float64) {
	if fps < 0.1 {
		fps = 0.1
	}
	p.mu.Lock()
	p.fps = fps
	p.mu.Unlock()
}

// IncreaseFPS and DecreaseFPS step the rate by one frame-per-second,
// matching the event taxonomy's discrete transport controls.
func (p *Player) IncreaseFPS() { p.mu.Lock(); p.fps++; p.mu.Unlock() }
func (p *Player) DecreaseFPS() {
	p.mu.Lock()
	if p.fps > 1 {
		p.fps--
	}
	p.mu.Unlock()
}

// Play, Pause, Stop, TogglePlayPause control transport state. Stop also
// resets the playhead to the range start.
func (p *Player) Play()  { p.mu.Lock(); p.playing = true; p.mu.Unlock() }
func (p *Player) Pause() { p.mu.Lock(); p.playing = false; p.mu.Unlock() }
func (p *Player) Stop() {
	p.mu.Lock()
	p.playing = false
	p.lastFrame = p.rangeIn
	p.accum = 0
	p.mu.Unlock()
}
func (p *Player) TogglePlayPause() {
	p.mu.Lock()
	p.playing = !p.playing
	p.mu.Unlock()
}

// IsPlaying reports whether the transport is currently advancing.
func (p *Player) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

// SetLoop enables or disables looping back to the range start at range end.
func (p *Player) SetLoop(enabled bool) {
	p.mu.Lock()
	p.loop = enabled
	p.mu.Unlock()
}

// CurrentFrame returns the playhead's current integer frame.
func (p *Player) CurrentFrame() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastFrame
}

// SetFrame jumps the playhead directly to frame, clamped to the play range,
// and starts a short ease so repeated UI redraws during a fast scrub show a
// smoothly moving playhead cursor rather than teleporting every call.
func (p *Player) SetFrame(frame int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	clamped := p.clampFrame(frame)
	p.scrubFrom = float64(p.lastFrame)
	p.scrubTween = gween.New(float32(p.scrubFrom), float32(clamped), 0.12, ease.OutQuad)
	p.lastFrame = clamped
	p.accum = 0
}

// DisplayFrame returns the frame to render this tick: the eased
// in-progress scrub position if one is active, otherwise CurrentFrame.
// dt is the elapsed seconds since the previous DisplayFrame call.
func (p *Player) DisplayFrame(dt float32) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.scrubTween == nil {
		return p.lastFrame
	}
	v, done := p.scrubTween.Update(dt)
	if done {
		p.scrubTween = nil
	}
	return int(v + 0.5)
}

// StepForward, StepBackward move by one frame; the Large variants move by a
// full second at the current fps (spec §6 transport events).
func (p *Player) StepForward()      { p.step(1) }
func (p *Player) StepBackward()     { p.step(-1) }
func (p *Player) StepForwardLarge() { p.step(int(p.FPS() + 0.5)) }
func (p *Player) StepBackwardLarge() {
	p.step(-int(p.FPS() + 0.5))
}

func (p *Player) step(delta int) {
	p.mu.Lock()
	p.lastFrame = p.clampFrame(p.lastFrame + delta)
	p.accum = 0
	p.mu.Unlock()
}

// JumpToStart and JumpToEnd move to the play range boundaries.
func (p *Player) JumpToStart() { p.mu.Lock(); p.lastFrame = p.rangeIn; p.mu.Unlock() }
func (p *Player) JumpToEnd() {
	p.mu.Lock()
	if p.rangeOut >= p.rangeIn {
		p.lastFrame = p.rangeOut
	}
	p.mu.Unlock()
}

// clampFrame bounds frame to [rangeIn, rangeOut] when rangeOut is set
// (>= 0); callers must hold p.mu.
func (p *Player) clampFrame(frame int) int {
	if frame < p.rangeIn {
		return p.rangeIn
	}
	if p.rangeOut >= p.rangeIn && frame > p.rangeOut {
		return p.rangeOut
	}
	return frame
}

// Advance progresses the playhead by dt seconds of wall-clock time when
// playing, accumulating fractional frames at the current fps and looping
// back to rangeIn at rangeOut if looping is enabled. Returns the new
// CurrentFrame.
func (p *Player) Advance(dt float64) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.playing {
		return p.lastFrame
	}

	p.accum += dt * p.fps
	steps := int(p.accum)
	if steps == 0 {
		return p.lastFrame
	}
	p.accum -= float64(steps)

	next := p.lastFrame + steps
	if p.rangeOut >= p.rangeIn {
		span := p.rangeOut - p.rangeIn + 1
		if next > p.rangeOut {
			if p.loop {
				next = p.rangeIn + (next-p.rangeIn)%span
			} else {
				next = p.rangeOut
				p.playing = false
			}
		}
	}
	p.lastFrame = next
	return next
}
