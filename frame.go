package playa

import (
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
)

// PixelFormat identifies the precision and layout of a Frame's pixel buffer.
// The three variants are the tagged union spec §3 describes.
type PixelFormat uint8

const (
	// FormatRgba8 is 8-bit-per-channel RGBA (1 byte/channel).
	FormatRgba8 PixelFormat = iota
	// FormatRgbaF16 is half-float RGBA (2 bytes/channel, stored as raw
	// IEEE 754 binary16 bit patterns — Go has no native float16).
	FormatRgbaF16
	// FormatRgbaF32 is full-float RGBA (4 bytes/channel).
	FormatRgbaF32
)

// BytesPerChannel returns the per-channel byte width for the format.
func (f PixelFormat) BytesPerChannel() int {
	switch f {
	case FormatRgba8:
		return 1
	case FormatRgbaF16:
		return 2
	case FormatRgbaF32:
		return 4
	default:
		return 1
	}
}

// max returns the more precise of two formats, ranked Rgba8 < RgbaF16 < RgbaF32.
func (f PixelFormat) max(other PixelFormat) PixelFormat {
	if other > f {
		return other
	}
	return f
}

// Status is a Frame's lifecycle state. Transitions are monotone for a given
// load attempt: Header -> Loading -> {Loaded|Error}. See spec §3.
type Status int32

const (
	StatusPlaceholder Status = iota
	StatusHeader
	StatusLoading
	StatusLoaded
	StatusComposing
	StatusExpired
	StatusError
)

// rank orders statuses for min/max comparisons (spec §4.5): Error <
// Placeholder < Header < {Loading|Composing|Expired} < Loaded.
func (s Status) rank() int {
	switch s {
	case StatusError:
		return 0
	case StatusPlaceholder:
		return 1
	case StatusHeader:
		return 2
	case StatusLoading, StatusComposing, StatusExpired:
		return 3
	case StatusLoaded:
		return 4
	default:
		return 1
	}
}

// minStatus returns the lower-ranked of two statuses.
func minStatus(a, b Status) Status {
	if a.rank() <= b.rank() {
		return a
	}
	return b
}

// Frame is an immutable-after-load decoded image with an atomically tracked
// status. Frames are reference-counted (via Go's GC plus the explicit Clone
// below, which is a cheap pointer copy — the buffer itself is never deep
// copied by consumers) and freely shared between the cache and its readers.
type Frame struct {
	mu sync.RWMutex // guards the fields below except status, which is atomic

	width, height int
	format        PixelFormat
	buffer        []byte
	sourcePath    string

	status atomic.Int32
}

// NewPlaceholderFrame returns a 1x1 dark-green placeholder frame.
func NewPlaceholderFrame() *Frame {
	return newSizedPlaceholder(1, 1)
}

// NewSizedPlaceholderFrame returns a w x h dark-green placeholder frame,
// useful when the caller already knows the expected output dimensions.
func NewSizedPlaceholderFrame(w, h int) *Frame {
	return newSizedPlaceholder(w, h)
}

func newSizedPlaceholder(w, h int) *Frame {
	if w <= 0 {
		w = 1
	}
	if h <= 0 {
		h = 1
	}
	f := &Frame{width: w, height: h, format: FormatRgba8}
	f.buffer = make([]byte, w*h*4)
	// Dark green, per spec.
	for i := 0; i < len(f.buffer); i += 4 {
		f.buffer[i+0] = 0x10
		f.buffer[i+1] = 0x40
		f.buffer[i+2] = 0x10
		f.buffer[i+3] = 0xFF
	}
	f.status.Store(int32(StatusPlaceholder))
	return f
}

// NewUnloadedFrame returns a 1x1 placeholder bound to path with status
// Header, ready for a worker to claim and load.
func NewUnloadedFrame(path string) *Frame {
	f := newSizedPlaceholder(1, 1)
	f.sourcePath = path
	f.status.Store(int32(StatusHeader))
	return f
}

// Status returns the frame's current status.
func (f *Frame) Status() Status { return Status(f.status.Load()) }

// SetStatus force-sets the status. Used by composition results, which are
// born Loaded or Composing directly rather than going through the
// Header->Loading->Loaded worker protocol.
func (f *Frame) SetStatus(s Status) { f.status.Store(int32(s)) }

// TryClaimForLoading atomically transitions Header->Loading and reports
// whether the caller now owns the load. Any other current status returns
// false and the caller must not load.
func (f *Frame) TryClaimForLoading() bool {
	return f.status.CompareAndSwap(int32(StatusHeader), int32(StatusLoading))
}

// Resolution returns the frame's pixel dimensions.
func (f *Frame) Resolution() (w, h int) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.width, f.height
}

// PixelFormat returns the frame's pixel format.
func (f *Frame) PixelFormat() PixelFormat {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.format
}

// Buffer returns the frame's pixel buffer. Callers must not mutate it once
// the frame is Loaded — buffers are shared, not copied, across consumers.
func (f *Frame) Buffer() []byte {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.buffer
}

// SourcePath returns the path the frame was (or will be) loaded from.
func (f *Frame) SourcePath() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.sourcePath
}

// Clone returns a shallow copy sharing the same pixel buffer. Safe because
// Loaded buffers are never mutated in place.
func (f *Frame) Clone() *Frame {
	f.mu.RLock()
	defer f.mu.RUnlock()
	clone := &Frame{width: f.width, height: f.height, format: f.format, buffer: f.buffer, sourcePath: f.sourcePath}
	clone.status.Store(f.status.Load())
	return clone
}

// ByteSize returns the buffer length in bytes, used by the cache's memory
// accounting.
func (f *Frame) ByteSize() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.buffer)
}

// setLoaded installs a decoded buffer and promotes status to Loaded. Called
// only by the claiming goroutine after a successful decode.
func (f *Frame) setLoaded(w, h int, format PixelFormat, buf []byte) {
	f.mu.Lock()
	f.width, f.height = w, h
	f.format = format
	f.buffer = buf
	f.mu.Unlock()
	f.status.Store(int32(StatusLoaded))
}

// Load decodes the frame's sourcePath by extension. It must be called only
// on a frame this goroutine has claimed via TryClaimForLoading. On success
// the status becomes Loaded; on failure Error.
//
// Supported extensions: exr (native Half/Float precision kept, UINT
// channels widened to F16), hdr (Radiance, F32, alpha forced to 1.0),
// png/jpg/jpeg/tif/tiff/tga (U8).
func (f *Frame) Load() error {
	path := f.SourcePath()
	if path == "" {
		f.status.Store(int32(StatusError))
		return ErrNoFilename
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(stripVideoFrameSuffix(path)), "."))
	w, h, format, buf, err := decodeByExtension(ext, path)
	if err != nil {
		f.status.Store(int32(StatusError))
		return newErr(KindDecodeError, "Frame.Load", err)
	}
	f.setLoaded(w, h, format, buf)
	return nil
}

// stripVideoFrameSuffix removes a trailing "@N" video-frame-index suffix
// (spec §6 path format) before extension sniffing.
func stripVideoFrameSuffix(path string) string {
	if i := strings.LastIndexByte(path, '@'); i >= 0 {
		if _, ok := parseUint(path[i+1:]); ok {
			return path[:i]
		}
	}
	return path
}

func parseUint(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}

// Crop returns a new buffer of size w x h cropped or padded (with
// transparent black) from the frame's current buffer, aligned at the
// top-left corner. align is reserved for future alignment modes and is
// currently ignored beyond top-left.
func (f *Frame) Crop(w, h int, align string) []byte {
	f.mu.RLock()
	defer f.mu.RUnlock()
	bpc := f.format.BytesPerChannel()
	stride := w * 4 * bpc
	out := make([]byte, stride*h)
	srcStride := f.width * 4 * bpc
	copyW := min(w, f.width)
	copyH := min(h, f.height)
	rowBytes := copyW * 4 * bpc
	for y := 0; y < copyH; y++ {
		srcOff := y * srcStride
		dstOff := y * stride
		copy(out[dstOff:dstOff+rowBytes], f.buffer[srcOff:srcOff+rowBytes])
	}
	return out
}
