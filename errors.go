package playa

import (
	"errors"
	"fmt"
)

// ErrorKind classifies the domain errors raised by the compositing engine.
// See spec §7 for the propagation policy attached to each kind.
type ErrorKind uint8

const (
	// KindNoInput means a node lacks a required file path or source.
	KindNoInput ErrorKind = iota
	// KindDecodeError means a format-specific decoder failed.
	KindDecodeError
	// KindUnsupportedFormat means the file extension has no decoder.
	KindUnsupportedFormat
	// KindCacheMiss is informational, not an error in the public API —
	// it exists so internal plumbing can propagate "not found" the same
	// way as a real error without allocating a sentinel per call site.
	KindCacheMiss
	// KindCycleDetected means a Comp transitively references itself.
	KindCycleDetected
	// KindMissingNode means a Layer or reference names a UUID no longer in
	// the Registry.
	KindMissingNode
	// KindInconsistentDimensions is an encode-time precondition failure.
	KindInconsistentDimensions
	// KindEpochMismatch means a preload task was dropped because the
	// cache epoch advanced after it was enqueued; callers treat this as
	// a silent skip, never surface it to the user.
	KindEpochMismatch
	// KindLockPoisoned is carried over from the original Rust
	// implementation's recoverable-poisoned-mutex handling. Go's
	// sync.Mutex does not poison on panic, so this kind is never
	// actually produced by playa; it is kept only so error-kind
	// switches written against the original behavior still compile.
	KindLockPoisoned
)

func (k ErrorKind) String() string {
	switch k {
	case KindNoInput:
		return "no_input"
	case KindDecodeError:
		return "decode_error"
	case KindUnsupportedFormat:
		return "unsupported_format"
	case KindCacheMiss:
		return "cache_miss"
	case KindCycleDetected:
		return "cycle_detected"
	case KindMissingNode:
		return "missing_node"
	case KindInconsistentDimensions:
		return "inconsistent_dimensions"
	case KindEpochMismatch:
		return "epoch_mismatch"
	case KindLockPoisoned:
		return "lock_poisoned"
	default:
		return "unknown"
	}
}

// Error is the domain error type returned by playa's public API. It wraps
// an underlying cause (when one exists) and tags it with an ErrorKind so
// callers can branch with errors.As without string matching.
type Error struct {
	Kind ErrorKind
	Op   string // short operation name, e.g. "FileNode.compute"
	Err  error  // wrapped cause, may be nil
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("playa: %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("playa: %s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// newErr builds an *Error, optionally wrapping cause.
func newErr(kind ErrorKind, op string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Err: cause}
}

// ErrNoFilename is returned by Frame.Load when the frame has no source path.
var ErrNoFilename = newErr(KindNoInput, "Frame.Load", errors.New("no filename"))

// IsKind reports whether err is (or wraps) a playa *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind == kind
	}
	return false
}
