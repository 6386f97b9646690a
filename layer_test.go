package playa

import (
	"testing"

	"github.com/google/uuid"
)

func TestLayerEnd(t *testing.T) {
	l := NewLayer(uuid.New())
	l.In = 10
	l.SrcLen = 100
	l.Speed = 1
	if got, want := l.End(), 109; got != want {
		t.Errorf("End() = %d, want %d", got, want)
	}

	l.Speed = 2
	if got, want := l.End(), 59; got != want {
		t.Errorf("End() at 2x speed = %d, want %d", got, want)
	}
}

func TestLayerWorkAreaTrims(t *testing.T) {
	l := NewLayer(uuid.New())
	l.In, l.SrcLen, l.Speed = 0, 100, 1
	l.TrimIn, l.TrimOut = 5, 10

	start, end := l.WorkArea()
	if start != 5 {
		t.Errorf("start = %d, want 5", start)
	}
	if end != 89 {
		t.Errorf("end = %d, want 89", end)
	}
}

func TestLayerCoversFrame(t *testing.T) {
	l := NewLayer(uuid.New())
	l.In, l.SrcLen, l.Speed = 10, 20, 1

	if l.CoversFrame(9) {
		t.Error("frame before work area should not be covered")
	}
	if !l.CoversFrame(10) {
		t.Error("frame at work area start should be covered")
	}
	if !l.CoversFrame(29) {
		t.Error("frame at work area end should be covered")
	}
	if l.CoversFrame(30) {
		t.Error("frame after work area should not be covered")
	}
}

func TestLayerSourceFrameMapping(t *testing.T) {
	l := NewLayer(uuid.New())
	l.In = 10
	l.Speed = 2

	if got, want := l.SourceFrame(10, 0), 0; got != want {
		t.Errorf("SourceFrame(10) = %d, want %d", got, want)
	}
	if got, want := l.SourceFrame(15, 100), 110; got != want {
		t.Errorf("SourceFrame(15) = %d, want %d", got, want)
	}
}
