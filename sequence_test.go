package playa

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolvePathStarPattern(t *testing.T) {
	got := ResolvePath("plate_*.exr", 7, 4)
	if want := "plate_0007.exr"; got != want {
		t.Errorf("ResolvePath = %q, want %q", got, want)
	}
}

func TestResolvePathHashPattern(t *testing.T) {
	got := ResolvePath("render_####.png", 42, 0)
	if want := "render_0042.png"; got != want {
		t.Errorf("ResolvePath = %q, want %q", got, want)
	}
}

func TestResolvePathPrintfPattern(t *testing.T) {
	got := ResolvePath("shot_%03d.tga", 5, 0)
	if want := "shot_005.tga"; got != want {
		t.Errorf("ResolvePath = %q, want %q", got, want)
	}
}

func TestResolvePathVideoExtensionAppendsFrameSuffix(t *testing.T) {
	got := ResolvePath("clip.mp4", 12, 0)
	if want := "clip.mp4@12"; got != want {
		t.Errorf("ResolvePath = %q, want %q", got, want)
	}
}

func TestResolvePathLiteralMaskPassesThrough(t *testing.T) {
	got := ResolvePath("still.png", 0, 0)
	if want := "still.png"; got != want {
		t.Errorf("ResolvePath = %q, want %q", got, want)
	}
}

func TestDetectSequenceInfersRangeAndPadding(t *testing.T) {
	dir := t.TempDir()
	for _, n := range []string{"0001", "0002", "0010"} {
		f, err := os.Create(filepath.Join(dir, "plate_"+n+".exr"))
		if err != nil {
			t.Fatal(err)
		}
		f.Close()
	}
	// An unrelated file must not be picked up.
	f, _ := os.Create(filepath.Join(dir, "readme.txt"))
	f.Close()

	got, err := DetectSequence(dir, "plate_*.exr")
	if err != nil {
		t.Fatal(err)
	}
	if got.Start != 1 || got.End != 10 {
		t.Errorf("range = [%d,%d], want [1,10]", got.Start, got.End)
	}
	if got.Padding != 4 {
		t.Errorf("padding = %d, want 4", got.Padding)
	}
}

func TestDetectSequenceNoMatchesErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := DetectSequence(dir, "plate_*.exr"); err == nil {
		t.Fatal("expected an error scanning an empty directory")
	}
}
