package playa

import (
	"math"
	"testing"

	"github.com/google/uuid"
)

const transformEpsilon = 1e-9

func assertNear(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > transformEpsilon {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

func assertMat4(t *testing.T, name string, got, want Mat4) {
	t.Helper()
	for i := range got {
		if math.Abs(got[i]-want[i]) > transformEpsilon {
			t.Errorf("%s[%d] = %v, want %v (full: %v vs %v)", name, i, got[i], want[i], got, want)
		}
	}
}

func TestMat4IdentityIsMultiplicativeIdentity(t *testing.T) {
	m := Mat4{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}
	got := mat4Mul(Mat4Identity(), m)
	assertMat4(t, "id*m", got, m)
}

func TestMat4TranslateThenInvertRoundTrips(t *testing.T) {
	m := mat4Translate(Vec3{X: 3, Y: -4, Z: 10})
	inv := mat4Invert(m)
	v := mat4Vec4(m, Vec4{X: 1, Y: 1, Z: 1, W: 1})
	back := mat4Vec4(inv, v)
	assertNear(t, "x", back.X, 1)
	assertNear(t, "y", back.Y, 1)
	assertNear(t, "z", back.Z, 1)
}

func TestLayerModelMatrixTranslationOnly(t *testing.T) {
	l := NewLayer(uuid.New())
	l.Position = Vec3{X: 5, Y: 6, Z: 0}
	m := LayerModelMatrix(l)
	v := mat4Vec4(m, Vec4{X: 0, Y: 0, Z: 0, W: 1})
	assertNear(t, "x", v.X, 5)
	assertNear(t, "y", v.Y, 6)
}

func TestLayerModelMatrixScaleAboutPivot(t *testing.T) {
	l := NewLayer(uuid.New())
	l.Scale = Vec3{X: 2, Y: 2, Z: 1}
	l.Pivot = Vec3{X: 10, Y: 0, Z: 0}
	m := LayerModelMatrix(l)
	// object point at the pivot maps to the layer position (0,0,0) under scale.
	v := mat4Vec4(m, Vec4{X: 10, Y: 0, Z: 0, W: 1})
	assertNear(t, "x", v.X, 0)
	assertNear(t, "y", v.Y, 0)
}

func TestIsIdentityTransformShortcut(t *testing.T) {
	l := NewLayer(uuid.New())
	if !IsIdentityTransform(l, false, 100, 100, 100, 100) {
		t.Error("default layer at matching canvas size should be an identity transform")
	}
	l.Position = Vec3{X: 1}
	if IsIdentityTransform(l, false, 100, 100, 100, 100) {
		t.Error("offset position should not be an identity transform")
	}
}

func TestReadChannelsF64Rgba8Normalizes(t *testing.T) {
	buf := []byte{255, 128, 0, 64}
	r, g, b, a := readChannelsF64(buf, 1, FormatRgba8, 0, 0)
	assertNear(t, "r", r, 1.0)
	assertNear(t, "g", g, 128.0/255)
	assertNear(t, "b", b, 0)
	assertNear(t, "a", a, 64.0/255)
}
