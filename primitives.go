package playa

// Vec2 is a plain 2D vector, used for screen-space and texture-space
// coordinates where a full Vec3 would be noise.
type Vec2 struct {
	X, Y float64
}

// Rect is an axis-aligned rectangle with the origin at the top-left and Y
// increasing downward, matching image pixel coordinates.
type Rect struct {
	X, Y, Width, Height float64
}

// Contains reports whether the point (x, y) lies inside the rectangle.
// Points on the edge are considered inside.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width &&
		y >= r.Y && y <= r.Y+r.Height
}

// Intersects reports whether r and other overlap. Adjacent rectangles
// (sharing only an edge) are considered intersecting.
func (r Rect) Intersects(other Rect) bool {
	return r.X <= other.X+other.Width &&
		r.X+r.Width >= other.X &&
		r.Y <= other.Y+other.Height &&
		r.Y+r.Height >= other.Y
}

// nextPowerOfTwo returns the smallest power of two >= n (minimum 1). Used by
// the GPU compositor's render-texture pool to bucket offscreen images.
func nextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
