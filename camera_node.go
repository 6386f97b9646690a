package playa

import (
	"math"

	"github.com/google/uuid"
)

// ProjectionType selects how a CameraNode's projection matrix is built.
type ProjectionType uint8

const (
	ProjectionPerspective ProjectionType = iota
	ProjectionOrthographic
)

// CameraNode stores only lens parameters; position/rotation come from the
// hosting Layer's attrs, consistent with every other spatial object (spec
// §4.3.3). It has no inputs and never appears directly in a composite — a
// Comp looks up the topmost visible Camera Layer to find one.
type CameraNode struct {
	nodeBase
}

// NewCameraNode creates a CameraNode with spec-default lens parameters.
func NewCameraNode(name string) *CameraNode {
	n := &CameraNode{nodeBase: newNodeBase(name, KindCamera)}
	a := n.attr
	a.SetInt("projection_type", int64(ProjectionPerspective))
	a.SetFloat("fov", 50)
	a.SetFloat("near_clip", 0.1)
	a.SetFloat("far_clip", 10000)
	a.SetFloat("ortho_scale", 1)
	a.SetBool("use_poi", false)
	a.SetVec3("point_of_interest", Vec3{})
	a.ClearDirty()
	return n
}

func (n *CameraNode) Inputs() []uuid.UUID { return nil }

// Compute is a no-op for cameras: they never produce a pixel frame
// themselves, only a ViewProjection consumed by the owning Comp.
func (n *CameraNode) Compute(frameIdx int, ctx *ComputeContext) (*Frame, error) { return nil, nil }
func (n *CameraNode) Preload(center, radius int, ctx *ComputeContext)           {}

// BuildViewProjection constructs the camera's view, projection, and combined
// view_projection = P * V, per spec §4.3.3. layer supplies position/rotation
// (the hosting Layer instance); aspect is canvasW/canvasH.
func (n *CameraNode) BuildViewProjection(layer *Layer, aspect float64) ViewProjection {
	projType, _ := n.attr.GetInt("projection_type")
	fov, _ := n.attr.GetFloat("fov")
	near, _ := n.attr.GetFloat("near_clip")
	far, _ := n.attr.GetFloat("far_clip")
	orthoScale, _ := n.attr.GetFloat("ortho_scale")
	usePOI, _ := n.attr.GetBool("use_poi")
	poi, _ := n.attr.GetVec3("point_of_interest")

	view, forward := n.buildView(layer, usePOI, poi)

	ortho := ProjectionType(projType) == ProjectionOrthographic
	var proj Mat4
	if ortho {
		proj = orthoProjection(orthoScale, aspect, near, far)
	} else {
		proj = perspectiveProjection(fov, aspect, near, far)
	}

	vp := mat4Mul(proj, view)
	return ViewProjection{
		VP:            vp,
		InvVP:         mat4Invert(vp),
		Orthographic:  ortho,
		CameraPos:     layer.Position,
		CameraForward: forward,
	}
}

// buildView builds the camera's view matrix in one of two modes (spec
// §4.3.3): look-at (use_poi=true) or Euler ZYX with user-convention
// clockwise-positive angles negated before multiplying (glam/our matrix
// math expects counter-clockwise).
func (n *CameraNode) buildView(layer *Layer, usePOI bool, poi Vec3) (Mat4, Vec3) {
	if usePOI {
		return lookAtView(layer.Position, poi)
	}

	toRad := math.Pi / 180
	r := mat4RotateZYX(-layer.Rotation.X*toRad, -layer.Rotation.Y*toRad, -layer.Rotation.Z*toRad)
	forward := Vec3{X: r[2], Y: r[6], Z: r[10]}
	view := mat4Mul(r, mat4Translate(Vec3{X: -layer.Position.X, Y: -layer.Position.Y, Z: -layer.Position.Z}))
	return view, forward
}

// lookAtView builds a left-handed look-at view matrix from eye toward
// target, with world-up (0,1,0): right = up x forward, and view-space +Z
// points from eye toward target.
func lookAtView(eye, target Vec3) (Mat4, Vec3) {
	fwd := normalizeVec3(subVec3(target, eye))
	up := Vec3{X: 0, Y: 1, Z: 0}
	right := normalizeVec3(crossVec3(up, fwd))
	realUp := crossVec3(fwd, right)

	view := Mat4{
		right.X, right.Y, right.Z, -dotVec3(right, eye),
		realUp.X, realUp.Y, realUp.Z, -dotVec3(realUp, eye),
		fwd.X, fwd.Y, fwd.Z, -dotVec3(fwd, eye),
		0, 0, 0, 1,
	}
	return view, fwd
}

func subVec3(a, b Vec3) Vec3 { return Vec3{X: a.X - b.X, Y: a.Y - b.Y, Z: a.Z - b.Z} }
func crossVec3(a, b Vec3) Vec3 {
	return Vec3{X: a.Y*b.Z - a.Z*b.Y, Y: a.Z*b.X - a.X*b.Z, Z: a.X*b.Y - a.Y*b.X}
}
func dotVec3(a, b Vec3) float64 { return a.X*b.X + a.Y*b.Y + a.Z*b.Z }
func normalizeVec3(v Vec3) Vec3 {
	l := math.Sqrt(dotVec3(v, v))
	if l < 1e-12 {
		return Vec3{}
	}
	return Vec3{X: v.X / l, Y: v.Y / l, Z: v.Z / l}
}

func perspectiveProjection(fovDeg, aspect, near, far float64) Mat4 {
	f := 1 / math.Tan(fovDeg*math.Pi/180/2)
	m := Mat4{}
	m[0] = f / aspect
	m[5] = f
	m[10] = (far + near) / (near - far)
	m[11] = (2 * far * near) / (near - far)
	m[14] = -1
	return m
}

func orthoProjection(scale, aspect, near, far float64) Mat4 {
	halfH := scale
	halfW := scale * aspect
	m := Mat4Identity()
	m[0] = 1 / halfW
	m[5] = 1 / halfH
	m[10] = -2 / (far - near)
	m[11] = -(far + near) / (far - near)
	return m
}
