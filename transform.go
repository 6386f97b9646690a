package playa

import (
	"math"
	"sync"
)

// Mat4Identity returns the 4x4 identity matrix (row-major).
func Mat4Identity() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// mat4Mul multiplies two row-major 4x4 matrices: result = a * b.
func mat4Mul(a, b Mat4) Mat4 {
	var r Mat4
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			var sum float64
			for k := 0; k < 4; k++ {
				sum += a[row*4+k] * b[k*4+col]
			}
			r[row*4+col] = sum
		}
	}
	return r
}

// mat4Vec4 multiplies a row-major 4x4 matrix by a column Vec4.
func mat4Vec4(m Mat4, v Vec4) Vec4 {
	return Vec4{
		X: m[0]*v.X + m[1]*v.Y + m[2]*v.Z + m[3]*v.W,
		Y: m[4]*v.X + m[5]*v.Y + m[6]*v.Z + m[7]*v.W,
		Z: m[8]*v.X + m[9]*v.Y + m[10]*v.Z + m[11]*v.W,
		W: m[12]*v.X + m[13]*v.Y + m[14]*v.Z + m[15]*v.W,
	}
}

func mat4Translate(t Vec3) Mat4 {
	m := Mat4Identity()
	m[3], m[7], m[11] = t.X, t.Y, t.Z
	return m
}

func mat4Scale(s Vec3) Mat4 {
	m := Mat4Identity()
	m[0], m[5], m[10] = s.X, s.Y, s.Z
	return m
}

// mat4RotateZYX builds a rotation matrix from Euler angles (radians),
// applied Z then Y then X (R = Rz * Ry * Rx).
func mat4RotateZYX(rx, ry, rz float64) Mat4 {
	sx, cx := math.Sincos(rx)
	sy, cy := math.Sincos(ry)
	sz, cz := math.Sincos(rz)

	rZ := Mat4{
		cz, -sz, 0, 0,
		sz, cz, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
	rY := Mat4{
		cy, 0, sy, 0,
		0, 1, 0, 0,
		-sy, 0, cy, 0,
		0, 0, 0, 1,
	}
	rX := Mat4{
		1, 0, 0, 0,
		0, cx, -sx, 0,
		0, sx, cx, 0,
		0, 0, 0, 1,
	}
	return mat4Mul(mat4Mul(rZ, rY), rX)
}

// mat4Invert computes the inverse of an affine 4x4 matrix (last row
// [0 0 0 1]) via cofactor expansion of the upper 3x3 block plus translation
// back-substitution. Returns identity if singular.
func mat4Invert(m Mat4) Mat4 {
	a, b, c := m[0], m[1], m[2]
	d, e, f := m[4], m[5], m[6]
	g, h, i := m[8], m[9], m[10]
	tx, ty, tz := m[3], m[7], m[11]

	det := a*(e*i-f*h) - b*(d*i-f*g) + c*(d*h-e*g)
	if math.Abs(det) < 1e-12 {
		return Mat4Identity()
	}
	invDet := 1 / det

	r := Mat4{
		(e*i - f*h) * invDet, (c*h - b*i) * invDet, (b*f - c*e) * invDet, 0,
		(f*g - d*i) * invDet, (a*i - c*g) * invDet, (c*d - a*f) * invDet, 0,
		(d*h - e*g) * invDet, (b*g - a*h) * invDet, (a*e - b*d) * invDet, 0,
		0, 0, 0, 1,
	}
	r[3] = -(r[0]*tx + r[1]*ty + r[2]*tz)
	r[7] = -(r[4]*tx + r[5]*ty + r[6]*tz)
	r[11] = -(r[8]*tx + r[9]*ty + r[10]*tz)
	return r
}

// LayerModelMatrix builds the forward model matrix for a layer:
//
//	world = position + R * S * (object - pivot)
func LayerModelMatrix(l *Layer) Mat4 {
	toRad := math.Pi / 180
	r := mat4RotateZYX(l.Rotation.X*toRad, l.Rotation.Y*toRad, l.Rotation.Z*toRad)
	s := mat4Scale(l.Scale)
	rs := mat4Mul(r, s)
	pivotNeg := mat4Translate(Vec3{X: -l.Pivot.X, Y: -l.Pivot.Y, Z: -l.Pivot.Z})
	posT := mat4Translate(l.Position)
	return mat4Mul(posT, mat4Mul(rs, pivotNeg))
}

// IsIdentityTransform reports the shortcut condition from spec §4.4: when
// position==pivot, rotation==0, scale==1, no camera, and src size == canvas
// size, the transform stage can be skipped entirely.
func IsIdentityTransform(l *Layer, hasCamera bool, srcW, srcH, canvasW, canvasH int) bool {
	if hasCamera {
		return false
	}
	if srcW != canvasW || srcH != canvasH {
		return false
	}
	return l.Position == l.Pivot &&
		l.Rotation == (Vec3{}) &&
		l.Scale == (Vec3{X: 1, Y: 1, Z: 1})
}

// ViewProjection bundles a camera's combined view*projection matrix plus
// enough information to tell whether it's orthographic (spec §4.4's inverse
// sampling branches on this).
type ViewProjection struct {
	VP            Mat4
	InvVP         Mat4
	Orthographic  bool
	CameraPos     Vec3
	CameraForward Vec3 // R * Z, the camera plane normal
}

// ApplyTransform samples src through the layer's model matrix (and,
// if present, a camera view-projection) into a new canvasW x canvasH frame,
// preserving src's own pixel format throughout (spec §6: float channels must
// not be downcast during composition). Rows are processed in parallel
// (spec §4.4 parallelism note).
func ApplyTransform(src *Frame, canvasW, canvasH int, l *Layer, vp *ViewProjection) *Frame {
	srcW, srcH := src.Resolution()
	srcFmt := src.PixelFormat()
	srcBuf := src.Buffer()

	model := LayerModelMatrix(l)
	invModel := mat4Invert(model)

	out := make([]float64, canvasW*canvasH*4)

	var wg sync.WaitGroup
	for y := 0; y < canvasH; y++ {
		wg.Add(1)
		go func(y int) {
			defer wg.Done()
			rowTransformPixels(out, y, canvasW, canvasH, srcBuf, srcW, srcH, srcFmt, invModel, vp, l)
		}(y)
	}
	wg.Wait()

	f := f64ToFrame(out, srcFmt, canvasW, canvasH)
	f.SetStatus(StatusLoaded)
	return f
}

func rowTransformPixels(out []float64, y, canvasW, canvasH int, srcBuf []byte, srcW, srcH int, srcFmt PixelFormat, invModel Mat4, vp *ViewProjection, l *Layer) {
	for x := 0; x < canvasW; x++ {
		// image pixel -> centered, Y-up frame-space point
		fx := float64(x) - float64(canvasW)/2 + 0.5
		fy := float64(canvasH)/2 - float64(y) - 0.5

		var objX, objY float64
		ok := true

		if vp != nil {
			if vp.Orthographic {
				ndc := Vec4{X: fx / (float64(canvasW) / 2), Y: fy / (float64(canvasH) / 2), Z: 0, W: 1}
				world := mat4Vec4(vp.InvVP, ndc)
				obj := mat4Vec4(invModel, world)
				objX, objY = obj.X, obj.Y
			} else {
				objX, objY, ok = perspectiveUnproject(fx, fy, canvasW, canvasH, vp, invModel, l)
			}
		} else {
			obj := mat4Vec4(invModel, Vec4{X: fx, Y: fy, Z: 0, W: 1})
			objX, objY = obj.X, obj.Y
		}

		off := (y*canvasW + x) * 4
		if !ok {
			continue // transparent: output buffer already zeroed
		}

		// object space -> Y-down source image space, sample bilinear.
		srcX := objX + float64(srcW)/2
		srcY := float64(srcH)/2 - objY
		r, g, b, a := bilinearSampleF64(srcBuf, srcW, srcH, srcFmt, srcX, srcY)
		out[off+0] = r
		out[off+1] = g
		out[off+2] = b
		out[off+3] = a
	}
}

// perspectiveUnproject intersects the ray through NDC point (fx,fy) with the
// layer's plane (point=position, normal=R*Z), per spec §4.4.
func perspectiveUnproject(fx, fy float64, canvasW, canvasH int, vp *ViewProjection, invModel Mat4, l *Layer) (float64, float64, bool) {
	nearNDC := Vec4{X: fx / (float64(canvasW) / 2), Y: fy / (float64(canvasH) / 2), Z: -1, W: 1}
	farNDC := Vec4{X: fx / (float64(canvasW) / 2), Y: fy / (float64(canvasH) / 2), Z: 1, W: 1}

	nearW := mat4Vec4(vp.InvVP, nearNDC)
	farW := mat4Vec4(vp.InvVP, farNDC)
	if nearW.W != 0 {
		nearW.X, nearW.Y, nearW.Z = nearW.X/nearW.W, nearW.Y/nearW.W, nearW.Z/nearW.W
	}
	if farW.W != 0 {
		farW.X, farW.Y, farW.Z = farW.X/farW.W, farW.Y/farW.W, farW.Z/farW.W
	}

	dir := Vec3{X: farW.X - nearW.X, Y: farW.Y - nearW.Y, Z: farW.Z - nearW.Z}
	toRad := math.Pi / 180
	rot := mat4RotateZYX(l.Rotation.X*toRad, l.Rotation.Y*toRad, l.Rotation.Z*toRad)
	normal := Vec3{X: rot[2], Y: rot[6], Z: rot[10]}
	denom := dir.X*normal.X + dir.Y*normal.Y + dir.Z*normal.Z
	if math.Abs(denom) < 1e-12 {
		return 0, 0, false // ray parallel to plane: transparent
	}

	toPlane := Vec3{X: l.Position.X - nearW.X, Y: l.Position.Y - nearW.Y, Z: l.Position.Z - nearW.Z}
	t := (toPlane.X*normal.X + toPlane.Y*normal.Y + toPlane.Z*normal.Z) / denom

	world := Vec4{X: nearW.X + dir.X*t, Y: nearW.Y + dir.Y*t, Z: nearW.Z + dir.Z*t, W: 1}
	obj := mat4Vec4(invModel, world)
	return obj.X, obj.Y, true
}

// bilinearSampleF64 samples src (any PixelFormat) at (x,y) with bilinear
// interpolation and edge clamp returning transparent outside bounds, as
// normalized [0,1] float64 channels — the source's own precision is never
// quantized down to 8 bits here (spec §6 bit-exactness; f64ToFrame is what
// re-encodes into the target format, once, at the end of ApplyTransform).
func bilinearSampleF64(buf []byte, w, h int, format PixelFormat, x, y float64) (r, g, b, a float64) {
	if x < -0.5 || y < -0.5 || x > float64(w)-0.5 || y > float64(h)-0.5 {
		return 0, 0, 0, 0
	}
	x0 := int(math.Floor(x - 0.5))
	y0 := int(math.Floor(y - 0.5))
	fx := (x - 0.5) - float64(x0)
	fy := (y - 0.5) - float64(y0)

	sample := func(px, py int) (float64, float64, float64, float64) {
		if px < 0 || py < 0 || px >= w || py >= h {
			return 0, 0, 0, 0
		}
		return readChannelsF64(buf, w, format, px, py)
	}

	r00, g00, b00, a00 := sample(x0, y0)
	r10, g10, b10, a10 := sample(x0+1, y0)
	r01, g01, b01, a01 := sample(x0, y0+1)
	r11, g11, b11, a11 := sample(x0+1, y0+1)

	lerp := func(v00, v10, v01, v11 float64) float64 {
		top := v00 + (v10-v00)*fx
		bot := v01 + (v11-v01)*fx
		return top + (bot-top)*fy
	}

	return lerp(r00, r10, r01, r11), lerp(g00, g10, g01, g11), lerp(b00, b10, b01, b11), lerp(a00, a10, a01, a11)
}

// readChannelsF64 reads a pixel at (x,y) from buf in the given format,
// returning normalized [0,1] float64 channel values.
func readChannelsF64(buf []byte, w int, format PixelFormat, x, y int) (r, g, b, a float64) {
	bpc := format.BytesPerChannel()
	off := (y*w + x) * 4 * bpc
	if off+4*bpc > len(buf) {
		return 0, 0, 0, 0
	}
	switch format {
	case FormatRgba8:
		return float64(buf[off]) / 255, float64(buf[off+1]) / 255, float64(buf[off+2]) / 255, float64(buf[off+3]) / 255
	case FormatRgbaF16:
		readHalf := func(o int) float64 {
			bits := uint16(buf[o]) | uint16(buf[o+1])<<8
			return float64(float16ToFloat32(bits))
		}
		return readHalf(off), readHalf(off + 2), readHalf(off + 4), readHalf(off + 6)
	case FormatRgbaF32:
		readF32 := func(o int) float64 {
			bits := uint32(buf[o]) | uint32(buf[o+1])<<8 | uint32(buf[o+2])<<16 | uint32(buf[o+3])<<24
			return float64(math.Float32frombits(bits))
		}
		return readF32(off), readF32(off + 4), readF32(off + 8), readF32(off + 12)
	}
	return 0, 0, 0, 0
}
