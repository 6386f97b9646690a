package playa

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"math"
	"os"

	"github.com/ftrvxmtrx/tga"
	"github.com/mdouchement/hdr/codec/rgbe"
	"golang.org/x/image/tiff"
)

// decodeByExtension dispatches to a format-specific decoder and returns the
// decoded dimensions, pixel format, and raw buffer (tightly packed,
// row-major, RGBA channel order).
func decodeByExtension(ext, path string) (w, h int, format PixelFormat, buf []byte, err error) {
	switch ext {
	case "exr":
		return decodeEXR(path)
	case "hdr":
		return decodeHDR(path)
	case "png", "jpg", "jpeg", "tif", "tiff", "tga":
		return decodeU8(ext, path)
	default:
		return 0, 0, 0, nil, newErr(KindUnsupportedFormat, "decodeByExtension", fmt.Errorf("extension %q", ext))
	}
}

// decodeU8 handles the standard-library-backed 8-bit formats plus TGA,
// normalizing every source into a straight-alpha RGBA8 buffer.
func decodeU8(ext, path string) (int, int, PixelFormat, []byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, 0, 0, nil, err
	}
	defer file.Close()

	var img image.Image
	switch ext {
	case "png":
		img, err = png.Decode(file)
	case "jpg", "jpeg":
		img, err = jpeg.Decode(file)
	case "tif", "tiff":
		img, err = tiff.Decode(file)
	case "tga":
		img, err = tga.Decode(file)
	}
	if err != nil {
		return 0, 0, 0, nil, err
	}

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	buf := make([]byte, w*h*4)
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, a := img.At(x, y).RGBA()
			if a == 0 {
				i += 4
				continue
			}
			buf[i+0] = byte(r * 255 / a)
			buf[i+1] = byte(g * 255 / a)
			buf[i+2] = byte(bl * 255 / a)
			buf[i+3] = byte(a >> 8)
			i += 4
		}
	}
	return w, h, FormatRgba8, buf, nil
}

// decodeHDR handles Radiance (.hdr) images: F32 RGBA, alpha forced to 1.0
// per spec §6.
func decodeHDR(path string) (int, int, PixelFormat, []byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, 0, 0, nil, err
	}
	defer file.Close()

	img, err := rgbe.Decode(file)
	if err != nil {
		return 0, 0, 0, nil, err
	}

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	buf := make([]byte, w*h*4*4)
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.HDRAt(x, y).HDRRGBA()
			putF32(buf, i+0, float32(r))
			putF32(buf, i+4, float32(g))
			putF32(buf, i+8, float32(bl))
			putF32(buf, i+12, 1.0)
			i += 16
		}
	}
	return w, h, FormatRgbaF32, buf, nil
}

// decodeEXR handles OpenEXR images. Half channels decode as F16 RGBA, Float
// channels as F32 RGBA (no downcasting), UINT channels widen to F16 — per
// spec §6. The mdouchement/hdr exr codec exposes per-channel pixel types;
// we pick the output precision from the most precise channel present.
func decodeEXR(path string) (int, int, PixelFormat, []byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, 0, 0, nil, err
	}
	defer file.Close()

	hdrImg, channelKind, err := decodeEXRChannels(file)
	if err != nil {
		return 0, 0, 0, nil, err
	}

	b := hdrImg.Bounds()
	w, h := b.Dx(), b.Dy()

	switch channelKind {
	case exrChannelFloat:
		buf := make([]byte, w*h*4*4)
		i := 0
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				r, g, bl, a := hdrImg.HDRAt(x, y).HDRRGBA()
				putF32(buf, i+0, float32(r))
				putF32(buf, i+4, float32(g))
				putF32(buf, i+8, float32(bl))
				putF32(buf, i+12, float32(a))
				i += 16
			}
		}
		return w, h, FormatRgbaF32, buf, nil
	default: // exrChannelHalf, exrChannelUint (widened to half)
		buf := make([]byte, w*h*4*2)
		i := 0
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				r, g, bl, a := hdrImg.HDRAt(x, y).HDRRGBA()
				putF16(buf, i+0, float32(r))
				putF16(buf, i+2, float32(g))
				putF16(buf, i+4, float32(bl))
				putF16(buf, i+6, float32(a))
				i += 8
			}
		}
		return w, h, FormatRgbaF16, buf, nil
	}
}

// putF32 writes v as little-endian IEEE 754 binary32 at buf[off:off+4].
func putF32(buf []byte, off int, v float32) {
	bits := math.Float32bits(v)
	buf[off+0] = byte(bits)
	buf[off+1] = byte(bits >> 8)
	buf[off+2] = byte(bits >> 16)
	buf[off+3] = byte(bits >> 24)
}

// putF16 writes v as little-endian IEEE 754 binary16 at buf[off:off+2].
func putF16(buf []byte, off int, v float32) {
	bits := float32ToFloat16Bits(v)
	buf[off+0] = byte(bits)
	buf[off+1] = byte(bits >> 8)
}

// float32ToFloat16Bits converts a float32 to its nearest binary16
// representation, rounding toward nearest-even and clamping to +/-Inf on
// overflow. Go has no native float16 type, so EXR Half data is stored as
// raw bit patterns that the CPU compositor reads back with float16ToFloat32.
func float32ToFloat16Bits(v float32) uint16 {
	bits := math.Float32bits(v)
	sign := uint16((bits >> 16) & 0x8000)
	exp := int32((bits>>23)&0xFF) - 127 + 15
	mant := bits & 0x7FFFFF

	switch {
	case exp <= 0:
		return sign // flush to zero (subnormal half, rare for image data)
	case exp >= 0x1F:
		return sign | 0x7C00 // inf
	default:
		half := uint32(sign) | uint32(exp)<<10 | mant>>13
		// A mantissa carry bumps the exponent, reaching Inf when it overflows.
		if rem := mant & 0x1FFF; rem > 0x1000 || (rem == 0x1000 && half&1 == 1) {
			half++
		}
		return uint16(half)
	}
}

// float16ToFloat32 widens a raw binary16 bit pattern to float32.
func float16ToFloat32(h uint16) float32 {
	sign := uint32(h&0x8000) << 16
	exp := uint32(h>>10) & 0x1F
	mant := uint32(h & 0x3FF)

	switch {
	case exp == 0:
		if mant == 0 {
			return math.Float32frombits(sign)
		}
		// subnormal
		for mant&0x400 == 0 {
			mant <<= 1
			exp--
		}
		exp++
		mant &= 0x3FF
	case exp == 0x1F:
		return math.Float32frombits(sign | 0x7F800000 | (mant << 13))
	}
	exp = exp - 15 + 127
	return math.Float32frombits(sign | (exp << 23) | (mant << 13))
}
