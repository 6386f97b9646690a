package playa

import (
	"io"

	"github.com/mdouchement/hdr"
	"github.com/mdouchement/hdr/codec/openexr"
)

// exrChannelKind identifies the most precise pixel channel type present in
// an OpenEXR file, per spec §6 (Half -> F16, Float -> F32, UINT -> widened
// to F16).
type exrChannelKind uint8

const (
	exrChannelHalf exrChannelKind = iota
	exrChannelFloat
	exrChannelUint
)

// decodeEXRChannels decodes an OpenEXR stream and reports the channel kind
// so decodeEXR can pick the matching output precision without downcasting.
func decodeEXRChannels(r io.Reader) (hdr.Image, exrChannelKind, error) {
	img, meta, err := openexr.DecodeWithMetadata(r)
	if err != nil {
		return nil, 0, err
	}

	kind := exrChannelHalf
	for _, ch := range meta.Channels {
		switch ch.PixelType {
		case openexr.PixelTypeFloat:
			return img, exrChannelFloat, nil
		case openexr.PixelTypeUint:
			kind = exrChannelUint
		}
	}
	return img, kind, nil
}
