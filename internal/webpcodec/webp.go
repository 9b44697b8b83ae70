package webpcodec

import (
	"github.com/deepteams/imageio/internal/container"
	"github.com/deepteams/imageio/internal/metadata"
	"github.com/deepteams/imageio/internal/raster"
)

// Decode parses a WebP RIFF container and decodes its image payload,
// dispatching on the bitstream format internal/container detected (VP8 or
// VP8L). Animated and extended-format (VP8X) files decode only their first
// frame. Any EXIF/XMP auxiliary chunks the container carries are parsed
// into metadata rather than silently discarded — nil if the file has
// neither.
func Decode(data []byte) (*raster.Image, *metadata.Metadata, error) {
	p, err := container.NewParser(data)
	if err != nil {
		return nil, nil, err
	}
	frames := p.Frames()
	if len(frames) == 0 {
		return nil, nil, container.ErrInvalidChunk
	}
	frame := frames[0]

	var im *raster.Image
	if frame.IsLossless {
		im, err = DecodeVP8L(frame.Payload)
	} else {
		im, err = DecodeVP8(frame.Payload, frame.Width, frame.Height, frame.AlphaData)
	}
	if err != nil {
		return nil, nil, err
	}
	return im, auxiliaryMetadata(p.Chunks()), nil
}

// auxiliaryMetadata converts a WebP file's EXIF/XMP chunks (already pulled
// out raw by internal/container) into the tag store the root package's
// property dictionary reads. An XMP packet is parsed into the same
// namespace-qualified tags PNG's tEXt chunks end up as; EXIF has no
// TIFF-tag parser of its own here, so it's kept as one opaque "webp:exif"
// block, round-trippable but not individually queryable.
func auxiliaryMetadata(chunks []container.Chunk) *metadata.Metadata {
	var meta *metadata.Metadata
	for _, c := range chunks {
		switch c.FourCC {
		case container.FourCCXMP:
			if meta == nil {
				meta = metadata.New()
			}
			for _, tag := range metadata.FromXMP(c.Payload).Enumerate(false) {
				meta.Set(tag.Path, tag.Value)
			}
		case container.FourCCEXIF:
			if meta == nil {
				meta = metadata.New()
			}
			meta.SetBytes("webp:exif", c.Payload)
		}
	}
	return meta
}

// EncodeOptions configures WebP encoding.
type EncodeOptions struct {
	Lossless bool
	Quality  int                // 0..100, lossy only
	Metadata *metadata.Metadata // optional EXIF/XMP to embed
}

// Encode writes im as a WebP file holding one VP8L or VP8 chunk. When
// opts.Metadata carries a "webp:exif" block and/or any other tags (written
// out as a single XMP packet), the container upgrades to extended (VP8X)
// format with the matching feature flags and EXIF/XMP chunks — mirroring
// libwebp's muxer, which only reaches for VP8X when a file actually needs
// one of its extra chunks.
func Encode(im *raster.Image, opts EncodeOptions) []byte {
	var fourcc uint32
	var payload []byte
	var alpha []byte
	if opts.Lossless {
		fourcc = container.FourCCVP8L
		payload = EncodeVP8L(im)
	} else {
		fourcc = container.FourCCVP8
		payload = EncodeVP8(im, opts.Quality)
		if im.HasAlpha() {
			alpha = encodeALPH(im)
		}
	}

	exif, xmp := splitAuxiliary(opts.Metadata)
	if alpha == nil && exif == nil && xmp == nil {
		return riffFile(appendChunk(nil, fourcc, payload))
	}

	var flags uint32
	if im.HasAlpha() {
		flags |= container.AlphaFlag
	}
	if exif != nil {
		flags |= container.EXIFFlag
	}
	if xmp != nil {
		flags |= container.XMPFlag
	}

	vp8x := make([]byte, container.VP8XChunkSize)
	vp8x[0] = byte(flags)
	putLE24(vp8x[4:7], im.Width-1)
	putLE24(vp8x[7:10], im.Height-1)

	body := appendChunk(nil, container.FourCCVP8X, vp8x)
	if alpha != nil {
		body = appendChunk(body, container.FourCCALPH, alpha)
	}
	body = appendChunk(body, fourcc, payload)
	if exif != nil {
		body = appendChunk(body, container.FourCCEXIF, exif)
	}
	if xmp != nil {
		body = appendChunk(body, container.FourCCXMP, xmp)
	}
	return riffFile(body)
}

// encodeALPH writes an uncompressed, unfiltered ALPH chunk payload (one
// alpha byte per pixel, row-major) for a lossy-encoded image with alpha.
// This is the mirror of decodeALPH's supported subset, and the only form
// the lossy VP8 path, which carries no alpha plane of its own, ever emits.
func encodeALPH(im *raster.Image) []byte {
	out := make([]byte, 1+im.Width*im.Height)
	for y := 0; y < im.Height; y++ {
		for x := 0; x < im.Width; x++ {
			_, _, _, a := im.At(x, y)
			out[1+y*im.Width+x] = a
		}
	}
	return out
}

// splitAuxiliary separates a WebP-bound metadata set into its raw EXIF
// block (if any) and the XMP packet serializing everything else. Returns
// (nil, nil) for an empty or absent metadata set, so the caller can fall
// back to the plain (non-VP8X) container.
func splitAuxiliary(m *metadata.Metadata) (exif, xmp []byte) {
	if m == nil {
		return nil, nil
	}
	rest := metadata.New()
	for _, tag := range m.Enumerate(false) {
		if tag.Path == "webp:exif" && tag.Value.Type == metadata.TypeBytes {
			exif = tag.Value.Bytes
			continue
		}
		rest.Set(tag.Path, tag.Value)
	}
	if len(rest.Enumerate(false)) > 0 {
		xmp = rest.ToXMP()
	}
	return exif, xmp
}

func riffFile(chunks []byte) []byte {
	riffSize := uint32(4 + len(chunks))
	out := make([]byte, 0, 8+len(chunks))
	out = append(out, 'R', 'I', 'F', 'F')
	out = appendU32(out, riffSize)
	out = append(out, 'W', 'E', 'B', 'P')
	out = append(out, chunks...)
	return out
}

func appendChunk(out []byte, fourcc uint32, payload []byte) []byte {
	out = appendU32(out, fourcc)
	out = appendU32(out, uint32(len(payload)))
	out = append(out, payload...)
	if len(payload)%2 == 1 {
		out = append(out, 0)
	}
	return out
}

func appendU32(out []byte, v uint32) []byte {
	return append(out, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}

func putLE24(b []byte, v int) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
}
