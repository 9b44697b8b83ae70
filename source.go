package imageio

import (
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/deepteams/imageio/internal/bmpcodec"
	"github.com/deepteams/imageio/internal/gifcodec"
	"github.com/deepteams/imageio/internal/jpegcodec"
	"github.com/deepteams/imageio/internal/metadata"
	"github.com/deepteams/imageio/internal/pngcodec"
	"github.com/deepteams/imageio/internal/raster"
	"github.com/deepteams/imageio/internal/tiffcodec"
	"github.com/deepteams/imageio/internal/webpcodec"
)

// sourceFrame is one entry of a parsed Source: a decoded image (nil if the
// pixel decode failed even though properties were recoverable), its
// properties, and the animation placement the GIF decoder produced.
type sourceFrame struct {
	image      *raster.Image
	props      Properties
	left, top  int
	delayCenti int
	disposal   int
}

// Source is a stateful handle over an in-memory (or incrementally
// appended) encoded image buffer, per spec.md §4.1. It is not safe for
// concurrent mutation from more than one goroutine.
type Source struct {
	buf    []byte
	final  bool
	status Status
	format Format
	hasFormat bool
	opts   SourceOptions
	frames []sourceFrame
}

// NewSourceWithData constructs a Source over an immutable, already-complete
// byte buffer.
func NewSourceWithData(data []byte, opts SourceOptions) *Source {
	s := &Source{opts: opts}
	s.UpdateData(data, true)
	return s
}

// NewSourceWithFile reads path in full and constructs a Source over it.
func NewSourceWithFile(path string, opts SourceOptions) (*Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "imageio: reading %s", path)
	}
	return NewSourceWithData(data, opts), nil
}

// NewSourceIncremental constructs an empty Source to be fed via UpdateData.
func NewSourceIncremental(opts SourceOptions) *Source {
	return &Source{status: StatusIncomplete, opts: opts}
}

// UpdateData appends data to the internal buffer and re-runs detection and
// header parsing. Once final is true on any call, the Source stays final
// (later non-final calls do not un-finalize it).
func (s *Source) UpdateData(data []byte, final bool) {
	s.buf = append(s.buf, data...)
	s.final = s.final || final
	s.parse()
}

// Status returns the current parse state.
func (s *Source) Status() Status { return s.status }

// Type returns the detected format tag, or ("", false) if none has been
// recognized yet.
func (s *Source) Type() (Format, bool) {
	if !s.hasFormat {
		return "", false
	}
	return s.format, true
}

// Count returns the number of frames, 0 if status is not complete.
func (s *Source) Count() int {
	if s.status != StatusComplete {
		return 0
	}
	return len(s.frames)
}

// PrimaryImageIndex returns 0; none of the supported formats designate a
// different primary image.
func (s *Source) PrimaryImageIndex() int { return 0 }

// Properties returns the property dictionary for frame, or (nil, false) if
// frame is out of range.
func (s *Source) Properties(frame int) (Properties, bool) {
	if frame < 0 || frame >= len(s.frames) {
		return nil, false
	}
	return s.frames[frame].props, true
}

// CreateImage decodes (or returns the cached decode of) frame index,
// applying SubsampleFactor if requested. A negative or out-of-range index,
// or a frame whose pixel decode failed, returns (nil, false).
func (s *Source) CreateImage(index int, opts SourceOptions) (*raster.Image, bool) {
	if index < 0 || index >= len(s.frames) {
		return nil, false
	}
	im := s.frames[index].image
	if im == nil {
		return nil, false
	}
	if factor := opts.SubsampleFactor; factor == 2 || factor == 4 || factor == 8 {
		return subsample(im, factor), true
	}
	return im, true
}

// CreateThumbnail returns a copy of frame index scaled so its longer side
// is at most opts.ThumbnailMaxPixelSize (aspect preserved, floor
// rounding), or a full-resolution copy if no size is given.
func (s *Source) CreateThumbnail(index int, opts SourceOptions) (*raster.Image, bool) {
	im, ok := s.CreateImage(index, SourceOptions{})
	if !ok {
		return nil, false
	}
	if opts.ThumbnailMaxPixelSize <= 0 {
		return copyImage(im), true
	}
	return scaleImage(im, opts.ThumbnailMaxPixelSize), true
}

func (s *Source) parse() {
	if len(s.buf) == 0 {
		s.status = StatusIncomplete
		return
	}
	format := s.opts.TypeIdentifierHint
	matched := format != ""
	if !matched {
		var long bool
		format, long = detectFormat(s.buf)
		matched = format != ""
		if !matched {
			if long {
				s.status = StatusUnknownType
				return
			}
			if s.final {
				s.status = StatusUnexpectedEOF
				return
			}
			s.status = StatusReadingHeader
			if len(s.buf) < 4 {
				s.status = StatusIncomplete
			}
			return
		}
	}
	s.format, s.hasFormat = format, true
	if !s.final {
		s.status = StatusReadingHeader
		return
	}

	frames, err := decodeFrames(format, s.buf)
	if err != nil {
		s.status = StatusInvalidData
		return
	}
	s.frames = frames
	s.status = StatusComplete
}

func decodeFrames(format Format, data []byte) ([]sourceFrame, error) {
	switch format {
	case FormatPNG:
		im, meta, err := pngcodec.Decode(data)
		if err != nil {
			return nil, err
		}
		return []sourceFrame{{image: im, props: imageProperties(im, meta)}}, nil

	case FormatJPEG:
		props, err := jpegcodec.ReadProperties(data)
		if err != nil {
			return nil, err
		}
		p := Properties{"PixelWidth": props.Width, "PixelHeight": props.Height, "Depth": 8}
		if props.NumComponents == 1 {
			p["ColorModel"] = "Gray"
		} else {
			p["ColorModel"] = "RGB"
		}
		im, _ := jpegcodec.Decode(data) // nil on unsupported subsampling; properties still stand
		return []sourceFrame{{image: im, props: p}}, nil

	case FormatGIF:
		_, _, gifFrames, err := gifcodec.Decode(data)
		if err != nil {
			return nil, err
		}
		out := make([]sourceFrame, len(gifFrames))
		for i, f := range gifFrames {
			out[i] = sourceFrame{
				image:      f.Image,
				props:      imageProperties(f.Image, nil),
				left:       f.Left,
				top:        f.Top,
				delayCenti: f.DelayCenti,
				disposal:   f.Disposal,
			}
		}
		return out, nil

	case FormatBMP:
		im, err := bmpcodec.Decode(data)
		if err != nil {
			return nil, err
		}
		return []sourceFrame{{image: im, props: imageProperties(im, nil)}}, nil

	case FormatTIFF:
		im, err := tiffcodec.Decode(data)
		if err != nil {
			return nil, err
		}
		return []sourceFrame{{image: im, props: imageProperties(im, nil)}}, nil

	case FormatWebP:
		im, meta, err := webpcodec.Decode(data)
		if err != nil {
			return nil, err
		}
		return []sourceFrame{{image: im, props: imageProperties(im, meta)}}, nil
	}
	return nil, errors.Errorf("imageio: unhandled format %q", format)
}

func imageProperties(im *raster.Image, meta *metadata.Metadata) Properties {
	p := Properties{}
	if im != nil {
		p["PixelWidth"] = im.Width
		p["PixelHeight"] = im.Height
		p["Depth"] = 8
		if im.HasAlpha() {
			p["ColorModel"] = "RGB"
			p["HasAlpha"] = true
		} else {
			p["ColorModel"] = "RGB"
		}
	}
	if meta != nil {
		p[PropertyMetadata] = meta

		text := map[string]string{}
		xmp := map[string]string{}
		for _, tag := range meta.Enumerate(false) {
			switch {
			case strings.HasPrefix(tag.Path, "png:text:"):
				key, _ := strings.CutPrefix(tag.Path, "png:text:")
				text[key] = tag.Value.String()
			case tag.Path == "webp:exif" && tag.Value.Type == metadata.TypeBytes:
				p["WebP:EXIF"] = tag.Value.Bytes
			default:
				xmp[tag.Path] = tag.Value.String()
			}
		}
		if len(text) > 0 {
			p["PNG:TextualData"] = text
		}
		if len(xmp) > 0 {
			p["XMP"] = xmp
		}
	}
	return p
}

func copyImage(im *raster.Image) *raster.Image {
	out := raster.NewImage(im.Width, im.Height, im.Alpha)
	copy(out.Pix, im.Pix)
	return out
}

// scaleImage implements §4.1's create_thumbnail scaling rule:
// dst = src * max / max(src.w, src.h), floor rounding, nearest-neighbor
// resampling.
func scaleImage(im *raster.Image, maxPixelSize int) *raster.Image {
	longSide := im.Width
	if im.Height > longSide {
		longSide = im.Height
	}
	if longSide <= maxPixelSize {
		return copyImage(im)
	}
	dstW := im.Width * maxPixelSize / longSide
	dstH := im.Height * maxPixelSize / longSide
	if dstW < 1 {
		dstW = 1
	}
	if dstH < 1 {
		dstH = 1
	}
	out := raster.NewImage(dstW, dstH, im.Alpha)
	for y := 0; y < dstH; y++ {
		sy := y * im.Height / dstH
		for x := 0; x < dstW; x++ {
			sx := x * im.Width / dstW
			r, g, b, a := im.At(sx, sy)
			out.Set(x, y, r, g, b, a)
		}
	}
	return out
}

// subsample shrinks im by the given integer factor (2, 4, or 8) by
// nearest-neighbor sampling: each output pixel is the top-left pixel of its
// factor x factor block, with no averaging.
func subsample(im *raster.Image, factor int) *raster.Image {
	dstW, dstH := im.Width/factor, im.Height/factor
	if dstW < 1 {
		dstW = 1
	}
	if dstH < 1 {
		dstH = 1
	}
	out := raster.NewImage(dstW, dstH, im.Alpha)
	for y := 0; y < dstH; y++ {
		for x := 0; x < dstW; x++ {
			r, g, b, a := im.At(x*factor, y*factor)
			out.Set(x, y, r, g, b, a)
		}
	}
	return out
}
