package imageio

import (
	"io"
	"os"

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

type destImage struct {
	image *raster.Image
	props Properties
}

// Destination is a stateful handle that accumulates images and properties
// and serializes them to a sink on Finalize, per spec.md §4.2. Writes are
// buffered: the sink observes no output until Finalize succeeds.
type Destination struct {
	writer    io.Writer
	filePath  string
	format    Format
	maxImages int

	images      []destImage
	globalProps Properties
	aux         map[string]Properties
	finalized   bool
}

func supportedFormat(f Format) bool {
	switch f {
	case FormatPNG, FormatJPEG, FormatGIF, FormatBMP, FormatTIFF, FormatWebP:
		return true
	}
	return false
}

// NewDestination creates a Destination writing to an arbitrary io.Writer on
// Finalize. It fails (returns ok=false) if imageCount <= 0 or format is
// unsupported.
func NewDestination(sink io.Writer, format Format, imageCount int, opts Properties) (dst *Destination, ok bool) {
	if imageCount <= 0 || !supportedFormat(format) {
		return nil, false
	}
	return &Destination{
		writer:      sink,
		format:      format,
		maxImages:   imageCount,
		globalProps: copyProps(opts),
		aux:         map[string]Properties{},
	}, true
}

// NewDestinationFile creates a Destination that writes path on Finalize.
func NewDestinationFile(path string, format Format, imageCount int, opts Properties) (dst *Destination, ok bool) {
	if imageCount <= 0 || !supportedFormat(format) {
		return nil, false
	}
	return &Destination{
		filePath:    path,
		format:      format,
		maxImages:   imageCount,
		globalProps: copyProps(opts),
		aux:         map[string]Properties{},
	}, true
}

// AddImage appends im with its per-image properties. Silently ignored once
// finalized or once the configured image count is reached.
func (d *Destination) AddImage(im *raster.Image, props Properties) {
	if d.finalized || len(d.images) >= d.maxImages {
		return
	}
	d.images = append(d.images, destImage{image: im, props: props})
}

// AddImageFromSource decodes frame index out of src and appends it. An
// invalid index still occupies a slot (a sentinel with a nil image) so
// that Finalize fails if no other valid image was ever added.
func (d *Destination) AddImageFromSource(src *Source, index int, props Properties) {
	if d.finalized || len(d.images) >= d.maxImages {
		return
	}
	im, _ := src.CreateImage(index, SourceOptions{})
	d.images = append(d.images, destImage{image: im, props: props})
}

// SetProperties merges dict into the global properties dictionary.
// Ignored after finalize.
func (d *Destination) SetProperties(dict Properties) {
	if d.finalized {
		return
	}
	for k, v := range dict {
		d.globalProps[k] = v
	}
}

// AddAuxiliaryDataInfo records side-channel data (e.g. "Depth",
// "Disparity") keyed by a well-known type string.
func (d *Destination) AddAuxiliaryDataInfo(typ string, info Properties) {
	if d.finalized {
		return
	}
	d.aux[typ] = info
}

// Finalize serializes the accumulated images via the configured format's
// codec and writes the sink. It returns false (without writing anything)
// on a second call, on zero valid images, or on a terminal encode
// failure.
func (d *Destination) Finalize() bool {
	if d.finalized {
		return false
	}
	validCount := 0
	for _, img := range d.images {
		if img.image != nil {
			validCount++
		}
	}
	if validCount == 0 {
		d.finalized = true
		return false
	}
	d.finalized = true

	data, err := d.encode()
	if err != nil {
		return false
	}
	if d.writer != nil {
		_, err := d.writer.Write(data)
		return err == nil
	}
	return os.WriteFile(d.filePath, data, 0o644) == nil
}

// encode dispatches to the configured format's codec. It only ever looks
// at the first valid image except for GIF, where every valid image
// becomes an animation frame.
func (d *Destination) encode() ([]byte, error) {
	switch d.format {
	case FormatGIF:
		var frames []*raster.Image
		delay := intProp(d.globalProps, PropertyDelay, 0)
		for _, img := range d.images {
			if img.image == nil {
				continue
			}
			frames = append(frames, prepareForEncode(img.image, d.globalProps, img.props, d.format))
			if v := intProp(img.props, PropertyDelay, -1); v >= 0 {
				delay = v
			}
		}
		return gifcodec.Encode(frames, gifcodec.EncodeOptions{DelayCenti: delay})
	}

	var first *destImage
	for i := range d.images {
		if d.images[i].image != nil {
			first = &d.images[i]
			break
		}
	}
	if first == nil {
		return nil, errors.New("imageio: no valid image to encode")
	}
	im := prepareForEncode(first.image, d.globalProps, first.props, d.format)
	quality := qualityProp(d.globalProps, first.props)

	switch d.format {
	case FormatPNG:
		return pngcodec.Encode(im), nil
	case FormatJPEG:
		return jpegcodec.Encode(im, jpegcodec.EncodeOptions{Quality: quality}), nil
	case FormatBMP:
		preserveAlpha := boolProp(d.globalProps, first.props, PropertyPreserveAlpha, true)
		return bmpcodec.Encode(im, preserveAlpha), nil
	case FormatTIFF:
		return tiffcodec.Encode(im), nil
	case FormatWebP:
		lossless := boolProp(d.globalProps, first.props, PropertyLossless, true)
		meta := metadataProp(d.globalProps, first.props)
		return webpcodec.Encode(im, webpcodec.EncodeOptions{Lossless: lossless, Quality: quality, Metadata: meta}), nil
	}
	return nil, errors.Errorf("imageio: unhandled format %q", d.format)
}

// prepareForEncode applies the ImageMaxPixelSize downscale and, for
// formats whose codec here only writes non-alpha pixels, flattens over
// BackgroundColor (default opaque white) before encode.
func prepareForEncode(im *raster.Image, global, local Properties, format Format) *raster.Image {
	if max := intProp(local, PropertyImageMaxPixelSize, intProp(global, PropertyImageMaxPixelSize, 0)); max > 0 {
		im = scaleImage(im, max)
	}
	needsFlatten := format == FormatJPEG || (format == FormatBMP && !boolProp(global, local, PropertyPreserveAlpha, true))
	if needsFlatten && im.HasAlpha() {
		im = flattenOverBackground(im, backgroundProp(global, local))
	}
	return im
}

func flattenOverBackground(im *raster.Image, bg [3]uint8) *raster.Image {
	out := raster.NewImage(im.Width, im.Height, raster.AlphaNone)
	for y := 0; y < im.Height; y++ {
		for x := 0; x < im.Width; x++ {
			r, g, b, a := im.At(x, y)
			inv := 255 - int(a)
			out.Set(x, y,
				uint8((int(r)*int(a)+int(bg[0])*inv)/255),
				uint8((int(g)*int(a)+int(bg[1])*inv)/255),
				uint8((int(b)*int(a)+int(bg[2])*inv)/255),
				255)
		}
	}
	return out
}

func copyProps(p Properties) Properties {
	out := Properties{}
	for k, v := range p {
		out[k] = v
	}
	return out
}

func intProp(p Properties, key string, def int) int {
	if v, ok := p[key]; ok {
		switch n := v.(type) {
		case int:
			return n
		case int64:
			return int(n)
		}
	}
	return def
}

func boolProp(global, local Properties, key string, def bool) bool {
	if v, ok := local[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	if v, ok := global[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// qualityProp reads LossyCompressionQuality (0.0..1.0, per-image
// overriding global) and scales it to the 0..100 integer the codecs want.
// Absent entirely, the codecs' own default (75) applies.
func qualityProp(global, local Properties) int {
	read := func(p Properties) (float64, bool) {
		v, ok := p[PropertyLossyCompressionQuality]
		if !ok {
			return 0, false
		}
		switch f := v.(type) {
		case float64:
			return f, true
		case float32:
			return float64(f), true
		}
		return 0, false
	}
	if f, ok := read(local); ok {
		return int(f * 100)
	}
	if f, ok := read(global); ok {
		return int(f * 100)
	}
	return 0
}

// metadataProp reads PropertyMetadata (per-image overriding global), the
// *metadata.Metadata a caller got back from Source and wants round-tripped
// into the encoded file.
func metadataProp(global, local Properties) *metadata.Metadata {
	if v, ok := local[PropertyMetadata]; ok {
		if m, ok := v.(*metadata.Metadata); ok {
			return m
		}
	}
	if v, ok := global[PropertyMetadata]; ok {
		if m, ok := v.(*metadata.Metadata); ok {
			return m
		}
	}
	return nil
}

func backgroundProp(global, local Properties) [3]uint8 {
	read := func(p Properties) ([3]uint8, bool) {
		v, ok := p[PropertyBackgroundColor]
		if !ok {
			return [3]uint8{}, false
		}
		if rgb, ok := v.([3]uint8); ok {
			return rgb, true
		}
		return [3]uint8{}, false
	}
	if rgb, ok := read(local); ok {
		return rgb
	}
	if rgb, ok := read(global); ok {
		return rgb
	}
	return [3]uint8{255, 255, 255}
}
