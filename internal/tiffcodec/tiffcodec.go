// Package tiffcodec implements the baseline little-endian TIFF subset this
// module needs: uncompressed RGB/RGBA strips, one IFD per image.
package tiffcodec

import (
	"encoding/binary"
	"errors"
	"sort"

	"github.com/deepteams/imageio/internal/raster"
)

var (
	ErrNotTIFF     = errors.New("tiffcodec: missing II/MM byte-order marker or magic")
	ErrBigEndian   = errors.New("tiffcodec: big-endian TIFF not supported")
	ErrUnsupported = errors.New("tiffcodec: unsupported compression, bit depth, or photometric interpretation")
	ErrTruncated   = errors.New("tiffcodec: truncated IFD or strip data")
)

const (
	tagWidth          = 256
	tagLength         = 257
	tagBitsPerSample  = 258
	tagCompression    = 259
	tagPhotometric    = 262
	tagStripOffsets   = 273
	tagSamplesPerPixel = 277
	tagRowsPerStrip   = 278
	tagStripByteCounts = 279
	tagXResolution    = 282
	tagYResolution    = 283
	tagResolutionUnit = 296
	tagExtraSamples   = 338
)

const (
	dtByte     = 1
	dtShort    = 3
	dtLong     = 4
	dtRational = 5
)

type ifdEntry struct {
	tag      uint16
	datatype uint16
	count    uint32
	value    uint32 // raw 4-byte value/offset field, as stored
}

// Decode parses a little-endian baseline TIFF into a pixel buffer.
func Decode(data []byte) (*raster.Image, error) {
	if len(data) < 8 {
		return nil, ErrNotTIFF
	}
	if data[0] == 'M' && data[1] == 'M' {
		return nil, ErrBigEndian
	}
	if data[0] != 'I' || data[1] != 'I' || binary.LittleEndian.Uint16(data[2:]) != 42 {
		return nil, ErrNotTIFF
	}
	ifdOffset := binary.LittleEndian.Uint32(data[4:])
	entries, err := readIFD(data, ifdOffset)
	if err != nil {
		return nil, err
	}

	tags := make(map[uint16]ifdEntry, len(entries))
	for _, e := range entries {
		tags[e.tag] = e
	}

	width := int(tagValue(tags, tagWidth))
	height := int(tagValue(tags, tagLength))
	samplesPerPixel := int(tagValue(tags, tagSamplesPerPixel))
	if samplesPerPixel == 0 {
		samplesPerPixel = 1
	}
	compression := tagValue(tags, tagCompression)
	if compression != 0 && compression != 1 {
		return nil, ErrUnsupported
	}
	photometric := tagValue(tags, tagPhotometric)
	if photometric != 2 { // RGB only
		return nil, ErrUnsupported
	}
	hasAlpha := samplesPerPixel == 4

	rowsPerStrip := int(tagValue(tags, tagRowsPerStrip))
	if rowsPerStrip == 0 {
		rowsPerStrip = height
	}

	stripOffsets, err := readArray(data, tags, tagStripOffsets)
	if err != nil {
		return nil, err
	}
	stripByteCounts, err := readArray(data, tags, tagStripByteCounts)
	if err != nil {
		return nil, err
	}

	alphaLayout := raster.AlphaNone
	if hasAlpha {
		alphaLayout = raster.AlphaLast
	}
	im := raster.NewImage(width, height, alphaLayout)

	bpp := samplesPerPixel
	row := 0
	for s := range stripOffsets {
		off := int(stripOffsets[s])
		n := int(stripByteCounts[s])
		if off+n > len(data) {
			return nil, ErrTruncated
		}
		strip := data[off : off+n]
		rowsInStrip := n / (width * bpp)
		for r := 0; r < rowsInStrip && row < height; r++ {
			for x := 0; x < width; x++ {
				base := r*width*bpp + x*bpp
				if base+bpp > len(strip) {
					return nil, ErrTruncated
				}
				a := byte(255)
				if hasAlpha {
					a = strip[base+3]
				}
				im.Set(x, row, strip[base], strip[base+1], strip[base+2], a)
			}
			row++
		}
	}
	return im, nil
}

func tagValue(tags map[uint16]ifdEntry, tag uint16) uint32 {
	e, ok := tags[tag]
	if !ok {
		return 0
	}
	switch e.datatype {
	case dtShort:
		return e.value & 0xFFFF
	default:
		return e.value
	}
}

// readArray reads a tag's value array, resolving the indirection to an
// external offset when the array doesn't fit inline.
func readArray(data []byte, tags map[uint16]ifdEntry, tag uint16) ([]uint32, error) {
	e, ok := tags[tag]
	if !ok {
		return nil, nil
	}
	elemSize := 4
	if e.datatype == dtShort {
		elemSize = 2
	} else if e.datatype == dtByte {
		elemSize = 1
	}
	total := int(e.count) * elemSize

	var raw []byte
	if total <= 4 {
		var buf [4]byte
		binary.LittleEndian.PutUint32(buf[:], e.value)
		raw = buf[:total]
	} else {
		off := e.value
		if int(off)+total > len(data) {
			return nil, ErrTruncated
		}
		raw = data[off : int(off)+total]
	}

	out := make([]uint32, e.count)
	for i := range out {
		switch elemSize {
		case 1:
			out[i] = uint32(raw[i])
		case 2:
			out[i] = uint32(binary.LittleEndian.Uint16(raw[i*2:]))
		default:
			out[i] = binary.LittleEndian.Uint32(raw[i*4:])
		}
	}
	return out, nil
}

func readIFD(data []byte, offset uint32) ([]ifdEntry, error) {
	if int(offset)+2 > len(data) {
		return nil, ErrTruncated
	}
	count := int(binary.LittleEndian.Uint16(data[offset:]))
	pos := int(offset) + 2
	entries := make([]ifdEntry, count)
	for i := 0; i < count; i++ {
		if pos+12 > len(data) {
			return nil, ErrTruncated
		}
		entries[i] = ifdEntry{
			tag:      binary.LittleEndian.Uint16(data[pos:]),
			datatype: binary.LittleEndian.Uint16(data[pos+2:]),
			count:    binary.LittleEndian.Uint32(data[pos+4:]),
			value:    binary.LittleEndian.Uint32(data[pos+8:]),
		}
		pos += 12
	}
	return entries, nil
}

// Encode writes im as a single-IFD, uncompressed, little-endian TIFF.
func Encode(im *raster.Image) []byte {
	hasAlpha := im.Alpha == raster.AlphaLast || im.Alpha == raster.AlphaPremultipliedLast
	samplesPerPixel := 3
	if hasAlpha {
		samplesPerPixel = 4
	}

	type entry struct {
		tag      uint16
		datatype uint16
		count    uint32
		inline   uint32 // valid when the value fits in 4 bytes
		extra    []byte // non-nil when the value needs the extra-data region
	}

	var bitsPerSampleExtra []byte
	for i := 0; i < samplesPerPixel; i++ {
		bitsPerSampleExtra = append(bitsPerSampleExtra, 8, 0)
	}

	xres := rationalBytes(72, 1)
	yres := rationalBytes(72, 1)

	entries := []entry{
		{tag: tagWidth, datatype: dtLong, count: 1, inline: uint32(im.Width)},
		{tag: tagLength, datatype: dtLong, count: 1, inline: uint32(im.Height)},
		{tag: tagBitsPerSample, datatype: dtShort, count: uint32(samplesPerPixel), extra: bitsPerSampleExtra},
		{tag: tagCompression, datatype: dtShort, count: 1, inline: 1},
		{tag: tagPhotometric, datatype: dtShort, count: 1, inline: 2},
		{tag: tagStripOffsets, datatype: dtLong, count: 1}, // filled in below
		{tag: tagSamplesPerPixel, datatype: dtShort, count: 1, inline: uint32(samplesPerPixel)},
		{tag: tagRowsPerStrip, datatype: dtLong, count: 1, inline: uint32(im.Height)},
		{tag: tagStripByteCounts, datatype: dtLong, count: 1, inline: uint32(im.Width * im.Height * samplesPerPixel)},
		{tag: tagXResolution, datatype: dtRational, count: 1, extra: xres},
		{tag: tagYResolution, datatype: dtRational, count: 1, extra: yres},
		{tag: tagResolutionUnit, datatype: dtShort, count: 1, inline: 2},
	}
	if hasAlpha {
		entries = append(entries, entry{tag: tagExtraSamples, datatype: dtShort, count: 1, inline: 1})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].tag < entries[j].tag })

	numEntries := len(entries)
	ifdSize := 2 + numEntries*12 + 4
	extraStart := 8 + ifdSize

	var extraData []byte
	extraOffsets := make([]uint32, numEntries)
	for i, e := range entries {
		if e.extra != nil {
			extraOffsets[i] = uint32(extraStart + len(extraData))
			extraData = append(extraData, e.extra...)
		}
	}

	stripOffset := uint32(extraStart + len(extraData))
	for i := range entries {
		if entries[i].tag == tagStripOffsets {
			entries[i].inline = stripOffset
		}
	}

	out := make([]byte, 0, int(stripOffset)+im.Width*im.Height*samplesPerPixel)
	out = append(out, 'I', 'I')
	out = appendU16(out, 42)
	out = appendU32(out, 8)

	out = appendU16(out, uint16(numEntries))
	for i, e := range entries {
		out = appendU16(out, e.tag)
		out = appendU16(out, e.datatype)
		out = appendU32(out, e.count)
		if e.extra != nil {
			out = appendU32(out, extraOffsets[i])
		} else {
			out = appendU32(out, e.inline)
		}
	}
	out = appendU32(out, 0) // next IFD offset: none

	out = append(out, extraData...)

	for y := 0; y < im.Height; y++ {
		for x := 0; x < im.Width; x++ {
			r, g, b, a := im.At(x, y)
			out = append(out, r, g, b)
			if hasAlpha {
				out = append(out, a)
			}
		}
	}
	return out
}

func rationalBytes(num, denom uint32) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint32(b[0:], num)
	binary.LittleEndian.PutUint32(b[4:], denom)
	return b[:]
}

func appendU16(out []byte, v uint16) []byte {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	return append(out, b[:]...)
}

func appendU32(out []byte, v uint32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return append(out, b[:]...)
}
