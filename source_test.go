package imageio

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/deepteams/imageio/internal/pngcodec"
	"github.com/deepteams/imageio/internal/raster"
)

func sampleImage(width, height int) *raster.Image {
	im := raster.NewImage(width, height, raster.AlphaLast)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			im.Set(x, y, byte(x*9), byte(y*9), byte((x+y)*3), 255)
		}
	}
	return im
}

func TestSource_CompleteDecodesPNG(t *testing.T) {
	im := sampleImage(12, 8)
	data := pngcodec.Encode(im)

	src := NewSourceWithData(data, SourceOptions{})
	require.Equal(t, StatusComplete, src.Status())

	format, ok := src.Type()
	require.True(t, ok)
	require.Equal(t, FormatPNG, format)
	require.Equal(t, 1, src.Count())

	props, ok := src.Properties(0)
	require.True(t, ok)
	require.Equal(t, 12, props["PixelWidth"])
	require.Equal(t, 8, props["PixelHeight"])

	got, ok := src.CreateImage(0, SourceOptions{})
	require.True(t, ok)
	require.Equal(t, im.Width, got.Width)
	require.Equal(t, im.Height, got.Height)
}

func TestSource_EmptyBufferIsIncomplete(t *testing.T) {
	src := NewSourceIncremental(SourceOptions{})
	require.Equal(t, StatusIncomplete, src.Status())
	require.Equal(t, 0, src.Count())
}

func TestSource_UnknownMagicIsUnknownType(t *testing.T) {
	src := NewSourceWithData([]byte("this buffer matches no supported image signature at all"), SourceOptions{})
	require.Equal(t, StatusUnknownType, src.Status())
	_, ok := src.Type()
	require.False(t, ok)
}

func TestSource_CorruptHeaderIsInvalidData(t *testing.T) {
	data := append([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1A, '\n'}, []byte("garbage not a valid chunk stream")...)
	src := NewSourceWithData(data, SourceOptions{})
	require.Equal(t, StatusInvalidData, src.Status())
}

func TestSource_IncrementalUpdate(t *testing.T) {
	im := sampleImage(6, 6)
	data := pngcodec.Encode(im)

	src := NewSourceIncremental(SourceOptions{})
	src.UpdateData(data[:4], false)
	require.NotEqual(t, StatusComplete, src.Status())

	src.UpdateData(data[4:], true)
	require.Equal(t, StatusComplete, src.Status())
	_, ok := src.CreateImage(0, SourceOptions{})
	require.True(t, ok)
}

func TestSource_CreateImage_OutOfRangeIndex(t *testing.T) {
	im := sampleImage(4, 4)
	src := NewSourceWithData(pngcodec.Encode(im), SourceOptions{})
	_, ok := src.CreateImage(5, SourceOptions{})
	require.False(t, ok)
	_, ok = src.CreateImage(-1, SourceOptions{})
	require.False(t, ok)
}

func TestSource_CreateThumbnail_ScalesLongerSideDown(t *testing.T) {
	im := sampleImage(100, 50)
	src := NewSourceWithData(pngcodec.Encode(im), SourceOptions{})

	thumb, ok := src.CreateThumbnail(0, SourceOptions{ThumbnailMaxPixelSize: 20})
	require.True(t, ok)
	require.Equal(t, 20, thumb.Width)
	require.Equal(t, 10, thumb.Height)
}

func TestSource_CreateThumbnail_NoSizeReturnsFullCopy(t *testing.T) {
	im := sampleImage(10, 5)
	src := NewSourceWithData(pngcodec.Encode(im), SourceOptions{})

	thumb, ok := src.CreateThumbnail(0, SourceOptions{})
	require.True(t, ok)
	require.Equal(t, im.Width, thumb.Width)
	require.Equal(t, im.Height, thumb.Height)
}

func TestSource_PrimaryImageIndex(t *testing.T) {
	src := NewSourceWithData(pngcodec.Encode(sampleImage(2, 2)), SourceOptions{})
	require.Equal(t, 0, src.PrimaryImageIndex())
}
