package imageio

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/deepteams/imageio/internal/raster"
)

func TestDestination_PNGRoundTrip(t *testing.T) {
	im := sampleImage(10, 10)
	var buf bytes.Buffer
	dst, ok := NewDestination(&buf, FormatPNG, 1, nil)
	require.True(t, ok)

	dst.AddImage(im, nil)
	require.True(t, dst.Finalize())
	require.False(t, dst.Finalize(), "second Finalize must return false without rewriting")

	src := NewSourceWithData(buf.Bytes(), SourceOptions{})
	require.Equal(t, StatusComplete, src.Status())
	got, ok := src.CreateImage(0, SourceOptions{})
	require.True(t, ok)
	require.Equal(t, im.Width, got.Width)
}

func TestDestination_RejectsZeroImageCount(t *testing.T) {
	var buf bytes.Buffer
	_, ok := NewDestination(&buf, FormatPNG, 0, nil)
	require.False(t, ok)
}

func TestDestination_RejectsUnsupportedFormat(t *testing.T) {
	var buf bytes.Buffer
	_, ok := NewDestination(&buf, Format("public.heic"), 1, nil)
	require.False(t, ok)
}

func TestDestination_FinalizeFailsOnZeroValidImages(t *testing.T) {
	var buf bytes.Buffer
	dst, ok := NewDestination(&buf, FormatJPEG, 1, nil)
	require.True(t, ok)
	require.False(t, dst.Finalize())
}

func TestDestination_ImageCountCapped(t *testing.T) {
	im := sampleImage(4, 4)
	var buf bytes.Buffer
	dst, ok := NewDestination(&buf, FormatGIF, 1, nil)
	require.True(t, ok)

	dst.AddImage(im, nil)
	dst.AddImage(im, nil) // should be silently ignored: limit reached
	require.True(t, dst.Finalize())

	src := NewSourceWithData(buf.Bytes(), SourceOptions{})
	require.Equal(t, 1, src.Count())
}

func TestDestination_AddAfterFinalizeIgnored(t *testing.T) {
	im := sampleImage(4, 4)
	var buf bytes.Buffer
	dst, ok := NewDestination(&buf, FormatPNG, 2, nil)
	require.True(t, ok)

	dst.AddImage(im, nil)
	require.True(t, dst.Finalize())
	dst.AddImage(im, nil) // ignored, finalized already
	require.Len(t, dst.images, 1)
}

func TestDestination_JPEGQualityProperty(t *testing.T) {
	im := sampleImage(16, 16)
	var lowBuf, highBuf bytes.Buffer

	low, _ := NewDestination(&lowBuf, FormatJPEG, 1, nil)
	low.AddImage(im, Properties{PropertyLossyCompressionQuality: 0.1})
	require.True(t, low.Finalize())

	high, _ := NewDestination(&highBuf, FormatJPEG, 1, nil)
	high.AddImage(im, Properties{PropertyLossyCompressionQuality: 0.9})
	require.True(t, high.Finalize())

	require.LessOrEqual(t, lowBuf.Len(), highBuf.Len())
}

func TestDestination_BMPPreserveAlphaFlattensOverBackground(t *testing.T) {
	im := raster.NewImage(2, 2, raster.AlphaLast)
	im.Set(0, 0, 10, 20, 30, 0) // fully transparent -> should become BackgroundColor

	var buf bytes.Buffer
	dst, ok := NewDestination(&buf, FormatBMP, 1, nil)
	require.True(t, ok)
	dst.AddImage(im, Properties{
		PropertyPreserveAlpha:   false,
		PropertyBackgroundColor: [3]uint8{1, 2, 3},
	})
	require.True(t, dst.Finalize())

	src := NewSourceWithData(buf.Bytes(), SourceOptions{})
	got, ok := src.CreateImage(0, SourceOptions{})
	require.True(t, ok)
	r, g, b, _ := got.At(0, 0)
	require.Equal(t, [3]uint8{1, 2, 3}, [3]uint8{r, g, b})
}

func TestDestination_AddImageFromSource(t *testing.T) {
	im := sampleImage(5, 5)
	var srcBuf bytes.Buffer
	srcDst, _ := NewDestination(&srcBuf, FormatPNG, 1, nil)
	srcDst.AddImage(im, nil)
	srcDst.Finalize()

	src := NewSourceWithData(srcBuf.Bytes(), SourceOptions{})

	var outBuf bytes.Buffer
	dst, _ := NewDestination(&outBuf, FormatPNG, 1, nil)
	dst.AddImageFromSource(src, 0, nil)
	require.True(t, dst.Finalize())
	require.Greater(t, outBuf.Len(), 0)
}

func TestDestination_AddImageFromSource_InvalidIndexFailsFinalize(t *testing.T) {
	im := sampleImage(3, 3)
	var srcBuf bytes.Buffer
	srcDst, _ := NewDestination(&srcBuf, FormatPNG, 1, nil)
	srcDst.AddImage(im, nil)
	srcDst.Finalize()
	src := NewSourceWithData(srcBuf.Bytes(), SourceOptions{})

	var outBuf bytes.Buffer
	dst, _ := NewDestination(&outBuf, FormatPNG, 1, nil)
	dst.AddImageFromSource(src, 7, nil) // out of range
	require.False(t, dst.Finalize())
}
