// Package imageio provides a pure Go Source/Destination handle API for
// decoding and encoding 2-D raster images across six container formats:
// PNG, JPEG, GIF, BMP, TIFF, and WebP. It implements the full read/write
// path without CGo dependencies, modeled on the stateful handle/status
// pattern of Apple's ImageIO rather than stdlib's image.Decode.
//
// The package supports:
//   - Format detection from magic bytes, with an incremental-load status
//     state machine (reading_header/incomplete/unknown_type/invalid_data/
//     unexpected_eof/complete)
//   - Lazy, cached per-frame decode and nearest-neighbor thumbnailing
//   - Multi-image GIF destinations (one animation frame per image); the
//     other formats, TIFF included, encode only the first image
//   - A path-addressable metadata tree with XMP import/export
//
// Basic usage for decoding:
//
//	src := imageio.NewSourceWithData(data, imageio.SourceOptions{})
//	img, ok := src.CreateImage(0, imageio.SourceOptions{})
//
// Basic usage for encoding:
//
//	dst, ok := imageio.NewDestination(&buf, imageio.FormatJPEG, 1, nil)
//	dst.AddImage(img, imageio.Properties{imageio.PropertyLossyCompressionQuality: 0.8})
//	dst.Finalize()
package imageio
