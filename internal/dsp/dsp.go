// Package dsp provides the low-level numeric routines shared by the VP8
// lossy WebP codec: the BT.601 YUV<->RGB conversion and the clipping
// tables used when reconstructing prediction residuals. It carries none
// of libwebp's SIMD/assembly dispatch machinery (no hardware
// acceleration, per spec), nor the full block-transform/intra-prediction
// pipeline — this codec's VP8 decoder/encoder works at whole-macroblock
// DC granularity rather than per-4x4-subblock, so those tables have no
// caller here.
package dsp

func init() {
	initClipTables()
	initYUVTables()
}
