package dsp

// BT.601 YUV <-> RGB conversion using fixed-point arithmetic.
// All coefficients match libwebp yuv.h exactly.

// YUV -> RGB fixed-point multipliers (from yuv.h).
const (
	yuvFix  = 16   // fixed-point precision
	YUVFix  = yuvFix // exported for webpcodec's RGB->YUV rounding
	yuvHalf = 1 << (yuvFix - 1)

	yuvFix2 = 6                  // additional precision for intermediate values
	yuvMask = (256 << yuvFix2) - 1

	kYScale = 19077 // 1.164 * (1 << 14)
	kRCr    = 26149 // 1.596 * (1 << 14)
	kGCb    = 6419  // 0.391 * (1 << 14)
	kGCr    = 13320 // 0.813 * (1 << 14)
	kBCb    = 33050 // 2.018 * (1 << 14)

	// Bias constants from the C reference (libwebp/src/dsp/yuv.h lines 80-90).
	// These are hardcoded values that absorb the (Y-16) and (U/V-128) offsets
	// into the fixed-point formula. They must match the C values exactly.
	//   R = MultHi(y, 19077) + MultHi(v, 26149) - 14234
	//   G = MultHi(y, 19077) - MultHi(u, 6419) - MultHi(v, 13320) + 8708
	//   B = MultHi(y, 19077) + MultHi(u, 33050) - 17685
	kRBias = 14234
	kGBias = 8708
	kBBias = 17685
)

// multHi computes (v * coeff) >> 8.
func multHi(v, coeff int) int {
	return (v * coeff) >> 8
}

// VP8kClip stores clipped values in [0..255] range, mapping input range
// [0..yuvMask] after shift by yuvFix2.
var vp8kClip [yuvMask + 1]uint8
var vp8kClip4Bits [yuvMask + 1]uint8

func initYUVTables() {
	for i := 0; i <= yuvMask; i++ {
		v := i >> yuvFix2
		if v < 0 {
			v = 0
		} else if v > 255 {
			v = 255
		}
		vp8kClip[i] = uint8(v)
		vp8kClip4Bits[i] = uint8((v >> 4) & 0x0f)
	}
}

func clip(v, maxVal int) uint8 {
	if v < 0 {
		return 0
	}
	if v > maxVal {
		return uint8(maxVal)
	}
	return uint8(v)
}

// YUVToR converts (y, v) to the R component.
func YUVToR(y, v int) uint8 {
	val := multHi(y, kYScale) + multHi(v, kRCr) - kRBias
	if val < 0 {
		return 0
	}
	if val > yuvMask {
		return 255
	}
	return vp8kClip[val]
}

// YUVToG converts (y, u, v) to the G component.
func YUVToG(y, u, v int) uint8 {
	val := multHi(y, kYScale) - multHi(u, kGCb) - multHi(v, kGCr) + kGBias
	if val < 0 {
		return 0
	}
	if val > yuvMask {
		return 255
	}
	return vp8kClip[val]
}

// YUVToB converts (y, u) to the B component.
func YUVToB(y, u int) uint8 {
	val := multHi(y, kYScale) + multHi(u, kBCb) - kBBias
	if val < 0 {
		return 0
	}
	if val > yuvMask {
		return 255
	}
	return vp8kClip[val]
}

// YUVToRGB converts YUV (in [16..235] / [16..240] full range) to RGB.
func YUVToRGB(y, u, v int, rgb []byte) {
	rgb[0] = YUVToR(y, v)
	rgb[1] = YUVToG(y, u, v)
	rgb[2] = YUVToB(y, u)
}

// YUVToBGR converts YUV to BGR (reversed channel order).
func YUVToBGR(y, u, v int, bgr []byte) {
	bgr[0] = YUVToB(y, u)
	bgr[1] = YUVToG(y, u, v)
	bgr[2] = YUVToR(y, v)
}

// RGB -> YUV conversion coefficients (from enc.c).
const (
	kRGBToY0 = 16839 // 0.2568 * (1 << 16)
	kRGBToY1 = 33059 // 0.5041 * (1 << 16)
	kRGBToY2 = 6420  // 0.0979 * (1 << 16)
	kRGBToU0 = -9719
	kRGBToU1 = -19081
	kRGBToU2 = 28800
	kRGBToV0 = 28800
	kRGBToV1 = -24116
	kRGBToV2 = -4684
)

// VP8ClipUV clips the intermediate UV value to [0..255].
// Matches C libwebp yuv.h: VP8ClipUV uses >> (YUV_FIX + 2) = >> 18.
// The extra +2 accounts for 4x accumulated pixel values (sum of 2x2 block).
// Callers must pass sum-of-4-pixels values (not averaged) and
// rounding = YUV_HALF << 2 = 1 << 17.
func VP8ClipUV(uv, rounding int) uint8 {
	uv = (uv + rounding + (128 << (yuvFix + 2))) >> (yuvFix + 2)
	if uv&^0xff == 0 {
		return uint8(uv)
	}
	if uv < 0 {
		return 0
	}
	return 255
}

// RGBToY converts an RGB triple to the Y component.
// Uses fixed rounding (YUV_HALF). For dithered conversion, use RGBToYRounding.
func RGBToY(r, g, b int) uint8 {
	return uint8((kRGBToY0*r + kRGBToY1*g + kRGBToY2*b + yuvHalf + (16 << 16)) >> 16)
}

// RGBToYRounding converts an RGB triple to the Y component with a custom
// rounding value. This is used for dithered RGB->YUV conversion where the
// rounding comes from VP8RandomBits(rg, YUV_FIX=16).
// Matches C VP8RGBToY(r, g, b, rounding).
func RGBToYRounding(r, g, b, rounding int) uint8 {
	return uint8((kRGBToY0*r + kRGBToY1*g + kRGBToY2*b + rounding + (16 << yuvFix)) >> yuvFix)
}

// RGBToU converts an RGB triple to the U component.
func RGBToU(r, g, b, rounding int) uint8 {
	return VP8ClipUV(kRGBToU0*r+kRGBToU1*g+kRGBToU2*b, rounding)
}

// RGBToV converts an RGB triple to the V component.
func RGBToV(r, g, b, rounding int) uint8 {
	return VP8ClipUV(kRGBToV0*r+kRGBToV1*g+kRGBToV2*b, rounding)
}
