package container

import (
	"encoding/binary"
	"testing"
)

// buildVP8XFile assembles a complete extended-format (VP8X) WebP file from
// already-built sub-chunks, mirroring what a real encoder emits: VP8X
// header first, then ANIM (if animating), then one ANMF per frame (or a
// bare VP8/VP8L/ALPH still image), then any metadata chunks.
func buildVP8XFile(width, height int, flags uint32, rest ...[]byte) []byte {
	vp8x := make([]byte, VP8XChunkSize)
	vp8x[0] = byte(flags)
	vp8x[4] = byte(width - 1)
	vp8x[5] = byte((width - 1) >> 8)
	vp8x[6] = byte((width - 1) >> 16)
	vp8x[7] = byte(height - 1)
	vp8x[8] = byte((height - 1) >> 8)
	vp8x[9] = byte((height - 1) >> 16)

	payload := concat(makeChunk(FourCCVP8X, vp8x))
	for _, c := range rest {
		payload = concat(payload, c)
	}
	return wrapRIFF(payload)
}

func buildVP8Bitstream(width, height int) []byte {
	vp8 := make([]byte, 10)
	vp8[0] = 0x10 // keyframe, show
	vp8[3], vp8[4], vp8[5] = 0x9d, 0x01, 0x2a
	binary.LittleEndian.PutUint16(vp8[6:8], uint16(width))
	binary.LittleEndian.PutUint16(vp8[8:10], uint16(height))
	return vp8
}

func buildANMFChunk(xOff, yOff, width, height, duration int, disposeBG, blendNone bool, sub []byte) []byte {
	hdr := make([]byte, ANMFChunkSize)
	putLE24Test(hdr[0:3], xOff/2)
	putLE24Test(hdr[3:6], yOff/2)
	putLE24Test(hdr[6:9], width-1)
	putLE24Test(hdr[9:12], height-1)
	putLE24Test(hdr[12:15], duration)
	var bits byte
	if disposeBG {
		bits |= 1
	}
	if blendNone {
		bits |= 2
	}
	hdr[15] = bits
	return makeChunk(FourCCANMF, concat(hdr, sub))
}

func putLE24Test(b []byte, v int) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
}

// TestParserAnimatedWebP exercises the animation path this module's
// webpcodec still only reads the first frame of: ANIM loop/background
// color, and per-ANMF disposal/blend methods and offsets.
func TestParserAnimatedWebP(t *testing.T) {
	const w, h = 64, 48

	anim := make([]byte, ANIMChunkSize)
	binary.LittleEndian.PutUint32(anim[0:4], 0x11223344) // background color
	binary.LittleEndian.PutUint16(anim[4:6], 7)          // loop count
	animChunk := makeChunk(FourCCANIM, anim)

	frame1 := buildANMFChunk(0, 0, w, h, 100, false, false, makeChunk(FourCCVP8, buildVP8Bitstream(w, h)))
	frame2 := buildANMFChunk(8, 16, w-8, h-8, 250, true, true, makeChunk(FourCCVP8, buildVP8Bitstream(w-8, h-8)))

	data := buildVP8XFile(w, h, AnimationFlag, animChunk, frame1, frame2)

	p, err := NewParser(data)
	if err != nil {
		t.Fatalf("NewParser: %v", err)
	}

	f := p.Features()
	if !f.HasAnim {
		t.Fatal("expected HasAnim")
	}
	if f.LoopCount != 7 {
		t.Fatalf("LoopCount = %d, want 7", f.LoopCount)
	}
	if f.BGColor != 0x11223344 {
		t.Fatalf("BGColor = 0x%08x, want 0x11223344", f.BGColor)
	}

	frames := p.Frames()
	if len(frames) != 2 {
		t.Fatalf("got %d frames, want 2", len(frames))
	}
	if frames[0].DisposeMethod != DisposeNone || frames[0].BlendMethod != BlendAlpha {
		t.Fatalf("frame 0 dispose/blend = %v/%v, want None/Alpha", frames[0].DisposeMethod, frames[0].BlendMethod)
	}
	if frames[1].XOffset != 8 || frames[1].YOffset != 16 {
		t.Fatalf("frame 1 offset = %d,%d, want 8,16", frames[1].XOffset, frames[1].YOffset)
	}
	if frames[1].DisposeMethod != DisposeBackground || frames[1].BlendMethod != BlendNone {
		t.Fatalf("frame 1 dispose/blend = %v/%v, want Background/None", frames[1].DisposeMethod, frames[1].BlendMethod)
	}
	if frames[1].Duration != 250 {
		t.Fatalf("frame 1 duration = %d, want 250", frames[1].Duration)
	}
}

// TestParserExtendedStillWithALPH exercises the separate-alpha-chunk path a
// lossy extended-format still uses: ALPH precedes VP8, and its raw payload
// ends up on FrameInfo.AlphaData for the lossy decoder to apply.
func TestParserExtendedStillWithALPH(t *testing.T) {
	const w, h = 16, 8

	alphaPlane := make([]byte, w*h)
	for i := range alphaPlane {
		alphaPlane[i] = byte(i * 3)
	}
	alphPayload := concat([]byte{0x00}, alphaPlane) // compression=0, filter=0
	alphChunk := makeChunk(FourCCALPH, alphPayload)
	vp8Chunk := makeChunk(FourCCVP8, buildVP8Bitstream(w, h))

	data := buildVP8XFile(w, h, AlphaFlag, alphChunk, vp8Chunk)

	p, err := NewParser(data)
	if err != nil {
		t.Fatalf("NewParser: %v", err)
	}

	f := p.Features()
	if !f.HasAlpha {
		t.Fatal("expected HasAlpha")
	}
	frames := p.Frames()
	if len(frames) != 1 {
		t.Fatalf("got %d frames, want 1", len(frames))
	}
	if len(frames[0].AlphaData) != len(alphPayload) {
		t.Fatalf("AlphaData len = %d, want %d", len(frames[0].AlphaData), len(alphPayload))
	}
	if frames[0].AlphaData[1] != alphaPlane[0] {
		t.Fatalf("AlphaData[1] = %d, want %d", frames[0].AlphaData[1], alphaPlane[0])
	}
}
