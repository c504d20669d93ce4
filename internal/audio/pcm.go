package audio

import (
	"context"
	"encoding/binary"
	"errors"
	"io"
	"math"
)

// PutFloat32s writes samples as little-endian IEEE-754 floats into dst,
// which must hold 4*len(samples) bytes.
func PutFloat32s(dst []byte, samples []float32) {
	for i, s := range samples {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(s))
	}
}

// NewPCMStream downmixes src to mono and serves it as raw f32le bytes, the
// same wire format ffmpeg writes for "-ac 1 -f f32le". Closing the returned
// reader stops decoding and closes src.
func NewPCMStream(ctx context.Context, src Source) io.ReadCloser {
	pr, pw := io.Pipe()
	mono := NewMonoMixer(src)

	go func() {
		defer mono.Close()

		samples := make([]float32, readFrames)
		buf := make([]byte, readFrames*4)
		for {
			if err := ctx.Err(); err != nil {
				pw.CloseWithError(err)
				return
			}
			n, err := mono.ReadSamples(samples)
			if n > 0 {
				PutFloat32s(buf, samples[:n])
				if _, werr := pw.Write(buf[:n*4]); werr != nil {
					return // reader went away
				}
			}
			if err != nil {
				if errors.Is(err, io.EOF) {
					pw.Close()
				} else {
					pw.CloseWithError(err)
				}
				return
			}
		}
	}()

	return pr
}
