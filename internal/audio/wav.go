package audio

import (
	"errors"
	"fmt"
	"io"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	wavFormatPCM        = 1
	wavFormatExtensible = 0xFFFE
)

type wavSource struct {
	fileSource
	dec      *wav.Decoder
	buf      *goaudio.IntBuffer
	rate     int
	channels int
	depth    int
}

func (s *wavSource) SampleRate() int { return s.rate }
func (s *wavSource) Channels() int   { return s.channels }

func (s *wavSource) ReadSamples(dst []float32) (int, error) {
	frames := len(dst) / s.channels
	if frames == 0 {
		return 0, io.ErrShortBuffer
	}
	if cap(s.buf.Data) < frames*s.channels {
		s.buf.Data = make([]int, frames*s.channels)
	}
	s.buf.Data = s.buf.Data[:frames*s.channels]

	n, err := s.dec.PCMBuffer(s.buf)
	if err != nil && !errors.Is(err, io.EOF) {
		return 0, err
	}
	n -= n % s.channels
	if n == 0 {
		return 0, io.EOF
	}

	if s.depth == 8 {
		// 8-bit WAV is unsigned with a 128 midpoint.
		for i, v := range s.buf.Data[:n] {
			dst[i] = float32(v-128) / 128
		}
		return n, nil
	}
	scale := 1 / float32(int64(1)<<(s.depth-1))
	for i, v := range s.buf.Data[:n] {
		dst[i] = float32(v) * scale
	}
	return n, nil
}

// readWAVHeader validates the file and leaves the decoder at the PCM chunk.
func readWAVHeader(f *os.File) (*wav.Decoder, error) {
	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: not a RIFF/WAVE file", ErrUnsupported)
	}
	if dec.WavAudioFormat != wavFormatPCM && dec.WavAudioFormat != wavFormatExtensible {
		return nil, fmt.Errorf("%w: wav encoding %d", ErrUnsupported, dec.WavAudioFormat)
	}
	if dec.NumChans == 0 || dec.SampleRate == 0 {
		return nil, fmt.Errorf("%w: wav header has no channels or rate", ErrUnsupported)
	}
	switch dec.BitDepth {
	case 8, 16, 24, 32:
	default:
		return nil, fmt.Errorf("%w: wav bit depth %d", ErrUnsupported, dec.BitDepth)
	}
	if err := dec.FwdToPCM(); err != nil {
		return nil, err
	}
	return dec, nil
}

func openWAV(f *os.File) (Source, error) {
	dec, err := readWAVHeader(f)
	if err != nil {
		return nil, err
	}
	channels := int(dec.NumChans)
	return &wavSource{
		fileSource: fileSource{f: f},
		dec:        dec,
		buf: &goaudio.IntBuffer{
			Data:           make([]int, readFrames*channels),
			Format:         &goaudio.Format{NumChannels: channels, SampleRate: int(dec.SampleRate)},
			SourceBitDepth: int(dec.BitDepth),
		},
		rate:     int(dec.SampleRate),
		channels: channels,
		depth:    int(dec.BitDepth),
	}, nil
}

func inspectWAV(f *os.File) (Info, error) {
	dec, err := readWAVHeader(f)
	if err != nil {
		return Info{}, err
	}
	frameBytes := int64(dec.NumChans) * int64(dec.BitDepth/8)
	frames := dec.PCMLen() / frameBytes
	return Info{
		DurationSec: float64(frames) / float64(dec.SampleRate),
		SampleRate:  int(dec.SampleRate),
		Channels:    int(dec.NumChans),
	}, nil
}
