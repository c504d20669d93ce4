package audio

import (
	"errors"
	"fmt"
	"io"
	"os"

	gomp3 "github.com/hajimehoshi/go-mp3"
)

// go-mp3 always produces 16-bit little-endian stereo.
const (
	mp3Channels   = 2
	mp3FrameBytes = 4
)

type mp3Source struct {
	fileSource
	dec *gomp3.Decoder
	buf []byte
}

func (s *mp3Source) SampleRate() int { return s.dec.SampleRate() }
func (s *mp3Source) Channels() int   { return mp3Channels }

func (s *mp3Source) ReadSamples(dst []float32) (int, error) {
	want := len(dst) / mp3Channels * mp3FrameBytes
	if want == 0 {
		return 0, io.ErrShortBuffer
	}
	if cap(s.buf) < want {
		s.buf = make([]byte, want)
	}

	n, err := io.ReadFull(s.dec, s.buf[:want])
	if errors.Is(err, io.ErrUnexpectedEOF) {
		err = nil
	}
	n -= n % mp3FrameBytes
	if n == 0 {
		if err == nil {
			err = io.EOF
		}
		return 0, err
	}

	samples := n / 2
	for i := 0; i < samples; i++ {
		v := int16(uint16(s.buf[2*i]) | uint16(s.buf[2*i+1])<<8)
		dst[i] = float32(v) / 32768
	}
	return samples, nil
}

func openMP3(f *os.File) (Source, error) {
	dec, err := gomp3.NewDecoder(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	return &mp3Source{fileSource: fileSource{f: f}, dec: dec}, nil
}

func inspectMP3(f *os.File) (Info, error) {
	dec, err := gomp3.NewDecoder(f)
	if err != nil {
		return Info{}, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	length := dec.Length()
	if length <= 0 {
		return Info{}, fmt.Errorf("%w: mp3 length unknown", ErrUnsupported)
	}
	frames := length / mp3FrameBytes
	return Info{
		DurationSec: float64(frames) / float64(dec.SampleRate()),
		SampleRate:  dec.SampleRate(),
		Channels:    mp3Channels,
	}, nil
}
