package audio

import (
	"fmt"
	"io"
	"os"

	"github.com/jfreymuth/oggvorbis"
)

type vorbisSource struct {
	fileSource
	dec *oggvorbis.Reader
}

func (s *vorbisSource) SampleRate() int { return s.dec.SampleRate() }
func (s *vorbisSource) Channels() int   { return s.dec.Channels() }

func (s *vorbisSource) ReadSamples(dst []float32) (int, error) {
	channels := s.dec.Channels()
	want := len(dst) - len(dst)%channels
	if want == 0 {
		return 0, io.ErrShortBuffer
	}
	for {
		n, err := s.dec.Read(dst[:want])
		n -= n % channels
		if n > 0 || err != nil {
			return n, err
		}
	}
}

func openVorbis(f *os.File) (Source, error) {
	dec, err := oggvorbis.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	return &vorbisSource{fileSource: fileSource{f: f}, dec: dec}, nil
}

func inspectVorbis(f *os.File) (Info, error) {
	dec, err := oggvorbis.NewReader(f)
	if err != nil {
		return Info{}, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	length := dec.Length()
	if length <= 0 {
		return Info{}, fmt.Errorf("%w: vorbis length unknown", ErrUnsupported)
	}
	return Info{
		DurationSec: float64(length) / float64(dec.SampleRate()),
		SampleRate:  dec.SampleRate(),
		Channels:    dec.Channels(),
	}, nil
}
