// Package audio decodes local media files in-process, as an alternative to
// shelling out to ffmpeg/ffprobe.
package audio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const (
	// OpusSampleRate is the rate libopus always decodes at here.
	OpusSampleRate = 48000
	// MaxOpusFrame is the largest Opus frame (120 ms) per channel at 48 kHz.
	MaxOpusFrame = OpusSampleRate * 120 / 1000

	readFrames = 4096 // frames requested per ReadSamples call
)

var (
	// ErrUnsupported is returned for containers or encodings this package
	// cannot decode.
	ErrUnsupported = errors.New("unsupported audio format")
)

// Source yields interleaved float32 samples in [-1, 1].
type Source interface {
	SampleRate() int
	Channels() int
	// ReadSamples fills dst with interleaved samples and returns the number
	// of values written, always a whole number of frames. It returns io.EOF
	// once the stream is exhausted.
	ReadSamples(dst []float32) (int, error)
	Close() error
}

// Info describes a file without decoding its samples.
type Info struct {
	DurationSec float64
	SampleRate  int
	Channels    int
}

type format struct {
	open    func(f *os.File) (Source, error)
	inspect func(f *os.File) (Info, error)
}

var formats = map[string]format{
	"wav":    {open: openWAV, inspect: inspectWAV},
	"mp3":    {open: openMP3, inspect: inspectMP3},
	"vorbis": {open: openVorbis, inspect: inspectVorbis},
	"opus":   {open: openOpus, inspect: inspectOpus},
}

// Open starts decoding path. The caller owns the returned Source.
func Open(path string) (Source, error) {
	f, fm, err := openFile(path)
	if err != nil {
		return nil, err
	}
	src, err := fm.open(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return src, nil
}

// Inspect reads duration, sample rate and channel count of path.
func Inspect(path string) (Info, error) {
	f, fm, err := openFile(path)
	if err != nil {
		return Info{}, err
	}
	defer f.Close()

	info, err := fm.inspect(f)
	if err != nil {
		return Info{}, fmt.Errorf("inspect %s: %w", path, err)
	}
	return info, nil
}

func openFile(path string) (*os.File, format, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, format{}, err
	}
	key, err := detect(f, path)
	if err != nil {
		f.Close()
		return nil, format{}, err
	}
	return f, formats[key], nil
}

// detect picks a decoder by extension, sniffing Ogg files for an Opus head.
func detect(f *os.File, path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav", ".wave":
		return "wav", nil
	case ".mp3":
		return "mp3", nil
	case ".opus":
		return "opus", nil
	case ".ogg", ".oga":
		head := make([]byte, 64)
		n, err := io.ReadFull(f, head)
		if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
			return "", fmt.Errorf("%w: %s: %v", ErrUnsupported, path, err)
		}
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return "", err
		}
		if bytes.Contains(head[:n], []byte("OpusHead")) {
			return "opus", nil
		}
		return "vorbis", nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupported, path)
}

// fileSource closes the underlying file together with the decoder.
type fileSource struct {
	f *os.File
}

func (s fileSource) Close() error { return s.f.Close() }
