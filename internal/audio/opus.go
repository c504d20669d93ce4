package audio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/pion/webrtc/v4/pkg/media/oggreader"
	"gopkg.in/hraban/opus.v2"
)

// oggHeaderLen is the fixed part of an Ogg page header; its last byte is the
// segment count.
const oggHeaderLen = 27

var opusTags = []byte("OpusTags")

// opusSource decodes Ogg Opus packet by packet into mono float samples.
// Packets that fail to decode are skipped.
type opusSource struct {
	fileSource
	tap     *pageTap
	ogg     *oggreader.OggReader
	dec     *opus.Decoder
	preSkip int
	packets [][]byte
	partial []byte
	pcm     []float32
	pending []float32
}

func (s *opusSource) SampleRate() int { return OpusSampleRate }
func (s *opusSource) Channels() int   { return 1 }

func (s *opusSource) ReadSamples(dst []float32) (int, error) {
	for len(s.pending) == 0 {
		if len(s.packets) == 0 {
			if err := s.nextPage(); err != nil {
				return 0, err
			}
			continue
		}
		pkt := s.packets[0]
		s.packets = s.packets[1:]
		if len(pkt) == 0 || bytes.HasPrefix(pkt, opusTags) {
			continue
		}

		n, err := s.dec.DecodeFloat32(pkt, s.pcm)
		if err != nil {
			continue
		}
		frame := s.pcm[:n]
		if s.preSkip > 0 {
			drop := min(s.preSkip, len(frame))
			frame = frame[drop:]
			s.preSkip -= drop
		}
		s.pending = frame
	}

	n := copy(dst, s.pending)
	s.pending = s.pending[n:]
	return n, nil
}

func (s *opusSource) nextPage() error {
	s.tap.reset()
	payload, _, err := s.ogg.ParseNextPage()
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return io.EOF
		}
		return err
	}
	s.packets, s.partial = splitPackets(s.tap.lacing(), payload, s.partial)
	return nil
}

// pageTap records the raw bytes oggreader consumes for one page.
// oggreader returns only the joined payload, and the segment table is needed
// to find packet boundaries inside it.
type pageTap struct {
	r   io.Reader
	raw []byte
}

func (p *pageTap) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	p.raw = append(p.raw, b[:n]...)
	return n, err
}

func (p *pageTap) reset() { p.raw = p.raw[:0] }

// lacing returns the segment table of the page read since the last reset.
func (p *pageTap) lacing() []byte {
	if len(p.raw) < oggHeaderLen {
		return nil
	}
	end := oggHeaderLen + int(p.raw[oggHeaderLen-1])
	if len(p.raw) < end {
		return nil
	}
	return p.raw[oggHeaderLen:end]
}

// splitPackets cuts a page payload into packets using its lacing values.
// partial is the unfinished packet carried over from the previous page; the
// returned rest is the packet still open at the end of this page.
func splitPackets(lacing, payload, partial []byte) (packets [][]byte, rest []byte) {
	if lacing == nil {
		return [][]byte{append(partial, payload...)}, nil
	}
	start, off := 0, 0
	for _, l := range lacing {
		off = min(off+int(l), len(payload))
		if l == 255 {
			continue
		}
		pkt := payload[start:off]
		if partial != nil {
			pkt = append(partial, pkt...)
			partial = nil
		}
		packets = append(packets, pkt)
		start = off
	}
	return packets, append(partial, payload[start:off]...)
}

func openOpus(f *os.File) (Source, error) {
	tap := &pageTap{r: f}
	r, head, err := oggreader.NewWith(tap)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	// libopus downmixes stereo streams when asked for one channel.
	dec, err := opus.NewDecoder(OpusSampleRate, 1)
	if err != nil {
		return nil, fmt.Errorf("opus decoder: %w", err)
	}
	return &opusSource{
		fileSource: fileSource{f: f},
		tap:        tap,
		ogg:        r,
		dec:        dec,
		preSkip:    int(head.PreSkip),
		pcm:        make([]float32, MaxOpusFrame),
	}, nil
}

// inspectOpus reads the duration from the last page's granule position,
// which counts 48 kHz samples including the encoder pre-skip.
func inspectOpus(f *os.File) (Info, error) {
	r, head, err := oggreader.NewWith(f)
	if err != nil {
		return Info{}, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}

	var granule uint64
	for {
		_, hdr, err := r.ParseNextPage()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				break
			}
			return Info{}, err
		}
		if hdr.GranulePosition != math.MaxUint64 {
			granule = hdr.GranulePosition
		}
	}

	samples := int64(granule) - int64(head.PreSkip)
	if samples <= 0 {
		return Info{}, fmt.Errorf("%w: opus stream has no audio", ErrUnsupported)
	}
	return Info{
		DurationSec: float64(samples) / OpusSampleRate,
		SampleRate:  OpusSampleRate,
		Channels:    int(head.Channels),
	}, nil
}
