package audio

import (
	"bytes"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/hraban/opus.v2"
)

const opusFrame = OpusSampleRate / 50 // 20 ms

// oggCRC is the Ogg page checksum: CRC-32, polynomial 0x04c11db7, no
// reflection, computed with the checksum field zeroed.
func oggCRC(page []byte) uint32 {
	var crc uint32
	for _, b := range page {
		crc ^= uint32(b) << 24
		for i := 0; i < 8; i++ {
			if crc&0x80000000 != 0 {
				crc = crc<<1 ^ 0x04c11db7
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}

func appendPage(dst []byte, seq uint32, flags byte, granule uint64, lacing, payload []byte) []byte {
	page := make([]byte, oggHeaderLen, oggHeaderLen+len(lacing)+len(payload))
	copy(page, "OggS")
	page[5] = flags
	binary.LittleEndian.PutUint64(page[6:], granule)
	binary.LittleEndian.PutUint32(page[14:], 1)
	binary.LittleEndian.PutUint32(page[18:], seq)
	page[26] = byte(len(lacing))
	page = append(page, lacing...)
	page = append(page, payload...)
	binary.LittleEndian.PutUint32(page[22:], oggCRC(page))
	return append(dst, page...)
}

type segment struct {
	value byte
	data  []byte
	last  bool
}

func segments(pkt []byte) []segment {
	var segs []segment
	for len(pkt) >= 255 {
		segs = append(segs, segment{value: 255, data: pkt[:255]})
		pkt = pkt[255:]
	}
	return append(segs, segment{value: byte(len(pkt)), data: pkt, last: true})
}

// encodeTone returns n 20 ms Opus packets of a 440 Hz tone.
func encodeTone(t *testing.T, n int) [][]byte {
	t.Helper()
	enc, err := opus.NewEncoder(OpusSampleRate, 1, opus.AppAudio)
	if err != nil {
		t.Fatalf("opus encoder: %v", err)
	}
	pcm := make([]float32, opusFrame)
	for i := range pcm {
		pcm[i] = 0.5 * float32(math.Sin(2*math.Pi*440*float64(i)/OpusSampleRate))
	}
	packets := make([][]byte, 0, n)
	for range n {
		buf := make([]byte, 4000)
		m, err := enc.EncodeFloat32(pcm, buf)
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		packets = append(packets, buf[:m])
	}
	return packets
}

// writeOggOpus writes a mono Ogg Opus file whose audio pages carry at most
// segsPerPage lacing values, so several packets share a page and packets of
// 255 bytes or more continue onto the next one.
func writeOggOpus(t *testing.T, name string, packets [][]byte, preSkip uint16, segsPerPage int) string {
	t.Helper()
	head := make([]byte, 19)
	copy(head, "OpusHead")
	head[8] = 1
	head[9] = 1
	binary.LittleEndian.PutUint16(head[10:], preSkip)
	binary.LittleEndian.PutUint32(head[12:], OpusSampleRate)
	file := appendPage(nil, 0, 0x02, 0, []byte{byte(len(head))}, head)

	tags := []byte("OpusTags\x04\x00\x00\x00test\x00\x00\x00\x00")
	file = appendPage(file, 1, 0, 0, []byte{byte(len(tags))}, tags)

	var segs []segment
	for _, pkt := range packets {
		segs = append(segs, segments(pkt)...)
	}
	var granule uint64
	continued := false
	seq := uint32(2)
	for i := 0; i < len(segs); i += segsPerPage {
		page := segs[i:min(i+segsPerPage, len(segs))]
		var lacing, payload []byte
		pageGranule := uint64(math.MaxUint64)
		for _, s := range page {
			lacing = append(lacing, s.value)
			payload = append(payload, s.data...)
			if s.last {
				granule += opusFrame
				pageGranule = granule
			}
		}
		var flags byte
		if continued {
			flags |= 0x01
		}
		if i+segsPerPage >= len(segs) {
			flags |= 0x04
		}
		file = appendPage(file, seq, flags, pageGranule, lacing, payload)
		continued = !page[len(page)-1].last
		seq++
	}

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, file, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestInspectOggOpus(t *testing.T) {
	path := writeOggOpus(t, "tone.opus", encodeTone(t, 25), 312, 8)

	info, err := Inspect(path)
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if info.SampleRate != OpusSampleRate {
		t.Errorf("SampleRate = %d, want %d", info.SampleRate, OpusSampleRate)
	}
	if info.Channels != 1 {
		t.Errorf("Channels = %d, want 1", info.Channels)
	}
	if want := float64(25*opusFrame-312) / OpusSampleRate; info.DurationSec != want {
		t.Errorf("DurationSec = %v, want %v", info.DurationSec, want)
	}
}

func TestPCMStreamDecodesOggOpus(t *testing.T) {
	const packets, preSkip = 25, 312
	tone := encodeTone(t, packets)

	tests := []struct {
		name        string
		segsPerPage int
	}{
		{"one segment per page", 1},
		{"several packets per page", 8},
		{"single audio page", 255},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// .ogg goes through the OpusHead sniff.
			path := writeOggOpus(t, "tone.ogg", tone, preSkip, tt.segsPerPage)
			if got, want := monoLength(t, path), packets*opusFrame-preSkip; got != want {
				t.Errorf("mono samples = %d, want %d", got, want)
			}
		})
	}
}

func TestSplitPackets(t *testing.T) {
	long := bytes.Repeat([]byte{'x'}, 255)

	tests := []struct {
		name        string
		lacing      []byte
		payload     []byte
		partial     []byte
		wantPackets []string
		wantRest    []byte
	}{
		{
			name:        "two packets",
			lacing:      []byte{3, 2},
			payload:     []byte("abcde"),
			wantPackets: []string{"abc", "de"},
		},
		{
			name:        "packet over two segments",
			lacing:      []byte{255, 2},
			payload:     append(append([]byte{}, long...), "yz"...),
			wantPackets: []string{string(long) + "yz"},
		},
		{
			name:        "packet left open",
			lacing:      []byte{2, 255},
			payload:     append([]byte("ab"), long...),
			wantPackets: []string{"ab"},
			wantRest:    long,
		},
		{
			name:        "carried packet completes",
			lacing:      []byte{1, 3},
			payload:     []byte("zabc"),
			partial:     []byte("xy"),
			wantPackets: []string{"xyz", "abc"},
		},
		{
			name:     "carried packet still open",
			lacing:   []byte{255},
			payload:  long,
			partial:  []byte("xy"),
			wantRest: append([]byte("xy"), long...),
		},
		{
			name:        "empty packet",
			lacing:      []byte{0},
			payload:     []byte{},
			wantPackets: []string{""},
		},
		{
			name:        "no segment table",
			payload:     []byte("whole"),
			wantPackets: []string{"whole"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			packets, rest := splitPackets(tt.lacing, tt.payload, tt.partial)
			if len(packets) != len(tt.wantPackets) {
				t.Fatalf("got %d packets, want %d", len(packets), len(tt.wantPackets))
			}
			for i, want := range tt.wantPackets {
				if string(packets[i]) != want {
					t.Errorf("packet %d = %q, want %q", i, packets[i], want)
				}
			}
			if !bytes.Equal(rest, tt.wantRest) {
				t.Errorf("rest = %q, want %q", rest, tt.wantRest)
			}
		})
	}
}
