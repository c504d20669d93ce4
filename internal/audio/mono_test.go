package audio

import (
	"io"
	"testing"
)

// fakeSource serves a fixed interleaved sample slice, or an endless run of
// 0.5 when endless is set.
type fakeSource struct {
	channels int
	data     []float32
	endless  bool
	closed   chan struct{}
}

func (s *fakeSource) SampleRate() int { return 8000 }
func (s *fakeSource) Channels() int   { return s.channels }

func (s *fakeSource) ReadSamples(dst []float32) (int, error) {
	n := len(dst) - len(dst)%s.channels
	if s.endless {
		for i := range dst[:n] {
			dst[i] = 0.5
		}
		return n, nil
	}
	if len(s.data) == 0 {
		return 0, io.EOF
	}
	n = copy(dst[:n], s.data)
	s.data = s.data[n:]
	return n, nil
}

func newFakeSource(channels int, data []float32) *fakeSource {
	return &fakeSource{channels: channels, data: data, closed: make(chan struct{})}
}

func endlessSource() *fakeSource {
	s := newFakeSource(1, nil)
	s.endless = true
	return s
}

func (s *fakeSource) Close() error {
	close(s.closed)
	return nil
}

func TestMonoMixerAveragesChannels(t *testing.T) {
	src := newFakeSource(2, []float32{1, 0, 0.5, 0.5, -1, 1, 0.25, -0.75})
	m := NewMonoMixer(src)

	dst := make([]float32, 16)
	n, err := m.ReadSamples(dst)
	if err != nil {
		t.Fatalf("ReadSamples: %v", err)
	}
	want := []float32{0.5, 0.5, 0, -0.25}
	if n != len(want) {
		t.Fatalf("n = %d, want %d", n, len(want))
	}
	for i := range want {
		if dst[i] != want[i] {
			t.Errorf("dst[%d] = %v, want %v", i, dst[i], want[i])
		}
	}

	if _, err := m.ReadSamples(dst); err != io.EOF {
		t.Errorf("second read error = %v, want io.EOF", err)
	}
}

func TestMonoMixerPassThrough(t *testing.T) {
	src := newFakeSource(1, []float32{0.1, 0.2, 0.3})
	m := NewMonoMixer(src)
	if m.Channels() != 1 {
		t.Errorf("Channels = %d, want 1", m.Channels())
	}

	dst := make([]float32, 8)
	n, _ := m.ReadSamples(dst)
	if n != 3 || dst[0] != 0.1 || dst[2] != 0.3 {
		t.Errorf("pass-through read n=%d dst=%v", n, dst[:n])
	}
}

func TestMonoMixerThreeChannels(t *testing.T) {
	src := newFakeSource(3, []float32{0.3, 0.6, 0.9})
	m := NewMonoMixer(src)

	dst := make([]float32, 4)
	n, _ := m.ReadSamples(dst)
	if n != 1 {
		t.Fatalf("n = %d, want 1", n)
	}
	if diff := dst[0] - 0.6; diff > 1e-6 || diff < -1e-6 {
		t.Errorf("dst[0] = %v, want 0.6", dst[0])
	}
}
