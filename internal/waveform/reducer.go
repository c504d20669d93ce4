package waveform

import (
	"encoding/binary"
	"math"

	"github.com/satindergrewal/wavepeek/internal/probe"
)

// SampleBytes is the width of one f32le sample on the decode stream.
const SampleBytes = 4

// window accumulates squared samples until windowSize samples are seen.
type window struct {
	sumSquares float64
	count      int
}

// Reducer turns a mono f32le byte stream into at most target RMS points.
// Chunks are fed in arrival order; the stream's chunking does not need to
// line up with sample boundaries.
type Reducer struct {
	target     int
	windowSize int

	carry    [SampleBytes]byte
	carryLen int

	win    window
	points []float64
}

// WindowSize is max(1, floor(floor(duration*rate) / target)).
func WindowSize(res probe.Result, target int) int {
	if target < 1 {
		target = 1
	}
	size := res.TotalSamples() / int64(target)
	switch {
	case size < 1:
		return 1
	case size > math.MaxInt:
		return math.MaxInt
	}
	return int(size)
}

// NewReducer sizes windows from the probe so target windows span the media.
func NewReducer(res probe.Result, target int) *Reducer {
	if target < 1 {
		target = DefaultSamples
	}
	return &Reducer{
		target:     target,
		windowSize: WindowSize(res, target),
		points:     make([]float64, 0, target),
	}
}

// Full reports whether target points have been emitted. Once full, further
// input is ignored and the caller should stop reading.
func (r *Reducer) Full() bool {
	return len(r.points) >= r.target
}

// Feed consumes one chunk. Up to three trailing bytes that do not complete a
// sample are carried into the next call.
func (r *Reducer) Feed(chunk []byte) {
	if r.Full() {
		return
	}

	if r.carryLen > 0 {
		need := SampleBytes - r.carryLen
		if len(chunk) < need {
			r.carryLen += copy(r.carry[r.carryLen:], chunk)
			return
		}
		copy(r.carry[r.carryLen:], chunk[:need])
		r.carryLen = 0
		chunk = chunk[need:]
		if r.add(decodeSample(r.carry[:])) {
			return
		}
	}

	for len(chunk) >= SampleBytes {
		if r.add(decodeSample(chunk[:SampleBytes])) {
			return
		}
		chunk = chunk[SampleBytes:]
	}
	r.carryLen = copy(r.carry[:], chunk)
}

// add folds one sample into the current window and reports whether the
// reducer became full.
func (r *Reducer) add(s float32) bool {
	v := float64(s)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		v = 0
	}
	r.win.sumSquares += v * v
	r.win.count++
	if r.win.count == r.windowSize {
		r.emit()
	}
	return r.Full()
}

func (r *Reducer) emit() {
	r.points = append(r.points, math.Sqrt(r.win.sumSquares/float64(r.win.count)))
	r.win = window{}
}

// Points returns the raw RMS values emitted so far.
func (r *Reducer) Points() []float64 {
	return r.points
}

// Peaks flushes a non-empty partial window (when short of target), pads with
// zeros and normalizes to the loudest point. The result always has target
// entries in [0, 1].
func (r *Reducer) Peaks() []float64 {
	if !r.Full() && r.win.count > 0 {
		r.emit()
	}
	return Normalize(r.points, r.target)
}

// Normalize scales points by their maximum into a slice of length n,
// zero-padded. An all-zero input yields all zeros.
func Normalize(points []float64, n int) []float64 {
	peaks := make([]float64, n)

	var maxRMS float64
	for _, p := range points {
		if p > maxRMS {
			maxRMS = p
		}
	}
	if maxRMS <= 0 {
		return peaks
	}

	for i := 0; i < n && i < len(points); i++ {
		peaks[i] = math.Min(1, points[i]/maxRMS)
	}
	return peaks
}

func decodeSample(b []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b))
}
