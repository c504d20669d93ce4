// Package waveform extracts fixed-length RMS peak envelopes from media.
package waveform

import (
	"context"
	"errors"
	"io"

	"go.uber.org/zap"

	"github.com/satindergrewal/wavepeek/internal/probe"
)

const (
	// DefaultSamples is the peak count used when a caller does not pick one.
	DefaultSamples = 1200
	// PeakTypeRMS tags peaks computed as windowed root-mean-square.
	PeakTypeRMS = "rms"

	chunkSize = 64 * 1024
)

// Metadata is the waveform handed back to callers.
type Metadata struct {
	DurationMs int64     `json:"durationMs"`
	Samples    int       `json:"samples"`
	PeakType   string    `json:"peakType"`
	Peaks      []float64 `json:"peaks"`
}

// Decoder opens a mono f32le sample stream for a resolved input. Closing the
// stream releases everything Open acquired and must be safe to call more
// than once.
type Decoder interface {
	Open(ctx context.Context, input string) (io.ReadCloser, error)
}

// Reduce reads src until target points are emitted or the stream ends and
// returns the normalized peaks. Read errors end consumption early but are
// not returned; whatever was accumulated is still reduced.
func Reduce(src io.Reader, res probe.Result, target int, logger *zap.SugaredLogger) []float64 {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	r := NewReducer(res, target)
	buf := make([]byte, chunkSize)

	for !r.Full() {
		n, err := src.Read(buf)
		if n > 0 {
			r.Feed(buf[:n])
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				logger.Warnw("decode stream read failed", "error", err, "points", len(r.Points()))
			}
			break
		}
	}

	if r.Full() {
		logger.Debugw("waveform target reached, cancelling decode", "points", len(r.Points()))
	}
	return r.Peaks()
}
