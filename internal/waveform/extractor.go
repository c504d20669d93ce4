package waveform

import (
	"context"

	"go.uber.org/zap"

	"github.com/satindergrewal/wavepeek/internal/media"
	"github.com/satindergrewal/wavepeek/internal/probe"
)

// Extractor runs resolve, probe and reduce for one media reference.
type Extractor struct {
	prober  probe.Prober
	decoder Decoder
	resolve func(string) string
	logger  *zap.SugaredLogger
}

// NewExtractor wires a prober and decoder. References are resolved against
// the process working directory unless SetResolver overrides it.
func NewExtractor(p probe.Prober, d Decoder, logger *zap.SugaredLogger) *Extractor {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Extractor{
		prober:  p,
		decoder: d,
		resolve: media.Resolve,
		logger:  logger,
	}
}

// SetResolver replaces the reference resolver.
func (e *Extractor) SetResolver(fn func(string) string) {
	e.resolve = fn
}

// Compute extracts a waveform with the given number of peaks (DefaultSamples
// when samples < 1). The bool is false when the media could not be probed;
// that is an expected outcome for unreadable or non-audio inputs. Decode
// problems still produce a waveform, with all peaks at zero.
func (e *Extractor) Compute(ctx context.Context, ref string, samples int) (Metadata, bool) {
	if samples < 1 {
		samples = DefaultSamples
	}
	input := e.resolve(ref)

	res, err := e.prober.Probe(ctx, input)
	if err == nil {
		err = res.Validate()
	}
	if err != nil {
		e.logger.Warnw("probe failed", "input", input, "error", err)
		return Metadata{}, false
	}

	return Metadata{
		DurationMs: res.DurationMs(),
		Samples:    samples,
		PeakType:   PeakTypeRMS,
		Peaks:      e.reduce(ctx, input, res, samples),
	}, true
}

func (e *Extractor) reduce(ctx context.Context, input string, res probe.Result, samples int) []float64 {
	stream, err := e.decoder.Open(ctx, input)
	if err != nil {
		e.logger.Warnw("decode failed to start", "input", input, "error", err)
		return make([]float64, samples)
	}
	defer stream.Close()

	return Reduce(stream, res, samples, e.logger)
}
