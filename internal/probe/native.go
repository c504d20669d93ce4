package probe

import (
	"context"
	"errors"

	"github.com/satindergrewal/wavepeek/internal/audio"
	"github.com/satindergrewal/wavepeek/internal/media"
)

var errRemoteInput = errors.New("in-process decoding needs a local file")

// Native inspects local files with the in-process decoders instead of ffprobe.
type Native struct{}

func (Native) Probe(_ context.Context, input string) (Result, error) {
	if media.IsURL(input) {
		return Result{}, &Error{Input: input, Err: errRemoteInput}
	}
	info, err := audio.Inspect(input)
	if err != nil {
		return Result{}, &Error{Input: input, Err: err}
	}

	res := Result{DurationSec: info.DurationSec, SampleRate: float64(info.SampleRate)}
	if err := res.Validate(); err != nil {
		return Result{}, err
	}
	return res, nil
}
