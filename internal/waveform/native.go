package waveform

import (
	"context"
	"fmt"
	"io"

	"github.com/satindergrewal/wavepeek/internal/audio"
	"github.com/satindergrewal/wavepeek/internal/media"
)

// Native decodes local files in-process and serves the same mono f32le
// stream ffmpeg would.
type Native struct{}

func (Native) Open(ctx context.Context, input string) (io.ReadCloser, error) {
	if media.IsURL(input) {
		return nil, fmt.Errorf("native decode %s: remote inputs need the ffmpeg backend", input)
	}
	src, err := audio.Open(input)
	if err != nil {
		return nil, err
	}
	return audio.NewPCMStream(ctx, src), nil
}
