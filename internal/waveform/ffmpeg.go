package waveform

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// waitDelay bounds how long Close waits for ffmpeg's stderr to drain after
// the process is gone.
const waitDelay = 5 * time.Second

// FFmpeg decodes inputs to mono f32le by running ffmpeg with stdout piped
// back to us.
type FFmpeg struct {
	Bin    string // defaults to "ffmpeg"
	Logger *zap.SugaredLogger
}

// Args returns the ffmpeg argument list for input.
func (d FFmpeg) Args(input string) []string {
	return []string{
		"-v", "error",
		"-nostdin",
		"-i", input,
		"-vn",
		"-ac", "1",
		"-f", "f32le",
		"-acodec", "pcm_f32le",
		"pipe:1",
	}
}

// Open starts ffmpeg. The returned stream's Close kills ffmpeg if it is still
// running, closes stdout and reaps the process.
func (d FFmpeg) Open(ctx context.Context, input string) (io.ReadCloser, error) {
	bin := d.Bin
	if bin == "" {
		bin = "ffmpeg"
	}
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	cmd := exec.CommandContext(ctx, bin, d.Args(input)...) //nolint:gosec
	cmd.WaitDelay = waitDelay
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg stdout pipe: %w", err)
	}
	p := &process{cmd: cmd, stdout: stdout, input: input, logger: logger}
	cmd.Stderr = &p.stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("ffmpeg start %s: %w", input, err)
	}
	return p, nil
}

// process is a running ffmpeg whose stdout is the sample stream.
type process struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
	stderr bytes.Buffer
	input  string
	logger *zap.SugaredLogger

	drained bool
	once    sync.Once
}

func (p *process) Read(b []byte) (int, error) {
	n, err := p.stdout.Read(b)
	if errors.Is(err, io.EOF) {
		p.drained = true
	}
	return n, err
}

func (p *process) Close() error {
	p.once.Do(func() {
		// Stopped before EOF: either enough windows were collected or the
		// read failed. Either way ffmpeg has nothing more to give us.
		killed := false
		if !p.drained {
			if err := p.cmd.Process.Kill(); err == nil {
				killed = true
			}
		}
		p.stdout.Close()

		err := p.cmd.Wait()
		switch {
		case killed:
			p.logger.Debugw("ffmpeg stopped early", "input", p.input)
		case err != nil:
			p.logger.Warnw("ffmpeg exited with error",
				"input", p.input,
				"error", err,
				"stderr", strings.TrimSpace(p.stderr.String()),
			)
		}
	})
	return nil
}
