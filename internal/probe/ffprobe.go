package probe

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// FFprobe runs ffprobe restricted to the first audio stream's sample rate and
// the container duration, with a JSON report on stdout.
type FFprobe struct {
	Bin string // defaults to "ffprobe"
}

// Args returns the ffprobe argument list for input.
func (p FFprobe) Args(input string) []string {
	return []string{
		"-v", "error",
		"-select_streams", "a:0",
		"-show_entries", "stream=sample_rate:format=duration",
		"-of", "json",
		input,
	}
}

func (p FFprobe) Probe(ctx context.Context, input string) (Result, error) {
	bin := p.Bin
	if bin == "" {
		bin = "ffprobe"
	}

	cmd := exec.CommandContext(ctx, bin, p.Args(input)...) //nolint:gosec
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return Result{}, &Error{Input: input, Stderr: strings.TrimSpace(stderr.String()), Err: err}
	}

	res, err := Parse(stdout.Bytes())
	if err != nil {
		return Result{}, fmt.Errorf("probe %s: %w", input, err)
	}
	return res, nil
}
