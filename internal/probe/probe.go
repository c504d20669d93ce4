// Package probe reads container duration and source sample rate for a media
// input before it is decoded.
package probe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	// ErrFailed marks an inspection that could not run or exited non-zero.
	ErrFailed = errors.New("probe failed")
	// ErrInvalid marks a report that was missing fields or held values that
	// are not finite and positive.
	ErrInvalid = errors.New("invalid probe result")
)

// Result is a validated probe: both fields are finite and > 0.
type Result struct {
	DurationSec float64
	SampleRate  float64
}

// Validate reports whether r can drive the reducer.
func (r Result) Validate() error {
	if !positiveFinite(r.DurationSec) {
		return fmt.Errorf("%w: duration %v", ErrInvalid, r.DurationSec)
	}
	if !positiveFinite(r.SampleRate) {
		return fmt.Errorf("%w: sample rate %v", ErrInvalid, r.SampleRate)
	}
	return nil
}

// TotalSamples is floor(duration * sample rate), saturating at MaxInt64.
func (r Result) TotalSamples() int64 {
	return toInt64(math.Floor(r.DurationSec * r.SampleRate))
}

// DurationMs is the duration rounded to whole milliseconds.
func (r Result) DurationMs() int64 {
	return toInt64(math.Round(r.DurationSec * 1000))
}

// toInt64 clamps v into the int64 range before converting; float-to-int
// conversion of out-of-range values is implementation-defined.
func toInt64(v float64) int64 {
	switch {
	case v >= math.MaxInt64:
		return math.MaxInt64
	case v <= math.MinInt64:
		return math.MinInt64
	}
	return int64(v)
}

// Prober inspects a resolved input.
type Prober interface {
	Probe(ctx context.Context, input string) (Result, error)
}

// Error carries the captured stderr of a failed inspection process.
type Error struct {
	Input  string
	Stderr string
	Err    error
}

func (e *Error) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("probe %s: %v: %s", e.Input, e.Err, e.Stderr)
	}
	return fmt.Sprintf("probe %s: %v", e.Input, e.Err)
}

func (e *Error) Unwrap() []error { return []error{ErrFailed, e.Err} }

// report mirrors the subset of ffprobe's JSON writer output we ask for.
type report struct {
	Streams []struct {
		SampleRate number `json:"sample_rate"`
	} `json:"streams"`
	Format struct {
		Duration number `json:"duration"`
	} `json:"format"`
}

// number accepts both JSON strings ("44100") and JSON numbers (44100).
// ffprobe quotes numeric fields; other inspectors may not.
type number struct {
	value float64
	set   bool
}

func (n *number) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		return nil
	}
	if unq, err := strconv.Unquote(s); err == nil {
		s = strings.TrimSpace(unq)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("parse number %q: %w", s, err)
	}
	n.value, n.set = v, true
	return nil
}

// Parse extracts format.duration and streams[0].sample_rate from a JSON
// report and validates them.
func Parse(data []byte) (Result, error) {
	var rep report
	if err := json.Unmarshal(data, &rep); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if len(rep.Streams) == 0 {
		return Result{}, fmt.Errorf("%w: no audio stream", ErrInvalid)
	}
	if !rep.Format.Duration.set {
		return Result{}, fmt.Errorf("%w: missing format.duration", ErrInvalid)
	}
	if !rep.Streams[0].SampleRate.set {
		return Result{}, fmt.Errorf("%w: missing streams[0].sample_rate", ErrInvalid)
	}

	res := Result{
		DurationSec: rep.Format.Duration.value,
		SampleRate:  rep.Streams[0].SampleRate.value,
	}
	if err := res.Validate(); err != nil {
		return Result{}, err
	}
	return res, nil
}

func positiveFinite(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
