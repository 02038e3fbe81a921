// SPDX-License-Identifier: MIT

// Package audio defines the in-memory PCM representation shared by the
// decoder, the beat analyzer and the effects.
package audio

import (
	"fmt"
	"time"
)

// Format describes interleaved signed 16-bit little-endian PCM.
type Format struct {
	SampleRate int
	Channels   int
}

// DefaultFormat is the working format every song is decoded into.
var DefaultFormat = Format{SampleRate: 44100, Channels: 2}

// FrameSize returns the number of samples per frame.
func (f Format) FrameSize() int {
	return f.Channels
}

// FrameDuration converts a frame count to wall-clock duration.
func (f Format) FrameDuration(frames int) time.Duration {
	if f.SampleRate == 0 {
		return 0
	}
	return time.Duration(frames) * time.Second / time.Duration(f.SampleRate)
}

// Validate checks the format is usable.
func (f Format) Validate() error {
	if f.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive, got %d", f.SampleRate)
	}
	if f.Channels < 1 || f.Channels > 2 {
		return fmt.Errorf("channel count must be 1 or 2, got %d", f.Channels)
	}
	return nil
}

// Clip is a decoded song: interleaved samples in the given format.
type Clip struct {
	Format  Format
	Samples []int16
}

// Frames returns the number of frames in the clip.
func (c Clip) Frames() int {
	if c.Format.Channels == 0 {
		return 0
	}
	return len(c.Samples) / c.Format.Channels
}

// Duration returns the clip length as wall-clock time.
func (c Clip) Duration() time.Duration {
	return c.Format.FrameDuration(c.Frames())
}

// Mono folds the clip down to a single channel, averaging samples of each
// frame. The analyzer operates on the mono signal.
func (c Clip) Mono() []int16 {
	if c.Format.Channels == 1 {
		return c.Samples
	}
	frames := c.Frames()
	out := make([]int16, frames)
	for i := 0; i < frames; i++ {
		var sum int
		for ch := 0; ch < c.Format.Channels; ch++ {
			sum += int(c.Samples[i*c.Format.Channels+ch])
		}
		out[i] = int16(sum / c.Format.Channels)
	}
	return out
}
