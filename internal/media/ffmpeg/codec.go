// SPDX-License-Identifier: MIT

// Package ffmpeg decodes and encodes audio by driving ffmpeg and ffprobe
// as subprocesses. All audio flows through raw s16le PCM pipes so no
// intermediate files are written.
package ffmpeg

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/dhsavell/beat-func/internal/audio"
	"github.com/dhsavell/beat-func/internal/log"
)

// stderrTail is how many stderr lines are attached to subprocess errors.
const stderrTail = 8

// Codec runs ffmpeg and ffprobe for a fixed PCM working format.
type Codec struct {
	ffmpegPath  string
	ffprobePath string
	format      audio.Format
	logger      zerolog.Logger
}

// NewCodec returns a Codec using the given binary paths. Empty paths fall
// back to "ffmpeg" and "ffprobe" resolved via PATH.
func NewCodec(ffmpegPath, ffprobePath string, format audio.Format) (*Codec, error) {
	if err := format.Validate(); err != nil {
		return nil, err
	}
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Codec{
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		format:      format,
		logger:      log.WithComponent("ffmpeg"),
	}, nil
}

// Format returns the PCM working format of the codec.
func (c *Codec) Format() audio.Format {
	return c.format
}

// Decode converts the audio file at path into a PCM clip.
func (c *Codec) Decode(ctx context.Context, path string) (audio.Clip, error) {
	args, err := BuildDecodeArgs(path, c.format)
	if err != nil {
		return audio.Clip{}, err
	}

	ring := NewLineRing(50)
	cmd := exec.CommandContext(ctx, c.ffmpegPath, args...)
	cmd.Stderr = ring

	start := time.Now()
	raw, err := cmd.Output()
	if err != nil {
		return audio.Clip{}, fmt.Errorf("ffmpeg decode %s: %w (%s)", path, err, ring.Tail(stderrTail))
	}

	samples, err := bytesToSamples(raw)
	if err != nil {
		return audio.Clip{}, fmt.Errorf("ffmpeg decode %s: %w", path, err)
	}

	clip := audio.Clip{Format: c.format, Samples: samples}
	c.logger.Debug().
		Str(log.FieldEvent, "ffmpeg.decode").
		Str(log.FieldPath, path).
		Int("frames", clip.Frames()).
		Dur(log.FieldDuration, time.Since(start)).
		Msg("decoded audio to pcm")
	return clip, nil
}

// EncodeMP3 encodes the clip to MP3 and writes the result to w. The PCM
// feed and the MP3 read run concurrently so ffmpeg never blocks on a full
// pipe.
func (c *Codec) EncodeMP3(ctx context.Context, clip audio.Clip, w io.Writer) error {
	if clip.Format != c.format {
		return fmt.Errorf("clip format %dHz/%dch does not match codec format %dHz/%dch",
			clip.Format.SampleRate, clip.Format.Channels, c.format.SampleRate, c.format.Channels)
	}

	args, err := BuildEncodeArgs(c.format)
	if err != nil {
		return err
	}

	ring := NewLineRing(50)
	cmd := exec.CommandContext(ctx, c.ffmpegPath, args...)
	cmd.Stderr = ring

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("ffmpeg encode: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("ffmpeg encode: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("ffmpeg encode: %w", err)
	}

	start := time.Now()
	g, _ := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer stdin.Close()
		if _, err := stdin.Write(samplesToBytes(clip.Samples)); err != nil {
			return fmt.Errorf("write pcm: %w", err)
		}
		return nil
	})

	var written int64
	g.Go(func() error {
		n, err := io.Copy(w, stdout)
		written = n
		if err != nil {
			return fmt.Errorf("read mp3: %w", err)
		}
		return nil
	})

	pipeErr := g.Wait()
	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg encode: %w (%s)", err, ring.Tail(stderrTail))
	}
	if pipeErr != nil {
		return fmt.Errorf("ffmpeg encode: %w", pipeErr)
	}

	c.logger.Debug().
		Str(log.FieldEvent, "ffmpeg.encode").
		Int64("bytes", written).
		Dur(log.FieldDuration, time.Since(start)).
		Msg("encoded pcm to mp3")
	return nil
}

type probeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// ProbeDuration reads the container duration of the file at path without
// decoding it.
func (c *Codec) ProbeDuration(ctx context.Context, path string) (time.Duration, error) {
	args, err := BuildProbeArgs(path)
	if err != nil {
		return 0, err
	}

	ring := NewLineRing(50)
	cmd := exec.CommandContext(ctx, c.ffprobePath, args...)
	cmd.Stderr = ring

	raw, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: %w (%s)", path, err, ring.Tail(stderrTail))
	}

	var out probeOutput
	if err := json.Unmarshal(bytes.TrimSpace(raw), &out); err != nil {
		return 0, fmt.Errorf("ffprobe %s: parse output: %w", path, err)
	}
	if out.Format.Duration == "" {
		return 0, fmt.Errorf("ffprobe %s: no duration in output", path)
	}

	seconds, err := strconv.ParseFloat(out.Format.Duration, 64)
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: parse duration %q: %w", path, out.Format.Duration, err)
	}

	return time.Duration(seconds * float64(time.Second)), nil
}

// bytesToSamples reinterprets little-endian s16le bytes as samples.
func bytesToSamples(raw []byte) ([]int16, error) {
	if len(raw)%2 != 0 {
		return nil, fmt.Errorf("pcm stream has odd length %d", len(raw))
	}
	samples := make([]int16, len(raw)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(raw[2*i:]))
	}
	return samples, nil
}

// samplesToBytes serializes samples as little-endian s16le bytes.
func samplesToBytes(samples []int16) []byte {
	raw := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(raw[2*i:], uint16(s))
	}
	return raw
}
