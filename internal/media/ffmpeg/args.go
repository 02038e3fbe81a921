// SPDX-License-Identifier: MIT

package ffmpeg

import (
	"fmt"
	"strconv"

	"github.com/dhsavell/beat-func/internal/audio"
)

// defaultBitrate is the MP3 output bitrate.
const defaultBitrate = "192k"

// BuildDecodeArgs constructs the ffmpeg arguments for decoding an input
// file to raw signed 16-bit little-endian PCM on stdout. No shell is
// involved, so paths are passed through verbatim.
func BuildDecodeArgs(inputPath string, format audio.Format) ([]string, error) {
	if inputPath == "" {
		return nil, fmt.Errorf("missing input path")
	}
	if err := format.Validate(); err != nil {
		return nil, err
	}

	return []string{
		"-nostdin",
		"-hide_banner",
		"-loglevel", "error",
		"-nostats",
		"-i", inputPath,
		"-map", "0:a:0",
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"-ar", strconv.Itoa(format.SampleRate),
		"-ac", strconv.Itoa(format.Channels),
		"pipe:1",
	}, nil
}

// BuildEncodeArgs constructs the ffmpeg arguments for encoding raw PCM
// from stdin to MP3 on stdout.
func BuildEncodeArgs(format audio.Format) ([]string, error) {
	if err := format.Validate(); err != nil {
		return nil, err
	}

	return []string{
		"-hide_banner",
		"-loglevel", "error",
		"-nostats",
		"-f", "s16le",
		"-ar", strconv.Itoa(format.SampleRate),
		"-ac", strconv.Itoa(format.Channels),
		"-i", "pipe:0",
		"-f", "mp3",
		"-b:a", defaultBitrate,
		"pipe:1",
	}, nil
}

// BuildProbeArgs constructs the ffprobe arguments for reading container
// duration as JSON.
func BuildProbeArgs(inputPath string) ([]string, error) {
	if inputPath == "" {
		return nil, fmt.Errorf("missing input path")
	}

	return []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "json",
		inputPath,
	}, nil
}
