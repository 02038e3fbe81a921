// SPDX-License-Identifier: MIT

package beats

import (
	"fmt"

	"github.com/dhsavell/beat-func/internal/audio"
	"github.com/dhsavell/beat-func/internal/beats/effects"
)

// Track is a song split into per-beat segments, ready for effects.
type Track struct {
	format   audio.Format
	segments [][]int16
}

// Split slices the clip at the analysis boundaries. The analysis must match
// the clip; a cached analysis for a different decode falls out here.
func Split(clip audio.Clip, a Analysis) (*Track, error) {
	if err := a.Validate(); err != nil {
		return nil, fmt.Errorf("split: %w", err)
	}
	if a.Frames != clip.Frames() {
		return nil, fmt.Errorf("split: analysis covers %d frames, clip has %d", a.Frames, clip.Frames())
	}
	if a.SampleRate != clip.Format.SampleRate || a.Channels != clip.Format.Channels {
		return nil, fmt.Errorf("split: analysis format %d/%dch does not match clip %d/%dch",
			a.SampleRate, a.Channels, clip.Format.SampleRate, clip.Format.Channels)
	}

	ch := clip.Format.Channels
	segments := make([][]int16, 0, len(a.Boundaries))
	for i, start := range a.Boundaries {
		end := clip.Frames()
		if i+1 < len(a.Boundaries) {
			end = a.Boundaries[i+1]
		}
		segments = append(segments, clip.Samples[start*ch:end*ch])
	}
	return &Track{format: clip.Format, segments: segments}, nil
}

// Apply runs one effect over the track's segments.
func (t *Track) Apply(e effects.Effect) {
	t.segments = e.Apply(t.segments, t.format.Channels)
}

// Segments returns the current number of beat segments.
func (t *Track) Segments() int {
	return len(t.segments)
}

// Render concatenates the segments back into a single clip.
func (t *Track) Render() audio.Clip {
	var total int
	for _, seg := range t.segments {
		total += len(seg)
	}
	samples := make([]int16, 0, total)
	for _, seg := range t.segments {
		samples = append(samples, seg...)
	}
	return audio.Clip{Format: t.format, Samples: samples}
}
