// SPDX-License-Identifier: MIT

// Package beats detects beat boundaries in decoded audio and slices songs
// into per-beat segments that effects can rearrange.
package beats

import (
	"fmt"
	"sort"
)

// AnalysisVersion is bumped whenever the detector changes in a way that
// invalidates cached results.
const AnalysisVersion = 1

// Analysis is the cacheable result of beat detection. Boundaries are frame
// offsets, ascending, always starting at 0 and excluding the final frame
// count, so that consecutive pairs (plus the track end) delimit segments.
type Analysis struct {
	Version    int     `json:"version"`
	SampleRate int     `json:"sample_rate"`
	Channels   int     `json:"channels"`
	Frames     int     `json:"frames"`
	BPM        float64 `json:"bpm"`
	Boundaries []int   `json:"boundaries"`
}

// Validate checks internal consistency of an analysis record, typically one
// loaded from the cache.
func (a Analysis) Validate() error {
	if a.Version != AnalysisVersion {
		return fmt.Errorf("analysis version %d, want %d", a.Version, AnalysisVersion)
	}
	if a.Frames <= 0 {
		return fmt.Errorf("analysis has no frames")
	}
	if len(a.Boundaries) == 0 || a.Boundaries[0] != 0 {
		return fmt.Errorf("boundaries must start at frame 0")
	}
	if !sort.IntsAreSorted(a.Boundaries) {
		return fmt.Errorf("boundaries must be ascending")
	}
	if last := a.Boundaries[len(a.Boundaries)-1]; last >= a.Frames {
		return fmt.Errorf("final boundary %d beyond track end %d", last, a.Frames)
	}
	return nil
}

// Settings carries the client-supplied tempo hints from the request body.
type Settings struct {
	SuggestedBPM float64 `json:"suggested_bpm"`
	Drift        float64 `json:"drift"`
}

// Window is the BPM range the detector searches.
type Window struct {
	MinBPM float64
	MaxBPM float64
}

// DefaultWindow is the search range used when the client gives no hint.
var DefaultWindow = Window{MinBPM: 60, MaxBPM: 300}

const defaultDrift = 15

// Window maps the client settings to a detector window. A suggested BPM
// narrows the search to suggestion ± drift (default 15).
func (s Settings) Window() Window {
	if s.SuggestedBPM <= 0 {
		return DefaultWindow
	}
	drift := s.Drift
	if drift <= 0 {
		drift = defaultDrift
	}
	return Window{MinBPM: s.SuggestedBPM - drift, MaxBPM: s.SuggestedBPM + drift}
}

// Normalize clamps the window into the detector's supported range and fixes
// inverted bounds.
func (w Window) Normalize() Window {
	if w.MinBPM < 1 {
		w.MinBPM = 1
	}
	if w.MaxBPM <= w.MinBPM {
		w.MaxBPM = w.MinBPM + 1
	}
	if w.MaxBPM > 1000 {
		w.MaxBPM = 1000
	}
	return w
}
