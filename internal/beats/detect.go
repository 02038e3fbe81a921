// SPDX-License-Identifier: MIT

package beats

import (
	"fmt"
	"math"

	"github.com/dhsavell/beat-func/internal/audio"
)

// Detector tuning. A 512-frame hop at 44.1kHz gives ~86 envelope points per
// second, plenty of resolution for the 60..300 BPM range.
const (
	envelopeWindow = 1024
	envelopeHop    = 512
)

// Detect locates beat boundaries in the clip by onset-energy analysis:
// a short-time energy flux envelope is autocorrelated to find the dominant
// period inside the BPM window, then the grid phase is chosen to align with
// the strongest onsets.
func Detect(clip audio.Clip, win Window) (Analysis, error) {
	if err := clip.Format.Validate(); err != nil {
		return Analysis{}, fmt.Errorf("detect: %w", err)
	}
	frames := clip.Frames()
	if frames == 0 {
		return Analysis{}, fmt.Errorf("detect: empty clip")
	}
	win = win.Normalize()

	flux := onsetFlux(clip.Mono())

	rate := float64(clip.Format.SampleRate)
	// Period bounds in envelope hops.
	lagMin := int(math.Floor(rate * 60 / (win.MaxBPM * envelopeHop)))
	lagMax := int(math.Ceil(rate * 60 / (win.MinBPM * envelopeHop)))
	if lagMin < 1 {
		lagMin = 1
	}

	analysis := Analysis{
		Version:    AnalysisVersion,
		SampleRate: clip.Format.SampleRate,
		Channels:   clip.Format.Channels,
		Frames:     frames,
	}

	if len(flux) <= 2*lagMin {
		// Track shorter than two beats at the fastest tempo: one segment.
		analysis.BPM = win.MinBPM
		analysis.Boundaries = []int{0}
		return analysis, nil
	}
	if lagMax >= len(flux) {
		lagMax = len(flux) - 1
	}

	lag := bestLag(flux, lagMin, lagMax)
	analysis.BPM = rate * 60 / float64(lag*envelopeHop)

	period := lag * envelopeHop
	offset := bestPhase(flux, lag) * envelopeHop

	boundaries := []int{0}
	for b := offset; b < frames; b += period {
		if b == 0 {
			continue
		}
		boundaries = append(boundaries, b)
	}
	analysis.Boundaries = boundaries
	return analysis, nil
}

// onsetFlux computes the positive energy difference between consecutive
// analysis windows of the mono signal.
func onsetFlux(mono []int16) []float64 {
	if len(mono) < envelopeWindow {
		return nil
	}
	n := (len(mono) - envelopeWindow) / envelopeHop
	if n <= 0 {
		return nil
	}

	energy := make([]float64, n)
	for i := 0; i < n; i++ {
		start := i * envelopeHop
		var sum float64
		for _, s := range mono[start : start+envelopeWindow] {
			v := float64(s) / math.MaxInt16
			sum += v * v
		}
		energy[i] = sum
	}

	flux := make([]float64, n)
	for i := 1; i < n; i++ {
		if d := energy[i] - energy[i-1]; d > 0 {
			flux[i] = d
		}
	}
	return flux
}

// bestLag returns the autocorrelation lag (in hops) with the highest score
// inside [lagMin, lagMax]. A longer lag must beat the incumbent by a clear
// margin, so near-ties between a tempo and its half resolve to the faster
// interpretation.
func bestLag(flux []float64, lagMin, lagMax int) int {
	const margin = 1.02

	best, bestScore := lagMin, math.Inf(-1)
	for lag := lagMin; lag <= lagMax; lag++ {
		var score float64
		n := len(flux) - lag
		for i := 0; i < n; i++ {
			score += flux[i] * flux[i+lag]
		}
		score /= float64(n)
		if score > bestScore*margin || (bestScore <= 0 && score > bestScore) {
			best, bestScore = lag, score
		}
	}
	return best
}

// bestPhase returns the grid offset (in hops, within one period) that
// maximizes onset energy at the grid points.
func bestPhase(flux []float64, lag int) int {
	best, bestScore := 0, math.Inf(-1)
	for phase := 0; phase < lag; phase++ {
		var score float64
		for i := phase; i < len(flux); i += lag {
			score += flux[i]
		}
		if score > bestScore {
			best, bestScore = phase, score
		}
	}
	return best
}
