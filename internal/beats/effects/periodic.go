// SPDX-License-Identifier: MIT

package effects

import "fmt"

// Remove drops every period-th beat.
type Remove struct {
	Period int `json:"period"`
}

func (e *Remove) Name() string { return "remove" }

func (e *Remove) Validate() error { return validatePeriod(e.Period) }

func (e *Remove) Apply(segments [][]int16, _ int) [][]int16 {
	out := make([][]int16, 0, len(segments))
	for i, seg := range segments {
		if isNth(i, e.Period) {
			continue
		}
		out = append(out, seg)
	}
	return out
}

// Silence replaces every period-th beat with silence of the same length.
type Silence struct {
	Period int `json:"period"`
}

func (e *Silence) Name() string { return "silence" }

func (e *Silence) Validate() error { return validatePeriod(e.Period) }

func (e *Silence) Apply(segments [][]int16, _ int) [][]int16 {
	out := make([][]int16, len(segments))
	for i, seg := range segments {
		if isNth(i, e.Period) {
			out[i] = make([]int16, len(seg))
			continue
		}
		out[i] = seg
	}
	return out
}

// Repeat plays every period-th beat Times times in a row.
type Repeat struct {
	Period int `json:"period"`
	Times  int `json:"times"`
}

func (e *Repeat) Name() string { return "repeat" }

func (e *Repeat) Validate() error {
	if err := validatePeriod(e.Period); err != nil {
		return err
	}
	if e.Times < 1 {
		return fmt.Errorf("times must be at least 1, got %d", e.Times)
	}
	return nil
}

func (e *Repeat) Apply(segments [][]int16, _ int) [][]int16 {
	out := make([][]int16, 0, len(segments))
	for i, seg := range segments {
		out = append(out, seg)
		if isNth(i, e.Period) {
			for n := 1; n < e.Times; n++ {
				out = append(out, seg)
			}
		}
	}
	return out
}

// Cut keeps one of Denominator equal pieces of every period-th beat.
type Cut struct {
	Period      int `json:"period"`
	Denominator int `json:"denominator"`
	TakeIndex   int `json:"take_index"`
}

func (e *Cut) Name() string { return "cut" }

func (e *Cut) Validate() error {
	if err := validatePeriod(e.Period); err != nil {
		return err
	}
	if e.Denominator == 0 {
		e.Denominator = 2 // halve by default
	}
	if e.Denominator < 2 {
		return fmt.Errorf("denominator must be at least 2, got %d", e.Denominator)
	}
	if e.TakeIndex < 0 || e.TakeIndex >= e.Denominator {
		return fmt.Errorf("take_index %d out of range [0, %d)", e.TakeIndex, e.Denominator)
	}
	return nil
}

func (e *Cut) Apply(segments [][]int16, channels int) [][]int16 {
	out := make([][]int16, len(segments))
	for i, seg := range segments {
		if !isNth(i, e.Period) {
			out[i] = seg
			continue
		}
		frames := len(seg) / channels
		pieceFrames := frames / e.Denominator
		start := e.TakeIndex * pieceFrames * channels
		end := start + pieceFrames*channels
		if pieceFrames == 0 {
			// Beat too short to divide; keep it whole.
			out[i] = seg
			continue
		}
		out[i] = seg[start:end]
	}
	return out
}

// Reverse plays every period-th beat backwards. Frames are reversed as
// units so channel interleaving survives.
type Reverse struct {
	Period int `json:"period"`
}

func (e *Reverse) Name() string { return "reverse" }

func (e *Reverse) Validate() error { return validatePeriod(e.Period) }

func (e *Reverse) Apply(segments [][]int16, channels int) [][]int16 {
	out := make([][]int16, len(segments))
	for i, seg := range segments {
		if !isNth(i, e.Period) {
			out[i] = seg
			continue
		}
		rev := make([]int16, len(seg))
		frames := len(seg) / channels
		for f := 0; f < frames; f++ {
			src := seg[f*channels : (f+1)*channels]
			dst := rev[(frames-1-f)*channels : (frames-f)*channels]
			copy(dst, src)
		}
		out[i] = rev
	}
	return out
}

func validatePeriod(period int) error {
	if period < 1 {
		return fmt.Errorf("period must be at least 1, got %d", period)
	}
	return nil
}
