// SPDX-License-Identifier: MIT

package effects

import (
	"fmt"
	"math/rand"
	"time"
)

// Swap exchanges every x-th beat with the corresponding y-th beat.
type Swap struct {
	XPeriod int `json:"x_period"`
	YPeriod int `json:"y_period"`
}

func (e *Swap) Name() string { return "swap" }

func (e *Swap) Validate() error {
	if e.XPeriod < 1 || e.YPeriod < 1 {
		return fmt.Errorf("periods must be at least 1, got x=%d y=%d", e.XPeriod, e.YPeriod)
	}
	if e.XPeriod == e.YPeriod {
		return fmt.Errorf("x_period and y_period must differ, got %d", e.XPeriod)
	}
	return nil
}

func (e *Swap) Apply(segments [][]int16, _ int) [][]int16 {
	out := make([][]int16, len(segments))
	copy(out, segments)

	var xs, ys []int
	for i := range out {
		// A beat on both grids stays put rather than swapping with itself.
		onX, onY := isNth(i, e.XPeriod), isNth(i, e.YPeriod)
		switch {
		case onX && onY:
		case onX:
			xs = append(xs, i)
		case onY:
			ys = append(ys, i)
		}
	}

	n := min(len(xs), len(ys))
	for k := 0; k < n; k++ {
		out[xs[k]], out[ys[k]] = out[ys[k]], out[xs[k]]
	}
	return out
}

// Randomize shuffles all beats into a random order.
type Randomize struct {
	rng *rand.Rand
}

// NewRandomize returns a Randomize driven by the given source, for
// deterministic tests.
func NewRandomize(rng *rand.Rand) *Randomize {
	return &Randomize{rng: rng}
}

func (e *Randomize) Name() string { return "randomize" }

func (e *Randomize) Apply(segments [][]int16, _ int) [][]int16 {
	out := make([][]int16, len(segments))
	copy(out, segments)

	rng := e.rng
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano())) // #nosec G404 - not used for security
	}
	rng.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}
